package qlearning

import (
	"encoding/json"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"os"
	"sync"
	"time"
)

// FileVersion of the JSON format written by Save.
const FileVersion = 1

// Metadata saved along with the Q-table.
type Metadata struct {
	Trained  bool      `json:"trained"`
	Episodes int       `json:"episodes"`
	Steps    int       `json:"steps"`
	Epsilon  float32   `json:"epsilon"`
	States   int       `json:"states"`
	SavedAt  time.Time `json:"saved_at"`

	// TrainedSource is not saved: it reports how the trained flag of a loaded table was decided.
	TrainedSource string `json:"-"`
}

type fileFormat struct {
	Version  int       `json:"version"`
	Metadata *Metadata `json:"metadata,omitempty"`
	QTable   Table     `json:"q_table"`
}

// Metadata returns the current metadata of the agent.
func (a *Agent) Metadata() Metadata {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metadataLocked()
}

func (a *Agent) metadataLocked() Metadata {
	return Metadata{
		Trained:       a.markedLocked(),
		Episodes:      a.episodes,
		Steps:         a.steps,
		Epsilon:       a.epsilon,
		States:        len(a.table),
		TrainedSource: a.trainedSource,
	}
}

// Save the Q-table to the configured file. A previous version of the file is renamed
// with a "~" suffix, once the new version is written.
func (a *Agent) Save() error {
	a.muSave.Lock()
	defer a.muSave.Unlock()

	fileName := a.cfg.FileName
	if fileName == "" {
		klog.Errorf("Q-table not saved, because no file name was specified")
		return nil
	}

	a.mu.Lock()
	metadata := a.metadataLocked()
	metadata.SavedAt = time.Now()
	data, err := json.Marshal(&fileFormat{Version: FileVersion, Metadata: &metadata, QTable: a.table})
	a.mu.Unlock()
	if err != nil {
		return errors.Wrapf(err, "failed to encode Q-table for %s", fileName)
	}

	// Write to a temporary file first: an existing table is only replaced by a complete one.
	tmpFileName := fileName + ".tmp"
	if err := os.WriteFile(tmpFileName, data, 0644); err != nil {
		_ = os.Remove(tmpFileName)
		return errors.Wrapf(err, "failed to save %s", tmpFileName)
	}

	// Keep the previous version, if it exists.
	if _, err := os.Stat(fileName); err == nil {
		err = os.Rename(fileName, fileName+"~")
		if err != nil {
			_ = os.Remove(tmpFileName)
			return errors.Wrapf(err, "failed to rename %s to %s", fileName, fileName+"~")
		}
	} else if !os.IsNotExist(err) {
		_ = os.Remove(tmpFileName)
		return errors.Wrapf(err, "failed to stat %s", fileName)
	}
	if err := os.Rename(tmpFileName, fileName); err != nil {
		return errors.Wrapf(err, "failed to rename %s to %s", tmpFileName, fileName)
	}
	klog.V(1).Infof("Saved Q-table with %d states to %s", metadata.States, fileName)
	return nil
}

// SaveIfAllowed saves the Q-table, unless the agent is in trained mode or has no file name.
// Errors are logged and not returned: a failed save must not interrupt a match.
func (a *Agent) SaveIfAllowed() {
	if a.IsTrained() || a.cfg.FileName == "" {
		return
	}
	if err := a.Save(); err != nil {
		klog.Errorf("Failed to save Q-table: %+v", err)
	}
}

// Load the Q-table from the configured file, replacing the current one.
//
// On error, the agent is left unchanged.
func (a *Agent) Load() error {
	fileName := a.cfg.FileName
	data, err := os.ReadFile(fileName)
	if err != nil {
		return errors.Wrapf(err, "failed to read Q-table from %s", fileName)
	}
	var contents fileFormat
	if err := json.Unmarshal(data, &contents); err != nil {
		return errors.Wrapf(err, "failed to parse Q-table from %s", fileName)
	}
	if contents.Version > FileVersion {
		return errors.Errorf("Q-table in %s has version %d, but only up to version %d is supported",
			fileName, contents.Version, FileVersion)
	}
	if contents.QTable == nil {
		contents.QTable = make(Table)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.table = contents.QTable
	a.trained, a.trainedSource = false, TrainedSourceNone
	switch {
	case contents.Metadata != nil && contents.Metadata.Trained:
		a.setTrainedLocked(TrainedSourceMetadata)
	case contents.Metadata == nil && len(a.table) > a.cfg.TrainedThreshold:
		// Legacy files have no metadata: large tables are taken as trained.
		a.setTrainedLocked(TrainedSourceSize)
	case contents.Metadata != nil:
		a.steps, a.episodes = contents.Metadata.Steps, contents.Metadata.Episodes
		a.updateEpsilonLocked()
	}
	klog.V(1).Infof("Loaded Q-table with %d states from %s (trained=%v %s)", len(a.table), fileName, a.trained, a.trainedSource)
	return nil
}

// Cache of agents read from disk.
var (
	cacheAgents = map[string]*Agent{}
	muCache     sync.Mutex
)

// LoadOrCreate returns the agent for cfg.FileName, loading its Q-table from disk if it exists.
// It never fails: a missing, unreadable or corrupt file yields an agent with an empty table,
// with a warning logged for the last two cases.
//
// Agents with a file name are cached, and later calls with the same file name return the
// same agent, so multiple players (e.g.: in self-play) share the same table.
// Agents without a file name are never cached.
func LoadOrCreate(cfg Config) *Agent {
	if cfg.FileName == "" {
		return New(cfg)
	}
	muCache.Lock()
	defer muCache.Unlock()
	if cached, ok := cacheAgents[cfg.FileName]; ok {
		klog.V(1).Infof("Using cache for Q-table %q", cfg.FileName)
		return cached
	}

	agent := New(cfg)
	if _, err := os.Stat(cfg.FileName); os.IsNotExist(err) {
		klog.V(1).Infof("Q-table %q not found, starting with an empty table", cfg.FileName)
	} else if err := agent.Load(); err != nil {
		klog.Warningf("Starting with an empty Q-table: %v", err)
	}
	cacheAgents[cfg.FileName] = agent
	return agent
}

// ForgetCached removes the agent of the given file name from the cache used by LoadOrCreate.
func ForgetCached(fileName string) {
	muCache.Lock()
	defer muCache.Unlock()
	delete(cacheAgents, fileName)
}
