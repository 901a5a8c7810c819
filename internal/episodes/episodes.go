// Package episodes logs self-play matches as parquet files: one row per ply, with the
// state before the move, the move and the final outcome from the point of view of the
// side that moved.
package episodes

import (
	"github.com/janpfeifer/quoridorGo/internal/qlearning"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"os"
	"path/filepath"
)

// Schema is saved as the "schema" key of the parquet metadata.
const Schema = "quoridor_ply_v1"

// Row is a single ply of an episode.
//
// Positions and walls are absolute. WallsH and WallsV hold the wall bitboards, see WallSet.
// Value is the final outcome for the side that moved: +1 for a win, -1 for a loss and
// 0 if the episode ended without a winner.
type Row struct {
	Episode int32  `parquet:"episode"`
	Ply     int32  `parquet:"ply"`
	Side    string `parquet:"side,dict"`
	Player  string `parquet:"player,dict"`

	AIPos          []int32 `parquet:"ai_pos"`
	HumanPos       []int32 `parquet:"human_pos"`
	AIWallsLeft    int32   `parquet:"ai_walls_left"`
	HumanWallsLeft int32   `parquet:"human_walls_left"`
	WallsH         int64   `parquet:"walls_h"`
	WallsV         int64   `parquet:"walls_v"`

	Move     string  `parquet:"move,dict"`
	StateKey string  `parquet:"state_key"`
	Epsilon  float32 `parquet:"epsilon"`
	Value    float32 `parquet:"value"`
}

// NewRow returns the row of side playing m on s. Player is a free form name of the player,
// usually its configuration.
func NewRow(episode, ply int, side Side, player string, s *GameState, m Move, epsilon float32) Row {
	ws := s.WallSet()
	row := Row{
		Episode:        int32(episode),
		Ply:            int32(ply),
		Side:           side.String(),
		Player:         player,
		AIPos:          []int32{int32(s.AIPos.X()), int32(s.AIPos.Y())},
		HumanPos:       []int32{int32(s.HumanPos.X()), int32(s.HumanPos.Y())},
		AIWallsLeft:    int32(s.AIWallsLeft),
		HumanWallsLeft: int32(s.HumanWallsLeft),
		WallsH:         int64(ws.H),
		WallsV:         int64(ws.V),
		Move:           m.String(),
		Epsilon:        epsilon,
	}
	if text, err := qlearning.EncodeState(s, DefaultGoals).MarshalText(); err == nil {
		row.StateKey = string(text)
	}
	return row
}

// Writer of episode rows. Rows of an episode are buffered until its outcome is known,
// see EndEpisode.
//
// It writes to a temporary file, renamed to its final path on Close. It is not safe
// for concurrent use.
type Writer struct {
	path, tmpPath string
	file          *os.File
	writer        *parquet.GenericWriter[Row]

	pending []Row
	rows    int
}

// NewWriter creates the parquet file for path, creating its directory if needed.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, errors.New("episodes log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", path)
	}
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", tmpPath)
	}
	w := parquet.NewGenericWriter[Row](f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}))
	w.SetKeyValueMetadata("schema", Schema)
	return &Writer{path: path, tmpPath: tmpPath, file: f, writer: w}, nil
}

// Path where the file is written on Close.
func (w *Writer) Path() string { return w.path }

// Rows written so far, not including the pending ones.
func (w *Writer) Rows() int { return w.rows }

// Add a row of the current episode.
func (w *Writer) Add(row Row) {
	w.pending = append(w.pending, row)
}

// EndEpisode sets the values of the pending rows given the winner (SideInvalid if there
// was none) and writes them.
func (w *Writer) EndEpisode(winner Side) error {
	if w.writer == nil {
		return errors.New("episodes writer is closed")
	}
	defer func() { w.pending = w.pending[:0] }()
	if len(w.pending) == 0 {
		return nil
	}
	for ii := range w.pending {
		row := &w.pending[ii]
		switch {
		case winner == SideInvalid:
			row.Value = 0
		case row.Side == winner.String():
			row.Value = 1
		default:
			row.Value = -1
		}
	}
	n, err := w.writer.Write(w.pending)
	w.rows += n
	if err != nil {
		return errors.Wrapf(err, "failed to write episode to %s", w.tmpPath)
	}
	return nil
}

// Close the writer and move the file to its final path. Pending rows, of an episode
// that didn't end, are dropped. If no rows were written, no file is created.
func (w *Writer) Close() error {
	if w.writer == nil {
		return nil
	}
	if len(w.pending) > 0 {
		klog.Warningf("Dropping %d rows of an unfinished episode", len(w.pending))
		w.pending = nil
	}
	closeErr := w.writer.Close()
	w.writer = nil
	_ = w.file.Sync()
	fileErr := w.file.Close()
	w.file = nil
	if closeErr != nil {
		return errors.Wrapf(closeErr, "failed to close parquet writer for %s", w.tmpPath)
	}
	if fileErr != nil {
		return errors.Wrapf(fileErr, "failed to close %s", w.tmpPath)
	}
	if w.rows == 0 {
		_ = os.Remove(w.tmpPath)
		return nil
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		return errors.Wrapf(err, "failed to rename %s to %s", w.tmpPath, w.path)
	}
	klog.V(1).Infof("Wrote %d plies to %s", w.rows, w.path)
	return nil
}

// Read all rows of an episodes log.
func Read(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read episodes from %s", path)
	}
	return rows, nil
}
