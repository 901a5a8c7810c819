package spinning

import (
	"bytes"
	"context"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestSpinning(t *testing.T) {
	var buf bytes.Buffer
	Theme = ThemeAscii
	Interval = time.Millisecond
	s := NewTo(context.Background(), &buf)
	time.Sleep(20 * time.Millisecond)
	s.Done()
	s.Done()
	out := buf.String()
	assert.Contains(t, out, "|")
	assert.Contains(t, out, "\033[?25h", "cursor restored")
}
