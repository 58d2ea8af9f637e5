package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omidkh/netwatch/internal/engine"
)

// Entry is one status-history line: a timestamped summary of a cycle.
type Entry struct {
	At        time.Time `json:"at"`
	Cycles    uint64    `json:"cycles"`
	Up        int       `json:"up"`
	Down      int       `json:"down"`
	Unknown   int       `json:"unknown"`
	Successes uint64    `json:"successes"`
	Failures  uint64    `json:"failures"`
}

// Recorder appends per-cycle summaries as JSON lines to a rotated file.
// Writes are best-effort; a failing disk must never affect monitoring.
type Recorder struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

func NewRecorder(path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Recorder{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 3,
			Compress:   true,
		},
	}, nil
}

// Record writes one entry derived from the snapshot.
func (r *Recorder) Record(snap engine.Snapshot) error {
	up, down, unknown := snap.Counts()
	e := Entry{
		At:        snap.TakenAt,
		Cycles:    snap.Cycles,
		Up:        up,
		Down:      down,
		Unknown:   unknown,
		Successes: snap.Successes,
		Failures:  snap.Failures,
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = r.out.Write(b)
	return err
}

func (r *Recorder) Close() error {
	return r.out.Close()
}
