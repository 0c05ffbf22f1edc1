package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zzmio78/wrdrv/internal/execx"
)

// DefaultScanDelay is the fixed pause between scan loops.
const DefaultScanDelay = 300 * time.Millisecond

// Recorder receives one loop's parse output for persistence.
type Recorder interface {
	RecordLoop(ctx context.Context, loop int, records []AccessPoint) error
}

// Publisher receives ranked snapshots at loop boundaries, e.g. for a status
// API.
type Publisher interface {
	Publish(loop int, ranked []RankedAP)
}

// Session drives repeated scans against one interface. It is strictly
// sequential: scan, merge, persist, pause, repeat. Cancellation returns
// whatever partial registry has accumulated, whether the interrupt lands
// between loops or while the scan tool is blocking; any other scan failure
// is fatal to the whole session.
type Session struct {
	Scanner *Scanner
	Logger  execx.Logger

	Loops   int           // loop count; ignored when NoStop is set
	NoStop  bool          // scan until canceled
	Reverse bool          // reverse the display order of snapshots
	Delay   time.Duration // inter-scan pause; DefaultScanDelay when zero

	Output    string    // JSONL snapshot file; empty disables
	Recorder  Recorder  // optional persistence hook
	Publisher Publisher // optional snapshot hook
}

// snapshotRecord is one JSONL line written per completed loop.
type snapshotRecord struct {
	Timestamp time.Time  `json:"timestamp"`
	Loop      int        `json:"loop"`
	Results   []RankedAP `json:"results"`
}

// Run executes the session and returns the accumulated registry. On
// cancellation the partial registry is returned with a nil error; only a
// failed scan or a broken output file aborts with an error.
func (s *Session) Run(ctx context.Context) (*Registry, error) {
	delay := s.Delay
	if delay == 0 {
		delay = DefaultScanDelay
	}

	var out *os.File
	if s.Output != "" {
		path, err := UniqueFilename(s.Output)
		if err != nil {
			return s.Scanner.Registry(), err
		}
		out, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return s.Scanner.Registry(), fmt.Errorf("failed to open output file: %w", err)
		}
		defer out.Close()
		s.Logger.Infof("Writing scan snapshots to %s", path)
	}

	for loop := 1; s.NoStop || loop <= s.Loops; loop++ {
		if ctx.Err() != nil {
			s.Logger.Infof("Scan interrupted, returning %d accumulated APs", s.Scanner.Registry().Len())
			return s.Scanner.Registry(), nil
		}

		records, err := s.Scanner.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.Logger.Infof("Scan interrupted, returning %d accumulated APs", s.Scanner.Registry().Len())
				return s.Scanner.Registry(), nil
			}
			return s.Scanner.Registry(), err
		}

		ranked := s.Scanner.Registry().Ranked(s.Reverse)

		if out != nil {
			line, err := json.Marshal(snapshotRecord{
				Timestamp: time.Now(),
				Loop:      loop,
				Results:   ranked,
			})
			if err != nil {
				return s.Scanner.Registry(), fmt.Errorf("failed to encode snapshot: %w", err)
			}
			if _, err := out.Write(append(line, '\n')); err != nil {
				return s.Scanner.Registry(), fmt.Errorf("failed to write snapshot: %w", err)
			}
		}

		if s.Recorder != nil {
			if err := s.Recorder.RecordLoop(ctx, loop, records); err != nil {
				// Persistence is advisory; the scan itself succeeded.
				s.Logger.Errorf("Failed to persist loop %d: %v", loop, err)
			}
		}

		if s.Publisher != nil {
			s.Publisher.Publish(loop, ranked)
		}

		select {
		case <-ctx.Done():
			s.Logger.Infof("Scan interrupted, returning %d accumulated APs", s.Scanner.Registry().Len())
			return s.Scanner.Registry(), nil
		case <-time.After(delay):
		}
	}

	return s.Scanner.Registry(), nil
}

// UniqueFilename returns base unchanged if it does not exist yet, otherwise
// the first base_1, base_2, ... that is free, keeping the extension.
func UniqueFilename(base string) (string, error) {
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base, nil
	} else if err != nil {
		return "", err
	}

	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", name, counter, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
}
