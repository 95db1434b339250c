// Package stats implements the durable usage counter: a single JSON file
// holding the total number of successfully delivered videos. The file is
// read once at startup and rewritten wholesale after every confirmed
// delivery. A missing or corrupt file resets the counter to zero rather
// than failing startup; a crash between delivery and flush may under-count
// but never over-counts.
package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// fileFormat is the on-disk shape: { "totalVideosDownloaded": n }.
type fileFormat struct {
	TotalVideosDownloaded int64 `json:"totalVideosDownloaded"`
}

// Counter is a monotonically non-decreasing delivered-video counter backed
// by a JSON file. Safe for concurrent use; concurrent increments serialize
// on an internal mutex so flushes never interleave.
type Counter struct {
	path string

	mu    sync.Mutex
	total int64
}

// Load reads the counter from path. It never fails: a missing file starts
// at zero, and a malformed one is logged and treated the same way.
func Load(path string) *Counter {
	c := &Counter{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("reading stats file failed, starting at zero")
		}
		return c
	}

	var f fileFormat
	if err := json.Unmarshal(raw, &f); err != nil || f.TotalVideosDownloaded < 0 {
		log.Warn().Err(err).Str("path", path).Msg("stats file malformed, starting at zero")
		return c
	}
	c.total = f.TotalVideosDownloaded
	return c
}

// Total returns the current value.
func (c *Counter) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Increment bumps the total and flushes it synchronously. The in-memory
// value is bumped first: if the flush fails the counter still never moves
// backwards, and the next successful flush catches up.
func (c *Counter) Increment() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	return c.total, c.flushLocked()
}

// flushLocked rewrites the file wholesale, pretty-printed, via a temp file
// and rename so a torn write never corrupts the previous value.
func (c *Counter) flushLocked() error {
	raw, err := json.MarshalIndent(fileFormat{TotalVideosDownloaded: c.total}, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Path returns the backing file location (used by the ops status endpoint).
func (c *Counter) Path() string { return filepath.Clean(c.path) }
