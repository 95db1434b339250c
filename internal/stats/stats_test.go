package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "stats.json")
}

func TestLoadMissingFileStartsAtZero(t *testing.T) {
	c := Load(tempPath(t))
	if got := c.Total(); got != 0 {
		t.Fatalf("Total = %d, want 0", got)
	}
}

func TestLoadExistingFile(t *testing.T) {
	path := tempPath(t)
	if err := os.WriteFile(path, []byte(`{"totalVideosDownloaded": 41}`), 0o644); err != nil {
		t.Fatal(err)
	}
	c := Load(path)
	if got := c.Total(); got != 41 {
		t.Fatalf("Total = %d, want 41", got)
	}
}

func TestLoadMalformedFileStartsAtZero(t *testing.T) {
	cases := map[string]string{
		"not json":  "garbage{",
		"negative":  `{"totalVideosDownloaded": -3}`,
		"empty":     "",
		"wrong key": `{"something": 5}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := tempPath(t)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			c := Load(path)
			if got := c.Total(); got != 0 {
				t.Fatalf("Total = %d, want 0", got)
			}
		})
	}
}

func TestIncrementPersists(t *testing.T) {
	path := tempPath(t)
	c := Load(path)

	total, err := c.Increment()
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}

	// A fresh load sees the flushed value.
	if got := Load(path).Total(); got != 1 {
		t.Fatalf("reloaded Total = %d, want 1", got)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var f struct {
		TotalVideosDownloaded int64 `json:"totalVideosDownloaded"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("stats file not valid JSON: %v", err)
	}
	if f.TotalVideosDownloaded != 1 {
		t.Fatalf("on-disk total = %d, want 1", f.TotalVideosDownloaded)
	}
}

func TestIncrementConcurrent(t *testing.T) {
	path := tempPath(t)
	c := Load(path)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Increment(); err != nil {
				t.Errorf("Increment: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := c.Total(); got != 25 {
		t.Fatalf("Total = %d, want 25", got)
	}
	if got := Load(path).Total(); got != 25 {
		t.Fatalf("reloaded Total = %d, want 25", got)
	}
}

func TestIncrementFlushFailureKeepsMemoryValue(t *testing.T) {
	// Point the counter into a directory that does not exist.
	c := Load(filepath.Join(t.TempDir(), "missing", "stats.json"))

	total, err := c.Increment()
	if err == nil {
		t.Fatal("want flush error for unwritable path")
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1 despite flush failure", total)
	}
	if got := c.Total(); got != 1 {
		t.Fatalf("Total = %d, want 1", got)
	}
}
