package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDataDir(t *testing.T) {
	d, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if filepath.Base(d) != ".tvrel" {
		t.Fatalf("expected .tvrel dir, got %s", d)
	}
}

func TestDBPath(t *testing.T) {
	p, err := DBPath()
	if err != nil {
		t.Fatalf("DBPath failed: %v", err)
	}
	if !strings.HasSuffix(p, filepath.Join(".tvrel", "tvrel.db")) {
		t.Fatalf("unexpected db path: %s", p)
	}
}
