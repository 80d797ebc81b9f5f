package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseEngine(t *testing.T) {
	tests := []struct {
		input string
		want  Engine
	}{
		{"", EngineAuto},
		{"auto", EngineAuto},
		{"bolt", EngineBolt},
		{" LevelDB ", EngineLevelDB},
		{"rocksdb", EngineRocksDB},
	}
	for _, tt := range tests {
		got, err := ParseEngine(tt.input)
		if err != nil {
			t.Fatalf("ParseEngine(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseEngine(%q): got %q, want %q", tt.input, got, tt.want)
		}
	}
	if _, err := ParseEngine("lmdb"); err == nil {
		t.Fatal("unknown engine should be rejected")
	}
}

func TestDetectBoltFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	got, err := Detect(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != EngineBolt {
		t.Fatalf("got %q, want bolt", got)
	}
}

func TestDetectLevelDBDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "CURRENT"), []byte("MANIFEST-000001\n"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := Detect(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != EngineLevelDB {
		t.Fatalf("got %q, want leveldb", got)
	}
}

func TestDetectUnrecognizedDir(t *testing.T) {
	_, err := Detect(t.TempDir())
	if !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("expected ErrUnrecognized, got %v", err)
	}
}

func TestDetectMissingPath(t *testing.T) {
	_, err := Detect("/nonexistent/dir/store")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDetectRocksDBDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"CURRENT", "OPTIONS-000007"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Detect(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != EngineRocksDB {
		t.Fatalf("got %q, want rocksdb", got)
	}
}
