package storage

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveOpenRemove(t *testing.T) {
	s := New(t.TempDir())

	rel, n, err := s.Save(strings.NewReader("hello"), "report.pdf")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes, got %d", n)
	}
	if filepath.Ext(rel) != ".pdf" {
		t.Fatalf("original extension not kept: %q", rel)
	}
	wantPrefix := filepath.Join("documents", time.Now().Format("2006/01/02"))
	if !strings.HasPrefix(rel, wantPrefix) {
		t.Fatalf("expected dated path under %q, got %q", wantPrefix, rel)
	}

	rc, err := s.Open(rel)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil || string(data) != "hello" {
		t.Fatalf("read back %q, err %v", data, err)
	}

	if err := s.Remove(rel); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Open(rel); err == nil {
		t.Fatalf("expected open to fail after remove")
	}
	// Removing a missing blob is not an error.
	if err := s.Remove(rel); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestSaveUniqueNames(t *testing.T) {
	s := New(t.TempDir())
	a, _, err := s.Save(strings.NewReader("a"), "same.txt")
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	b, _, err := s.Save(strings.NewReader("b"), "same.txt")
	if err != nil {
		t.Fatalf("save b: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct stored names for identical uploads")
	}
}
