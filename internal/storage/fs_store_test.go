package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/promptpack/internal/edits"
)

func writeFile(t *testing.T, path string, data []byte, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, data, mode); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestFSStoreReadWrite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), []byte("def f():\n    pass\n"), 0o600)

	store := NewFSStore(dir)
	ctx := context.Background()

	text, err := store.Read(ctx, "a.py")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if text != "def f():\n    pass\n" {
		t.Errorf("Got %q", text)
	}

	if err := store.Write(ctx, "a.py", "def f(): ...\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "def f(): ...\n" {
		t.Errorf("Got file content %q", got)
	}
}

func TestFSStorePreservesMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.py")
	writeFile(t, path, []byte("print(1)\n"), 0o750)

	store := NewFSStore("")
	doc := edits.NewDocID(path)
	if err := store.Write(context.Background(), doc, "print(2)\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o750 {
		t.Errorf("Got mode %v, want 0750", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Temp files left behind: %d entries", len(entries))
	}
}

func TestFSStoreBOMRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.md")
	writeFile(t, path, append([]byte{0xEF, 0xBB, 0xBF}, "# Title\n"...), 0o600)

	store := NewFSStore(dir)
	ctx := context.Background()

	text, err := store.Read(ctx, "bom.md")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if text != "# Title\n" {
		t.Errorf("BOM not stripped: %q", text)
	}
	if !store.HadBOM("bom.md") {
		t.Error("HadBOM returned false")
	}

	if err := store.Write(ctx, "bom.md", "# Other\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "\xEF\xBB\xBF# Other\n" {
		t.Errorf("BOM not restored: %q", raw)
	}
}

func TestFSStoreNotFound(t *testing.T) {
	store := NewFSStore(t.TempDir())
	_, err := store.Read(context.Background(), "missing.go")
	if !IsNotFound(err) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFSStoreRejectsBinary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "blob.py"), []byte{0xff, 0xfe, 0x00, 0x41}, 0o600)

	_, err := NewFSStore(dir).Read(context.Background(), "blob.py")
	if _, ok := err.(ErrBinary); !ok {
		t.Errorf("Expected ErrBinary, got %v", err)
	}
}

func TestFSStoreWithPatcher(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("ABCDEFGHIJ"), 0o600)

	store := NewFSStore(dir)
	p := edits.NewPatcher(store)
	if err := p.Persist(context.Background(), []edits.Edit{
		edits.Replace("a.txt", 2, 5, "X"),
		edits.Insert("a.txt", 7, "Y"),
	}); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	if string(got) != "ABXFGYHIJ" {
		t.Errorf("Got %q", got)
	}
}
