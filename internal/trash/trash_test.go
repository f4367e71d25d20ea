package trash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openBin(t *testing.T) *Bin {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "Trash"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return b
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}

func TestBin_Put(t *testing.T) {
	b := openBin(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.txt")
	writeFile(t, src, "content")

	target, err := b.Put(src)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("original path still exists after Put")
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("trashed file unreadable: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("trashed content = %q", data)
	}
	if !strings.HasPrefix(target, filepath.Join(b.Root(), "files")) {
		t.Errorf("target %q not under files/", target)
	}

	info := filepath.Join(b.Root(), "info", filepath.Base(target)+".trashinfo")
	raw, err := os.ReadFile(info)
	if err != nil {
		t.Fatalf("info record unreadable: %v", err)
	}
	if !strings.Contains(string(raw), "[Trash Info]") {
		t.Errorf("info record missing header: %q", raw)
	}
}

func TestBin_Put_Directory(t *testing.T) {
	b := openBin(t)
	dir := filepath.Join(t.TempDir(), "project")
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "nested.txt"), "x")

	target, err := b.Put(dir)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "nested.txt")); err != nil {
		t.Errorf("nested file missing after Put: %v", err)
	}
}

func TestBin_Put_NameCollision(t *testing.T) {
	b := openBin(t)
	dir := t.TempDir()

	var targets []string
	for i := 0; i < 3; i++ {
		src := filepath.Join(dir, "doc.txt")
		writeFile(t, src, "v")
		target, err := b.Put(src)
		if err != nil {
			t.Fatalf("Put() #%d error = %v", i, err)
		}
		targets = append(targets, target)
	}

	seen := map[string]bool{}
	for _, target := range targets {
		if seen[target] {
			t.Fatalf("duplicate trash target %q", target)
		}
		seen[target] = true
	}

	// Collision suffix goes before the extension.
	if base := filepath.Base(targets[1]); base != "doc.1.txt" {
		t.Errorf("second target = %q, want doc.1.txt", base)
	}
}

func TestBin_Put_MissingSource(t *testing.T) {
	b := openBin(t)

	if _, err := b.Put(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("Put() of a missing entry should fail")
	}

	// The rolled-back info record must not linger.
	entries, err := os.ReadDir(filepath.Join(b.Root(), "info"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("orphan info records left behind: %d", len(entries))
	}
}

func TestBin_Restore(t *testing.T) {
	b := openBin(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.txt")
	writeFile(t, src, "content")

	target, err := b.Put(src)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	restored, err := b.Restore(target)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored != src {
		t.Errorf("Restore() = %q, want %q", restored, src)
	}
	if data, err := os.ReadFile(src); err != nil || string(data) != "content" {
		t.Errorf("restored file = %q, %v", data, err)
	}
}

func TestOpen_CreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "deep", "Trash")
	b, err := Open(root)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, sub := range []string{"files", "info"} {
		if fi, err := os.Stat(filepath.Join(b.Root(), sub)); err != nil || !fi.IsDir() {
			t.Errorf("missing trash subdirectory %s", sub)
		}
	}
}
