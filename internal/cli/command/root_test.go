package command

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}

	if app.Name != "pathmark" {
		t.Errorf("Name = %q, want %q", app.Name, "pathmark")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}

	requiredCommands := []string{"bookmark", "entry", "watch"}
	for _, name := range requiredCommands {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}

	requiredFlags := []string{"config", "data-dir", "log-level", "output"}
	for _, name := range requiredFlags {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

// writeTestConfig writes a config file that keeps every side effect
// inside dir.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`data_dir: %s
log:
  level: error
store:
  sync_writes: false
scope:
  scan_root: %s
trash:
  dir: %s
`, filepath.Join(dir, "data"), dir, filepath.Join(dir, "trash"))
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) error {
	t.Helper()
	argv := append([]string{"pathmark", "--config", cfgPath}, args...)
	return App().Run(argv)
}

func TestBookmarkAddListRemove(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	file := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(file, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run(t, cfgPath, "bookmark", "add", file); err != nil {
		t.Fatalf("bookmark add: %v", err)
	}
	if err := run(t, cfgPath, "bookmark", "list"); err != nil {
		t.Fatalf("bookmark list: %v", err)
	}
	if err := run(t, cfgPath, "bookmark", "remove", file); err != nil {
		t.Fatalf("bookmark remove: %v", err)
	}
}

func TestEntryRemoveRestore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	file := filepath.Join(dir, "doomed.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run(t, cfgPath, "entry", "rm", file); err != nil {
		t.Fatalf("entry rm: %v", err)
	}
	if _, err := os.Lstat(file); !os.IsNotExist(err) {
		t.Fatalf("entry should have left its original path, stat err = %v", err)
	}

	trashed := filepath.Join(dir, "trash", "files", "doomed.txt")
	if _, err := os.Lstat(trashed); err != nil {
		t.Fatalf("trashed entry missing: %v", err)
	}

	if err := run(t, cfgPath, "entry", "restore", trashed); err != nil {
		t.Fatalf("entry restore: %v", err)
	}
	if _, err := os.Lstat(file); err != nil {
		t.Fatalf("restored entry missing: %v", err)
	}
}
