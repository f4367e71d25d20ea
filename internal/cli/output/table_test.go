package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTable_Render(t *testing.T) {
	table := &Table{Headers: []string{"PATH", "STATUS"}}
	table.AddRow("/home/u/doc.txt", "fresh")
	table.AddRow("/home/u/old.txt", "stale")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered %d lines, want 3: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "PATH") || !strings.Contains(lines[0], "STATUS") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[2], "stale") {
		t.Errorf("row line = %q", lines[2])
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatJSON)

	if err := f.Format(&buf, map[string]string{"path": "/a"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["path"] != "/a" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestNewFormatter_FallbackToTable(t *testing.T) {
	if _, ok := NewFormatter("bogus").(*TableFormatter); !ok {
		t.Error("unknown format did not fall back to table")
	}
}
