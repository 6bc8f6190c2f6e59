package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/watchbind/watchbind/internal/keymap"
	"github.com/watchbind/watchbind/internal/tui"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFileMissingFileReturnsZeroValue(t *testing.T) {
	fo, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if fo.Interval != nil || fo.KeyMap != nil {
		t.Fatalf("expected a zero FileOptions for a missing file, got %+v", fo)
	}
}

func TestLoadFileEmptyPathIsANoop(t *testing.T) {
	fo, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if fo.Interval != nil {
		t.Fatalf("expected a zero FileOptions for an empty path")
	}
}

func TestLoadFileReadsScalarKeys(t *testing.T) {
	path := writeTempConfig(t, `
interval = "5s"
header_lines = 2
queue_size = 32
field_separator = ","
`)
	fo, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if fo.Interval == nil || *fo.Interval != 5*time.Second {
		t.Fatalf("Interval = %v, want 5s", fo.Interval)
	}
	if fo.HeaderLines == nil || *fo.HeaderLines != 2 {
		t.Fatalf("HeaderLines = %v, want 2", fo.HeaderLines)
	}
	if fo.QueueSize == nil || *fo.QueueSize != 32 {
		t.Fatalf("QueueSize = %v, want 32", fo.QueueSize)
	}
	if fo.FieldSeparator == nil || *fo.FieldSeparator != "," {
		t.Fatalf("FieldSeparator = %v, want \",\"", fo.FieldSeparator)
	}
}

func TestLoadFileReadsKeybindingsTable(t *testing.T) {
	path := writeTempConfig(t, `
[keybindings]
q = "exit"
r = ["reload"]

[keybindings.d]
description = "delete selection"
operations = ["exec -- rm $line"]
`)
	fo, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(fo.KeyMap) != 3 {
		t.Fatalf("len(KeyMap) = %d, want 3", len(fo.KeyMap))
	}
	chord, err := keymap.ParseKey("d")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	b, ok := fo.KeyMap.Lookup(chord)
	if !ok {
		t.Fatalf("expected a binding for \"d\"")
	}
	if b.Description != "delete selection" {
		t.Fatalf("Description = %q, want %q", b.Description, "delete selection")
	}
}

func TestLoadFileRejectsUnknownOperation(t *testing.T) {
	path := writeTempConfig(t, `
[keybindings]
q = "not-a-real-op"
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected an error for an unparseable operation")
	}
}

func TestMergeOnlyTouchesKeysTheFileSet(t *testing.T) {
	opts := Defaults()
	originalHeaderLines := opts.HeaderLines

	interval := 7 * time.Second
	Merge(&opts, FileOptions{Interval: &interval})

	if opts.Interval != interval {
		t.Fatalf("Interval = %v, want %v", opts.Interval, interval)
	}
	if opts.HeaderLines != originalHeaderLines {
		t.Fatalf("HeaderLines changed to %d despite the file not setting it", opts.HeaderLines)
	}
}

func TestMergeKeymapPreservesBindingsNotOverridden(t *testing.T) {
	opts := Defaults()
	km := keymap.New()
	if err := km.ParseBindCLI("x:cursor down 1"); err != nil {
		t.Fatalf("ParseBindCLI: %v", err)
	}
	Merge(&opts, FileOptions{KeyMap: km})

	qChord, _ := keymap.ParseKey("q")
	if _, ok := opts.KeyMap.Lookup(qChord); !ok {
		t.Fatalf("expected the default \"q\" binding to survive merging in an unrelated binding")
	}
	xChord, _ := keymap.ParseKey("x")
	if _, ok := opts.KeyMap.Lookup(xChord); !ok {
		t.Fatalf("expected the newly merged \"x\" binding to be present")
	}
}

func TestMergeLaterCallOverridesEarlierBinding(t *testing.T) {
	opts := Defaults()

	global := keymap.New()
	global.ParseBindCLI("q:reload")
	local := keymap.New()
	local.ParseBindCLI("q:exit")

	Merge(&opts, FileOptions{KeyMap: global})
	Merge(&opts, FileOptions{KeyMap: local})

	qChord, _ := keymap.ParseKey("q")
	b, _ := opts.KeyMap.Lookup(qChord)
	if got := b.Describe(); got != "exit" {
		t.Fatalf("Describe() = %q, want %q (local should win over global)", got, "exit")
	}
}

func TestMergeStyleAppliesOnlySetFields(t *testing.T) {
	opts := Defaults()
	fg := "205"
	Merge(&opts, FileOptions{Style: StyleFileOptions{CursorFG: &fg}})

	if opts.Style.Cursor.FG != tui.Attr("205") {
		t.Fatalf("Cursor.FG = %v, want 205", opts.Style.Cursor.FG)
	}
	if opts.Style.Header.FG == "" {
		t.Fatalf("Header.FG should keep its default, not be zeroed")
	}
}

func TestGlobalConfigPathHonorsEnvOverride(t *testing.T) {
	t.Setenv("WATCHBIND_CONFIG_DIR", "/tmp/watchbind-test-config")
	got := GlobalConfigPath()
	want := filepath.Join("/tmp/watchbind-test-config", "config.toml")
	if got != want {
		t.Fatalf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestFormatConfigValidatesFieldSelections(t *testing.T) {
	opts := Defaults()
	opts.FieldSelections = "not-a-range-???"
	if _, err := opts.FormatConfig(); err == nil {
		t.Fatalf("expected an error for an invalid field selection")
	}
}

func TestFormatConfigParsesValidFieldSelections(t *testing.T) {
	opts := Defaults()
	opts.FieldSeparator = ","
	opts.FieldSelections = "1,3-"
	cfg, err := opts.FormatConfig()
	if err != nil {
		t.Fatalf("FormatConfig: %v", err)
	}
	if cfg.Separator != "," || len(cfg.Fields) != 2 {
		t.Fatalf("FormatConfig() = %+v, want Separator \",\" and 2 fields", cfg)
	}
}
