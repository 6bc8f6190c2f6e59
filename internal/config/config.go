// Package config loads watchbind's settings from CLI flags and TOML files
// with CLI > local TOML > global TOML > built-in defaults precedence,
// merged per key rather than as whole-table replacement, the way
// sa6mwa-centaurx/internal/appconfig/load.go builds its viper-backed Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/watchbind/watchbind/internal/format"
	"github.com/watchbind/watchbind/internal/keymap"
	"github.com/watchbind/watchbind/internal/operation"
	"github.com/watchbind/watchbind/internal/subprocess"
	"github.com/watchbind/watchbind/internal/tui"
)

// Options is watchbind's fully resolved configuration.
type Options struct {
	Command         string
	Interval        time.Duration
	HeaderLines     int
	Timeout         time.Duration
	MaxCaptureBytes int64
	QueueSize       int

	FieldSeparator  string
	FieldSelections string

	// InitialEnv holds raw "set-env NAME -- CMD[; set-env …]" entries, run in
	// order before the first watch (spec.md §6).
	InitialEnv []string

	Style  tui.StyleConfig
	KeyMap keymap.Map

	LogPath       string
	Debug         bool
	NoUpdateCheck bool
}

// Defaults returns watchbind's built-in configuration, the bottom of the
// precedence stack.
func Defaults() Options {
	return Options{
		Interval:        2 * time.Second,
		MaxCaptureBytes: subprocess.DefaultMaxCaptureBytes,
		QueueSize:       16,
		Style:           tui.DefaultStyleConfig(),
		KeyMap:          keymap.Default(),
	}
}

// FileOptions holds only the keys a single TOML source actually set, so
// Merge can apply them without stomping keys the file left unmentioned.
// Pointer fields are nil when the key was absent from the file.
type FileOptions struct {
	Interval        *time.Duration
	HeaderLines     *int
	Timeout         *time.Duration
	MaxCaptureBytes *int64
	QueueSize       *int
	FieldSeparator  *string
	FieldSelections *string
	InitialEnv      []string
	LogPath         *string
	Debug           *bool
	NoUpdateCheck   *bool

	Style  StyleFileOptions
	KeyMap keymap.Map
}

// StyleFileOptions mirrors tui.StyleConfig with only-if-present fields.
type StyleFileOptions struct {
	CursorFG, CursorBG, CursorBoldness                                      *string
	HeaderFG, HeaderBG, HeaderBoldness                                      *string
	NonCursorNonHeaderFG, NonCursorNonHeaderBG, NonCursorNonHeaderBoldness  *string
	SelectedBG                                                              *string
}

// GlobalConfigPath resolves the global config file location: the
// WATCHBIND_CONFIG_DIR override if set, otherwise the OS default config
// directory.
func GlobalConfigPath() string {
	if dir := os.Getenv("WATCHBIND_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "config.toml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "watchbind", "config.toml")
}

// LoadFile reads one TOML config file and returns the keys it sets. A
// missing file is not an error: it returns a zero FileOptions.
func LoadFile(path string) (FileOptions, error) {
	var fo FileOptions
	if path == "" {
		return fo, nil
	}
	if _, err := os.Stat(path); err != nil {
		return fo, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fo, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if v.IsSet("interval") {
		d := v.GetDuration("interval")
		fo.Interval = &d
	}
	if v.IsSet("header_lines") {
		n := v.GetInt("header_lines")
		fo.HeaderLines = &n
	}
	if v.IsSet("timeout") {
		d := v.GetDuration("timeout")
		fo.Timeout = &d
	}
	if v.IsSet("max_capture_mib") {
		n := int64(v.GetInt("max_capture_mib")) * 1024 * 1024
		fo.MaxCaptureBytes = &n
	}
	if v.IsSet("queue_size") {
		n := v.GetInt("queue_size")
		fo.QueueSize = &n
	}
	if v.IsSet("field_separator") {
		s := v.GetString("field_separator")
		fo.FieldSeparator = &s
	}
	if v.IsSet("field_selections") {
		s := v.GetString("field_selections")
		fo.FieldSelections = &s
	}
	if v.IsSet("initial_env") {
		entries := v.GetStringSlice("initial_env")
		for _, e := range entries {
			if _, err := operation.ParseInitialEnv(e); err != nil {
				return fo, fmt.Errorf("config: %s: initial_env: %w", path, err)
			}
		}
		fo.InitialEnv = entries
	}
	if v.IsSet("log") {
		s := v.GetString("log")
		fo.LogPath = &s
	}
	if v.IsSet("debug") {
		b := v.GetBool("debug")
		fo.Debug = &b
	}
	if v.IsSet("no_update_check") {
		b := v.GetBool("no_update_check")
		fo.NoUpdateCheck = &b
	}

	fo.Style = readStyleFileOptions(v)

	if v.IsSet("keybindings") {
		km, err := keymapFromViper(v)
		if err != nil {
			return fo, fmt.Errorf("config: %s: %w", path, err)
		}
		fo.KeyMap = km
	}

	return fo, nil
}

func readStyleFileOptions(v *viper.Viper) StyleFileOptions {
	var s StyleFileOptions
	strp := func(key string) *string {
		if !v.IsSet(key) {
			return nil
		}
		val := v.GetString(key)
		return &val
	}
	s.CursorFG = strp("style.cursor_fg")
	s.CursorBG = strp("style.cursor_bg")
	s.CursorBoldness = strp("style.cursor_boldness")
	s.HeaderFG = strp("style.header_fg")
	s.HeaderBG = strp("style.header_bg")
	s.HeaderBoldness = strp("style.header_boldness")
	s.NonCursorNonHeaderFG = strp("style.non_cursor_non_header_fg")
	s.NonCursorNonHeaderBG = strp("style.non_cursor_non_header_bg")
	s.NonCursorNonHeaderBoldness = strp("style.non_cursor_non_header_boldness")
	s.SelectedBG = strp("style.selected_bg")
	return s
}

// Merge overlays fo onto opts, only touching keys fo actually set, and
// merges fo.KeyMap in (higher precedence callers call Merge later so their
// bindings overwrite, via keymap.Map.Merge's overwrite semantics).
func Merge(opts *Options, fo FileOptions) {
	if fo.Interval != nil {
		opts.Interval = *fo.Interval
	}
	if fo.HeaderLines != nil {
		opts.HeaderLines = *fo.HeaderLines
	}
	if fo.Timeout != nil {
		opts.Timeout = *fo.Timeout
	}
	if fo.MaxCaptureBytes != nil {
		opts.MaxCaptureBytes = *fo.MaxCaptureBytes
	}
	if fo.QueueSize != nil {
		opts.QueueSize = *fo.QueueSize
	}
	if fo.FieldSeparator != nil {
		opts.FieldSeparator = *fo.FieldSeparator
	}
	if fo.FieldSelections != nil {
		opts.FieldSelections = *fo.FieldSelections
	}
	if fo.InitialEnv != nil {
		opts.InitialEnv = fo.InitialEnv
	}
	if fo.LogPath != nil {
		opts.LogPath = *fo.LogPath
	}
	if fo.Debug != nil {
		opts.Debug = *fo.Debug
	}
	if fo.NoUpdateCheck != nil {
		opts.NoUpdateCheck = *fo.NoUpdateCheck
	}

	mergeStyle(&opts.Style, fo.Style)

	if fo.KeyMap != nil {
		if opts.KeyMap == nil {
			opts.KeyMap = keymap.New()
		}
		opts.KeyMap.Merge(fo.KeyMap)
	}
}

func mergeStyle(s *tui.StyleConfig, fo StyleFileOptions) {
	set := func(dst *tui.Attr, src *string) {
		if src != nil {
			*dst = tui.ParseAttr(*src)
		}
	}
	set(&s.Cursor.FG, fo.CursorFG)
	set(&s.Cursor.BG, fo.CursorBG)
	set(&s.Cursor.Boldness, fo.CursorBoldness)
	set(&s.Header.FG, fo.HeaderFG)
	set(&s.Header.BG, fo.HeaderBG)
	set(&s.Header.Boldness, fo.HeaderBoldness)
	set(&s.NonCursorNonHeader.FG, fo.NonCursorNonHeaderFG)
	set(&s.NonCursorNonHeader.BG, fo.NonCursorNonHeaderBG)
	set(&s.NonCursorNonHeader.Boldness, fo.NonCursorNonHeaderBoldness)
	set(&s.SelectedBG, fo.SelectedBG)
}

// FormatConfig builds the format.Config implied by opts' field-separator and
// field-selections settings, validating --field-selections eagerly so CLI
// errors surface before any terminal state is touched (spec.md §7.1).
func (opts Options) FormatConfig() (format.Config, error) {
	fields, err := format.ParseFieldSelections(opts.FieldSelections)
	if err != nil {
		return format.Config{}, fmt.Errorf("config: --field-selections: %w", err)
	}
	return format.Config{Separator: opts.FieldSeparator, Fields: fields}, nil
}

func keymapFromViper(v *viper.Viper) (keymap.Map, error) {
	m := keymap.New()
	raw := v.GetStringMap("keybindings")
	for key, val := range raw {
		tv, err := decodeTOMLValue(val)
		if err != nil {
			return nil, fmt.Errorf("keybindings.%s: %w", key, err)
		}
		if err := m.SetFromTOML(key, tv); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func decodeTOMLValue(val interface{}) (keymap.TOMLValue, error) {
	switch v := val.(type) {
	case string:
		return keymap.TOMLValue{Single: v}, nil
	case []interface{}:
		ops, err := stringSlice(v)
		if err != nil {
			return keymap.TOMLValue{}, err
		}
		return keymap.TOMLValue{Operations: ops}, nil
	case map[string]interface{}:
		tv := keymap.TOMLValue{}
		if d, ok := v["description"].(string); ok {
			tv.Description = d
		}
		if single, ok := v["single"].(string); ok {
			tv.Single = single
		}
		if raw, ok := v["operations"].([]interface{}); ok {
			ops, err := stringSlice(raw)
			if err != nil {
				return keymap.TOMLValue{}, err
			}
			tv.Operations = ops
		}
		return tv, nil
	default:
		return keymap.TOMLValue{}, fmt.Errorf("unsupported keybinding value type %T", val)
	}
}

func stringSlice(items []interface{}) ([]string, error) {
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string operation, got %T", item)
		}
		out[i] = s
	}
	return out, nil
}
