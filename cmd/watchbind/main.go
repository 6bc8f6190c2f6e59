package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/logx"
	"github.com/watchbind/watchbind/internal/operation"
	"github.com/watchbind/watchbind/internal/terminal"
	"github.com/watchbind/watchbind/internal/tui"
	"github.com/watchbind/watchbind/internal/update"
)

var version = "0.1.0"

// configError marks an error as a config/parse failure (spec.md §6, §7.1):
// bad flags, bad TOML, an invalid --initial-env/--bind. main exits 2 for
// these and 1 for every other error (for example a --log file that cannot
// be opened, or an error out of host.Run).
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func wrapConfigErr(err error) error {
	if err == nil {
		return nil
	}
	return &configError{err: err}
}

var rootCmd = &cobra.Command{
	Use:   "watchbind [flags] -- command [args...]",
	Short: "Turn any shell command into an interactive, keybound terminal UI",
	Long: `Watchbind re-runs a shell command on a timer, renders its output as a
scrollable, selectable list, and dispatches keybindings against the
current selection: cursor movement, reload, spawning subprocesses with
$line/$lines in their environment, and more.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE:          runWatch,
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade watchbind to the latest version",
	Long:  `Downloads and installs the latest release in place of the running binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Current version: %s\n", version)
		fmt.Println("Checking for updates...")
		if err := update.Update(version); err != nil {
			return fmt.Errorf("upgrade: %w", err)
		}
		fmt.Println("Upgraded successfully.")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the watchbind version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version)
		if !noUpdateCheckFlag(cmd) {
			if notice := update.CheckPeriodically(version); notice != "" {
				fmt.Println(notice)
			}
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate watchbind's configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the merged configuration without starting the TUI",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveOptions(cmd, args)
		if err != nil {
			return err
		}
		if _, err := opts.FormatConfig(); err != nil {
			return wrapConfigErr(err)
		}
		fmt.Printf("config OK: %d keybindings, interval %s, queue size %d\n",
			len(opts.KeyMap), opts.Interval, opts.QueueSize)
		return nil
	},
}

func noUpdateCheckFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("no-update-check")
	return v
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Duration("interval", 0, "how often to re-run the watched command (default 2s)")
	flags.Int("header-lines", 0, "number of leading output lines to treat as a fixed header")
	flags.Duration("timeout", 0, "kill the watched command if it runs longer than this")
	flags.Int64("max-capture-mib", 0, "cap a blocking exec operation's captured stdout, in MiB")
	flags.Int("queue-size", 0, "bound on queued keybinding sequences awaiting execution")
	flags.String("field-separator", "", "split each line on this separator before field selection")
	flags.String("field-selections", "", "comma-separated 1-based field ranges to display, e.g. \"1,3-4,6-\"")
	flags.StringArray("bind", nil, "KEY:OP[+OP]*[,KEY:OP...]* keybinding, repeatable")
	flags.StringArray("initial-env", nil, `set-env NAME -- CMD["; set-env ..."] run once at startup, repeatable`)
	flags.String("local-config-file", "", "path to a local TOML config file")

	flags.String("cursor-fg", "", "cursor row foreground: unspecified|reset|<color>")
	flags.String("cursor-bg", "", "cursor row background: unspecified|reset|<color>")
	flags.String("cursor-boldness", "", "cursor row boldness: unspecified|reset|true|false")
	flags.String("header-fg", "", "header row foreground: unspecified|reset|<color>")
	flags.String("header-bg", "", "header row background: unspecified|reset|<color>")
	flags.String("header-boldness", "", "header row boldness: unspecified|reset|true|false")
	flags.String("non-cursor-non-header-fg", "", "body row foreground: unspecified|reset|<color>")
	flags.String("non-cursor-non-header-bg", "", "body row background: unspecified|reset|<color>")
	flags.String("non-cursor-non-header-boldness", "", "body row boldness: unspecified|reset|true|false")
	flags.String("selected-bg", "", "selected-row background overlay: unspecified|reset|<color>")

	flags.String("log", "", "write structured logs to this file (default: no logging)")
	flags.Bool("debug", false, "enable debug-level logging (requires --log)")
	flags.Bool("no-update-check", false, "skip the once-per-day update check")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// resolveOptions builds the fully merged config.Options for one invocation:
// built-in defaults, then the global TOML file, then the local TOML file,
// then whichever CLI flags the user actually set, in ascending precedence
// (spec.md §4.12a). Every error path here is a config/parse failure
// (spec.md §6, §7.1), so all of them are wrapped as a *configError.
func resolveOptions(cmd *cobra.Command, args []string) (config.Options, error) {
	opts := config.Defaults()

	globalFO, err := config.LoadFile(config.GlobalConfigPath())
	if err != nil {
		return opts, wrapConfigErr(err)
	}
	config.Merge(&opts, globalFO)

	flags := cmd.Flags()
	localPath, _ := flags.GetString("local-config-file")
	localFO, err := config.LoadFile(localPath)
	if err != nil {
		return opts, wrapConfigErr(err)
	}
	config.Merge(&opts, localFO)

	if len(args) > 0 {
		opts.Command = joinArgs(args)
	}
	if err := applyCLIFlags(&opts, flags); err != nil {
		return opts, wrapConfigErr(err)
	}

	return opts, nil
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}

// applyCLIFlags overlays only the flags the user explicitly set, the top of
// the precedence stack.
func applyCLIFlags(opts *config.Options, flags *pflag.FlagSet) error {
	if flags.Changed("interval") {
		opts.Interval, _ = flags.GetDuration("interval")
	}
	if flags.Changed("header-lines") {
		opts.HeaderLines, _ = flags.GetInt("header-lines")
	}
	if flags.Changed("timeout") {
		opts.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("max-capture-mib") {
		mib, _ := flags.GetInt64("max-capture-mib")
		opts.MaxCaptureBytes = mib * 1024 * 1024
	}
	if flags.Changed("queue-size") {
		opts.QueueSize, _ = flags.GetInt("queue-size")
	}
	if flags.Changed("field-separator") {
		opts.FieldSeparator, _ = flags.GetString("field-separator")
	}
	if flags.Changed("field-selections") {
		opts.FieldSelections, _ = flags.GetString("field-selections")
	}
	if flags.Changed("log") {
		opts.LogPath, _ = flags.GetString("log")
	}
	if flags.Changed("debug") {
		opts.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("no-update-check") {
		opts.NoUpdateCheck, _ = flags.GetBool("no-update-check")
	}

	if flags.Changed("initial-env") {
		entries, _ := flags.GetStringArray("initial-env")
		for _, e := range entries {
			if _, err := operation.ParseInitialEnv(e); err != nil {
				return fmt.Errorf("--initial-env: %w", err)
			}
			opts.InitialEnv = append(opts.InitialEnv, e)
		}
	}

	applyStyleFlags(opts, flags)

	if flags.Changed("bind") {
		binds, _ := flags.GetStringArray("bind")
		for _, b := range binds {
			if err := opts.KeyMap.ParseBindCLI(b); err != nil {
				return fmt.Errorf("--bind: %w", err)
			}
		}
	}

	return nil
}

func applyStyleFlags(opts *config.Options, flags *pflag.FlagSet) {
	style := &opts.Style
	applyAttr := func(dst *tui.Attr, flag string) {
		if flags.Changed(flag) {
			v, _ := flags.GetString(flag)
			*dst = tui.ParseAttr(v)
		}
	}
	applyAttr(&style.Cursor.FG, "cursor-fg")
	applyAttr(&style.Cursor.BG, "cursor-bg")
	applyAttr(&style.Cursor.Boldness, "cursor-boldness")
	applyAttr(&style.Header.FG, "header-fg")
	applyAttr(&style.Header.BG, "header-bg")
	applyAttr(&style.Header.Boldness, "header-boldness")
	applyAttr(&style.NonCursorNonHeader.FG, "non-cursor-non-header-fg")
	applyAttr(&style.NonCursorNonHeader.BG, "non-cursor-non-header-bg")
	applyAttr(&style.NonCursorNonHeader.Boldness, "non-cursor-non-header-boldness")
	applyAttr(&style.SelectedBG, "selected-bg")
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd, args)
	if err != nil {
		return err
	}
	if opts.Command == "" {
		return wrapConfigErr(fmt.Errorf("watchbind: no command given, try: watchbind -- <command>"))
	}

	closer, err := logx.Setup(logx.Options{Path: opts.LogPath, Debug: opts.Debug})
	if err != nil {
		return fmt.Errorf("watchbind: opening log file: %w", err)
	}
	defer closer()

	fmtCfg, err := opts.FormatConfig()
	if err != nil {
		return wrapConfigErr(err)
	}

	if !opts.NoUpdateCheck {
		if notice := update.CheckPeriodically(version); notice != "" {
			fmt.Fprintln(os.Stderr, notice)
		}
	}

	model := tui.New(tui.Config{
		Command:         opts.Command,
		Interval:        opts.Interval,
		HeaderLines:     opts.HeaderLines,
		Timeout:         opts.Timeout,
		MaxCaptureBytes: opts.MaxCaptureBytes,
		QueueSize:       opts.QueueSize,
		InitialEnv:      opts.InitialEnv,
		KeyMap:          opts.KeyMap,
		Format:          fmtCfg,
		Style:           opts.Style,
	})

	host := terminal.Host{AltScreen: true}
	return host.Run(model)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var cfgErr *configError
		if errors.As(err, &cfgErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
