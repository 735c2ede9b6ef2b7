// Command scratch - run commands inside managed temporary directories.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ospiem/scratch/internal/config"
	"github.com/ospiem/scratch/internal/output"
	"github.com/ospiem/scratch/tempdir"
)

// Build information. Populated at build time via -ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var (
	configFile string
	verbose    bool
	quiet      bool
	jsonOutput bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scratch",
		Short: "Managed temporary directories",
		Long: `Scratch - create temporary directories with policy-driven cleanup.

Commands:
  run      Run a command inside a fresh scratch directory
  create   Create a scratch directory and print its path
  prune    Remove leftover scratch directories
  config   Manage configuration

Examples:
  scratch run -- make test             # Run in a scratch dir, clean up after
  scratch run --cleanup on-success -- ./flaky.sh
  dir=$(scratch create -q)             # Keep a dir for manual use
  scratch prune --older-than 24h       # Sweep old leftovers`,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only show errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(pruneCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dirFlags are the per-command overrides for scratch-directory settings.
type dirFlags struct {
	root    string
	cleanup string
	prefix  string
	keep    bool
	profile string
}

func (f *dirFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", "", "Root directory for the scratch dir")
	cmd.Flags().StringVar(&f.cleanup, "cleanup", "", "Cleanup policy: always|on-success|never")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "Directory name prefix")
	cmd.Flags().BoolVar(&f.keep, "keep", false, "Keep the directory (same as --cleanup never)")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Use named profile")
}

// dirConfig resolves config file settings and flag overrides into a
// tempdir.Config routed through out.
func (f *dirFlags) dirConfig(out *output.Output) (tempdir.Config, error) {
	cfg, err := loadConfig(f.profile)
	if err != nil {
		return tempdir.Config{}, err
	}

	tc := cfg.Tempdir(out.Sink())
	if f.root != "" {
		tc.RootPath = f.root
	}
	if f.prefix != "" {
		tc.Prefix = f.prefix
	}
	if f.cleanup != "" {
		policy, parseErr := tempdir.ParsePolicy(f.cleanup)
		if parseErr != nil {
			return tempdir.Config{}, parseErr
		}
		tc.Cleanup = policy
	}
	if f.keep {
		tc.Cleanup = tempdir.CleanupNever
	}
	if verbose && tc.Log == nil {
		tc.Log = out.Sink()
	}
	return tc, nil
}

// RunResult is the JSON shape of a run invocation.
type RunResult struct {
	Success  bool   `json:"success"`
	Path     string `json:"path"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

func runCmd() *cobra.Command {
	var flags dirFlags

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command inside a fresh scratch directory",
		Long: `Run a command with its working directory set to a fresh scratch
directory. The directory path is also exported as SCRATCH_DIR. After the
command exits, the directory is cleaned up per policy; with --cleanup
on-success, a non-zero exit keeps the directory for inspection.

Examples:
  scratch run -- make test
  scratch run --cleanup on-success -- ./build.sh
  scratch run --keep -- tar xf big.tar.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			out := getOutput()

			tc, err := flags.dirConfig(out)
			if err != nil {
				return outputError(out, err)
			}

			d, err := tempdir.New(tc)
			if err != nil {
				return outputError(out, fmt.Errorf("creating scratch dir: %w", err))
			}

			runErr := runIn(d.Path(), args)
			// the command's exit status is the scope outcome
			if cleanupErr := d.Cleanup(runErr); cleanupErr != nil {
				out.Warning("cleanup failed: %v\n", cleanupErr)
			}

			result := RunResult{
				Success:  runErr == nil,
				Path:     d.Path(),
				ExitCode: exitCode(runErr),
			}
			if runErr != nil {
				result.Error = runErr.Error()
			}
			if jsonOutput {
				_ = out.JSON(result)
			}

			if runErr != nil {
				out.Error("%v\n", runErr)
				return runErr
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// runIn executes args inside dir with SCRATCH_DIR exported and stdio
// passed through.
func runIn(dir string, args []string) error {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "SCRATCH_DIR="+dir)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// CreateResult is the JSON shape of a create invocation.
type CreateResult struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

func createCmd() *cobra.Command {
	var flags dirFlags

	cmd := &cobra.Command{
		Use:   "create [flags]",
		Short: "Create a scratch directory and print its path",
		Long: `Create a scratch directory that outlives the command and print its
absolute path, for use from shell scripts:

  dir=$(scratch create -q)

The directory is never cleaned up automatically; remove it yourself or
sweep it later with 'scratch prune'.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out := getOutput()

			tc, err := flags.dirConfig(out)
			if err != nil {
				return outputError(out, err)
			}
			// the process exits right after creating: keeping is the point
			tc.Cleanup = tempdir.CleanupNever

			d, err := tempdir.New(tc)
			if err != nil {
				return outputError(out, fmt.Errorf("creating scratch dir: %w", err))
			}

			if jsonOutput {
				return out.JSON(CreateResult{Success: true, Path: d.Path()})
			}
			fmt.Fprintln(os.Stdout, d.Path())
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.Flags().MarkHidden("cleanup")
	_ = cmd.Flags().MarkHidden("keep")
	return cmd
}

// PruneResult is the JSON shape of a prune invocation.
type PruneResult struct {
	Success bool     `json:"success"`
	Root    string   `json:"root"`
	Removed []string `json:"removed"`
	Failed  []string `json:"failed,omitempty"`
}

func pruneCmd() *cobra.Command {
	var (
		root      string
		prefix    string
		profile   string
		olderThan time.Duration
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "prune [flags]",
		Short: "Remove leftover scratch directories",
		Long: `Remove scratch directories left under the root by 'scratch create',
--keep runs, or kept on-success failures. Only directories whose names
match the scratch naming scheme (<prefix>_<timestamp>_<random>) are
touched; the embedded timestamp drives --older-than.

Examples:
  scratch prune                    # Remove all leftovers
  scratch prune --older-than 24h   # Only ones older than a day
  scratch prune --dry-run          # Preview`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out := getOutput()

			cfg, err := loadConfig(profile)
			if err != nil {
				return outputError(out, err)
			}

			pruneRoot := cfg.Scratch.RootPath
			if root != "" {
				pruneRoot = root
			}
			if pruneRoot == "" {
				pruneRoot = os.TempDir()
			}
			prunePrefix := cfg.Scratch.Prefix
			if prefix != "" {
				prunePrefix = prefix
			}

			result, err := prune(pruneRoot, prunePrefix, olderThan, dryRun, out)
			if err != nil {
				return outputError(out, err)
			}

			if jsonOutput {
				return out.JSON(result)
			}
			if len(result.Removed) == 0 {
				out.Print("Nothing to prune in %s\n", pruneRoot)
			} else if dryRun {
				out.Print("Would remove %d directories\n", len(result.Removed))
			} else {
				out.Success("Removed %d directories\n", len(result.Removed))
			}
			if len(result.Failed) > 0 {
				return outputError(out, fmt.Errorf("failed to remove %d directories", len(result.Failed)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Root directory to sweep")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Directory name prefix to match")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Use named profile")
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove directories older than this (e.g. 24h)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without removing")

	return cmd
}

func prune(root, prefix string, olderThan time.Duration, dryRun bool, out *output.Output) (*PruneResult, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading root directory: %w", err)
	}

	namePattern, err := regexp.Compile("^" + regexp.QuoteMeta(prefix) + `_(\d+)_\d{5}$`)
	if err != nil {
		return nil, fmt.Errorf("bad prefix: %w", err)
	}
	cutoff := time.Now().Add(-olderThan).UnixMilli()

	result := &PruneResult{Success: true, Root: root, Removed: []string{}}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := namePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		var createdMilli int64
		if _, scanErr := fmt.Sscanf(m[1], "%d", &createdMilli); scanErr != nil {
			continue
		}
		if createdMilli > cutoff {
			continue
		}

		full := filepath.Join(root, entry.Name())
		if dryRun {
			out.Print("would remove %s\n", full)
			result.Removed = append(result.Removed, full)
			continue
		}
		if rmErr := os.RemoveAll(full); rmErr != nil {
			out.Warning("removing %s: %v\n", full, rmErr)
			result.Failed = append(result.Failed, full)
			result.Success = false
			continue
		}
		out.Verbose("removed %s\n", full)
		result.Removed = append(result.Removed, full)
	}

	sort.Strings(result.Removed)
	return result, nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configValidateCmd())

	return cmd
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create sample config file",
		RunE: func(_ *cobra.Command, _ []string) error {
			out := getOutput()

			cfgPath := configFile
			if cfgPath == "" {
				cfgPath = config.DefaultConfigPath()
			}
			if cfgPath == "" {
				return outputError(out, errors.New("cannot determine config path"))
			}

			dir := filepath.Dir(cfgPath)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return outputError(out, fmt.Errorf("creating config directory: %w", err))
			}

			if _, err := os.Stat(cfgPath); err == nil {
				return outputError(out, fmt.Errorf("config file already exists: %s", cfgPath))
			}

			if err := os.WriteFile(cfgPath, []byte(sampleConfig), 0600); err != nil {
				return outputError(out, fmt.Errorf("writing config: %w", err))
			}

			out.Success("Created config file: %s\n", cfgPath)
			return nil
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate config file",
		RunE: func(_ *cobra.Command, _ []string) error {
			out := getOutput()

			cfgPath := configFile
			if cfgPath == "" {
				cfgPath = config.DefaultConfigPath()
			}
			if cfgPath == "" {
				return outputError(out, errors.New("cannot determine config path"))
			}

			if _, err := os.Stat(cfgPath); err != nil {
				if os.IsNotExist(err) {
					return outputError(out, fmt.Errorf("config file not found: %s", cfgPath))
				}
				return outputError(out, fmt.Errorf("reading config: %w", err))
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return outputError(out, err)
			}

			if err = validateConfig(cfg); err != nil {
				return outputError(out, err)
			}

			out.Success("Config OK: %s\n", cfgPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("scratch %s\n", version)
			fmt.Printf("  commit:  %s\n", commit)
			fmt.Printf("  built:   %s\n", buildDate)
			fmt.Printf("  go:      %s\n", runtime.Version())
			fmt.Printf("  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func getOutput() *output.Output {
	mode := output.ModeNormal
	if quiet {
		mode = output.ModeQuiet
	} else if jsonOutput {
		mode = output.ModeJSON
	}
	return output.New(mode, verbose)
}

func loadConfig(profile string) (*config.Config, error) {
	cfgPath := configFile
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}
	return config.LoadWithProfile(cfgPath, profile)
}

func outputError(out *output.Output, err error) error {
	if jsonOutput {
		_ = out.JSON(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	} else {
		out.Error("%v\n", err)
	}
	return err
}

func validateConfig(cfg *config.Config) error {
	var issues []string

	if _, err := tempdir.ParsePolicy(cfg.Scratch.Cleanup); err != nil {
		issues = append(issues, err.Error())
	}

	if strings.TrimSpace(cfg.Scratch.Prefix) == "" {
		issues = append(issues, "scratch.prefix must not be empty")
	}

	if root := strings.TrimSpace(cfg.Scratch.RootPath); root != "" {
		parentDir := filepath.Dir(root)
		if info, err := os.Stat(parentDir); err != nil {
			if os.IsNotExist(err) {
				issues = append(issues, fmt.Sprintf("scratch.root_path parent does not exist: %s", parentDir))
			}
		} else if !info.IsDir() {
			issues = append(issues, fmt.Sprintf("scratch.root_path parent is not a directory: %s", parentDir))
		}
	}

	for name, profile := range cfg.Profiles {
		if profile.Cleanup == "" {
			continue
		}
		if _, err := tempdir.ParsePolicy(profile.Cleanup); err != nil {
			issues = append(issues, fmt.Sprintf("profile.%s: %v", name, err))
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(issues, "\n- "))
}

const sampleConfig = `# scratch configuration

[scratch]
# Root directory for new scratch dirs. Empty means the system temp root.
root_path = ""
# Cleanup policy: always | on-success | never
cleanup = "always"
# Directory name prefix
prefix = "temp_dir"
# Emit lifecycle log lines (create/remove/keep)
logging = false

# Named profiles override the defaults, e.g. scratch run -p ci -- make test
#
# [profile.ci]
# cleanup = "never"
# prefix = "ci"
# logging = true
`
