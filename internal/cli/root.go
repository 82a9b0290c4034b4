// Package cli implements quotectl, a command line client that works on the
// same SQLite database as the quote service.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultCommandTimeout = 30 * time.Second

// BuildInfo is printed by the version command.
type BuildInfo struct {
	Version   string `json:"version"    yaml:"version"`
	Commit    string `json:"commit"     yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
}

type globalOptions struct {
	ConfigDir string
	Profile   string
	DBPath    string
	RemoteURL string
	Output    string
	Timeout   time.Duration
	Verbose   bool
}

func (g *globalOptions) timeout() time.Duration {
	if g == nil || g.Timeout <= 0 {
		return defaultCommandTimeout
	}

	return g.Timeout
}

type commandDeps struct {
	out io.Writer

	// errOut receives logs so they never mix with structured output.
	errOut  io.Writer
	globals *globalOptions
	build   BuildInfo
}

// NewRootCommand builds the quotectl command tree writing to out.
func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	globals := &globalOptions{}
	deps := commandDeps{out: out, errOut: os.Stderr, globals: globals, build: build}

	cmd := &cobra.Command{
		Use:           "quotectl",
		Short:         "Manage the quote collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch globals.Output {
			case outputTable, outputJSON, outputYAML:
				return nil
			default:
				return usageErrorf("--output must be one of table, json, yaml (got %q)", globals.Output)
			}
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&globals.ConfigDir, "config-dir", "configs", "Directory holding base.yaml and profile files")
	flags.StringVar(&globals.Profile, "profile", "", "Config profile to layer over base.yaml")
	flags.StringVar(&globals.DBPath, "db", "", "SQLite database path (overrides storage.path)")
	flags.StringVar(&globals.RemoteURL, "remote-url", "", "Remote feed base URL (overrides services.remote.base_url)")
	flags.StringVarP(&globals.Output, "output", "o", outputTable, "Output format: table, json or yaml")
	flags.DurationVar(&globals.Timeout, "timeout", defaultCommandTimeout, "Deadline for the whole command")
	flags.BoolVarP(&globals.Verbose, "verbose", "v", false, "Log at debug level to stderr")

	cmd.AddCommand(
		newVersionCommand(deps),
		newListCommand(deps),
		newAddCommand(deps),
		newEditCommand(deps),
		newRemoveCommand(deps),
		newCategoriesCommand(deps),
		newRandomCommand(deps),
		newLastCommand(deps),
		newImportCommand(deps),
		newExportCommand(deps),
		newSyncCommand(deps),
		newPushCommand(deps),
	)
	cmd.InitDefaultCompletionCmd()

	return cmd
}

func newVersionCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return render(deps, deps.build, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "version=%s commit=%s build_time=%s\n",
					deps.build.Version, deps.build.Commit, deps.build.BuildTime)
				return err
			})
		},
	}
}
