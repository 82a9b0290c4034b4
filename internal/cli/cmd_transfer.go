package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type importSummary struct {
	Imported int `json:"imported" yaml:"imported"`
	Skipped  int `json:"skipped"  yaml:"skipped"`
	Total    int `json:"total"    yaml:"total"`
}

func newImportCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Append quotes from a JSON array file (- reads stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("import requires exactly one FILE argument")
			}

			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return mapCommandError(err)
			}

			return withQuotes(cmd.Context(), deps, func(ctx context.Context, rt *runtime) error {
				res, err := rt.quotes.Import(ctx, data)
				if err != nil {
					return err
				}

				summary := importSummary{Imported: res.Imported, Skipped: res.Skipped, Total: rt.quotes.Len()}

				return render(deps, summary, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "imported %d, skipped %d, %d total\n",
						summary.Imported, summary.Skipped, summary.Total)
					return err
				})
			})
		},
	}
}

func newExportCommand(deps commandDeps) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every quote as an indented JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQuotes(cmd.Context(), deps, func(ctx context.Context, rt *runtime) error {
				data, err := rt.quotes.Export(ctx)
				if err != nil {
					return err
				}

				if file == "" || file == "-" {
					_, err = deps.out.Write(data)
					return err
				}

				if err := os.WriteFile(file, data, 0o600); err != nil {
					return err
				}

				_, err = fmt.Fprintf(deps.out, "exported %d quotes to %s\n", rt.quotes.Len(), file)

				return err
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Destination file (stdout when empty)")

	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(name)
}
