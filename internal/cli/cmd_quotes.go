package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newListCommand(deps commandDeps) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List quotes with their indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("list does not accept positional arguments")
			}

			return withQuotes(cmd.Context(), deps, func(_ context.Context, rt *runtime) error {
				rows := newQuoteRows(rt.quotes.List(category))

				return render(deps, rows, func(w io.Writer) error {
					if _, err := fmt.Fprintln(w, "INDEX\tCATEGORY\tTEXT"); err != nil {
						return err
					}

					for _, r := range rows {
						if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", r.Index, r.Category, r.Text); err != nil {
							return err
						}
					}

					return nil
				})
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list this category (all or empty for every quote)")

	return cmd
}

func newAddCommand(deps commandDeps) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add TEXT",
		Short: "Add a quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("add requires exactly one TEXT argument")
			}

			return withQuotes(cmd.Context(), deps, func(ctx context.Context, rt *runtime) error {
				added, err := rt.quotes.Add(ctx, args[0], category)
				if err != nil {
					return err
				}

				return printQuote(deps, newQuoteRow(added.Index, added.Quote), "added")
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category (defaults to uncategorized)")

	return cmd
}

func newEditCommand(deps commandDeps) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "edit INDEX TEXT",
		Short: "Replace the quote at INDEX",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageErrorf("edit requires INDEX and TEXT arguments")
			}

			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			return withQuotes(cmd.Context(), deps, func(ctx context.Context, rt *runtime) error {
				q, err := rt.quotes.EditAt(ctx, index, args[1], category)
				if err != nil {
					return err
				}

				return printQuote(deps, newQuoteRow(index, q), "edited")
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category (defaults to uncategorized)")

	return cmd
}

func newRemoveCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:     "rm INDEX",
		Aliases: []string{"remove"},
		Short:   "Remove the quote at INDEX; later quotes shift down",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("rm requires exactly one INDEX argument")
			}

			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			return withQuotes(cmd.Context(), deps, func(ctx context.Context, rt *runtime) error {
				q, err := rt.quotes.RemoveAt(ctx, index)
				if err != nil {
					return err
				}

				return printQuote(deps, newQuoteRow(index, q), "removed")
			})
		},
	}
}

func newCategoriesCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List distinct categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQuotes(cmd.Context(), deps, func(_ context.Context, rt *runtime) error {
				categories := rt.quotes.Categories()

				return render(deps, categories, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, strings.Join(categories, "\n"))
					return err
				})
			})
		},
	}
}

type shownQuote struct {
	Quote  quoteRow `json:"quote"  yaml:"quote"`
	Filter string   `json:"filter" yaml:"filter"`
}

func newRandomCommand(deps commandDeps) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random quote; without --category the last filter is reused",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQuotes(cmd.Context(), deps, func(ctx context.Context, rt *runtime) error {
				pick, err := rt.quotes.ShowRandom(ctx, category)
				if err != nil {
					return err
				}

				return printShown(deps, shownQuote{Quote: newQuoteRow(-1, pick.Quote), Filter: pick.Category})
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category filter")

	return cmd
}

func newLastCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Show the quote displayed most recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQuotes(cmd.Context(), deps, func(ctx context.Context, rt *runtime) error {
				q, ok, err := rt.quotes.LastShown(ctx)
				if err != nil {
					return err
				}

				if !ok {
					return &ExitError{Code: ExitCodeNotFound, Err: fmt.Errorf("no quote has been shown yet")}
				}

				return printShown(deps, shownQuote{Quote: newQuoteRow(-1, q), Filter: rt.quotes.LastFilter(ctx)})
			})
		},
	}
}

func printQuote(deps commandDeps, row quoteRow, verb string) error {
	return render(deps, row, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s #%d [%s] %s\n", verb, row.Index, row.Category, row.Text)
		return err
	})
}

func printShown(deps commandDeps, shown shownQuote) error {
	return render(deps, shown, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%q\n(%s)\n", shown.Quote.Text, shown.Quote.Category)
		return err
	})
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, usageErrorf("INDEX must be an integer (got %q)", s)
	}

	return index, nil
}
