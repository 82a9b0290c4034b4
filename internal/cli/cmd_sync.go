package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-generator/internal/adapters/notify"
	"github.com/jsamuelsen/quote-generator/internal/app"
)

type syncSummary struct {
	CycleID      string `json:"cycle_id"               yaml:"cycle_id"`
	Fetched      int    `json:"fetched"                yaml:"fetched"`
	Inserted     int    `json:"inserted"               yaml:"inserted"`
	Updated      int    `json:"updated"                yaml:"updated"`
	Skipped      int    `json:"skipped"                yaml:"skipped"`
	Total        int    `json:"total"                  yaml:"total"`
	Notification string `json:"notification,omitempty" yaml:"notification,omitempty"`
	PersistError string `json:"persist_error,omitempty" yaml:"persist_error,omitempty"`
}

func newSyncCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation cycle against the remote feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQuotes(cmd.Context(), deps, func(ctx context.Context, rt *runtime) error {
				feed := notify.NewFeed(1)

				svc := app.NewSyncService(app.SyncConfig{
					Quotes:               rt.quotes,
					Remote:               rt.remote,
					Notifier:             notify.Multi{feed, notify.NewLog(rt.logger)},
					Flags:                rt.flags,
					Logger:               rt.logger,
					Interval:             rt.cfg.Sync.Interval,
					Timeout:              rt.cfg.Sync.Timeout,
					NotificationDuration: rt.cfg.Sync.NotificationDuration,
				})

				res, err := svc.RunOnce(ctx)
				if err != nil {
					return err
				}

				summary := syncSummary{
					CycleID:  res.CycleID,
					Fetched:  res.Fetched,
					Inserted: res.Merge.Inserted,
					Updated:  res.Merge.Updated,
					Skipped:  res.Merge.Skipped,
					Total:    rt.quotes.Len(),

					PersistError: res.PersistError,
				}

				if recent := feed.Recent(); len(recent) > 0 {
					summary.Notification = recent[len(recent)-1].Message
				}

				err = render(deps, summary, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "fetched %d: %d inserted, %d updated, %d skipped, %d total\n",
						summary.Fetched, summary.Inserted, summary.Updated, summary.Skipped, summary.Total)
					if err == nil && summary.Notification != "" {
						_, err = fmt.Fprintln(w, summary.Notification)
					}

					return err
				})
				if err != nil {
					return err
				}

				// The process exits next, so an unsaved merge is lost.
				if res.PersistError != "" {
					return asExitError(ExitCodeIO, fmt.Errorf("merged quotes were not saved: %s", res.PersistError))
				}

				return nil
			})
		},
	}
}

type pushSummary struct {
	Pushed int      `json:"pushed"           yaml:"pushed"`
	Failed int      `json:"failed"           yaml:"failed"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newPushCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Publish every local quote to the remote feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQuotes(cmd.Context(), deps, func(ctx context.Context, rt *runtime) error {
				res, err := rt.quotes.PushAll(ctx)
				if err != nil {
					return err
				}

				summary := pushSummary{Pushed: res.Pushed, Failed: res.Failed}
				for _, e := range res.Errors {
					summary.Errors = append(summary.Errors, e.Error())
				}

				err = render(deps, summary, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "pushed %d, failed %d\n", summary.Pushed, summary.Failed)
					return err
				})
				if err != nil {
					return err
				}

				if res.Failed > 0 {
					return asExitError(ExitCodeUnavailable,
						fmt.Errorf("%d of %d quotes not pushed: %w", res.Failed, res.Pushed+res.Failed, errors.Join(res.Errors...)))
				}

				return nil
			})
		},
	}
}
