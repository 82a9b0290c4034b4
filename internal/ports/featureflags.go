package ports

import (
	"context"
)

// Feature flag names evaluated by the application.
const (
	// FlagPushOnAdd publishes newly added quotes to the remote feed.
	FlagPushOnAdd = "quotes.push_on_add"

	// FlagNotifyOnEmpty emits a sync notification even when nothing changed.
	FlagNotifyOnEmpty = "sync.notify_on_empty"

	// FlagPushConcurrency bounds the number of concurrent pushes in PushAll.
	FlagPushConcurrency = "push.max_concurrency"
)

// FeatureFlags defines the contract for feature flag evaluation.
// This port allows the application to check feature enablement without
// knowing the underlying provider.
//
// Always provide default values for graceful degradation.
//
//	if flags.IsEnabled(ctx, ports.FlagPushOnAdd, false) {
//	    go s.push(ctx, q)
//	}
type FeatureFlags interface {
	// IsEnabled checks if a boolean feature flag is enabled.
	// Returns defaultValue if the flag doesn't exist or evaluation fails.
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool

	// GetString retrieves a string feature flag value.
	// Returns defaultValue if the flag doesn't exist or evaluation fails.
	GetString(ctx context.Context, flag string, defaultValue string) string

	// GetInt retrieves an integer feature flag value.
	// Returns defaultValue if the flag doesn't exist or evaluation fails.
	GetInt(ctx context.Context, flag string, defaultValue int) int
}
