// Package flags implements ports.FeatureFlags on top of the "features"
// section of the service configuration.
package flags

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Static serves flags from a configuration map. Nested maps and dotted keys
// are equivalent, so {"quotes": {"push_on_add": true}} and
// {"quotes.push_on_add": "true"} both enable quotes.push_on_add. The set can
// be swapped at runtime with Update.
type Static struct {
	values atomic.Pointer[koanf.Koanf]
	logger *slog.Logger
}

// NewStatic creates a Static provider from features. A nil map disables
// every flag, leaving callers on their defaults.
func NewStatic(features map[string]any, logger *slog.Logger) (*Static, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Static{logger: logger.With(slog.String("component", "flags"))}
	if err := s.Update(features); err != nil {
		return nil, err
	}

	return s, nil
}

// Update replaces the flag set atomically.
func (s *Static) Update(features map[string]any) error {
	if features == nil {
		features = map[string]any{}
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(features, "."), nil); err != nil {
		return fmt.Errorf("loading feature flags: %w", err)
	}

	s.values.Store(k)
	s.logger.Debug("feature flags loaded", slog.Int("count", len(k.Keys())))

	return nil
}

// Keys returns every flag name currently defined.
func (s *Static) Keys() []string {
	return s.values.Load().Keys()
}

// IsEnabled implements ports.FeatureFlags. Strings are parsed with
// strconv.ParseBool; values that do not parse yield defaultValue.
func (s *Static) IsEnabled(_ context.Context, flag string, defaultValue bool) bool {
	switch v := s.values.Load().Get(flag).(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			s.invalid(flag, v)
			return defaultValue
		}

		return b
	case nil:
		return defaultValue
	default:
		s.invalid(flag, v)
		return defaultValue
	}
}

// GetString implements ports.FeatureFlags.
func (s *Static) GetString(_ context.Context, flag string, defaultValue string) string {
	switch v := s.values.Load().Get(flag).(type) {
	case string:
		return v
	case bool, int, int64, float64:
		return fmt.Sprint(v)
	default:
		return defaultValue
	}
}

// GetInt implements ports.FeatureFlags.
func (s *Static) GetInt(_ context.Context, flag string, defaultValue int) int {
	switch v := s.values.Load().Get(flag).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v != math.Trunc(v) {
			s.invalid(flag, v)
			return defaultValue
		}

		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			s.invalid(flag, v)
			return defaultValue
		}

		return n
	case nil:
		return defaultValue
	default:
		s.invalid(flag, v)
		return defaultValue
	}
}

func (s *Static) invalid(flag string, v any) {
	s.logger.Warn("ignoring malformed feature flag", slog.String("flag", flag), slog.Any("value", v))
}
