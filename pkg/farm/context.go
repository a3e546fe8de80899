package farm

import (
	"context"
	"errors"
)

// contextKey is a private type for context keys to prevent collisions
type contextKey string

const farmIDKey contextKey = "farm_id"

var (
	// ErrNoFarmInContext is returned when the farm scope is missing
	ErrNoFarmInContext = errors.New("no farm in context")
)

// WithFarmID returns a context scoped to the given farm.
// Every repository call is resolved against exactly one farm; callers
// (the excluded HTTP/CLI layers) attach the scope before calling in.
func WithFarmID(ctx context.Context, farmID string) context.Context {
	return context.WithValue(ctx, farmIDKey, farmID)
}

// FarmID extracts the farm ID from context.
// Returns ErrNoFarmInContext if the scope is not set.
func FarmID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(farmIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoFarmInContext
	}
	return id, nil
}

// MustFarmID extracts the farm ID from context and panics if not found.
// Use only where a missing farm scope is a programming error.
func MustFarmID(ctx context.Context) string {
	id, err := FarmID(ctx)
	if err != nil {
		panic("farm ID not found in context")
	}
	return id
}
