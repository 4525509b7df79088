package lexgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lexgo/chunk"
	"github.com/hupe1980/lexgo/packsource"
)

var (
	// ErrNotFound is returned when no record matches the requested id,
	// literal, symbol or query.
	ErrNotFound = errors.New("not found")

	// ErrInvalidLimit is returned when a non-positive result limit is requested.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrUnknownDomain is returned when a query names a domain the engine
	// does not serve.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrUnknownMode is returned when a query names a mode the engine
	// does not serve.
	ErrUnknownMode = errors.New("unknown mode")
)

// translateError unifies not-found conditions under ErrNotFound so callers
// match a single sentinel regardless of which layer reported the miss.
//
// Configuration, storage and decode errors pass through untouched; their
// typed causes (manifest.ConfigError, record.StorageError, record.DecodeError)
// stay reachable via errors.As.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, packsource.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var le *chunk.LookupError
	if errors.As(err, &le) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
