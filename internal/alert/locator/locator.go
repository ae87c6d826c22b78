// Package locator provides one-shot geolocation sources for alert triggers.
package locator

import (
	"context"
	"errors"

	"medgate/internal/alert/models"
)

// ErrUnavailable is returned when no position can be determined.
var ErrUnavailable = errors.New("location unavailable")

// Func adapts a function to the engine's Locator interface.
type Func func(ctx context.Context) (models.Location, error)

func (f Func) Locate(ctx context.Context) (models.Location, error) {
	return f(ctx)
}

// Static always reports the same location.
type Static models.Location

func (s Static) Locate(ctx context.Context) (models.Location, error) {
	if err := ctx.Err(); err != nil {
		return models.Location{}, err
	}
	return models.Location(s), nil
}

// Unavailable always fails. It is the server default: without a client supplied
// position the engine uses its fallback coordinate.
type Unavailable struct{}

func (Unavailable) Locate(context.Context) (models.Location, error) {
	return models.Location{}, ErrUnavailable
}
