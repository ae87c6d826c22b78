package guard

import "medgate/internal/session/models"

// anonymous is the session of a visitor without a token.
type anonymous struct{}

func (anonymous) Snapshot() models.Snapshot { return models.Snapshot{} }

func (anonymous) Subscribe(func(models.Snapshot)) func() { return func() {} }
