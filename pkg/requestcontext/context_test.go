package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"medgate/pkg/domain"
)

func TestRequestContext(t *testing.T) {
	ctx := context.Background()

	t.Run("zero values when unset", func(t *testing.T) {
		assert.True(t, SessionID(ctx).IsNil())
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, ClientIP(ctx))
		assert.Empty(t, UserAgent(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("round trips injected values", func(t *testing.T) {
		sid := domain.NewSessionID()
		fixed := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)

		got := WithSessionID(ctx, sid)
		got = WithRequestID(got, "req-1")
		got = WithClientMetadata(got, "10.0.0.7", "curl/8.0")
		got = WithTime(got, fixed)

		assert.Equal(t, sid, SessionID(got))
		assert.Equal(t, "req-1", RequestID(got))
		assert.Equal(t, "10.0.0.7", ClientIP(got))
		assert.Equal(t, "curl/8.0", UserAgent(got))
		assert.Equal(t, fixed, Now(got))
	})
}
