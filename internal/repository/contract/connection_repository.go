package contract

import (
	"context"
	"time"
)

// ConnectionRepository records negotiated connection ids so the channel
// endpoint can tell a freshly minted credential from a replayed one.
// Records expire on their own; nothing ever deletes them explicitly.
type ConnectionRepository interface {
	Save(ctx context.Context, connectionID string, ttl time.Duration) error
	Exists(ctx context.Context, connectionID string) (bool, error)
}
