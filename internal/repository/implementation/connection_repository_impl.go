package implementation

import (
	"context"
	"time"

	"filechat-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const connectionKeyPrefix = "channel:connection:"

type connectionRepository struct {
	rdb *redis.Client
}

func NewConnectionRepository(rdb *redis.Client) contract.ConnectionRepository {
	return &connectionRepository{rdb: rdb}
}

func (r *connectionRepository) Save(ctx context.Context, connectionID string, ttl time.Duration) error {
	return r.rdb.Set(ctx, connectionKeyPrefix+connectionID, "1", ttl).Err()
}

func (r *connectionRepository) Exists(ctx context.Context, connectionID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, connectionKeyPrefix+connectionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
