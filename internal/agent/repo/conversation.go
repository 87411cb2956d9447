package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/convopilot-core/server/internal/agent/model"
	errx "github.com/convopilot-core/server/internal/core/error"
	logx "github.com/convopilot-core/server/pkg/logger"
)

// RedisConversationStore persists whole conversation states as JSON values.
// Writes are last-write-wins; the pipeline core does not serialize racing
// turns against the same conversation.
type RedisConversationStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationStore(rdb redis.Cmdable, ttl time.Duration) *RedisConversationStore {
	return &RedisConversationStore{rdb: rdb, ttl: ttl}
}

func (r *RedisConversationStore) conversationKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:state", conversationID)
}

func (r *RedisConversationStore) Get(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	key := r.conversationKey(conversationID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation state from redis")
		return nil, errx.WrapRedis(err)
	}

	var state model.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to unmarshal conversation state")
		return nil, fmt.Errorf("unmarshal conversation state: %w", err)
	}
	return &state, nil
}

func (r *RedisConversationStore) Put(ctx context.Context, state *model.ConversationState) error {
	if state == nil || state.ConversationID == "" {
		return fmt.Errorf("conversation state missing id")
	}
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("conversationID", state.ConversationID).Msg("failed to marshal conversation state")
		return fmt.Errorf("marshal conversation state: %w", err)
	}
	key := r.conversationKey(state.ConversationID)

	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store conversation state in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationStore) Delete(ctx context.Context, conversationID string) error {
	key := r.conversationKey(conversationID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation state from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ConversationStore = (*RedisConversationStore)(nil)
