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

const pendingIndexKey = "actions:pending"

// RedisActionStore persists action records as JSON values plus a pending-id
// index list used by ListPending.
type RedisActionStore struct {
	rdb redis.Cmdable
}

func NewRedisActionStore(rdb redis.Cmdable) *RedisActionStore {
	return &RedisActionStore{rdb: rdb}
}

func (r *RedisActionStore) actionKey(id string) string {
	return fmt.Sprintf("action:%s", id)
}

func (r *RedisActionStore) Create(ctx context.Context, in model.CreateActionInput) (*model.PersistedAction, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("action id is required")
	}
	now := time.Now().UTC()
	action := &model.PersistedAction{
		ID:             in.ID,
		ConversationID: in.ConversationID,
		Type:           in.Type,
		Status:         model.StatusPending,
		Data:           in.Data,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := r.write(ctx, action); err != nil {
		return nil, err
	}
	if err := r.rdb.RPush(ctx, pendingIndexKey, action.ID).Err(); err != nil {
		logx.Error().Err(err).Str("action_id", action.ID).Msg("failed to index pending action")
		return nil, errx.WrapRedis(err)
	}
	return action, nil
}

func (r *RedisActionStore) Get(ctx context.Context, id string) (*model.PersistedAction, error) {
	raw, err := r.rdb.Get(ctx, r.actionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("action_id", id).Msg("failed to load action from redis")
		return nil, errx.WrapRedis(err)
	}
	var action model.PersistedAction
	if err := json.Unmarshal([]byte(raw), &action); err != nil {
		return nil, fmt.Errorf("unmarshal action %s: %w", id, err)
	}
	return &action, nil
}

func (r *RedisActionStore) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) error {
	action, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if action == nil {
		return fmt.Errorf("action %s not found", id)
	}

	next, err := action.Status.Transition(update.Status)
	if err != nil {
		logx.Warn().
			Str("action_id", id).
			Str("from", string(action.Status)).
			Str("to", string(update.Status)).
			Msg("rejected illegal action status transition")
		return err
	}

	action.Status = next
	if update.Result != nil {
		action.Result = update.Result
	}
	if update.Error != "" {
		action.Error = update.Error
	}
	action.UpdatedAt = time.Now().UTC()

	if err := r.write(ctx, action); err != nil {
		return err
	}
	// Once the action leaves pending it no longer belongs in the index.
	if next != model.StatusPending {
		if err := r.rdb.LRem(ctx, pendingIndexKey, 0, id).Err(); err != nil {
			logx.Warn().Err(err).Str("action_id", id).Msg("failed to remove action from pending index")
		}
	}
	return nil
}

func (r *RedisActionStore) ListPending(ctx context.Context, limit int) ([]*model.PersistedAction, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := r.rdb.LRange(ctx, pendingIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Msg("failed to list pending actions from redis")
		return nil, errx.WrapRedis(err)
	}

	actions := make([]*model.PersistedAction, 0, len(ids))
	for _, id := range ids {
		action, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if action == nil || action.Status != model.StatusPending {
			continue
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func (r *RedisActionStore) write(ctx context.Context, action *model.PersistedAction) error {
	b, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal action %s: %w", action.ID, err)
	}
	if err := r.rdb.Set(ctx, r.actionKey(action.ID), b, 0).Err(); err != nil {
		logx.Error().Err(err).Str("action_id", action.ID).Msg("failed to store action in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ActionStore = (*RedisActionStore)(nil)
