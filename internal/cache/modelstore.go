package cache

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/reelsense/taste-engine/internal/domain"
	"github.com/reelsense/taste-engine/internal/neural"
)

// ModelStore persists secondary-scorer weight snapshots in redis, keyed
// by model id. Snapshots never expire; each retrain overwrites the last.
type ModelStore struct {
	client *redis.Client
}

func NewModelStore(client *redis.Client) *ModelStore {
	return &ModelStore{client: client}
}

func modelKey(modelID string) string {
	return "model:" + modelID
}

func (s *ModelStore) Save(ctx context.Context, m *neural.Model) error {
	val, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model %s: %w", m.ID, err)
	}
	if err := s.client.Set(ctx, modelKey(m.ID), val, 0).Err(); err != nil {
		return fmt.Errorf("persist model %s: %w", m.ID, err)
	}
	return nil
}

func (s *ModelStore) Load(ctx context.Context, modelID string) (*neural.Model, error) {
	val, err := s.client.Get(ctx, modelKey(modelID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrModelNotTrained
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelID, err)
	}

	m := &neural.Model{}
	if err := json.Unmarshal([]byte(val), m); err != nil {
		return nil, fmt.Errorf("unmarshal model %s: %w", modelID, err)
	}
	return m, nil
}
