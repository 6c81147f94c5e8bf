package stockcache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func stockKey(materialID int64) string {
	return fmt.Sprintf("tinacopro:material:%d:stock", materialID)
}

func minKey(materialID int64) string {
	return fmt.Sprintf("tinacopro:material:%d:min", materialID)
}

const (
	allMaterialsKey = "tinacopro:materials"
	lowStockKey     = "tinacopro:lowstock"
)

// SetLevel writes a material's stock and minimum and keeps its membership in
// the low-stock set current.
func (r *RedisStore) SetLevel(ctx context.Context, lvl Level) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, stockKey(lvl.MaterialID), lvl.CurrentStock.String(), 0)
	pipe.Set(ctx, minKey(lvl.MaterialID), lvl.MinimumStock.String(), 0)
	pipe.SAdd(ctx, allMaterialsKey, lvl.MaterialID)
	if lvl.Low() {
		pipe.SAdd(ctx, lowStockKey, lvl.MaterialID)
	} else {
		pipe.SRem(ctx, lowStockKey, lvl.MaterialID)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetLevel returns nil without error when the material is not cached.
func (r *RedisStore) GetLevel(ctx context.Context, materialID int64) (*Level, error) {
	vals, err := r.client.MGet(ctx, stockKey(materialID), minKey(materialID)).Result()
	if err != nil {
		return nil, err
	}
	stock, ok1 := vals[0].(string)
	minimum, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return nil, nil
	}
	lvl := &Level{MaterialID: materialID}
	if lvl.CurrentStock, err = decimal.NewFromString(stock); err != nil {
		return nil, fmt.Errorf("stock for material %d: %w", materialID, err)
	}
	if lvl.MinimumStock, err = decimal.NewFromString(minimum); err != nil {
		return nil, fmt.Errorf("minimum for material %d: %w", materialID, err)
	}
	return lvl, nil
}

func (r *RedisStore) LowStockIDs(ctx context.Context) ([]int64, error) {
	return r.members(ctx, lowStockKey)
}

func (r *RedisStore) MaterialIDs(ctx context.Context) ([]int64, error) {
	return r.members(ctx, allMaterialsKey)
}

func (r *RedisStore) members(ctx context.Context, key string) ([]int64, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *RedisStore) RemoveMaterial(ctx context.Context, materialID int64) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, stockKey(materialID), minKey(materialID))
	pipe.SRem(ctx, allMaterialsKey, materialID)
	pipe.SRem(ctx, lowStockKey, materialID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) FlushAll(ctx context.Context) error {
	ids, err := r.MaterialIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		r.RemoveMaterial(ctx, id)
	}
	return r.client.Del(ctx, allMaterialsKey, lowStockKey).Err()
}
