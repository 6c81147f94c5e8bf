// Package stockcache mirrors raw-material stock levels into Redis for the
// dashboard. SQL stays authoritative: every write lands there first and the
// cache is refreshed after. Reads fall back to SQL when Redis is absent or
// failing.
package stockcache

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tinacopro/logging"
	"tinacopro/store"
)

type Cache struct {
	db    *store.DB
	redis *RedisStore
	log   logrus.FieldLogger
}

// New returns a cache over rdb. A nil client gives a cache that always reads
// from SQL.
func New(db *store.DB, rdb *redis.Client, logger logrus.FieldLogger) *Cache {
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Cache{db: db, log: logger.WithField("module", "stockcache")}
	if rdb != nil {
		c.redis = NewRedisStore(rdb)
	}
	return c
}

func (c *Cache) Enabled() bool { return c.redis != nil }

// SyncFromSQL rebuilds the cache from every active material. Called on startup.
func (c *Cache) SyncFromSQL(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.FlushAll(ctx); err != nil {
		c.log.WithError(err).Warn("flush stock cache")
	}
	materials, err := c.db.ListActiveRawMaterials()
	if err != nil {
		return err
	}
	for _, m := range materials {
		if err := c.redis.SetLevel(ctx, levelOf(m)); err != nil {
			c.log.WithError(err).WithField("material_id", m.ID).Warn("sync stock level")
		}
	}
	c.log.WithField("materials", len(materials)).Info("stock cache synced")
	return nil
}

// UpdateMaterial refreshes one material from SQL. Failures are logged only.
func (c *Cache) UpdateMaterial(ctx context.Context, materialID int64) {
	if c.redis == nil {
		return
	}
	m, err := c.db.GetRawMaterial(materialID)
	if err != nil {
		logging.LogError(c.log, "stockcache", "UpdateMaterial", "read material", materialID, err)
		return
	}
	if !m.IsActive {
		c.redis.RemoveMaterial(ctx, materialID)
		return
	}
	if err := c.redis.SetLevel(ctx, levelOf(m)); err != nil {
		logging.LogError(c.log, "stockcache", "UpdateMaterial", "write level", materialID, err)
	}
}

// RemoveMaterial drops a deleted material. Failures are logged only.
func (c *Cache) RemoveMaterial(ctx context.Context, materialID int64) {
	if c.redis == nil {
		return
	}
	if err := c.redis.RemoveMaterial(ctx, materialID); err != nil {
		logging.LogError(c.log, "stockcache", "RemoveMaterial", "delete level", materialID, err)
	}
}

// GetLevel reads one material, preferring Redis.
func (c *Cache) GetLevel(ctx context.Context, materialID int64) (*Level, error) {
	if c.redis != nil {
		lvl, err := c.redis.GetLevel(ctx, materialID)
		if err == nil && lvl != nil {
			return lvl, nil
		}
	}
	m, err := c.db.GetRawMaterial(materialID)
	if err != nil {
		return nil, err
	}
	lvl := levelOf(m)
	return &lvl, nil
}

// LowStockIDs lists materials at or below their minimum, sorted by id.
func (c *Cache) LowStockIDs(ctx context.Context) ([]int64, error) {
	if c.redis != nil {
		ids, err := c.redis.LowStockIDs(ctx)
		if err == nil {
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			return ids, nil
		}
		c.log.WithError(err).Debug("low stock from redis failed, using sql")
	}
	materials, err := c.db.ListActiveRawMaterials()
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, m := range materials {
		if m.IsLow() {
			ids = append(ids, m.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func levelOf(m *store.RawMaterial) Level {
	return Level{MaterialID: m.ID, CurrentStock: m.CurrentStock, MinimumStock: m.MinimumStock}
}
