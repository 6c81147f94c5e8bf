package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tinacopro/fault"
	"tinacopro/locks"
	"tinacopro/store"
	"tinacopro/validate"
)

// MaterialInput carries the master data of a raw material. OpeningStock is
// read on create only; later stock changes go through Receive and Adjust.
type MaterialInput struct {
	Code         string          `json:"code" validate:"required,max=50"`
	Name         string          `json:"name" validate:"required,max=200"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	Category     string          `json:"category" validate:"max=100"`
	OpeningStock decimal.Decimal `json:"current_stock" validate:"gte=0"`
	MinimumStock decimal.Decimal `json:"minimum_stock" validate:"gte=0"`
	UnitCost     decimal.Decimal `json:"unit_cost" validate:"gte=0"`
	IsActive     *bool           `json:"is_active"`
}

func (l *Ledger) CreateMaterial(ctx context.Context, in MaterialInput) (*store.RawMaterial, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := l.checkCode(in.Code, 0); err != nil {
		return nil, err
	}
	m := &store.RawMaterial{CurrentStock: in.OpeningStock, IsActive: true}
	in.apply(m)
	if err := l.db.CreateRawMaterial(m); err != nil {
		return nil, err
	}
	l.log.WithFields(logrus.Fields{"material": m.Code, "stock": m.CurrentStock.String()}).Info("material created")
	return m, nil
}

// UpdateMaterial rewrites a material's master data under its lock. Stock is
// re-read and kept as is.
func (l *Ledger) UpdateMaterial(ctx context.Context, id int64, in MaterialInput) (*store.RawMaterial, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	unlock, err := l.locks.Acquire(ctx, locks.MaterialKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := l.db.GetRawMaterial(id)
	if err != nil {
		return nil, err
	}
	if err := l.checkCode(in.Code, id); err != nil {
		return nil, err
	}
	in.apply(m)
	if err := l.db.UpdateRawMaterial(m); err != nil {
		return nil, fmt.Errorf("update material %d: %w", id, err)
	}
	return l.db.GetRawMaterial(id)
}

// DeleteMaterial removes a material nothing refers to. Referenced materials
// should be deactivated instead.
func (l *Ledger) DeleteMaterial(ctx context.Context, id int64) error {
	unlock, err := l.locks.Acquire(ctx, locks.MaterialKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	m, err := l.db.GetRawMaterial(id)
	if err != nil {
		return err
	}
	used, err := l.db.RawMaterialInUse(id)
	if err != nil {
		return fmt.Errorf("check material %d usage: %w", id, err)
	}
	if used {
		return &fault.InUseError{Entity: "raw material", ID: id, By: "parts or stock history"}
	}
	if err := l.db.DeleteRawMaterial(id); err != nil {
		return fmt.Errorf("delete material %d: %w", id, err)
	}
	l.log.WithField("material", m.Code).Info("material deleted")
	return nil
}

// Consumption lists the production draws booked against a material.
func (l *Ledger) Consumption(id int64) ([]*store.MaterialConsumptionLog, error) {
	if _, err := l.db.GetRawMaterial(id); err != nil {
		return nil, err
	}
	return l.db.ListConsumptionByMaterial(id)
}

// checkCode rejects a code already held by a material other than self.
func (l *Ledger) checkCode(code string, self int64) error {
	existing, err := l.db.GetRawMaterialByCode(code)
	if errors.Is(err, fault.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return &fault.ValidationError{Fields: map[string]string{"code": "unique"}}
	}
	return nil
}

func (in MaterialInput) apply(m *store.RawMaterial) {
	m.Code = in.Code
	m.Name = in.Name
	m.Unit = in.Unit
	m.Category = in.Category
	m.MinimumStock = in.MinimumStock
	m.UnitCost = in.UnitCost
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
}
