package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Stock movement types.
const (
	MovementIn         = "In"
	MovementOut        = "Out"
	MovementAdjustment = "Adjustment"
)

type MaterialConsumptionLog struct {
	ID                int64           `json:"id"`
	ProductionOrderID int64           `json:"production_order_id"`
	RawMaterialID     int64           `json:"raw_material_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	ConsumedAt        time.Time       `json:"consumed_at"`
	Notes             string          `json:"notes"`
}

type StockMovement struct {
	ID                int64           `json:"id"`
	RawMaterialID     int64           `json:"raw_material_id"`
	MovementType      string          `json:"movement_type"`
	Quantity          decimal.Decimal `json:"quantity"`
	PreviousStock     decimal.Decimal `json:"previous_stock"`
	NewStock          decimal.Decimal `json:"new_stock"`
	Reason            string          `json:"reason"`
	Reference         string          `json:"reference"`
	ProductionOrderID *int64          `json:"production_order_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// MaterialDraw is one validated line of a production depletion.
type MaterialDraw struct {
	RawMaterialID int64
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
}

// ApplyMaterialDepletion decrements every drawn material and writes one
// consumption log and one Out movement per line, all in one transaction.
// Validation is the caller's job; this only applies.
func (db *DB) ApplyMaterialDepletion(ctx context.Context, orderID int64, reference string, draws []MaterialDraw, at time.Time) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range draws {
			prev, err := db.stockTx(ctx, tx, d.RawMaterialID)
			if err != nil {
				return err
			}
			next := prev.Sub(d.Quantity)
			if _, err := tx.ExecContext(ctx, db.Q(`UPDATE raw_materials SET current_stock=?, updated_at=datetime('now','localtime') WHERE id=?`),
				next, d.RawMaterialID); err != nil {
				return fmt.Errorf("deplete material %d: %w", d.RawMaterialID, err)
			}
			total := d.Quantity.Mul(d.UnitCost)
			if _, err := tx.ExecContext(ctx, db.Q(`INSERT INTO material_consumption_logs (production_order_id, raw_material_id, quantity, unit_cost, total_cost, consumed_at, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`),
				orderID, d.RawMaterialID, d.Quantity, d.UnitCost, total, dbTime(at), "consumed by "+reference); err != nil {
				return fmt.Errorf("log consumption: %w", err)
			}
			if err := db.insertMovementTx(ctx, tx, &StockMovement{
				RawMaterialID:     d.RawMaterialID,
				MovementType:      MovementOut,
				Quantity:          d.Quantity,
				PreviousStock:     prev,
				NewStock:          next,
				Reason:            "production",
				Reference:         reference,
				ProductionOrderID: &orderID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// MoveStock applies a signed delta to one material and records the movement.
// It returns the movement as written.
func (db *DB) MoveStock(ctx context.Context, materialID int64, movementType string, delta decimal.Decimal, reason, reference string) (*StockMovement, error) {
	var mv *StockMovement
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := db.stockTx(ctx, tx, materialID)
		if err != nil {
			return err
		}
		next := prev.Add(delta)
		if _, err := tx.ExecContext(ctx, db.Q(`UPDATE raw_materials SET current_stock=?, updated_at=datetime('now','localtime') WHERE id=?`),
			next, materialID); err != nil {
			return fmt.Errorf("move stock %d: %w", materialID, err)
		}
		mv = &StockMovement{
			RawMaterialID: materialID,
			MovementType:  movementType,
			Quantity:      delta.Abs(),
			PreviousStock: prev,
			NewStock:      next,
			Reason:        reason,
			Reference:     reference,
		}
		return db.insertMovementTx(ctx, tx, mv)
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

func (db *DB) stockTx(ctx context.Context, tx *sql.Tx, materialID int64) (decimal.Decimal, error) {
	var stock decimal.Decimal
	err := tx.QueryRowContext(ctx, db.Q(`SELECT current_stock FROM raw_materials WHERE id=?`), materialID).Scan(&stock)
	if err != nil {
		return decimal.Zero, notFound(err, "raw material", materialID)
	}
	return stock, nil
}

func (db *DB) insertMovementTx(ctx context.Context, tx *sql.Tx, m *StockMovement) error {
	id, err := db.insertID(ctx, tx,
		`INSERT INTO stock_movements (raw_material_id, movement_type, quantity, previous_stock, new_stock, reason, reference, production_order_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RawMaterialID, m.MovementType, m.Quantity, m.PreviousStock, m.NewStock, m.Reason, m.Reference, nullID(m.ProductionOrderID))
	if err != nil {
		return fmt.Errorf("record stock movement: %w", err)
	}
	m.ID = id
	return nil
}

const consumptionSelectCols = `id, production_order_id, raw_material_id, quantity, unit_cost, total_cost, consumed_at, notes`

func scanConsumptionLogs(rows *sql.Rows) ([]*MaterialConsumptionLog, error) {
	var logs []*MaterialConsumptionLog
	for rows.Next() {
		var l MaterialConsumptionLog
		var consumedAt any
		if err := rows.Scan(&l.ID, &l.ProductionOrderID, &l.RawMaterialID, &l.Quantity, &l.UnitCost, &l.TotalCost, &consumedAt, &l.Notes); err != nil {
			return nil, err
		}
		l.ConsumedAt = parseTime(consumedAt)
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func (db *DB) ListConsumptionByOrder(orderID int64) ([]*MaterialConsumptionLog, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM material_consumption_logs WHERE production_order_id=? ORDER BY id`, consumptionSelectCols)), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConsumptionLogs(rows)
}

func (db *DB) ListConsumptionByMaterial(materialID int64) ([]*MaterialConsumptionLog, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM material_consumption_logs WHERE raw_material_id=? ORDER BY id`, consumptionSelectCols)), materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConsumptionLogs(rows)
}

func (db *DB) ListStockMovements(materialID int64) ([]*StockMovement, error) {
	rows, err := db.Query(db.Q(`SELECT id, raw_material_id, movement_type, quantity, previous_stock, new_stock, reason, reference, production_order_id, created_at FROM stock_movements WHERE raw_material_id=? ORDER BY id`), materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var moves []*StockMovement
	for rows.Next() {
		var m StockMovement
		var orderID sql.NullInt64
		var createdAt any
		if err := rows.Scan(&m.ID, &m.RawMaterialID, &m.MovementType, &m.Quantity, &m.PreviousStock, &m.NewStock, &m.Reason, &m.Reference, &orderID, &createdAt); err != nil {
			return nil, err
		}
		m.ProductionOrderID = idPtr(orderID)
		m.CreatedAt = parseTime(createdAt)
		moves = append(moves, &m)
	}
	return moves, rows.Err()
}
