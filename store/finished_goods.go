package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type FinishedGood struct {
	ID                 int64           `json:"id"`
	ProductID          int64           `json:"product_id"`
	ProductionOrderID  int64           `json:"production_order_id"`
	TemplateID         *int64          `json:"template_id,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	ProductionDate     time.Time       `json:"production_date"`
	BatchNumber        string          `json:"batch_number"`
	Notes              string          `json:"notes"`
	ActualMaterialCost decimal.Decimal `json:"actual_material_cost"`
	ActualLaborCost    decimal.Decimal `json:"actual_labor_cost"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// BatchDraw is the quantity taken from one finished-goods batch.
type BatchDraw struct {
	FinishedGoodID int64
	Quantity       decimal.Decimal
}

const finishedGoodSelectCols = `id, product_id, production_order_id, template_id, quantity, current_stock, production_date, batch_number, notes, actual_material_cost, actual_labor_cost, created_at, updated_at`

func scanFinishedGood(row interface{ Scan(...any) error }) (*FinishedGood, error) {
	var fg FinishedGood
	var templateID sql.NullInt64
	var productionDate, createdAt, updatedAt any
	err := row.Scan(&fg.ID, &fg.ProductID, &fg.ProductionOrderID, &templateID, &fg.Quantity, &fg.CurrentStock,
		&productionDate, &fg.BatchNumber, &fg.Notes, &fg.ActualMaterialCost, &fg.ActualLaborCost, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	fg.TemplateID = idPtr(templateID)
	fg.ProductionDate = parseTime(productionDate)
	fg.CreatedAt = parseTime(createdAt)
	fg.UpdatedAt = parseTime(updatedAt)
	return &fg, nil
}

func scanFinishedGoods(rows *sql.Rows) ([]*FinishedGood, error) {
	var goods []*FinishedGood
	for rows.Next() {
		fg, err := scanFinishedGood(rows)
		if err != nil {
			return nil, err
		}
		goods = append(goods, fg)
	}
	return goods, rows.Err()
}

func (db *DB) CreateFinishedGood(fg *FinishedGood) error {
	id, err := db.insertID(context.Background(), db.DB,
		`INSERT INTO finished_goods (product_id, production_order_id, template_id, quantity, current_stock, production_date, batch_number, notes, actual_material_cost, actual_labor_cost) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fg.ProductID, fg.ProductionOrderID, nullID(fg.TemplateID), fg.Quantity, fg.CurrentStock,
		dbTime(fg.ProductionDate), fg.BatchNumber, fg.Notes, fg.ActualMaterialCost, fg.ActualLaborCost)
	if err != nil {
		return fmt.Errorf("create finished good: %w", err)
	}
	fg.ID = id
	return nil
}

func (db *DB) GetFinishedGood(id int64) (*FinishedGood, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM finished_goods WHERE id=?`, finishedGoodSelectCols)), id)
	fg, err := scanFinishedGood(row)
	if err != nil {
		return nil, notFound(err, "finished good", id)
	}
	return fg, nil
}

func (db *DB) ListFinishedGoods() ([]*FinishedGood, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM finished_goods ORDER BY production_date DESC, id DESC`, finishedGoodSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFinishedGoods(rows)
}

func (db *DB) ListFinishedGoodsByProduct(productID int64) ([]*FinishedGood, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM finished_goods WHERE product_id=? ORDER BY production_date, id`, finishedGoodSelectCols)), productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFinishedGoods(rows)
}

// ListAvailableFinishedGoods returns the product's batches that still hold
// stock, oldest production date first.
func (db *DB) ListAvailableFinishedGoods(productID int64) ([]*FinishedGood, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM finished_goods WHERE product_id=? AND current_stock > 0 ORDER BY production_date, id`, finishedGoodSelectCols)), productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFinishedGoods(rows)
}

// DrainFinishedGoods subtracts each draw from its batch in one transaction.
func (db *DB) DrainFinishedGoods(ctx context.Context, draws []BatchDraw) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range draws {
			if err := db.adjustBatchTx(ctx, tx, d.FinishedGoodID, d.Quantity.Neg()); err != nil {
				return err
			}
		}
		return nil
	})
}

// AdjustFinishedGoodStock adds a signed delta to one batch.
func (db *DB) AdjustFinishedGoodStock(ctx context.Context, id int64, delta decimal.Decimal) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return db.adjustBatchTx(ctx, tx, id, delta)
	})
}

func (db *DB) adjustBatchTx(ctx context.Context, tx *sql.Tx, id int64, delta decimal.Decimal) error {
	var stock decimal.Decimal
	err := tx.QueryRowContext(ctx, db.Q(`SELECT current_stock FROM finished_goods WHERE id=?`), id).Scan(&stock)
	if err != nil {
		return notFound(err, "finished good", id)
	}
	_, err = tx.ExecContext(ctx, db.Q(`UPDATE finished_goods SET current_stock=?, updated_at=datetime('now','localtime') WHERE id=?`),
		stock.Add(delta), id)
	if err != nil {
		return fmt.Errorf("adjust finished good %d: %w", id, err)
	}
	return nil
}
