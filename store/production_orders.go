package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type ProductionOrder struct {
	ID            int64      `json:"id"`
	OrderNumber   string     `json:"order_number"`
	ProductID     int64      `json:"product_id"`
	Quantity      int        `json:"quantity"`
	Status        string     `json:"status"`
	Shift         string     `json:"shift"`
	OrderDate     time.Time  `json:"order_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type OrderHistory struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

const productionOrderSelectCols = `id, order_number, product_id, quantity, status, shift, order_date, completed_date, notes, created_at, updated_at`

func scanProductionOrder(row interface{ Scan(...any) error }) (*ProductionOrder, error) {
	var o ProductionOrder
	var orderDate, completedDate, createdAt, updatedAt any
	err := row.Scan(&o.ID, &o.OrderNumber, &o.ProductID, &o.Quantity, &o.Status, &o.Shift,
		&orderDate, &completedDate, &o.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.OrderDate = parseTime(orderDate)
	o.CompletedDate = parseTimePtr(completedDate)
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	return &o, nil
}

func scanProductionOrders(rows *sql.Rows) ([]*ProductionOrder, error) {
	var orders []*ProductionOrder
	for rows.Next() {
		o, err := scanProductionOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CreateProductionOrder inserts the order and its first history row.
func (db *DB) CreateProductionOrder(o *ProductionOrder) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		id, err := db.insertID(context.Background(), tx,
			`INSERT INTO production_orders (order_number, product_id, quantity, status, shift, order_date, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.OrderNumber, o.ProductID, o.Quantity, o.Status, o.Shift, dbTime(o.OrderDate), o.Notes)
		if err != nil {
			return fmt.Errorf("create production order: %w", err)
		}
		o.ID = id
		_, err = tx.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, ?)`),
			id, o.Status, "order created")
		return err
	})
}

// UpdateOrderStatus moves an order from one status to another and records
// the change in history. It fails with ErrStatusChanged when the order is no
// longer in status from.
func (db *DB) UpdateOrderStatus(id int64, from, to, detail string) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		res, err := tx.Exec(db.Q(`UPDATE production_orders SET status=?, updated_at=datetime('now','localtime') WHERE id=? AND status=?`),
			to, id, from)
		if err != nil {
			return err
		}
		if err := statusGuard(res, "production order", id); err != nil {
			return err
		}
		_, err = tx.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, ?)`),
			id, to, detail)
		return err
	})
}

// CompleteProductionOrder marks an order in status from completed at the
// given time.
func (db *DB) CompleteProductionOrder(id int64, from, to string, at time.Time) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		res, err := tx.Exec(db.Q(`UPDATE production_orders SET status=?, completed_date=?, updated_at=datetime('now','localtime') WHERE id=? AND status=?`),
			to, dbTime(at), id, from)
		if err != nil {
			return err
		}
		if err := statusGuard(res, "production order", id); err != nil {
			return err
		}
		_, err = tx.Exec(db.Q(`INSERT INTO order_history (order_id, status, detail) VALUES (?, ?, ?)`),
			id, to, "order completed")
		return err
	})
}

func (db *DB) GetProductionOrder(id int64) (*ProductionOrder, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM production_orders WHERE id=?`, productionOrderSelectCols)), id)
	o, err := scanProductionOrder(row)
	if err != nil {
		return nil, notFound(err, "production order", id)
	}
	return o, nil
}

func (db *DB) ListProductionOrders() ([]*ProductionOrder, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM production_orders ORDER BY order_date DESC, id DESC`, productionOrderSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionOrders(rows)
}

func (db *DB) ListProductionOrdersByStatus(status string) ([]*ProductionOrder, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM production_orders WHERE status=? ORDER BY order_date, id`, productionOrderSelectCols)), status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionOrders(rows)
}

// ListOrdersByProduct returns a product's orders oldest first.
func (db *DB) ListOrdersByProduct(productID int64) ([]*ProductionOrder, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM production_orders WHERE product_id=? ORDER BY order_date, id`, productionOrderSelectCols)), productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductionOrders(rows)
}

func (db *DB) ListOrderHistory(orderID int64) ([]*OrderHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, order_id, status, detail, created_at FROM order_history WHERE order_id=? ORDER BY id`), orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []*OrderHistory
	for rows.Next() {
		var h OrderHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		history = append(history, &h)
	}
	return history, rows.Err()
}
