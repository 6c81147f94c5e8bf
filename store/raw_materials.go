package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type RawMaterial struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Category     string          `json:"category"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsLow reports whether stock has reached the reorder threshold.
func (m *RawMaterial) IsLow() bool {
	return m.CurrentStock.LessThanOrEqual(m.MinimumStock)
}

const rawMaterialSelectCols = `id, code, name, unit, category, current_stock, minimum_stock, unit_cost, is_active, created_at, updated_at`

func scanRawMaterial(row interface{ Scan(...any) error }) (*RawMaterial, error) {
	var m RawMaterial
	var createdAt, updatedAt any
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.Category,
		&m.CurrentStock, &m.MinimumStock, &m.UnitCost, &m.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return &m, nil
}

func scanRawMaterials(rows *sql.Rows) ([]*RawMaterial, error) {
	var materials []*RawMaterial
	for rows.Next() {
		m, err := scanRawMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (db *DB) CreateRawMaterial(m *RawMaterial) error {
	id, err := db.insertID(context.Background(), db.DB,
		`INSERT INTO raw_materials (code, name, unit, category, current_stock, minimum_stock, unit_cost, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Code, m.Name, m.Unit, m.Category, m.CurrentStock, m.MinimumStock, m.UnitCost, m.IsActive)
	if err != nil {
		return fmt.Errorf("create raw material: %w", err)
	}
	m.ID = id
	return nil
}

// UpdateRawMaterial replaces every editable field, stock included.
func (db *DB) UpdateRawMaterial(m *RawMaterial) error {
	_, err := db.Exec(db.Q(`UPDATE raw_materials SET code=?, name=?, unit=?, category=?, current_stock=?, minimum_stock=?, unit_cost=?, is_active=?, updated_at=datetime('now','localtime') WHERE id=?`),
		m.Code, m.Name, m.Unit, m.Category, m.CurrentStock, m.MinimumStock, m.UnitCost, m.IsActive, m.ID)
	return err
}

// RawMaterialInUse reports whether any part, flat bill of materials line or
// stock history row references the material.
func (db *DB) RawMaterialInUse(id int64) (bool, error) {
	var used bool
	err := db.QueryRow(db.Q(`SELECT EXISTS (SELECT 1 FROM template_parts WHERE raw_material_id=?)
		OR EXISTS (SELECT 1 FROM product_materials WHERE raw_material_id=?)
		OR EXISTS (SELECT 1 FROM stock_movements WHERE raw_material_id=?)
		OR EXISTS (SELECT 1 FROM material_consumption_logs WHERE raw_material_id=?)`), id, id, id, id).Scan(&used)
	return used, err
}

func (db *DB) DeleteRawMaterial(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM raw_materials WHERE id=?`), id)
	return err
}

func (db *DB) GetRawMaterial(id int64) (*RawMaterial, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM raw_materials WHERE id=?`, rawMaterialSelectCols)), id)
	m, err := scanRawMaterial(row)
	if err != nil {
		return nil, notFound(err, "raw material", id)
	}
	return m, nil
}

func (db *DB) GetRawMaterialByCode(code string) (*RawMaterial, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM raw_materials WHERE code=?`, rawMaterialSelectCols)), code)
	m, err := scanRawMaterial(row)
	if err != nil {
		return nil, notFound(err, "raw material", code)
	}
	return m, nil
}

func (db *DB) ListRawMaterials() ([]*RawMaterial, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM raw_materials ORDER BY code`, rawMaterialSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRawMaterials(rows)
}

func (db *DB) ListActiveRawMaterials() ([]*RawMaterial, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM raw_materials WHERE is_active=? ORDER BY code`, rawMaterialSelectCols)), true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRawMaterials(rows)
}
