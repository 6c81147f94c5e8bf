package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Model        string          `json:"model"`
	Size         string          `json:"size"`
	Capacity     int             `json:"capacity"`
	Color        string          `json:"color"`
	Layers       int             `json:"layers"`
	Weight       decimal.Decimal `json:"weight"`
	Description  string          `json:"description"`
	TemplateID   *int64          `json:"template_id,omitempty"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	LaborCost    decimal.Decimal `json:"labor_cost"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductMaterial is one line of the flat bill of materials used by products
// that have no template.
type ProductMaterial struct {
	ID               int64           `json:"id"`
	ProductID        int64           `json:"product_id"`
	RawMaterialID    int64           `json:"raw_material_id"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
}

const productSelectCols = `id, name, model, size, capacity, color, layers, weight, description, template_id, material_cost, labor_cost, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	var templateID sql.NullInt64
	var createdAt, updatedAt any
	err := row.Scan(&p.ID, &p.Name, &p.Model, &p.Size, &p.Capacity, &p.Color, &p.Layers,
		&p.Weight, &p.Description, &templateID, &p.MaterialCost, &p.LaborCost, &p.IsActive,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.TemplateID = idPtr(templateID)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func (db *DB) CreateProduct(p *Product) error {
	id, err := db.insertID(context.Background(), db.DB,
		`INSERT INTO products (name, model, size, capacity, color, layers, weight, description, template_id, material_cost, labor_cost, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Model, p.Size, p.Capacity, p.Color, p.Layers, p.Weight, p.Description,
		nullID(p.TemplateID), p.MaterialCost, p.LaborCost, p.IsActive)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	p.ID = id
	return nil
}

func (db *DB) UpdateProduct(p *Product) error {
	_, err := db.Exec(db.Q(`UPDATE products SET name=?, model=?, size=?, capacity=?, color=?, layers=?, weight=?, description=?, template_id=?, material_cost=?, labor_cost=?, is_active=?, updated_at=datetime('now','localtime') WHERE id=?`),
		p.Name, p.Model, p.Size, p.Capacity, p.Color, p.Layers, p.Weight, p.Description,
		nullID(p.TemplateID), p.MaterialCost, p.LaborCost, p.IsActive, p.ID)
	return err
}

// UpdateProductCosts overwrites the cached cost fields only.
func (db *DB) UpdateProductCosts(id int64, materialCost, laborCost decimal.Decimal) error {
	_, err := db.Exec(db.Q(`UPDATE products SET material_cost=?, labor_cost=?, updated_at=datetime('now','localtime') WHERE id=?`),
		materialCost, laborCost, id)
	return err
}

func (db *DB) DeleteProduct(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM products WHERE id=?`), id)
	return err
}

// ProductInUse reports whether any order, batch or shipment references the
// product.
func (db *DB) ProductInUse(id int64) (bool, error) {
	var used bool
	err := db.QueryRow(db.Q(`SELECT EXISTS (SELECT 1 FROM production_orders WHERE product_id=?)
		OR EXISTS (SELECT 1 FROM finished_goods WHERE product_id=?)
		OR EXISTS (SELECT 1 FROM shipments WHERE product_id=?)`), id, id, id).Scan(&used)
	return used, err
}

func (db *DB) GetProduct(id int64) (*Product, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM products WHERE id=?`, productSelectCols)), id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return p, nil
}

func (db *DB) ListProducts() ([]*Product, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM products ORDER BY name`, productSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (db *DB) ListProductsByTemplate(templateID int64) ([]*Product, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM products WHERE template_id=? ORDER BY id`, productSelectCols)), templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (db *DB) AddProductMaterial(pm *ProductMaterial) error {
	id, err := db.insertID(context.Background(), db.DB,
		`INSERT INTO product_materials (product_id, raw_material_id, quantity_required) VALUES (?, ?, ?)`,
		pm.ProductID, pm.RawMaterialID, pm.QuantityRequired)
	if err != nil {
		return fmt.Errorf("add product material: %w", err)
	}
	pm.ID = id
	return nil
}

func (db *DB) DeleteProductMaterial(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM product_materials WHERE id=?`), id)
	return err
}

func (db *DB) ListProductMaterials(productID int64) ([]*ProductMaterial, error) {
	rows, err := db.Query(db.Q(`SELECT id, product_id, raw_material_id, quantity_required FROM product_materials WHERE product_id=? ORDER BY id`), productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []*ProductMaterial
	for rows.Next() {
		var pm ProductMaterial
		if err := rows.Scan(&pm.ID, &pm.ProductID, &pm.RawMaterialID, &pm.QuantityRequired); err != nil {
			return nil, err
		}
		lines = append(lines, &pm)
	}
	return lines, rows.Err()
}
