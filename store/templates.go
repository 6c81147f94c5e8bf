package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Template part types.
const (
	PartAssembly  = "Assembly"
	PartComponent = "Component"
	PartMaterial  = "Material"
	PartProcess   = "Process"
)

type ProductTemplate struct {
	ID                    int64           `json:"id"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	ModelType             string          `json:"model_type"`
	IsActive              bool            `json:"is_active"`
	TotalMaterialCost     decimal.Decimal `json:"total_material_cost"`
	TotalLaborCost        decimal.Decimal `json:"total_labor_cost"`
	TotalEstimatedMinutes int             `json:"total_estimated_minutes"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	Parts                 []*TemplatePart `json:"parts,omitempty"`
}

// TemplatePart is one node of a template's part forest. Children are not held
// on the struct; callers build an index from ParentPartID.
type TemplatePart struct {
	ID               int64           `json:"id"`
	TemplateID       int64           `json:"template_id"`
	ParentPartID     *int64          `json:"parent_part_id,omitempty"`
	Name             string          `json:"name"`
	PartType         string          `json:"part_type"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	LaborCost        decimal.Decimal `json:"labor_cost"`
	EstimatedMinutes int             `json:"estimated_minutes"`
	Position         int             `json:"position"`
	RawMaterialID    *int64          `json:"raw_material_id,omitempty"`
	Notes            string          `json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
}

const templateSelectCols = `id, name, description, model_type, is_active, total_material_cost, total_labor_cost, total_estimated_minutes, created_at, updated_at`

const partSelectCols = `id, template_id, parent_part_id, name, part_type, quantity, unit, unit_cost, labor_cost, estimated_minutes, position, raw_material_id, notes, created_at`

func scanTemplate(row interface{ Scan(...any) error }) (*ProductTemplate, error) {
	var t ProductTemplate
	var createdAt, updatedAt any
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.ModelType, &t.IsActive,
		&t.TotalMaterialCost, &t.TotalLaborCost, &t.TotalEstimatedMinutes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

func scanPart(row interface{ Scan(...any) error }) (*TemplatePart, error) {
	var p TemplatePart
	var parentID, materialID sql.NullInt64
	var createdAt any
	err := row.Scan(&p.ID, &p.TemplateID, &parentID, &p.Name, &p.PartType, &p.Quantity, &p.Unit,
		&p.UnitCost, &p.LaborCost, &p.EstimatedMinutes, &p.Position, &materialID, &p.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	p.ParentPartID = idPtr(parentID)
	p.RawMaterialID = idPtr(materialID)
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func scanParts(rows *sql.Rows) ([]*TemplatePart, error) {
	var parts []*TemplatePart
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func (db *DB) CreateTemplate(t *ProductTemplate) error {
	id, err := db.insertID(context.Background(), db.DB,
		`INSERT INTO product_templates (name, description, model_type, is_active) VALUES (?, ?, ?, ?)`,
		t.Name, t.Description, t.ModelType, t.IsActive)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	t.ID = id
	return nil
}

// UpdateTemplate writes the descriptive fields. Totals are written only by
// UpdateTemplateTotals.
func (db *DB) UpdateTemplate(t *ProductTemplate) error {
	_, err := db.Exec(db.Q(`UPDATE product_templates SET name=?, description=?, model_type=?, is_active=?, updated_at=datetime('now','localtime') WHERE id=?`),
		t.Name, t.Description, t.ModelType, t.IsActive, t.ID)
	return err
}

func (db *DB) UpdateTemplateTotals(id int64, materialCost, laborCost decimal.Decimal, minutes int) error {
	_, err := db.Exec(db.Q(`UPDATE product_templates SET total_material_cost=?, total_labor_cost=?, total_estimated_minutes=?, updated_at=datetime('now','localtime') WHERE id=?`),
		materialCost, laborCost, minutes, id)
	return err
}

func (db *DB) DeleteTemplate(id int64) error {
	return db.withTx(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(db.Q(`DELETE FROM template_parts WHERE template_id=?`), id); err != nil {
			return err
		}
		_, err := tx.Exec(db.Q(`DELETE FROM product_templates WHERE id=?`), id)
		return err
	})
}

func (db *DB) GetTemplate(id int64) (*ProductTemplate, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM product_templates WHERE id=?`, templateSelectCols)), id)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, notFound(err, "template", id)
	}
	return t, nil
}

// GetTemplateWithParts loads the template and every part it owns, in sibling
// position order.
func (db *DB) GetTemplateWithParts(id int64) (*ProductTemplate, error) {
	t, err := db.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	t.Parts, err = db.ListTemplateParts(id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *DB) ListTemplates() ([]*ProductTemplate, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM product_templates ORDER BY name`, templateSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var templates []*ProductTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (db *DB) ListTemplateParts(templateID int64) ([]*TemplatePart, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM template_parts WHERE template_id=? ORDER BY position, id`, partSelectCols)), templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParts(rows)
}

func (db *DB) GetPart(id int64) (*TemplatePart, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM template_parts WHERE id=?`, partSelectCols)), id)
	p, err := scanPart(row)
	if err != nil {
		return nil, notFound(err, "template part", id)
	}
	return p, nil
}

func (db *DB) CreatePart(p *TemplatePart) error {
	id, err := db.insertID(context.Background(), db.DB,
		`INSERT INTO template_parts (template_id, parent_part_id, name, part_type, quantity, unit, unit_cost, labor_cost, estimated_minutes, position, raw_material_id, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TemplateID, nullID(p.ParentPartID), p.Name, p.PartType, p.Quantity, p.Unit,
		p.UnitCost, p.LaborCost, p.EstimatedMinutes, p.Position, nullID(p.RawMaterialID), p.Notes)
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	p.ID = id
	return nil
}

// UpdatePart writes a part's own fields. The template and parent are fixed at
// creation and never rewritten here.
func (db *DB) UpdatePart(p *TemplatePart) error {
	_, err := db.Exec(db.Q(`UPDATE template_parts SET name=?, part_type=?, quantity=?, unit=?, unit_cost=?, labor_cost=?, estimated_minutes=?, position=?, raw_material_id=?, notes=? WHERE id=?`),
		p.Name, p.PartType, p.Quantity, p.Unit, p.UnitCost, p.LaborCost, p.EstimatedMinutes,
		p.Position, nullID(p.RawMaterialID), p.Notes, p.ID)
	return err
}

// DeleteParts removes the given part ids in one statement. Callers pass a
// whole subtree so no child is left pointing at a deleted parent.
func (db *DB) DeleteParts(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := db.Exec(db.Q(`DELETE FROM template_parts WHERE id IN (`+marks+`)`), args...)
	return err
}
