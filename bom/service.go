package bom

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tinacopro/fault"
	"tinacopro/logging"
	"tinacopro/store"
	"tinacopro/validate"
)

// PartInput carries the editable fields of a template part. A nil Quantity
// means one unit on AddPart and no change on UpdatePart.
type PartInput struct {
	TemplateID       int64            `json:"template_id" validate:"required"`
	ParentPartID     *int64           `json:"parent_part_id"`
	Name             string           `json:"name" validate:"required,max=200"`
	PartType         string           `json:"part_type" validate:"omitempty,oneof=Assembly Component Material Process"`
	Quantity         *decimal.Decimal `json:"quantity" validate:"omitempty,gt=0"`
	Unit             string           `json:"unit" validate:"max=50"`
	UnitCost         decimal.Decimal  `json:"unit_cost" validate:"gte=0"`
	LaborCost        decimal.Decimal  `json:"labor_cost" validate:"gte=0"`
	EstimatedMinutes int              `json:"estimated_minutes" validate:"gte=0"`
	Position         int              `json:"position"`
	RawMaterialID    *int64           `json:"raw_material_id"`
	Notes            string           `json:"notes"`
}

// Service edits template parts and keeps the template's cached totals equal
// to the roll-up of its parts.
type Service struct {
	db  *store.DB
	log logrus.FieldLogger
}

func NewService(db *store.DB, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{db: db, log: logger.WithField("module", "bom")}
}

// LoadTree reads a template's parts into a Tree.
func (s *Service) LoadTree(templateID int64) (*Tree, error) {
	if _, err := s.db.GetTemplate(templateID); err != nil {
		return nil, err
	}
	parts, err := s.db.ListTemplateParts(templateID)
	if err != nil {
		return nil, fmt.Errorf("list parts of template %d: %w", templateID, err)
	}
	return NewTree(parts), nil
}

// AddPart creates a part under a template or under an existing part of the
// same template. A part linked to a raw material takes that material's unit
// cost and unit.
func (s *Service) AddPart(in PartInput) (*store.TemplatePart, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.db.GetTemplate(in.TemplateID); err != nil {
		return nil, err
	}
	if in.ParentPartID != nil {
		parent, err := s.db.GetPart(*in.ParentPartID)
		if err != nil {
			return nil, err
		}
		if parent.TemplateID != in.TemplateID {
			return nil, &fault.ValidationError{Fields: map[string]string{"parent_part_id": "different template"}}
		}
	}

	p := &store.TemplatePart{
		TemplateID:       in.TemplateID,
		ParentPartID:     in.ParentPartID,
		Name:             in.Name,
		PartType:         in.PartType,
		Quantity:         decimal.NewFromInt(1),
		Unit:             in.Unit,
		UnitCost:         in.UnitCost,
		LaborCost:        in.LaborCost,
		EstimatedMinutes: in.EstimatedMinutes,
		Position:         in.Position,
		RawMaterialID:    in.RawMaterialID,
		Notes:            in.Notes,
	}
	if p.PartType == "" {
		p.PartType = store.PartComponent
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if p.Unit == "" {
		p.Unit = "unit"
	}
	if p.RawMaterialID != nil {
		m, err := s.db.GetRawMaterial(*p.RawMaterialID)
		if err != nil {
			return nil, err
		}
		p.UnitCost = m.UnitCost
		p.Unit = m.Unit
	}

	if err := s.db.CreatePart(p); err != nil {
		return nil, err
	}
	if _, err := s.Recalculate(p.TemplateID); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePart rewrites a part's own fields. Template and parent are fixed at
// creation; the values in the input are ignored.
func (s *Service) UpdatePart(id int64, in PartInput) (*store.TemplatePart, error) {
	p, err := s.db.GetPart(id)
	if err != nil {
		return nil, err
	}
	in.TemplateID = p.TemplateID
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.RawMaterialID != nil {
		if _, err := s.db.GetRawMaterial(*in.RawMaterialID); err != nil {
			return nil, err
		}
	}

	p.Name = in.Name
	if in.PartType != "" {
		p.PartType = in.PartType
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	p.Unit = in.Unit
	p.UnitCost = in.UnitCost
	p.LaborCost = in.LaborCost
	p.EstimatedMinutes = in.EstimatedMinutes
	p.Position = in.Position
	p.RawMaterialID = in.RawMaterialID
	p.Notes = in.Notes

	if err := s.db.UpdatePart(p); err != nil {
		return nil, fmt.Errorf("update part %d: %w", id, err)
	}
	if _, err := s.Recalculate(p.TemplateID); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePart removes a part and its whole subtree, then recalculates.
func (s *Service) DeletePart(id int64) error {
	p, err := s.db.GetPart(id)
	if err != nil {
		return err
	}
	tree, err := s.LoadTree(p.TemplateID)
	if err != nil {
		return err
	}
	ids := tree.Subtree(id)
	if err := s.db.DeleteParts(ids); err != nil {
		return fmt.Errorf("delete part %d: %w", id, err)
	}
	s.log.WithFields(logrus.Fields{"template_id": p.TemplateID, "part_id": id, "removed": len(ids)}).Info("part subtree deleted")
	_, err = s.Recalculate(p.TemplateID)
	return err
}

// Recalculate rolls up the template's parts and persists the totals.
func (s *Service) Recalculate(templateID int64) (Totals, error) {
	tree, err := s.LoadTree(templateID)
	if err != nil {
		return Totals{}, err
	}
	totals := tree.Rollup()
	if err := s.db.UpdateTemplateTotals(templateID, totals.MaterialCost, totals.LaborCost, totals.Minutes); err != nil {
		return Totals{}, fmt.Errorf("persist totals for template %d: %w", templateID, err)
	}
	return totals, nil
}

// Requirements returns the per-unit material requirements of a template.
func (s *Service) Requirements(templateID int64) (map[int64]decimal.Decimal, error) {
	tree, err := s.LoadTree(templateID)
	if err != nil {
		return nil, err
	}
	return tree.Requirements(), nil
}

// SyncProductCosts copies the template's cached totals onto the product.
// Products drift from their template between syncs.
func (s *Service) SyncProductCosts(productID int64) (*store.Product, error) {
	p, err := s.db.GetProduct(productID)
	if err != nil {
		return nil, err
	}
	if p.TemplateID == nil {
		return nil, &fault.ValidationError{Fields: map[string]string{"template_id": "required"}}
	}
	t, err := s.db.GetTemplate(*p.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpdateProductCosts(p.ID, t.TotalMaterialCost, t.TotalLaborCost); err != nil {
		return nil, fmt.Errorf("sync costs for product %d: %w", p.ID, err)
	}
	p.MaterialCost = t.TotalMaterialCost
	p.LaborCost = t.TotalLaborCost
	return p, nil
}
