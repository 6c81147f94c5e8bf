// Package catalog maintains products, product templates and the flat bill of
// materials used by products without a template.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tinacopro/bom"
	"tinacopro/fault"
	"tinacopro/logging"
	"tinacopro/store"
	"tinacopro/validate"
)

// TemplateInput carries the descriptive fields of a template. Cost totals
// come from the parts and are never set here.
type TemplateInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	ModelType   string `json:"model_type" validate:"max=100"`
	IsActive    *bool  `json:"is_active"`
}

// ProductInput carries the editable fields of a product. A product with a
// template takes its costs from the template; without one the costs are
// entered by hand.
type ProductInput struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Model        string          `json:"model" validate:"max=100"`
	Size         string          `json:"size" validate:"max=50"`
	Capacity     int             `json:"capacity" validate:"gte=0"`
	Color        string          `json:"color" validate:"max=50"`
	Layers       int             `json:"layers" validate:"gte=0"`
	Weight       decimal.Decimal `json:"weight" validate:"gte=0"`
	Description  string          `json:"description" validate:"max=1000"`
	TemplateID   *int64          `json:"template_id"`
	MaterialCost decimal.Decimal `json:"material_cost" validate:"gte=0"`
	LaborCost    decimal.Decimal `json:"labor_cost" validate:"gte=0"`
	IsActive     *bool           `json:"is_active"`
}

// MaterialLineInput is one flat bill of materials line.
type MaterialLineInput struct {
	RawMaterialID    int64           `json:"raw_material_id" validate:"required"`
	QuantityRequired decimal.Decimal `json:"quantity_required" validate:"gt=0"`
}

type Service struct {
	db  *store.DB
	bom *bom.Service
	log logrus.FieldLogger
}

func NewService(db *store.DB, bomSvc *bom.Service, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{db: db, bom: bomSvc, log: logger.WithField("module", "catalog")}
}

// --- Templates ---

func (s *Service) Templates() ([]*store.ProductTemplate, error) {
	return s.db.ListTemplates()
}

func (s *Service) CreateTemplate(in TemplateInput) (*store.ProductTemplate, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	t := &store.ProductTemplate{IsActive: true}
	in.apply(t)
	if err := s.db.CreateTemplate(t); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"template_id": t.ID, "name": t.Name}).Info("template created")
	return s.db.GetTemplate(t.ID)
}

func (s *Service) UpdateTemplate(id int64, in TemplateInput) (*store.ProductTemplate, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	t, err := s.db.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	in.apply(t)
	if err := s.db.UpdateTemplate(t); err != nil {
		return nil, fmt.Errorf("update template %d: %w", id, err)
	}
	return s.db.GetTemplate(id)
}

// DeleteTemplate removes a template and its parts. A template still assigned
// to a product is refused.
func (s *Service) DeleteTemplate(id int64) error {
	if _, err := s.db.GetTemplate(id); err != nil {
		return err
	}
	products, err := s.db.ListProductsByTemplate(id)
	if err != nil {
		return fmt.Errorf("list products of template %d: %w", id, err)
	}
	if len(products) > 0 {
		return &fault.InUseError{Entity: "template", ID: id, By: fmt.Sprintf("%d products", len(products))}
	}
	if err := s.db.DeleteTemplate(id); err != nil {
		return fmt.Errorf("delete template %d: %w", id, err)
	}
	s.log.WithField("template_id", id).Info("template deleted")
	return nil
}

// --- Products ---

func (s *Service) Products() ([]*store.Product, error) {
	return s.db.ListProducts()
}

// ProductDetail is a product with its flat bill of materials.
type ProductDetail struct {
	*store.Product
	Materials []*store.ProductMaterial `json:"materials"`
}

func (s *Service) Product(id int64) (*ProductDetail, error) {
	p, err := s.db.GetProduct(id)
	if err != nil {
		return nil, err
	}
	lines, err := s.db.ListProductMaterials(id)
	if err != nil {
		return nil, fmt.Errorf("list materials of product %d: %w", id, err)
	}
	if lines == nil {
		lines = []*store.ProductMaterial{}
	}
	return &ProductDetail{Product: p, Materials: lines}, nil
}

func (s *Service) CreateProduct(in ProductInput) (*store.Product, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkTemplate(in.TemplateID); err != nil {
		return nil, err
	}
	p := &store.Product{IsActive: true}
	in.apply(p)
	if err := s.db.CreateProduct(p); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"product_id": p.ID, "name": p.Name}).Info("product created")
	return s.syncIfTemplated(p)
}

// UpdateProduct rewrites a product. Assigning a template copies its current
// totals onto the product.
func (s *Service) UpdateProduct(id int64, in ProductInput) (*store.Product, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.db.GetProduct(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTemplate(in.TemplateID); err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.db.UpdateProduct(p); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return s.syncIfTemplated(p)
}

// DeleteProduct removes a product and its flat bill of materials. Products
// with orders, batches or shipments are kept for history.
func (s *Service) DeleteProduct(id int64) error {
	if _, err := s.db.GetProduct(id); err != nil {
		return err
	}
	used, err := s.db.ProductInUse(id)
	if err != nil {
		return fmt.Errorf("check product %d usage: %w", id, err)
	}
	if used {
		return &fault.InUseError{Entity: "product", ID: id, By: "production history"}
	}
	if err := s.db.DeleteProduct(id); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	s.log.WithField("product_id", id).Info("product deleted")
	return nil
}

// AddMaterialLine appends a flat bill of materials line to a product.
func (s *Service) AddMaterialLine(productID int64, in MaterialLineInput) (*store.ProductMaterial, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.db.GetProduct(productID); err != nil {
		return nil, err
	}
	if _, err := s.db.GetRawMaterial(in.RawMaterialID); err != nil {
		return nil, err
	}
	pm := &store.ProductMaterial{ProductID: productID, RawMaterialID: in.RawMaterialID, QuantityRequired: in.QuantityRequired}
	if err := s.db.AddProductMaterial(pm); err != nil {
		return nil, err
	}
	return pm, nil
}

// RemoveMaterialLine deletes one line of a product's flat bill of materials.
func (s *Service) RemoveMaterialLine(productID, lineID int64) error {
	lines, err := s.db.ListProductMaterials(productID)
	if err != nil {
		return fmt.Errorf("list materials of product %d: %w", productID, err)
	}
	for _, pm := range lines {
		if pm.ID == lineID {
			return s.db.DeleteProductMaterial(lineID)
		}
	}
	return fault.NotFound("product material", lineID)
}

func (s *Service) checkTemplate(id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.db.GetTemplate(*id)
	return err
}

func (s *Service) syncIfTemplated(p *store.Product) (*store.Product, error) {
	if p.TemplateID == nil {
		return s.db.GetProduct(p.ID)
	}
	return s.bom.SyncProductCosts(p.ID)
}

func (in TemplateInput) apply(t *store.ProductTemplate) {
	t.Name = in.Name
	t.Description = strings.TrimSpace(in.Description)
	t.ModelType = in.ModelType
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
}

func (in ProductInput) apply(p *store.Product) {
	p.Name = in.Name
	p.Model = in.Model
	p.Size = in.Size
	p.Capacity = in.Capacity
	p.Color = in.Color
	p.Layers = in.Layers
	p.Weight = in.Weight
	p.Description = in.Description
	p.TemplateID = in.TemplateID
	p.MaterialCost = in.MaterialCost
	p.LaborCost = in.LaborCost
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}
