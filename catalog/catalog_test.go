package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tinacopro/bom"
	"tinacopro/config"
	"tinacopro/fault"
	"tinacopro/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setup(t *testing.T) (*store.DB, *Service, *bom.Service) {
	t.Helper()
	db := testDB(t)
	bomSvc := bom.NewService(db, nil)
	return db, NewService(db, bomSvc, nil), bomSvc
}

func material(t *testing.T, db *store.DB) *store.RawMaterial {
	t.Helper()
	m := &store.RawMaterial{Code: "PE", Name: "Polyethylene", Unit: "kg", CurrentStock: dec("50"), UnitCost: dec("4"), IsActive: true}
	if err := db.CreateRawMaterial(m); err != nil {
		t.Fatalf("create material: %v", err)
	}
	return m
}

func TestTemplateLifecycle(t *testing.T) {
	_, svc, _ := setup(t)

	tpl, err := svc.CreateTemplate(TemplateInput{Name: "Tricapa", ModelType: "Vertical", Description: "  three layers "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !tpl.IsActive || tpl.Description != "three layers" {
		t.Errorf("template = %+v", tpl)
	}

	off := false
	got, err := svc.UpdateTemplate(tpl.ID, TemplateInput{Name: "Tricapa 2", IsActive: &off})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Tricapa 2" || got.IsActive {
		t.Errorf("updated = %+v", got)
	}

	list, _ := svc.Templates()
	if len(list) != 1 {
		t.Fatalf("templates = %d, want 1", len(list))
	}
	if err := svc.DeleteTemplate(tpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.UpdateTemplate(tpl.ID, TemplateInput{Name: "x"}); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("update deleted err = %v, want not found", err)
	}
}

func TestTemplateValidation(t *testing.T) {
	_, svc, _ := setup(t)
	if _, err := svc.CreateTemplate(TemplateInput{}); !errors.Is(err, fault.ErrValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestDeleteTemplateInUse(t *testing.T) {
	db, svc, _ := setup(t)
	tpl, _ := svc.CreateTemplate(TemplateInput{Name: "Basic"})
	if _, err := svc.CreateProduct(ProductInput{Name: "Tinaco 1100", TemplateID: &tpl.ID}); err != nil {
		t.Fatalf("create product: %v", err)
	}
	err := svc.DeleteTemplate(tpl.ID)
	if !errors.Is(err, fault.ErrInUse) {
		t.Fatalf("err = %v, want in use", err)
	}
	if _, err := db.GetTemplate(tpl.ID); err != nil {
		t.Errorf("template gone after refused delete: %v", err)
	}
}

func TestCreateProductSyncsTemplateCosts(t *testing.T) {
	db, svc, bomSvc := setup(t)
	m := material(t, db)
	tpl, _ := svc.CreateTemplate(TemplateInput{Name: "Basic"})
	q := dec("3")
	if _, err := bomSvc.AddPart(bom.PartInput{TemplateID: tpl.ID, Name: "Shell", PartType: store.PartMaterial, Quantity: &q, RawMaterialID: &m.ID, LaborCost: dec("6")}); err != nil {
		t.Fatalf("add part: %v", err)
	}

	p, err := svc.CreateProduct(ProductInput{Name: "Tinaco 1100", Capacity: 1100, TemplateID: &tpl.ID, MaterialCost: dec("999")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !p.MaterialCost.Equal(dec("12")) || !p.LaborCost.Equal(dec("6")) {
		t.Errorf("costs = %s/%s, want 12/6", p.MaterialCost, p.LaborCost)
	}
	if !p.IsActive || p.Capacity != 1100 {
		t.Errorf("product = %+v", p)
	}

	missing := int64(404)
	if _, err := svc.CreateProduct(ProductInput{Name: "Ghost", TemplateID: &missing}); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("unknown template err = %v, want not found", err)
	}
}

func TestUpdateProductKeepsManualCostsWithoutTemplate(t *testing.T) {
	_, svc, _ := setup(t)
	p, _ := svc.CreateProduct(ProductInput{Name: "Legacy 450", MaterialCost: dec("7"), LaborCost: dec("2")})

	got, err := svc.UpdateProduct(p.ID, ProductInput{Name: "Legacy 450 XL", MaterialCost: dec("8"), LaborCost: dec("2.5")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Legacy 450 XL" || !got.MaterialCost.Equal(dec("8")) || !got.LaborCost.Equal(dec("2.5")) {
		t.Errorf("product = %+v", got)
	}
	if _, err := svc.UpdateProduct(p.ID, ProductInput{Name: "x", Weight: dec("-1")}); !errors.Is(err, fault.ErrValidation) {
		t.Errorf("negative weight err = %v, want validation", err)
	}
}

func TestMaterialLines(t *testing.T) {
	db, svc, _ := setup(t)
	m := material(t, db)
	p, _ := svc.CreateProduct(ProductInput{Name: "Legacy 450"})

	line, err := svc.AddMaterialLine(p.ID, MaterialLineInput{RawMaterialID: m.ID, QuantityRequired: dec("2.5")})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	if _, err := svc.AddMaterialLine(p.ID, MaterialLineInput{RawMaterialID: m.ID}); !errors.Is(err, fault.ErrValidation) {
		t.Errorf("zero quantity err = %v, want validation", err)
	}
	if _, err := svc.AddMaterialLine(p.ID, MaterialLineInput{RawMaterialID: 404, QuantityRequired: dec("1")}); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("unknown material err = %v, want not found", err)
	}

	detail, err := svc.Product(p.ID)
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	if len(detail.Materials) != 1 || !detail.Materials[0].QuantityRequired.Equal(dec("2.5")) {
		t.Errorf("materials = %+v", detail.Materials)
	}

	other, _ := svc.CreateProduct(ProductInput{Name: "Other"})
	if err := svc.RemoveMaterialLine(other.ID, line.ID); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("remove from wrong product err = %v, want not found", err)
	}
	if err := svc.RemoveMaterialLine(p.ID, line.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	detail, _ = svc.Product(p.ID)
	if len(detail.Materials) != 0 {
		t.Errorf("materials after remove = %d", len(detail.Materials))
	}
}

func TestDeleteProduct(t *testing.T) {
	db, svc, _ := setup(t)
	unused, _ := svc.CreateProduct(ProductInput{Name: "Unused"})
	if err := svc.DeleteProduct(unused.ID); err != nil {
		t.Fatalf("delete unused: %v", err)
	}
	if _, err := db.GetProduct(unused.ID); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("get deleted err = %v", err)
	}

	used, _ := svc.CreateProduct(ProductInput{Name: "Tinaco 750"})
	o := &store.ProductionOrder{OrderNumber: "PO-1", ProductID: used.ID, Quantity: 1, Status: "Pending", OrderDate: time.Now()}
	if err := db.CreateProductionOrder(o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := svc.DeleteProduct(used.ID); !errors.Is(err, fault.ErrInUse) {
		t.Errorf("delete used err = %v, want in use", err)
	}
	if err := svc.DeleteProduct(404); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("delete missing err = %v, want not found", err)
	}
}
