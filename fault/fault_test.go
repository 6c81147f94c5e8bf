package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("complete order: %w", NotFound("product", int64(3)))
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped NotFoundError should match ErrNotFound")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "product" {
		t.Errorf("errors.As = %+v", nf)
	}
	if errors.Is(err, ErrInsufficientStock) {
		t.Error("NotFoundError must not match ErrInsufficientStock")
	}
}

func TestInsufficientMessageIsItemized(t *testing.T) {
	err := Insufficient([]Shortage{
		{ID: 2, Name: "Pigment", Required: decimal.NewFromInt(4), Available: decimal.RequireFromString("1.5")},
		{ID: 1, Name: "Resin", Required: decimal.NewFromInt(12), Available: decimal.NewFromInt(10)},
	})
	want := "insufficient stock: Resin: required 12.00, available 10.00; Pigment: required 4.00, available 1.50"
	if err.Error() != want {
		t.Errorf("message = %q\nwant      %q", err.Error(), want)
	}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Error("should match ErrInsufficientStock")
	}
}

func TestTransitionError(t *testing.T) {
	err := &TransitionError{Entity: "shipment", ID: 9, From: "Delivered", Action: "cancel"}
	if err.Error() != "cannot cancel shipment 9 in status Delivered" {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Error("should match ErrInvalidTransition")
	}
}

func TestValidationErrorSortedFields(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"Quantity": "gt", "ProductID": "required"}}
	if err.Error() != "validation failed: ProductID: required, Quantity: gt" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestInUseError(t *testing.T) {
	err := fmt.Errorf("delete: %w", &InUseError{Entity: "template", ID: 4, By: "2 products"})
	if !errors.Is(err, ErrInUse) {
		t.Error("should match ErrInUse")
	}
	if errors.Is(err, ErrInvalidTransition) {
		t.Error("InUseError must not match ErrInvalidTransition")
	}
	if want := "delete: template 4 is still used by 2 products"; err.Error() != want {
		t.Errorf("message = %q", err.Error())
	}
}
