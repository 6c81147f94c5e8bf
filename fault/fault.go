// Package fault defines the error kinds shared by the production, ledger and
// shipping packages. Callers branch on kind with errors.Is against the
// sentinels and read details with errors.As.
package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrValidation        = errors.New("validation failed")
	ErrInUse             = errors.New("in use")
)

type NotFoundError struct {
	Entity string
	ID     any
}

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Shortage is one line of an itemized stock shortfall.
type Shortage struct {
	ID        int64
	Name      string
	Required  decimal.Decimal
	Available decimal.Decimal
}

type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	lines := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		lines = append(lines, fmt.Sprintf("%s: required %s, available %s",
			s.Name, s.Required.StringFixed(2), s.Available.StringFixed(2)))
	}
	return "insufficient stock: " + strings.Join(lines, "; ")
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// Insufficient builds an InsufficientStockError with shortages ordered by id so
// messages are stable regardless of map iteration order.
func Insufficient(shortages []Shortage) error {
	sorted := append([]Shortage(nil), shortages...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &InsufficientStockError{Shortages: sorted}
}

type TransitionError struct {
	Entity string
	ID     int64
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s %d in status %s", e.Action, e.Entity, e.ID, e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// InUseError rejects deleting a record that other records still point at.
type InUseError struct {
	Entity string
	ID     int64
	By     string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %d is still used by %s", e.Entity, e.ID, e.By)
}

func (e *InUseError) Is(target error) bool { return target == ErrInUse }

// ValidationError maps field names to the rule they failed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
