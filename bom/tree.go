// Package bom computes cost roll-ups and material requirements over a
// template's part forest, and keeps template totals in sync with its parts.
package bom

import (
	"sort"

	"github.com/shopspring/decimal"

	"tinacopro/store"
)

// Totals is the rolled-up cost and duration of a set of parts.
type Totals struct {
	MaterialCost decimal.Decimal `json:"material_cost"`
	LaborCost    decimal.Decimal `json:"labor_cost"`
	Minutes      int             `json:"minutes"`
}

func (t Totals) add(o Totals) Totals {
	return Totals{
		MaterialCost: t.MaterialCost.Add(o.MaterialCost),
		LaborCost:    t.LaborCost.Add(o.LaborCost),
		Minutes:      t.Minutes + o.Minutes,
	}
}

// Tree is an arena of template parts keyed by id, with a children index built
// once from ParentPartID. Parts never point at each other directly.
type Tree struct {
	parts    map[int64]*store.TemplatePart
	children map[int64][]int64
	roots    []int64
}

// NewTree indexes parts. Siblings are ordered by position, then id. A part
// whose parent is not in the set is unreachable and ignored by every walk.
func NewTree(parts []*store.TemplatePart) *Tree {
	t := &Tree{
		parts:    make(map[int64]*store.TemplatePart, len(parts)),
		children: make(map[int64][]int64),
	}
	for _, p := range parts {
		t.parts[p.ID] = p
	}
	for _, p := range parts {
		if p.ParentPartID == nil {
			t.roots = append(t.roots, p.ID)
			continue
		}
		if _, ok := t.parts[*p.ParentPartID]; ok {
			t.children[*p.ParentPartID] = append(t.children[*p.ParentPartID], p.ID)
		}
	}
	t.sortSiblings(t.roots)
	for _, ids := range t.children {
		t.sortSiblings(ids)
	}
	return t
}

func (t *Tree) sortSiblings(ids []int64) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := t.parts[ids[i]], t.parts[ids[j]]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

// Part returns the part with the given id, or nil.
func (t *Tree) Part(id int64) *store.TemplatePart { return t.parts[id] }

// Roots returns the root part ids in sibling order.
func (t *Tree) Roots() []int64 { return t.roots }

// Children returns the direct child ids of a part in sibling order.
func (t *Tree) Children(id int64) []int64 { return t.children[id] }

// Len is the number of parts in the arena.
func (t *Tree) Len() int { return len(t.parts) }

// ownCost is what a single part contributes before its children. Only
// Material parts carry direct material cost; labor is flat per part.
func ownCost(p *store.TemplatePart) Totals {
	own := Totals{LaborCost: p.LaborCost, Minutes: p.EstimatedMinutes}
	if p.PartType == store.PartMaterial {
		own.MaterialCost = p.UnitCost.Mul(p.Quantity)
	}
	return own
}

// Rollup sums every root subtree. An empty tree rolls up to zero.
func (t *Tree) Rollup() Totals {
	var total Totals
	for _, id := range t.roots {
		total = total.add(t.SubtreeRollup(id))
	}
	return total
}

// SubtreeRollup totals one part and all of its descendants. Unknown ids
// roll up to zero.
func (t *Tree) SubtreeRollup(id int64) Totals {
	var total Totals
	t.walk(id, func(p *store.TemplatePart) {
		total = total.add(ownCost(p))
	})
	return total
}

// Requirements maps raw material id to quantity needed for one produced unit.
// Every reachable part with a material link contributes its quantity, at any
// depth and whatever its type.
func (t *Tree) Requirements() map[int64]decimal.Decimal {
	req := make(map[int64]decimal.Decimal)
	for _, id := range t.roots {
		t.walk(id, func(p *store.TemplatePart) {
			if p.RawMaterialID == nil {
				return
			}
			req[*p.RawMaterialID] = req[*p.RawMaterialID].Add(p.Quantity)
		})
	}
	return req
}

// Subtree lists id followed by all of its descendants, depth first.
func (t *Tree) Subtree(id int64) []int64 {
	var ids []int64
	t.walk(id, func(p *store.TemplatePart) {
		ids = append(ids, p.ID)
	})
	return ids
}

func (t *Tree) walk(id int64, visit func(*store.TemplatePart)) {
	p, ok := t.parts[id]
	if !ok {
		return
	}
	visit(p)
	for _, child := range t.children[id] {
		t.walk(child, visit)
	}
}

// CollectRequirements is a convenience over NewTree(parts).Requirements().
func CollectRequirements(parts []*store.TemplatePart) map[int64]decimal.Decimal {
	return NewTree(parts).Requirements()
}
