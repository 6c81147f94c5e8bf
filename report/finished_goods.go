package report

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"tinacopro/store"
)

// FinishedGoodsReport writes the batch listing with per-product totals of
// units on hand and their recorded cost.
func FinishedGoodsReport(w io.Writer, batches []*store.FinishedGood, products []*store.Product) error {
	names := productNames(products)
	f := excelize.NewFile()
	defer f.Close()
	st, err := newStyles(f)
	if err != nil {
		return err
	}
	sh, err := firstSheet(f, "Finished Goods")
	if err != nil {
		return err
	}

	type totals struct {
		onHand decimal.Decimal
		cost   decimal.Decimal
	}
	byProduct := make(map[int64]*totals)
	var order []int64

	sh.set(1, 1, "Finished Goods Report")
	sh.style(1, 1, st.title)
	sh.set(1, 2, "Report Date: "+time.Now().Format(dateLayout))

	sh.row(4, "Batch", "Product", "Produced", "Quantity", "On Hand", "Material Cost", "Labor Cost")
	sh.styleRow(4, 7, st.header)
	r := 5
	for _, fg := range batches {
		sh.row(r, fg.BatchNumber, names[fg.ProductID], fg.ProductionDate.Format(dateLayout),
			fg.Quantity.InexactFloat64(), fg.CurrentStock.InexactFloat64(),
			fg.ActualMaterialCost.InexactFloat64(), fg.ActualLaborCost.InexactFloat64())
		if fg.CurrentStock.IsZero() {
			sh.style(5, r, st.alert)
		}
		r++

		t, ok := byProduct[fg.ProductID]
		if !ok {
			t = &totals{}
			byProduct[fg.ProductID] = t
			order = append(order, fg.ProductID)
		}
		t.onHand = t.onHand.Add(fg.CurrentStock)
		if fg.Quantity.IsPositive() {
			unit := fg.ActualMaterialCost.Add(fg.ActualLaborCost).Div(fg.Quantity)
			t.cost = t.cost.Add(unit.Mul(fg.CurrentStock))
		}
	}

	r++
	sh.set(1, r, "Totals by Product")
	sh.styleRow(r, 3, st.section)
	r++
	sh.row(r, "Product", "On Hand", "Value On Hand")
	sh.styleRow(r, 3, st.header)
	r++
	for _, id := range order {
		t := byProduct[id]
		sh.row(r, names[id], t.onHand.InexactFloat64(), t.cost.Round(2).InexactFloat64())
		r++
	}
	sh.widths(7, 18)
	if sh.err != nil {
		return sh.err
	}
	return f.Write(w)
}
