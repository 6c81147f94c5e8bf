package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"tinacopro/production"
	"tinacopro/store"
)

// ProductionReport writes completed orders whose completion falls in
// [from, to], newest first, with summary metrics on top.
func ProductionReport(w io.Writer, orders []*store.ProductionOrder, products []*store.Product, from, to time.Time) error {
	names := productNames(products)
	var done []*store.ProductionOrder
	for _, o := range orders {
		if o.Status != production.StatusCompleted || o.CompletedDate == nil {
			continue
		}
		if o.CompletedDate.Before(from) || o.CompletedDate.After(to) {
			continue
		}
		done = append(done, o)
	}
	sort.SliceStable(done, func(i, j int) bool { return done[i].CompletedDate.After(*done[j].CompletedDate) })

	f := excelize.NewFile()
	defer f.Close()
	st, err := newStyles(f)
	if err != nil {
		return err
	}
	sh, err := firstSheet(f, "Production Summary")
	if err != nil {
		return err
	}

	units := 0
	kinds := make(map[int64]struct{})
	for _, o := range done {
		units += o.Quantity
		kinds[o.ProductID] = struct{}{}
	}
	avg := 0.0
	if len(done) > 0 {
		avg = float64(units) / float64(len(done))
	}

	sh.set(1, 1, "Production Summary Report")
	sh.style(1, 1, st.title)
	sh.set(1, 2, fmt.Sprintf("Period: %s - %s", from.Format(dateLayout), to.Format(dateLayout)))

	sh.set(1, 4, "Summary Metrics")
	sh.styleRow(4, 2, st.section)
	sh.row(5, "Orders Completed:", len(done))
	sh.row(6, "Total Units Produced:", units)
	sh.row(7, "Product Types:", len(kinds))
	sh.row(8, "Avg Units per Order:", avg)
	sh.style(2, 8, st.decimal)

	sh.set(1, 10, "Order Details")
	sh.styleRow(10, 5, st.section)
	sh.row(11, "Order #", "Product", "Quantity", "Status", "Completed Date")
	sh.styleRow(11, 5, st.header)
	r := 12
	for _, o := range done {
		sh.row(r, o.OrderNumber, names[o.ProductID], o.Quantity, o.Status, o.CompletedDate.Format(dateLayout))
		r++
	}
	sh.widths(5, 22)
	if sh.err != nil {
		return sh.err
	}
	return f.Write(w)
}

func productNames(products []*store.Product) map[int64]string {
	names := make(map[int64]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names
}
