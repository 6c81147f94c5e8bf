package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"tinacopro/store"
)

// InventoryReport writes every material with its stock status and, when any
// material is low, a second sheet listing the shortages.
func InventoryReport(w io.Writer, materials []*store.RawMaterial) error {
	f := excelize.NewFile()
	defer f.Close()
	st, err := newStyles(f)
	if err != nil {
		return err
	}
	sh, err := firstSheet(f, "Inventory Summary")
	if err != nil {
		return err
	}

	var low []*store.RawMaterial
	for _, m := range materials {
		if m.IsLow() {
			low = append(low, m)
		}
	}

	sh.set(1, 1, "Inventory Status Report")
	sh.style(1, 1, st.title)
	sh.set(1, 2, "Report Date: "+time.Now().Format(dateLayout))

	sh.set(1, 4, "Summary Metrics")
	sh.styleRow(4, 2, st.section)
	sh.row(5, "Total Materials:", len(materials))
	sh.row(6, "Low Stock Alerts:", len(low))
	sh.style(2, 6, st.alert)
	sh.row(7, "Adequate Stock:", len(materials)-len(low))

	sh.set(1, 9, "All Materials")
	sh.styleRow(9, 6, st.section)
	sh.row(10, "Code", "Name", "Category", "Current Stock", "Minimum Stock", "Status")
	sh.styleRow(10, 6, st.header)
	r := 11
	for _, m := range materials {
		status, style := "OK", st.ok
		if m.IsLow() {
			status, style = "LOW STOCK", st.alert
		}
		sh.row(r, m.Code, m.Name, m.Category, quantity(m.CurrentStock.String(), m.Unit), quantity(m.MinimumStock.String(), m.Unit), status)
		sh.style(6, r, style)
		r++
	}
	sh.widths(6, 18)
	if sh.err != nil {
		return sh.err
	}

	if len(low) > 0 {
		alerts, err := addSheet(f, "Low Stock Alerts")
		if err != nil {
			return err
		}
		alerts.set(1, 1, "Low Stock Alerts")
		alerts.style(1, 1, st.title)
		alerts.set(1, 2, fmt.Sprintf("%d materials require immediate attention", len(low)))
		alerts.row(4, "Material", "Code", "Current Stock", "Minimum Stock", "Shortage")
		alerts.styleRow(4, 5, st.header)
		r := 5
		for _, m := range low {
			shortage := m.MinimumStock.Sub(m.CurrentStock)
			alerts.row(r, m.Name, m.Code, quantity(m.CurrentStock.String(), m.Unit), quantity(m.MinimumStock.String(), m.Unit), quantity(shortage.StringFixed(1), m.Unit))
			alerts.style(5, r, st.alert)
			r++
		}
		alerts.widths(5, 18)
		if alerts.err != nil {
			return alerts.err
		}
	}
	return f.Write(w)
}

func quantity(v, unit string) string {
	if unit == "" {
		return v
	}
	return v + " " + unit
}
