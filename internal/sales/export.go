package sales

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{"ID", "User", "Date", "Products", "Total", "Type", "Status"}

// ExportCSV writes one row per sale: line count under Products, the tier
// under Type.
func ExportCSV(w io.Writer, sales []Sale) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, sale := range sales {
		tier := "retail"
		if sale.Wholesale {
			tier = "wholesale"
		}
		row := []string{
			sale.ID,
			sale.UserName,
			sale.Date.Format("2006-01-02"),
			strconv.Itoa(len(sale.Items)),
			sale.Total.StringFixed(2),
			tier,
			string(sale.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", sale.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
