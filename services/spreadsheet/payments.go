// Package spreadsheet renders reports as xlsx workbooks.
package spreadsheet

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/libdesk/core/payment"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	paymentsSheet = "Payments"
	dateFormat    = "2006-01-02"
)

var paymentHeaders = []string{
	"Roll Number", "Student", "Amount", "Discount", "Method", "From Month", "To Month", "Next Due Date", "Paid Date", "Notes",
}

var paymentColWidths = []float64{14, 24, 12, 12, 10, 12, 12, 14, 12, 40}

// Payments writes one row per payment below a frozen header row.
func Payments(payments []payment.Payment) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", paymentsSheet); err != nil {
		return nil, errors.Wrap(err, "renaming sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}

	if err = f.SetSheetRow(paymentsSheet, "A1", &paymentHeaders); err != nil {
		return nil, errors.Wrap(err, "writing header")
	}
	lastCol, _ := excelize.ColumnNumberToName(len(paymentHeaders))
	if err = f.SetCellStyle(paymentsSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, errors.Wrap(err, "styling header")
	}
	for i, w := range paymentColWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err = f.SetColWidth(paymentsSheet, col, col, w); err != nil {
			return nil, errors.Wrap(err, "setting column width")
		}
	}

	for i, p := range payments {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		amount, _ := p.Amount.Float64()
		discount, _ := p.Discount.Float64()
		row := []interface{}{
			p.StudentRollNumber,
			p.StudentName,
			amount,
			discount,
			string(p.PaymentMethod),
			p.FromMonth.Format(dateFormat),
			p.ToMonth.Format(dateFormat),
			p.NextDueDate.Format(dateFormat),
			p.PaidDate.Format(dateFormat),
			p.Notes,
		}
		if err = f.SetSheetRow(paymentsSheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if err = f.SetPanes(paymentsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, errors.Wrap(err, "freezing header")
	}

	var buf bytes.Buffer
	if _, err = f.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}
