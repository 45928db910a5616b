package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/libdesk/core/payment"
)

func TestPayments(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	data, err := Payments([]payment.Payment{{
		StudentName:       "Ravi Kumar",
		StudentRollNumber: "CITY0001",
		Amount:            decimal.NewFromInt(500),
		Discount:          decimal.NewFromInt(50),
		PaymentMethod:     payment.MethodOnline,
		FromMonth:         march,
		ToMonth:           march,
		NextDueDate:       march.AddDate(0, 1, 0),
		PaidDate:          march.AddDate(0, 0, 4),
		Notes:             "upi",
	}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(paymentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, paymentHeaders, rows[0])
	assert.Equal(t, []string{"CITY0001", "Ravi Kumar", "500", "50", "online", "2024-03-01", "2024-03-01", "2024-04-01", "2024-03-05", "upi"}, rows[1])
}

func TestPayments_Empty(t *testing.T) {
	data, err := Payments(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(paymentsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
