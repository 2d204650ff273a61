package checkout

import (
	"path/filepath"
	"testing"
	"time"

	"homestay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testReceipt(t *testing.T) Receipt {
	t.Helper()
	in, err := models.ParseDate("2024-01-01")
	require.NoError(t, err)
	out, err := models.ParseDate("2024-01-03")
	require.NoError(t, err)

	return Receipt{
		ID:            "r-1",
		TransactionID: "tx-1",
		CardHolder:    "Ann Lee",
		Items: []models.BookingItem{
			{ID: 1, RoomName: "Deluxe Room", PricePerNight: 50, CheckIn: in, CheckOut: out, Nights: 2, TotalPrice: 100, GuestName: "Ann"},
			{ID: 2, RoomName: "Standard Room", PricePerNight: 57, CheckIn: in, CheckOut: out, Nights: 2, TotalPrice: 114},
		},
		Total:    214,
		Currency: "USD",
		PaidAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestReceiptWorkbook(t *testing.T) {
	f, err := ReceiptWorkbook(testReceipt(t))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{receiptSheet}, f.GetSheetList())

	cell := func(axis string) string {
		v, err := f.GetCellValue(receiptSheet, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Receipt r-1", cell("A1"))
	assert.Equal(t, "tx-1", cell("B2"))
	assert.Equal(t, "Room", cell("A6"))
	assert.Equal(t, "Deluxe Room", cell("A7"))
	assert.Equal(t, "2024-01-03", cell("D7"))
	assert.Equal(t, "100", cell("G7"))
	assert.Equal(t, "Standard Room", cell("A8"))
	assert.Equal(t, "Total (USD)", cell("F9"))
	assert.Equal(t, "214", cell("G9"))
}

func TestExportReceipt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	r := testReceipt(t)

	path, err := ExportReceipt(r, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "receipt_2024-01-01_r-1.xlsx"), path)
	assert.FileExists(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(receiptSheet, "A7")
	require.NoError(t, err)
	assert.Equal(t, "Deluxe Room", v)
}

func TestReceiptBook(t *testing.T) {
	book := NewReceiptBook()
	_, err := book.Get("missing")
	assert.ErrorIs(t, err, ErrReceiptNotFound)

	book.Add(Receipt{ID: "a", Total: 1})
	book.Add(Receipt{ID: "b", Total: 2})
	book.Add(Receipt{ID: "a", Total: 3})

	list := book.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, int64(3), list[0].Total)
	assert.Equal(t, "b", list[1].ID)
}
