package checkout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const receiptSheet = "Receipt"

// ReceiptWorkbook renders a receipt as a single-sheet workbook: a header
// block, one row per booking and a total row. The caller closes the file.
func ReceiptWorkbook(r Receipt) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(receiptSheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(receiptSheet, "A1", fmt.Sprintf("Receipt %s", r.ID))
	_ = f.SetCellValue(receiptSheet, "A2", "Transaction")
	_ = f.SetCellValue(receiptSheet, "B2", r.TransactionID)
	_ = f.SetCellValue(receiptSheet, "A3", "Paid at")
	_ = f.SetCellValue(receiptSheet, "B3", r.PaidAt.Format("2006-01-02 15:04:05"))
	_ = f.SetCellValue(receiptSheet, "A4", "Card holder")
	_ = f.SetCellValue(receiptSheet, "B4", r.CardHolder)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	_ = f.SetCellStyle(receiptSheet, "A1", "A1", titleStyle)
	_ = f.MergeCell(receiptSheet, "A1", "G1")

	headers := []string{"Room", "Guest", "Check-in", "Check-out", "Nights", "Price / night", "Total"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	const headerRow = 6
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(receiptSheet, cell, h)
		_ = f.SetCellStyle(receiptSheet, cell, cell, headerStyle)
	}

	row := headerRow + 1
	for _, item := range r.Items {
		values := []interface{}{
			item.RoomName,
			item.GuestName,
			item.CheckIn.String(),
			item.CheckOut.String(),
			item.Nights,
			item.PricePerNight,
			item.TotalPrice,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(receiptSheet, cell, v)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(6, row)
	totalCell, _ := excelize.CoordinatesToCellName(7, row)
	_ = f.SetCellValue(receiptSheet, totalLabel, fmt.Sprintf("Total (%s)", r.Currency))
	_ = f.SetCellValue(receiptSheet, totalCell, r.Total)
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(receiptSheet, totalLabel, totalCell, boldStyle)

	_ = f.SetColWidth(receiptSheet, "A", "B", 25)
	_ = f.SetColWidth(receiptSheet, "C", "G", 14)

	return f, nil
}

// ExportReceipt writes the receipt workbook under dir and returns its path.
func ExportReceipt(r Receipt, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := ReceiptWorkbook(r)
	if err != nil {
		return "", err
	}
	defer f.Close()

	filePath := filepath.Join(dir, ReceiptFileName(r))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

func ReceiptFileName(r Receipt) string {
	return fmt.Sprintf("receipt_%s_%s.xlsx", r.PaidAt.Format("2006-01-02"), r.ID)
}
