package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf/v2"

	"hostel-backend/internal/models"
	"hostel-backend/internal/timeutil"
)

// ReceiptService renders rent receipts as PDF.
type ReceiptService struct {
	rents RentStore
	clock timeutil.Clock
}

func NewReceiptService(rents RentStore, clock timeutil.Clock) *ReceiptService {
	return &ReceiptService{rents: rents, clock: clock}
}

// Receipt loads the admin's record and renders it.
func (s *ReceiptService) Receipt(ctx context.Context, adminID int, id uuid.UUID) ([]byte, error) {
	rec, err := s.rents.Get(ctx, adminID, id)
	if err != nil {
		return nil, err
	}
	return s.Render(rec)
}

// Render draws one record with its payment history.
func (s *ReceiptService) Render(rec *models.RentRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Rent Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", s.clock.Now().In(timeutil.IST).Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Tenant", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Name: %s", rec.TenantName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Phone: %s", rec.TenantPhone), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Room: %s", rec.RoomNumber), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Period: %s (%s)", rec.PeriodKey(), rec.PaymentPeriod), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Charges", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(63, 8, fmt.Sprintf("Due: %s", timeutil.FormatDate(rec.DueDate)), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, fmt.Sprintf("Amount: Rs. %s", rec.Amount.StringFixed(2)), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, fmt.Sprintf("Paid: Rs. %s", rec.AmountPaid.StringFixed(2)), "1", 1, "C", false, 0, "")

	remaining := rec.Remaining()
	if remaining.IsPositive() {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	balanceText := fmt.Sprintf("Balance Due: Rs. %s", remaining.StringFixed(2))
	if !remaining.IsPositive() {
		balanceText = "FULLY PAID"
	}
	pdf.CellFormat(190, 10, balanceText, "1", 1, "C", true, 0, "")

	if len(rec.PaymentHistory) > 0 {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 8, "Payment History", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(35, 7, "Date", "1", 0, "C", true, 0, "")
		pdf.CellFormat(35, 7, "Amount", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 7, "Method", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 7, "Reference", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 7, "Notes", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, p := range rec.PaymentHistory {
			pdf.CellFormat(35, 6, p.Date.In(timeutil.IST).Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(35, 6, "Rs. "+p.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, truncate(p.Method, 14), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 6, truncate(p.Reference, 22), "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, truncate(p.Notes, 22), "1", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
