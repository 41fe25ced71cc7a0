package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"hostel-backend/internal/models"
	"hostel-backend/internal/timeutil"
)

// exportPageSize is how many records one store call fetches while exporting.
const exportPageSize = 100

// ReportService builds downloadable rent reports.
type ReportService struct {
	rents RentStore
}

func NewReportService(rents RentStore) *ReportService {
	return &ReportService{rents: rents}
}

// RentsCSV exports every record matching filter, ignoring its paging.
func (s *ReportService) RentsCSV(ctx context.Context, adminID int, filter models.RentFilter) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// Header
	w.Write([]string{
		"#", "Tenant", "Phone", "Room", "Period", "Due Date",
		"Amount", "Paid", "Balance", "Status", "Paid On",
	})

	filter.Limit = exportPageSize
	row := 0
	for page := 1; ; page++ {
		filter.Page = page
		recs, total, err := s.rents.List(ctx, adminID, filter)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			row++
			paidOn := ""
			if rec.PaymentDate != nil {
				paidOn = timeutil.FormatDate(*rec.PaymentDate)
			}
			w.Write([]string{
				strconv.Itoa(row),
				rec.TenantName,
				rec.TenantPhone,
				rec.RoomNumber,
				rec.PeriodKey().String(),
				timeutil.FormatDate(rec.DueDate),
				rec.Amount.StringFixed(2),
				rec.AmountPaid.StringFixed(2),
				rec.Remaining().StringFixed(2),
				string(rec.Status),
				paidOn,
			})
		}
		if len(recs) == 0 || page*exportPageSize >= total {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
