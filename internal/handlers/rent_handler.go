package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
	"hostel-backend/internal/services"
	"hostel-backend/pkg/utils"
)

type RentAPI interface {
	List(ctx context.Context, adminID int, filter models.RentFilter) (*services.RentPage, error)
	Get(ctx context.Context, adminID int, id uuid.UUID) (*models.RentRecord, error)
	Create(ctx context.Context, adminID int, req *models.CreateRentRequest) (*models.RentRecord, error)
	Update(ctx context.Context, adminID int, id uuid.UUID, req *models.UpdateRentRequest) (*models.RentRecord, error)
	Delete(ctx context.Context, adminID int, id uuid.UUID) error
	Pay(ctx context.Context, adminID int, id uuid.UUID, req *models.PayRentRequest) (*models.PaymentResult, error)
	CreateAuto(ctx context.Context, adminID int, req *models.AutoCreateRequest) *models.BatchResult
	Upcoming(ctx context.Context, adminID, days int) ([]models.UpcomingEntry, error)
	Overdue(ctx context.Context, adminID int) (*services.OverdueReport, error)
	GenerateMonthly(ctx context.Context, adminID int, req *models.GenerateMonthlyRequest) (*models.BatchResult, error)
}

type ReceiptRenderer interface {
	Receipt(ctx context.Context, adminID int, id uuid.UUID) ([]byte, error)
}

type RentReports interface {
	RentsCSV(ctx context.Context, adminID int, filter models.RentFilter) ([]byte, error)
}

type OnlinePayments interface {
	CreateOrder(ctx context.Context, adminID int, rentID uuid.UUID) (*models.CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, adminID int, req *models.VerifyPaymentRequest) (*models.PaymentResult, error)
}

// JobRunner runs every lifecycle job once, outside the cron schedule.
type JobRunner interface {
	RunNow(ctx context.Context) ([]*services.JobResult, error)
}

type RentHandler struct {
	Service  RentAPI
	Receipts ReceiptRenderer
	Reports  RentReports
	Online   OnlinePayments
	Jobs     JobRunner
}

func NewRentHandler(s RentAPI, receipts ReceiptRenderer, reports RentReports, online OnlinePayments, jobs JobRunner) *RentHandler {
	return &RentHandler{Service: s, Receipts: receipts, Reports: reports, Online: online, Jobs: jobs}
}

func (h *RentHandler) ListRents(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	filter, err := rentFilter(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	page, err := h.Service.List(r.Context(), admin, filter)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, page)
}

func rentFilter(r *http.Request) (models.RentFilter, error) {
	q := r.URL.Query()
	var f models.RentFilter

	if s := q.Get("status"); s != "" {
		switch st := models.RentStatus(s); st {
		case models.RentStatusPending, models.RentStatusPartiallyPaid, models.RentStatusPaid, models.RentStatusOverdue:
			f.Status = st
		default:
			return f, apperr.Validation("unknown status %q", s)
		}
	}
	if s := q.Get("tenant_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return f, apperr.Validation("invalid tenant_id")
		}
		f.TenantID = &id
	}

	var err error
	if f.Page, err = queryInt(q.Get("page")); err != nil {
		return f, apperr.Validation("invalid page")
	}
	if f.Limit, err = queryInt(q.Get("limit")); err != nil {
		return f, apperr.Validation("invalid limit")
	}
	return f, nil
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (h *RentHandler) CreateRent(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	var req models.CreateRentRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	rec, err := h.Service.Create(r.Context(), admin, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, rec)
}

func (h *RentHandler) GetRent(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	rec, err := h.Service.Get(r.Context(), admin, id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

func (h *RentHandler) UpdateRent(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}
	var req models.UpdateRentRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	rec, err := h.Service.Update(r.Context(), admin, id, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

func (h *RentHandler) DeleteRent(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), admin, id); err != nil {
		utils.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayRent applies a payment. An empty body pays the remaining balance.
func (h *RentHandler) PayRent(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}
	var req models.PayRentRequest
	if err := decodeOptional(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	res, err := h.Service.Pay(r.Context(), admin, id, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

func (h *RentHandler) CreateAuto(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	var req models.AutoCreateRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, h.Service.CreateAuto(r.Context(), admin, &req))
}

func (h *RentHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	days, err := queryInt(r.URL.Query().Get("days"))
	if err != nil || days < 0 || days > 366 {
		utils.Error(w, apperr.Validation("days must be between 0 and 366"))
		return
	}

	entries, err := h.Service.Upcoming(r.Context(), admin, days)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, entries)
}

func (h *RentHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	report, err := h.Service.Overdue(r.Context(), admin)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}

func (h *RentHandler) GenerateMonthly(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	var req models.GenerateMonthlyRequest
	if err := decodeOptional(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	res, err := h.Service.GenerateMonthly(r.Context(), admin, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

// RunJobs triggers refresh, generation and backfill for every admin.
func (h *RentHandler) RunJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := adminID(w, r); !ok {
		return
	}
	if h.Jobs == nil {
		utils.Error(w, apperr.Dependency("scheduler is not configured", nil))
		return
	}

	results, err := h.Jobs.RunNow(r.Context())
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, map[string]interface{}{
			"results": results,
			"error":   err.Error(),
		})
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *RentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	pdf, err := h.Receipts.Receipt(r.Context(), admin, id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", id))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// ExportCSV downloads every record matching the list filters
func (h *RentHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	filter, err := rentFilter(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	data, err := h.Reports.RentsCSV(r.Context(), admin, filter)
	if err != nil {
		utils.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=rents.csv")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *RentHandler) CreateOnlineOrder(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	order, err := h.Online.CreateOrder(r.Context(), admin, id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, order)
}

func (h *RentHandler) VerifyOnlinePayment(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	var req models.VerifyPaymentRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	res, err := h.Online.VerifyPayment(r.Context(), admin, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}
