package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
	"hostel-backend/internal/services"
	"hostel-backend/pkg/utils"
)

// maxUploadBytes leaves room for multipart framing around a 5MB file.
const maxUploadBytes = 6 << 20

type TenantAPI interface {
	Create(ctx context.Context, adminID int, req *models.CreateTenantRequest) (*models.Tenant, error)
	Get(ctx context.Context, adminID int, id uuid.UUID) (*models.Tenant, error)
	List(ctx context.Context, adminID int) ([]*models.Tenant, error)
	Update(ctx context.Context, adminID int, id uuid.UUID, req *models.UpdateTenantRequest) (*models.Tenant, error)
	Delete(ctx context.Context, adminID int, id uuid.UUID) error
}

type DocumentAPI interface {
	Upload(ctx context.Context, adminID int, tenantID uuid.UUID, filename string, body []byte) (string, error)
	DownloadURL(ctx context.Context, adminID int, tenantID uuid.UUID) (string, error)
}

type TenantHandler struct {
	Service   TenantAPI
	Documents DocumentAPI
}

func NewTenantHandler(s TenantAPI, docs DocumentAPI) *TenantHandler {
	return &TenantHandler{Service: s, Documents: docs}
}

func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	var req models.CreateTenantRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	tenant, err := h.Service.Create(r.Context(), admin, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, tenant)
}

func (h *TenantHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	tenants, err := h.Service.List(r.Context(), admin)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, tenants)
}

func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	tenant, err := h.Service.Get(r.Context(), admin, id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}
	var req models.UpdateTenantRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	tenant, err := h.Service.Update(r.Context(), admin, id, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, tenant)
}

// DeleteTenant removes the tenant together with its rent records
func (h *TenantHandler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
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

// UploadDocument stores the multipart "file" field as the tenant's ID document
func (h *TenantHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.Error(w, apperr.Validation("multipart field \"file\" is required"))
		return
	}
	defer file.Close()
	body, err := io.ReadAll(file)
	if err != nil {
		utils.Error(w, apperr.Validation("document is too large"))
		return
	}

	key, err := h.Documents.Upload(r.Context(), admin, id, header.Filename, body)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, models.DocumentResponse{Key: key})
}

// GetDocument returns a short-lived download link
func (h *TenantHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	url, err := h.Documents.DownloadURL(r.Context(), admin, id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.DocumentResponse{URL: url})
}

// ExtractFields guesses ID fields from recognised document text
func (h *TenantHandler) ExtractFields(w http.ResponseWriter, r *http.Request) {
	if _, ok := adminID(w, r); !ok {
		return
	}
	var req models.ExtractIDRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, services.ExtractIDFields(req.Text))
}
