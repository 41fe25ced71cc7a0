package services

import (
	"context"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
)

const maxDocumentBytes = 5 << 20

var allowedDocumentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// DocumentStorage is the object store holding tenant ID documents.
type DocumentStorage interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// DocumentService stores tenant ID documents and pulls a best-effort
// guess of their fields out of recognised text.
type DocumentService struct {
	tenants TenantStore
	storage DocumentStorage
	logger  *zap.Logger
}

func NewDocumentService(tenants TenantStore, storage DocumentStorage, logger *zap.Logger) *DocumentService {
	return &DocumentService{tenants: tenants, storage: storage, logger: logger.Named("documents")}
}

// Upload stores body under tenants/<id>/ and records the key on the tenant.
func (s *DocumentService) Upload(ctx context.Context, adminID int, tenantID uuid.UUID, filename string, body []byte) (string, error) {
	if s.storage == nil {
		return "", apperr.Dependency("document storage is not configured", nil)
	}
	if len(body) == 0 {
		return "", apperr.Validation("document is empty")
	}
	if len(body) > maxDocumentBytes {
		return "", apperr.Validation("document exceeds %d bytes", maxDocumentBytes)
	}
	if _, err := s.tenants.Get(ctx, adminID, tenantID); err != nil {
		return "", err
	}

	contentType := http.DetectContentType(body)
	ext, ok := allowedDocumentTypes[strings.SplitN(contentType, ";", 2)[0]]
	if !ok {
		return "", apperr.Validation("unsupported document type %s", contentType)
	}
	if ext == ".jpg" && strings.EqualFold(path.Ext(filename), ".jpeg") {
		ext = ".jpeg"
	}

	key := "tenants/" + tenantID.String() + "/" + uuid.NewString() + ext
	if err := s.storage.Put(ctx, key, contentType, body); err != nil {
		return "", apperr.Dependency("store document", err)
	}
	if err := s.tenants.SetDocumentKey(ctx, adminID, tenantID, key); err != nil {
		return "", err
	}
	s.logger.Info("document stored",
		zap.Int("admin_id", adminID),
		zap.String("tenant_id", tenantID.String()),
		zap.String("key", key))
	return key, nil
}

// DownloadURL returns a presigned link to the tenant's document.
func (s *DocumentService) DownloadURL(ctx context.Context, adminID int, tenantID uuid.UUID) (string, error) {
	if s.storage == nil {
		return "", apperr.Dependency("document storage is not configured", nil)
	}
	t, err := s.tenants.Get(ctx, adminID, tenantID)
	if err != nil {
		return "", err
	}
	if t.IDDocumentKey == "" {
		return "", apperr.NotFound("tenant %s has no document", tenantID)
	}
	url, err := s.storage.PresignGet(ctx, t.IDDocumentKey)
	if err != nil {
		return "", apperr.Dependency("presign document", err)
	}
	return url, nil
}

var (
	aadhaarPattern = regexp.MustCompile(`\b(\d{4})\s?(\d{4})\s?(\d{4})\b`)
	panPattern     = regexp.MustCompile(`\b([A-Z]{5}[0-9]{4}[A-Z])\b`)
	dobPattern     = regexp.MustCompile(`(?i)(?:dob|date of birth|birth)\s*[:\-]?\s*(\d{2}[/\-]\d{2}[/\-]\d{4})`)
	genderPattern  = regexp.MustCompile(`(?i)\b(male|female|transgender)\b`)
	namePattern    = regexp.MustCompile(`(?im)^\s*name\s*[:\-]\s*([A-Za-z][A-Za-z .]{1,60})$`)
)

// ExtractIDFields guesses identity fields from OCR text. The result is a
// hint for the operator and may be wrong or empty.
func ExtractIDFields(text string) models.IDDocumentFields {
	var f models.IDDocumentFields

	if m := aadhaarPattern.FindStringSubmatch(text); m != nil {
		f.IDNumber = m[1] + m[2] + m[3]
	} else if m := panPattern.FindStringSubmatch(text); m != nil {
		f.IDNumber = m[1]
	}
	if m := dobPattern.FindStringSubmatch(text); m != nil {
		f.DateOfBirth = strings.ReplaceAll(m[1], "-", "/")
	}
	if m := genderPattern.FindStringSubmatch(text); m != nil {
		f.Gender = strings.ToLower(m[1])
	}
	if m := namePattern.FindStringSubmatch(text); m != nil {
		f.Name = strings.TrimSpace(m[1])
	} else {
		f.Name = guessName(text)
	}
	return f
}

// guessName picks the first line that looks like a person's name: two to
// four alphabetic words, not a known card heading.
func guessName(text string) string {
	skip := []string{"government", "india", "income tax", "permanent account", "dob", "male", "female", "address", "father"}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		lower := strings.ToLower(line)
		bad := false
		for _, s := range skip {
			if strings.Contains(lower, s) {
				bad = true
				break
			}
		}
		if bad || strings.IndexFunc(line, func(r rune) bool {
			return !(r == ' ' || r == '.' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'))
		}) >= 0 {
			continue
		}
		return line
	}
	return ""
}
