package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
	"hostel-backend/internal/timeutil"
)

type RentRecordRepository struct {
	DB *pgxpool.Pool
}

func NewRentRecordRepository(db *pgxpool.Pool) *RentRecordRepository {
	return &RentRecordRepository{DB: db}
}

const rentColumns = `id, admin_id, tenant_id, room_id, payment_period,
	COALESCE(month, 0), COALESCE(year, 0), COALESCE(week_number, 0), COALESCE(period_date, ''),
	amount, amount_paid, status, is_paid, due_date, payment_date, payment_history, notes,
	tenant_name, tenant_phone, room_number, created_at, updated_at`

// Create inserts a record. A second record for the same tenant and period
// fails with apperr.ErrDuplicatePeriod.
func (r *RentRecordRepository) Create(ctx context.Context, rec *models.RentRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.PaymentHistory == nil {
		rec.PaymentHistory = []models.PaymentEntry{}
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO rent_records(id, admin_id, tenant_id, room_id, payment_period, month, year, week_number,
                period_date, amount, amount_paid, status, is_paid, due_date, payment_date, payment_history,
                notes, tenant_name, tenant_phone, room_number)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
         RETURNING created_at, updated_at`,
		rec.ID, rec.AdminID, rec.TenantID, rec.RoomID, rec.PaymentPeriod,
		nullInt(rec.Month), nullInt(rec.Year), nullInt(rec.WeekNumber), nullString(rec.PeriodDate),
		rec.Amount, rec.AmountPaid, rec.Status, rec.IsPaid, rec.DueDate, rec.PaymentDate, rec.PaymentHistory,
		rec.Notes, rec.TenantName, rec.TenantPhone, rec.RoomNumber,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("tenant %s period %s: %w", rec.TenantID, rec.PeriodKey(), apperr.ErrDuplicatePeriod)
	}
	if err != nil {
		return apperr.Dependency("create rent record", err)
	}
	return nil
}

// Get loads a record owned by adminID.
func (r *RentRecordRepository) Get(ctx context.Context, adminID int, id uuid.UUID) (*models.RentRecord, error) {
	rec, err := scanRent(r.DB.QueryRow(ctx, `SELECT `+rentColumns+` FROM rent_records WHERE id=$1`, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("rent record %s not found", id)
	}
	if err != nil {
		return nil, apperr.Dependency("load rent record", err)
	}
	if rec.AdminID != adminID {
		return nil, apperr.Unauthorized("rent record %s belongs to another admin", id)
	}
	return rec, nil
}

// Update writes the mutable fields of rec back. Last write wins.
func (r *RentRecordRepository) Update(ctx context.Context, adminID int, rec *models.RentRecord) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE rent_records SET month=$3, year=$4, week_number=$5, period_date=$6,
                amount=$7, amount_paid=$8, status=$9, is_paid=$10, due_date=$11, payment_date=$12,
                payment_history=$13, notes=$14, updated_at=NOW()
         WHERE id=$1 AND admin_id=$2`,
		rec.ID, adminID,
		nullInt(rec.Month), nullInt(rec.Year), nullInt(rec.WeekNumber), nullString(rec.PeriodDate),
		rec.Amount, rec.AmountPaid, rec.Status, rec.IsPaid, rec.DueDate, rec.PaymentDate,
		rec.PaymentHistory, rec.Notes)
	if isUniqueViolation(err) {
		return fmt.Errorf("rent record %s period %s: %w", rec.ID, rec.PeriodKey(), apperr.ErrDuplicatePeriod)
	}
	if err != nil {
		return apperr.Dependency("update rent record", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("rent record %s not found", rec.ID)
	}
	return nil
}

func (r *RentRecordRepository) Delete(ctx context.Context, adminID int, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM rent_records WHERE id=$1 AND admin_id=$2`, id, adminID)
	if err != nil {
		return apperr.Dependency("delete rent record", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("rent record %s not found", id)
	}
	return nil
}

// DeleteByTenant removes every record of a tenant being deleted.
func (r *RentRecordRepository) DeleteByTenant(ctx context.Context, adminID int, tenantID uuid.UUID) (int64, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM rent_records WHERE tenant_id=$1 AND admin_id=$2`, tenantID, adminID)
	if err != nil {
		return 0, apperr.Dependency("delete tenant rent records", err)
	}
	return tag.RowsAffected(), nil
}

// List returns one page of an admin's records, newest due date first,
// together with the total number of matching records.
func (r *RentRecordRepository) List(ctx context.Context, adminID int, filter models.RentFilter) ([]*models.RentRecord, int, error) {
	where := []string{"admin_id=$1"}
	args := []any{adminID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.TenantID != nil {
		args = append(args, *filter.TenantID)
		where = append(where, fmt.Sprintf("tenant_id=$%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM rent_records WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Dependency("count rent records", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	recs, err := r.query(ctx, "list rent records",
		fmt.Sprintf(`SELECT %s FROM rent_records WHERE %s ORDER BY due_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
			rentColumns, cond, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// FindLatestForTenant returns the record with the latest due date, or nil.
func (r *RentRecordRepository) FindLatestForTenant(ctx context.Context, tenantID uuid.UUID) (*models.RentRecord, error) {
	return r.first(ctx, "find latest rent record",
		`SELECT `+rentColumns+` FROM rent_records WHERE tenant_id=$1
         ORDER BY due_date DESC, created_at DESC LIMIT 1`, tenantID)
}

// FindLatestPaidForTenant returns the fully paid record with the latest
// due date, or nil.
func (r *RentRecordRepository) FindLatestPaidForTenant(ctx context.Context, tenantID uuid.UUID) (*models.RentRecord, error) {
	return r.first(ctx, "find latest paid rent record",
		`SELECT `+rentColumns+` FROM rent_records WHERE tenant_id=$1 AND is_paid
         ORDER BY due_date DESC, created_at DESC LIMIT 1`, tenantID)
}

// FindByPeriod returns the tenant's record for key, or nil.
func (r *RentRecordRepository) FindByPeriod(ctx context.Context, tenantID uuid.UUID, key period.Key) (*models.RentRecord, error) {
	base := `SELECT ` + rentColumns + ` FROM rent_records WHERE tenant_id=$1 AND payment_period=$2 AND `
	switch key.Kind {
	case period.Monthly:
		return r.first(ctx, "find rent record by period", base+`month=$3 AND year=$4`,
			tenantID, key.Kind, key.Month, key.Year)
	case period.Weekly:
		return r.first(ctx, "find rent record by period", base+`week_number=$3 AND year=$4`,
			tenantID, key.Kind, key.WeekNumber, key.Year)
	case period.Daily:
		return r.first(ctx, "find rent record by period", base+`period_date=$3`,
			tenantID, key.Kind, key.Date)
	default:
		return nil, apperr.ErrInvalidPeriodKind
	}
}

// ListUnpaidDueBefore returns an admin's unpaid records due strictly
// before the given day, oldest first.
func (r *RentRecordRepository) ListUnpaidDueBefore(ctx context.Context, adminID int, before time.Time) ([]*models.RentRecord, error) {
	return r.query(ctx, "list overdue rent records",
		`SELECT `+rentColumns+` FROM rent_records
         WHERE admin_id=$1 AND NOT is_paid AND due_date < $2
         ORDER BY due_date, created_at`, adminID, before)
}

// ListUnpaidDueBetween returns an admin's unpaid records with from <= due <= to.
func (r *RentRecordRepository) ListUnpaidDueBetween(ctx context.Context, adminID int, from, to time.Time) ([]*models.RentRecord, error) {
	return r.query(ctx, "list upcoming rent records",
		`SELECT `+rentColumns+` FROM rent_records
         WHERE admin_id=$1 AND NOT is_paid AND due_date >= $2 AND due_date <= $3
         ORDER BY due_date, created_at`, adminID, from, to)
}

// MarkOverdue moves every unpaid record due before the given day to
// Overdue across all admins and reports how many changed.
func (r *RentRecordRepository) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE rent_records SET status='Overdue', updated_at=NOW()
         WHERE NOT is_paid AND due_date < $1 AND status <> 'Overdue'`, before)
	if err != nil {
		return 0, apperr.Dependency("mark overdue rent records", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RentRecordRepository) first(ctx context.Context, op, sql string, args ...any) (*models.RentRecord, error) {
	rec, err := scanRent(r.DB.QueryRow(ctx, sql, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	return rec, nil
}

func (r *RentRecordRepository) query(ctx context.Context, op, sql string, args ...any) ([]*models.RentRecord, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	defer rows.Close()

	recs := []*models.RentRecord{}
	for rows.Next() {
		rec, err := scanRent(rows)
		if err != nil {
			return nil, apperr.Dependency(op, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency(op, err)
	}
	return recs, nil
}

func scanRent(row rowScanner) (*models.RentRecord, error) {
	var rec models.RentRecord
	err := row.Scan(&rec.ID, &rec.AdminID, &rec.TenantID, &rec.RoomID, &rec.PaymentPeriod,
		&rec.Month, &rec.Year, &rec.WeekNumber, &rec.PeriodDate,
		&rec.Amount, &rec.AmountPaid, &rec.Status, &rec.IsPaid, &rec.DueDate, &rec.PaymentDate,
		&rec.PaymentHistory, &rec.Notes, &rec.TenantName, &rec.TenantPhone, &rec.RoomNumber,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.DueDate = timeutil.DateOf(rec.DueDate)
	if rec.PaymentHistory == nil {
		rec.PaymentHistory = []models.PaymentEntry{}
	}
	return &rec, nil
}
