package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
)

type LoginLogRepository struct {
	DB *pgxpool.Pool
}

func NewLoginLogRepository(db *pgxpool.Pool) *LoginLogRepository {
	return &LoginLogRepository{DB: db}
}

// Record stores a login event
func (r *LoginLogRepository) Record(ctx context.Context, adminID int, ipAddress, userAgent string) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO login_logs (admin_id, login_time, ip_address, user_agent)
         VALUES ($1, NOW(), $2, $3)`,
		adminID, nullString(ipAddress), nullString(userAgent))
	if err != nil {
		return apperr.Dependency("record login", err)
	}
	return nil
}

// ListForAdmin returns the admin's most recent logins, newest first
func (r *LoginLogRepository) ListForAdmin(ctx context.Context, adminID, limit int) ([]*models.LoginLog, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, admin_id, login_time, COALESCE(ip_address, ''), COALESCE(user_agent, '')
         FROM login_logs
         WHERE admin_id = $1
         ORDER BY login_time DESC
         LIMIT $2`, adminID, limit)
	if err != nil {
		return nil, apperr.Dependency("list logins", err)
	}
	defer rows.Close()

	var logs []*models.LoginLog
	for rows.Next() {
		var l models.LoginLog
		if err := rows.Scan(&l.ID, &l.AdminID, &l.LoginTime, &l.IPAddress, &l.UserAgent); err != nil {
			return nil, apperr.Dependency("scan login", err)
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency("list logins", err)
	}
	return logs, nil
}
