package models

import "time"

// LoginLog is one successful admin sign-in.
type LoginLog struct {
	ID        int       `json:"id"`
	AdminID   int       `json:"admin_id"`
	LoginTime time.Time `json:"login_time"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}
