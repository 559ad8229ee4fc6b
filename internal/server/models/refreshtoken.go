package models

import "time"

// RefreshToken is a single-use token bound to the device that obtained it.
// It is rotated (deleted and reissued) on every refresh.
type RefreshToken struct {
	Token     string
	UserID    string
	DeviceID  string
	CreatedAt time.Time
	ExpiresAt time.Time
}
