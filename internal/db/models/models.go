package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"` // admin, user
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryRecord is one past conversion for a user. Records are written once
// per processed upload and never updated or deleted; audio is not retained.
type HistoryRecord struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	FileName       string    `json:"file_name"`
	ExtractedText  string    `json:"extracted_text"`
	SimplifiedText string    `json:"simplified_text"`
	Timestamp      time.Time `json:"timestamp"`
}
