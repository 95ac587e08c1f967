package store

import "time"

type User struct {
	ID            string
	DisplayName   string
	Email         string
	PasswordHash  string
	ProfileID     string
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Document is the metadata row for one uploaded supporting document; the
// bytes live in object storage under ObjectKey.
type Document struct {
	ID          string
	MissionID   string
	Level       string // group | client | mission
	TargetID    string
	Field       string // canonical flag name the document supports
	Filename    string
	ContentType string
	SizeBytes   int64
	ObjectKey   string
	UploadedBy  string
	UploadedAt  time.Time
}
