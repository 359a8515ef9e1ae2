package models

import "time"

// Pending orig lifecycle states.
const (
	PendingStatusPending  = "pending"
	PendingStatusArchived = "archived"
)

// PendingArchiveOrig is content persisted by the mail-ingestion pipeline but
// not yet attached to an archive. It becomes claimable by a user only when the
// sender address appears in that user's whitelist.
type PendingArchiveOrig struct {
	ID               int64     `db:"id" json:"id"`
	SenderEmail      string    `db:"sender_email" json:"senderEmail"`
	MessageID        string    `db:"message_id" json:"messageId"`
	Subject          string    `db:"subject" json:"subject"`
	OriginalFilename string    `db:"original_filename" json:"originalFilename"`
	StorageURL       string    `db:"storage_url" json:"storageUrl"`
	FileType         *string   `db:"file_type" json:"fileType,omitempty"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// EmailWhitelistEntry approves one sender address for one user.
type EmailWhitelistEntry struct {
	ID     int64  `db:"id" json:"id"`
	UserID int64  `db:"user_id" json:"userId"`
	Email  string `db:"email" json:"email"`
}
