package model

import "time"

// DesignStatus tracks a design through upload, duplicate screening and
// moderation.
type DesignStatus string

const (
	DesignStatusUploading         DesignStatus = "uploading"
	DesignStatusPendingReview     DesignStatus = "pending_review"
	DesignStatusApproved          DesignStatus = "approved"
	DesignStatusRejected          DesignStatus = "rejected"
	DesignStatusRejectedDuplicate DesignStatus = "rejected_duplicate"
)

// Design is one uploaded graphic design. The file itself lives in object
// storage under StoragePath; buyers reach it only through presigned URLs
// handed out after a successful credit debit.
type Design struct {
	ID          string       `db:"id" json:"id"`
	DesignerID  string       `db:"designer_id" json:"designer_id"`
	Title       string       `db:"title" json:"title"`
	Category    string       `db:"category" json:"category"`
	StoragePath string       `db:"storage_path" json:"-"`
	Status      DesignStatus `db:"status" json:"status"`
	Downloads   int          `db:"downloads" json:"downloads"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}
