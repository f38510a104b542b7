package dto

import "time"

// DesignUploadDTO is an incoming upload initiation request.
type DesignUploadDTO struct {
	Title    string `json:"title" validate:"required"`
	Category string `json:"category" validate:"required"`
	Filename string `json:"filename" validate:"required"`
}

// DesignUploadResponseDTO returns the created design plus a presigned PUT
// URL the designer uploads the file to.
type DesignUploadResponseDTO struct {
	Design    DesignResponseDTO `json:"design"`
	UploadURL string            `json:"upload_url"`
}

// DesignResponseDTO is returned in API responses for designs.
type DesignResponseDTO struct {
	DesignID   string    `json:"design_id"`
	DesignerID string    `json:"designer_id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	Downloads  int       `json:"downloads"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DesignModerateDTO is an incoming admin moderation decision.
type DesignModerateDTO struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

// DesignDownloadResponseDTO returns a presigned GET URL after a successful
// credit debit, plus the balance left on the pool that was charged.
type DesignDownloadResponseDTO struct {
	DownloadURL      string `json:"download_url"`
	PoolID           string `json:"pool_id"`
	CreditsRemaining int    `json:"credits_remaining"`
}
