package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"designmart/internal/model"
	"designmart/internal/pubsub"
	"designmart/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// DesignService defines design-related operations: designer uploads, admin
// moderation and credit-gated buyer downloads.
type DesignService interface {
	// InitiateUpload creates a design record and returns a presigned URL
	// for the designer to upload the file directly to object storage.
	InitiateUpload(ctx context.Context, designerID, title, category, filename string) (*model.Design, string, error)
	// CompleteUpload verifies the file landed, runs the duplicate screen
	// and moves the design into moderation.
	CompleteUpload(ctx context.Context, designID, designerID string) (*model.Design, error)
	// Moderate applies an admin approve/reject decision.
	Moderate(ctx context.Context, designID string, approve bool) (*model.Design, error)
	// ListApproved returns purchasable designs.
	ListApproved(ctx context.Context, category string, limit, offset int) ([]model.Design, error)
	// Download spends one credit from the buyer's ledger and returns a
	// presigned GET URL plus the pool that was debited. An insufficient
	// balance is a hard stop: no URL is handed out.
	Download(ctx context.Context, designID, buyerID string) (string, *model.CreditPool, error)
}

type designService struct {
	repo          repository.DesignRepository
	creditSvc     CreditService
	checker       DuplicateChecker
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	publisher     pubsub.Publisher
	topic         string
	logger        zerolog.Logger
}

// NewDesignService creates a new DesignService.
func NewDesignService(
	repo repository.DesignRepository,
	creditSvc CreditService,
	checker DuplicateChecker,
	s3Client *s3.Client,
	bucketName string,
	publisher pubsub.Publisher,
	eventTopic string,
	logger zerolog.Logger,
) DesignService {
	return &designService{
		repo:          repo,
		creditSvc:     creditSvc,
		checker:       checker,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
		publisher:     publisher,
		topic:         eventTopic,
		logger:        logger.With().Str("service", "DesignService").Logger(),
	}
}

// InitiateUpload creates a design record with 'uploading' status and returns
// a presigned PUT URL for direct upload.
func (s *designService) InitiateUpload(ctx context.Context, designerID, title, category, filename string) (*model.Design, string, error) {
	if title == "" {
		title = filename
	}
	design := &model.Design{
		DesignerID: designerID,
		Title:      title,
		Category:   category,
		Status:     model.DesignStatusUploading,
	}
	if err := s.repo.CreateDesign(ctx, design); err != nil {
		s.logger.Error().Err(err).Str("designer_id", designerID).Msg("Failed to create design record for upload")
		return nil, "", fmt.Errorf("failed to create design record: %w", err)
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	storagePath := fmt.Sprintf("designs/%s/original%s", design.ID, ext)
	presignedURL, err := s.getPresignedPutURL(ctx, storagePath)
	if err != nil {
		_ = s.repo.DeleteDesign(ctx, design.ID)
		s.logger.Error().Err(err).Str("design_id", design.ID).Msg("Failed to generate presigned PUT URL")
		return nil, "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	design.StoragePath = storagePath
	if err := s.repo.UpdateDesign(ctx, design); err != nil {
		_ = s.repo.DeleteDesign(ctx, design.ID)
		s.logger.Error().Err(err).Str("design_id", design.ID).Msg("Failed to update design with storage path")
		return nil, "", fmt.Errorf("failed to update design with storage path: %w", err)
	}
	return design, presignedURL, nil
}

// CompleteUpload verifies the object exists in storage, screens it for
// duplicates and parks it in moderation.
func (s *designService) CompleteUpload(ctx context.Context, designID, designerID string) (*model.Design, error) {
	design, err := s.repo.GetDesignByID(ctx, designID)
	if err != nil {
		s.logger.Error().Err(err).Str("design_id", designID).Msg("Failed to get design for completion")
		return nil, fmt.Errorf("failed to retrieve design: %w", err)
	}
	if design == nil {
		return nil, fmt.Errorf("complete upload: %w", repository.ErrNotFound)
	}
	if design.DesignerID != designerID {
		return nil, validationErr("design_id", "design belongs to another designer")
	}

	if _, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(design.StoragePath),
	}); err != nil {
		s.logger.Error().Err(err).Str("storage_path", design.StoragePath).Msg("File not found in storage at expected path")
		return nil, fmt.Errorf("file not found in storage: %w", err)
	}

	duplicate, err := s.checker.IsDuplicate(ctx, design.StoragePath)
	if err != nil {
		// Screening is advisory; a broken similarity service must not
		// block uploads, so the design proceeds to human review.
		s.logger.Warn().Err(err).Str("design_id", designID).Msg("Duplicate screening failed, passing design to review")
		duplicate = false
	}
	if duplicate {
		design.Status = model.DesignStatusRejectedDuplicate
	} else {
		design.Status = model.DesignStatusPendingReview
	}
	if err := s.repo.UpdateDesign(ctx, design); err != nil {
		s.logger.Error().Err(err).Str("design_id", designID).Msg("Failed to update design status after screening")
		return nil, fmt.Errorf("failed to update design status: %w", err)
	}
	return design, nil
}

// Moderate applies an admin decision to a design awaiting review.
func (s *designService) Moderate(ctx context.Context, designID string, approve bool) (*model.Design, error) {
	design, err := s.repo.GetDesignByID(ctx, designID)
	if err != nil {
		s.logger.Error().Err(err).Str("design_id", designID).Msg("Failed to get design for moderation")
		return nil, fmt.Errorf("failed to retrieve design: %w", err)
	}
	if design == nil {
		return nil, fmt.Errorf("moderate design: %w", repository.ErrNotFound)
	}
	if approve {
		design.Status = model.DesignStatusApproved
	} else {
		design.Status = model.DesignStatusRejected
	}
	if err := s.repo.UpdateDesign(ctx, design); err != nil {
		s.logger.Error().Err(err).Str("design_id", designID).Msg("Failed to apply moderation decision")
		return nil, fmt.Errorf("failed to update design: %w", err)
	}
	s.logger.Info().Str("design_id", designID).Str("status", string(design.Status)).Msg("Design moderated")
	s.publishModerated(ctx, design)
	return design, nil
}

// publishModerated fans a moderation decision out so the designer can be
// notified. Publishing is observational: failures are logged and the
// decision stands.
func (s *designService) publishModerated(ctx context.Context, design *model.Design) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	payload := struct {
		Event      string `json:"event"`
		DesignID   string `json:"design_id"`
		DesignerID string `json:"designer_id"`
		Status     string `json:"status"`
	}{
		Event:      "design.moderated",
		DesignID:   design.ID,
		DesignerID: design.DesignerID,
		Status:     string(design.Status),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("design_id", design.ID).Msg("Failed to marshal moderation event")
		return
	}
	if _, err := s.publisher.Publish(ctx, s.topic, data); err != nil {
		s.logger.Error().Err(err).Str("design_id", design.ID).Str("topic", s.topic).Msg("Failed to publish moderation event")
	}
}

// ListApproved returns purchasable designs.
func (s *designService) ListApproved(ctx context.Context, category string, limit, offset int) ([]model.Design, error) {
	designs, err := s.repo.ListApproved(ctx, category, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("category", category).Msg("Failed to list approved designs")
		return nil, err
	}
	return designs, nil
}

// Download debits one credit and only then hands out a presigned GET URL.
func (s *designService) Download(ctx context.Context, designID, buyerID string) (string, *model.CreditPool, error) {
	design, err := s.repo.GetDesignByID(ctx, designID)
	if err != nil {
		s.logger.Error().Err(err).Str("design_id", designID).Msg("Failed to get design for download")
		return "", nil, fmt.Errorf("failed to retrieve design: %w", err)
	}
	if design == nil {
		return "", nil, fmt.Errorf("download design: %w", repository.ErrNotFound)
	}
	if design.Status != model.DesignStatusApproved {
		return "", nil, validationErr("design_id", "design is not available for download")
	}

	pool, err := s.creditSvc.Consume(ctx, buyerID, 1, fmt.Sprintf("Downloaded design %q", design.Title))
	if err != nil {
		return "", nil, err
	}

	url, err := s.getPresignedGetURL(ctx, design.StoragePath)
	if err != nil {
		// The credit is already spent; surfacing the error without a URL
		// lets the buyer retry the fetch through support rather than
		// silently double-charging via a second consume.
		s.logger.Error().Err(err).Str("design_id", designID).Str("buyer_id", buyerID).Msg("Failed to presign download after debit")
		return "", nil, fmt.Errorf("failed to generate download URL: %w", err)
	}

	if err := s.repo.IncrementDownloads(ctx, designID); err != nil {
		s.logger.Warn().Err(err).Str("design_id", designID).Msg("Failed to bump download counter")
	}
	return url, pool, nil
}

// getPresignedGetURL generates a signed URL for fetching an object.
func (s *designService) getPresignedGetURL(ctx context.Context, objectKey string) (string, error) {
	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return resp.URL, nil
}

// getPresignedPutURL generates a presigned URL for uploading an object.
func (s *designService) getPresignedPutURL(ctx context.Context, objectKey string) (string, error) {
	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned PUT URL: %w", err)
	}
	return request.URL, nil
}
