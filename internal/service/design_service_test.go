package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"designmart/internal/model"
	"designmart/internal/repository"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

type fakeDesignRepo struct {
	designs map[string]*model.Design
	nextID  int
}

func newFakeDesignRepo() *fakeDesignRepo {
	return &fakeDesignRepo{designs: make(map[string]*model.Design)}
}

func (f *fakeDesignRepo) CreateDesign(_ context.Context, d *model.Design) error {
	f.nextID++
	d.ID = fmt.Sprintf("design-%d", f.nextID)
	cp := *d
	f.designs[d.ID] = &cp
	return nil
}

func (f *fakeDesignRepo) GetDesignByID(_ context.Context, id string) (*model.Design, error) {
	d, ok := f.designs[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDesignRepo) UpdateDesign(_ context.Context, d *model.Design) error {
	cp := *d
	f.designs[d.ID] = &cp
	return nil
}

func (f *fakeDesignRepo) DeleteDesign(_ context.Context, id string) error {
	delete(f.designs, id)
	return nil
}

func (f *fakeDesignRepo) ListApproved(_ context.Context, category string, limit, offset int) ([]model.Design, error) {
	var out []model.Design
	for _, d := range f.designs {
		if d.Status != model.DesignStatusApproved {
			continue
		}
		if category != "" && d.Category != category {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDesignRepo) IncrementDownloads(_ context.Context, id string) error {
	if d, ok := f.designs[id]; ok {
		d.Downloads++
	}
	return nil
}

// brokeCreditService refuses every consume.
type brokeCreditService struct {
	CreditService
}

func (brokeCreditService) Consume(context.Context, string, int, string) (*model.CreditPool, error) {
	return nil, fmt.Errorf("consume: %w", repository.ErrInsufficientCredits)
}

// capturingPublisher records every published payload for inspection.
type capturingPublisher struct {
	topics   []string
	payloads [][]byte
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return fmt.Sprintf("msg-%d", len(p.payloads)), nil
}

func newTestDesignService(repo repository.DesignRepository, creditSvc CreditService) DesignService {
	client := s3.New(s3.Options{Region: "us-east-1"})
	return NewDesignService(repo, creditSvc, NewSimilarityClient("", zerolog.Nop()), client, "designs", nil, "", zerolog.Nop())
}

func TestModerate(t *testing.T) {
	repo := newFakeDesignRepo()
	svc := newTestDesignService(repo, nil)

	d := &model.Design{DesignerID: "designer-1", Title: "Logo", Status: model.DesignStatusPendingReview}
	if err := repo.CreateDesign(context.Background(), d); err != nil {
		t.Fatalf("seed design: %v", err)
	}

	approved, err := svc.Moderate(context.Background(), d.ID, true)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != model.DesignStatusApproved {
		t.Errorf("expected approved status, got %s", approved.Status)
	}

	rejected, err := svc.Moderate(context.Background(), d.ID, false)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != model.DesignStatusRejected {
		t.Errorf("expected rejected status, got %s", rejected.Status)
	}
}

func TestModeratePublishesDecision(t *testing.T) {
	repo := newFakeDesignRepo()
	pub := &capturingPublisher{}
	client := s3.New(s3.Options{Region: "us-east-1"})
	svc := NewDesignService(repo, nil, NewSimilarityClient("", zerolog.Nop()), client, "designs", pub, "ledger_events", zerolog.Nop())

	d := &model.Design{DesignerID: "designer-1", Title: "Logo", Status: model.DesignStatusPendingReview}
	if err := repo.CreateDesign(context.Background(), d); err != nil {
		t.Fatalf("seed design: %v", err)
	}

	if _, err := svc.Moderate(context.Background(), d.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(pub.payloads) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.payloads))
	}
	if pub.topics[0] != "ledger_events" {
		t.Errorf("published to topic %q", pub.topics[0])
	}
	var event struct {
		Event      string `json:"event"`
		DesignID   string `json:"design_id"`
		DesignerID string `json:"designer_id"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(pub.payloads[0], &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Event != "design.moderated" {
		t.Errorf("expected design.moderated event, got %q", event.Event)
	}
	if event.DesignID != d.ID || event.DesignerID != "designer-1" {
		t.Errorf("event names the wrong design: %+v", event)
	}
	if event.Status != string(model.DesignStatusApproved) {
		t.Errorf("expected approved status in event, got %q", event.Status)
	}
}

func TestModerateMissingDesign(t *testing.T) {
	svc := newTestDesignService(newFakeDesignRepo(), nil)
	_, err := svc.Moderate(context.Background(), "design-missing", true)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDownloadRequiresApprovedDesign(t *testing.T) {
	repo := newFakeDesignRepo()
	svc := newTestDesignService(repo, brokeCreditService{})

	d := &model.Design{DesignerID: "designer-1", Title: "Logo", Status: model.DesignStatusPendingReview}
	if err := repo.CreateDesign(context.Background(), d); err != nil {
		t.Fatalf("seed design: %v", err)
	}

	var ve *ValidationError
	_, _, err := svc.Download(context.Background(), d.ID, "buyer-1")
	if !errors.As(err, &ve) {
		t.Errorf("expected validation error for unapproved design, got %v", err)
	}
}

func TestDownloadInsufficientCreditsIsHardStop(t *testing.T) {
	repo := newFakeDesignRepo()
	svc := newTestDesignService(repo, brokeCreditService{})

	d := &model.Design{DesignerID: "designer-1", Title: "Logo", Status: model.DesignStatusApproved, StoragePath: "designs/x/original.png"}
	if err := repo.CreateDesign(context.Background(), d); err != nil {
		t.Fatalf("seed design: %v", err)
	}

	url, pool, err := svc.Download(context.Background(), d.ID, "buyer-1")
	if !errors.Is(err, repository.ErrInsufficientCredits) {
		t.Fatalf("expected insufficient credits, got %v", err)
	}
	if url != "" || pool != nil {
		t.Error("no URL or pool may be handed out when the debit fails")
	}
	if repo.designs[d.ID].Downloads != 0 {
		t.Error("download counter must not move on a failed debit")
	}
}
