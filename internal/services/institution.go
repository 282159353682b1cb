package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

// EventPublisher delivers change notifications to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// InstitutionService encapsulates institution use-cases.
type InstitutionService struct {
	repo      store.InstitutionRepository
	publisher EventPublisher
	channel   string
	now       func() time.Time
}

type InstitutionOption func(*InstitutionService)

// WithEventPublisher publishes an InstitutionEvent on channel after every
// successful write.
func WithEventPublisher(publisher EventPublisher, channel string) InstitutionOption {
	return func(s *InstitutionService) {
		s.publisher = publisher
		s.channel = channel
	}
}

func NewInstitutionService(repo store.InstitutionRepository, opts ...InstitutionOption) *InstitutionService {
	s := &InstitutionService{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InstitutionService) List(ctx context.Context) ([]types.Institution, error) {
	return s.repo.List(ctx)
}

// Search returns the institutions whose name, director, national ID, phone
// or email contain term, ignoring case and accents.
func (s *InstitutionService) Search(ctx context.Context, term string) ([]types.Institution, error) {
	institutions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterInstitutions(institutions, term), nil
}

func (s *InstitutionService) Get(ctx context.Context, id int) (types.Institution, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new institution. A duplicate national ID
// yields store.ErrConflict, either from the pre-check or from the unique
// index when two writers race.
func (s *InstitutionService) Create(ctx context.Context, input types.Institution) (types.Institution, error) {
	institution := normalizeInstitution(input)
	institution.ID = 0
	if err := validateInstitution(institution); err != nil {
		return types.Institution{}, err
	}

	exists, err := s.repo.ExistsWithNationalID(ctx, institution.NationalID, 0)
	if err != nil {
		return types.Institution{}, err
	}
	if exists {
		return types.Institution{}, store.ErrConflict
	}

	created, err := s.repo.Create(ctx, institution)
	if err != nil {
		return types.Institution{}, err
	}
	s.publish(ctx, types.InstitutionCreated, created.ID, created.NationalID)
	return created, nil
}

// Update overwrites every mutable field of institution id. The record may
// keep its own national ID.
func (s *InstitutionService) Update(ctx context.Context, id int, input types.Institution) (types.Institution, error) {
	institution := normalizeInstitution(input)
	institution.ID = id
	if err := validateInstitution(institution); err != nil {
		return types.Institution{}, err
	}

	exists, err := s.repo.ExistsWithNationalID(ctx, institution.NationalID, id)
	if err != nil {
		return types.Institution{}, err
	}
	if exists {
		return types.Institution{}, store.ErrConflict
	}

	updated, err := s.repo.Update(ctx, institution)
	if err != nil {
		return types.Institution{}, err
	}
	s.publish(ctx, types.InstitutionUpdated, updated.ID, updated.NationalID)
	return updated, nil
}

// Delete removes institution id and returns the number of removed rows.
// Nothing removed is reported as store.ErrNotFound alongside a zero count.
func (s *InstitutionService) Delete(ctx context.Context, id int) (int64, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, store.ErrNotFound
	}
	s.publish(ctx, types.InstitutionDeleted, id, "")
	return removed, nil
}

// publish is best-effort: the write already succeeded, so a broker failure
// is logged and not returned.
func (s *InstitutionService) publish(ctx context.Context, eventType types.InstitutionEventType, id int, nationalID string) {
	if s.publisher == nil {
		return
	}

	event := types.InstitutionEvent{
		Type:          eventType,
		InstitutionID: id,
		NationalID:    nationalID,
		OccurredAt:    s.now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("encode institution event: %v", err)
		return
	}
	attrs := map[string]string{
		"type":           string(eventType),
		"institution_id": strconv.Itoa(id),
	}
	if _, err := s.publisher.Publish(ctx, s.channel, data, attrs); err != nil {
		log.Printf("publish institution %s event for %d: %v", eventType, id, err)
	}
}
