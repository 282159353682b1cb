package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

func TestCreateAssignsIDAndRegisteredAt(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())

	created, err := svc.Create(context.Background(), validInstitution("12345678"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("id = %d, want 1", created.ID)
	}
	if created.RegisteredAt.IsZero() {
		t.Fatalf("expected registered_at to be set")
	}
}

func TestCreateNormalizesInput(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())

	input := validInstitution(" 1234 5678 ")
	input.Name = "  I.E. 1192  "
	input.Phone = "987 654 321"
	created, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.NationalID != "12345678" || created.Phone != "987654321" || created.Name != "I.E. 1192" {
		t.Fatalf("unexpected normalized record: %+v", created)
	}
}

func TestCreateRejectsInvalidFields(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())

	tests := []struct {
		name   string
		mutate func(*types.Institution)
		field  string
	}{
		{"missing name", func(i *types.Institution) { i.Name = " " }, "name"},
		{"missing director", func(i *types.Institution) { i.DirectorName = "" }, "director_name"},
		{"short national id", func(i *types.Institution) { i.NationalID = "1234567" }, "national_id"},
		{"letters in national id", func(i *types.Institution) { i.NationalID = "1234567a" }, "national_id"},
		{"signed national id", func(i *types.Institution) { i.NationalID = "-1234567" }, "national_id"},
		{"decimal phone", func(i *types.Institution) { i.Phone = "98765.432" }, "phone"},
		{"partial classroom", func(i *types.Institution) { i.Classroom = "Con aula" }, "classroom"},
		{"unknown appointment", func(i *types.Institution) { i.Appointment = "Interino" }, "appointment"},
		{"unknown classroom", func(i *types.Institution) { i.Classroom = "" }, "classroom"},
		{"long phone", func(i *types.Institution) { i.Phone = "9876543210" }, "phone"},
		{"bad email", func(i *types.Institution) { i.Email = "a@b" }, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInstitution("12345678")
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("expected field %q in %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestValidationErrorListsEveryField(t *testing.T) {
	err := validateInstitution(types.Institution{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 7 {
		t.Fatalf("fields = %v, want 7 entries", verr.Fields)
	}
	if !strings.HasPrefix(verr.Error(), "invalid institution: appointment:") {
		t.Fatalf("unexpected message %q", verr.Error())
	}
}

func TestValidationMessagesUseJSONNames(t *testing.T) {
	input := validInstitution("1234")
	input.Email = ""
	input.Appointment = "Interino"

	err := validateInstitution(normalizeInstitution(input))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := map[string]string{
		"national_id": "national id must have 8 digits",
		"email":       "email is required",
		"appointment": `appointment must be "Encargado" or "Designado"`,
	}
	if len(verr.Fields) != len(want) {
		t.Fatalf("fields = %v, want %v", verr.Fields, want)
	}
	for field, msg := range want {
		if verr.Fields[field] != msg {
			t.Fatalf("fields[%q] = %q, want %q", field, verr.Fields[field], msg)
		}
	}

	if err := validateInstitution(validInstitution("12345678")); err != nil {
		t.Fatalf("valid institution rejected: %v", err)
	}
}

func TestCreateDuplicateNationalIDConflicts(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())
	ctx := context.Background()

	if _, err := svc.Create(ctx, validInstitution("12345678")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, validInstitution("12345678")); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("list length = %d, want 1", len(items))
	}
}

func TestUpdateKeepsOwnNationalID(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())
	ctx := context.Background()

	created, err := svc.Create(ctx, validInstitution("12345678"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	input := validInstitution("12345678")
	input.Phone = "999999999"
	updated, err := svc.Update(ctx, created.ID, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != "999999999" {
		t.Fatalf("phone = %q, want 999999999", updated.Phone)
	}
	if !updated.RegisteredAt.Equal(created.RegisteredAt) {
		t.Fatalf("registered_at changed from %s to %s", created.RegisteredAt, updated.RegisteredAt)
	}
}

func TestUpdateRejectsOtherNationalID(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())
	ctx := context.Background()

	if _, err := svc.Create(ctx, validInstitution("11111111")); err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, validInstitution("22222222"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, second.ID, validInstitution("11111111")); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())

	if _, err := svc.Update(context.Background(), 42, validInstitution("12345678")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())
	ctx := context.Background()

	created, err := svc.Create(ctx, validInstitution("12345678"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, err := svc.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	removed, err = svc.Delete(ctx, created.ID)
	if !errors.Is(err, store.ErrNotFound) || removed != 0 {
		t.Fatalf("second delete = (%d, %v), want (0, not found)", removed, err)
	}
}

func TestSearchIgnoresAccentsAndCase(t *testing.T) {
	svc := NewInstitutionService(newBackend(t).Institutions())
	ctx := context.Background()

	first := validInstitution("11111111")
	second := validInstitution("22222222")
	second.DirectorName = "Juan Pérez"
	second.Email = "juan@colegio.edu.pe"
	for _, input := range []types.Institution{first, second} {
		if _, err := svc.Create(ctx, input); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		term string
		want int
	}{
		{"", 2},
		{"MARIA", 1},
		{"perez", 1},
		{"Pérez", 1},
		{"2222", 1},
		{"colegio", 1},
		{"1192", 2},
		{"nadie", 0},
	}
	for _, tt := range tests {
		got, err := svc.Search(ctx, tt.term)
		if err != nil {
			t.Fatalf("search %q: %v", tt.term, err)
		}
		if len(got) != tt.want {
			t.Fatalf("search %q = %d results, want %d", tt.term, len(got), tt.want)
		}
	}
}

func TestWritesPublishEvents(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewInstitutionService(newBackend(t).Institutions(), WithEventPublisher(pub, "institution-events"))
	ctx := context.Background()

	created, err := svc.Create(ctx, validInstitution("12345678"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, created.ID, validInstitution("12345678")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Failed writes publish nothing.
	_, _ = svc.Delete(ctx, created.ID)

	got := strings.Join(pub.types(), ",")
	if got != "created,updated,deleted" {
		t.Fatalf("event types = %q", got)
	}

	var event types.InstitutionEvent
	if err := json.Unmarshal(pub.events[0].data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.InstitutionID != created.ID || event.NationalID != "12345678" || pub.events[0].channel != "institution-events" {
		t.Fatalf("unexpected event %+v on %q", event, pub.events[0].channel)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewInstitutionService(newBackend(t).Institutions(), WithEventPublisher(pub, "institution-events"))

	if _, err := svc.Create(context.Background(), validInstitution("12345678")); err != nil {
		t.Fatalf("create: %v", err)
	}
}
