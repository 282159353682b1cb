// Package storetest holds the contract every store.Backend must satisfy.
// Backend packages run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

// Opener returns an empty, migrated backend. It is called once per subtest.
type Opener func(t *testing.T) store.Backend

// Run executes the conformance suite against the backends produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("CreateThenGet", func(t *testing.T) { testCreateThenGet(t, open(t)) })
	t.Run("DuplicateNationalID", func(t *testing.T) { testDuplicateNationalID(t, open(t)) })
	t.Run("ConcurrentDuplicateCreates", func(t *testing.T) { testConcurrentDuplicateCreates(t, open(t)) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListNewestFirst(t, open(t)) })
	t.Run("UpdateKeepsRegisteredAt", func(t *testing.T) { testUpdateKeepsRegisteredAt(t, open(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, open(t)) })
	t.Run("UpdateDuplicateNationalID", func(t *testing.T) { testUpdateDuplicateNationalID(t, open(t)) })
	t.Run("DeleteReportsCount", func(t *testing.T) { testDeleteReportsCount(t, open(t)) })
	t.Run("ExistsWithNationalID", func(t *testing.T) { testExistsWithNationalID(t, open(t)) })
	t.Run("AdminCreateIfAbsent", func(t *testing.T) { testAdminCreateIfAbsent(t, open(t)) })
}

// Institution returns a valid record carrying nationalID.
func Institution(nationalID string) types.Institution {
	return types.Institution{
		Name:         "I.E. 1192",
		DirectorName: "María González",
		NationalID:   nationalID,
		Appointment:  types.AppointmentDesignated,
		Classroom:    types.ClassroomAssigned,
		Phone:        "987654321",
		Email:        "a@b.edu.pe",
	}
}

func mustCreate(t *testing.T, repo store.InstitutionRepository, institution types.Institution) types.Institution {
	t.Helper()
	created, err := repo.Create(context.Background(), institution)
	if err != nil {
		t.Fatalf("create %s: %v", institution.NationalID, err)
	}
	return created
}

func testCreateThenGet(t *testing.T, backend store.Backend) {
	repo := backend.Institutions()
	input := Institution("12345678")
	created := mustCreate(t, repo, input)

	if created.ID < 1 {
		t.Fatalf("expected assigned id, got %d", created.ID)
	}
	if created.RegisteredAt.IsZero() {
		t.Fatalf("expected registered_at to be assigned")
	}

	got, err := repo.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := input
	want.ID = created.ID
	want.RegisteredAt = created.RegisteredAt
	if !got.RegisteredAt.Equal(want.RegisteredAt) {
		t.Fatalf("registered_at = %s, want %s", got.RegisteredAt, want.RegisteredAt)
	}
	got.RegisteredAt = want.RegisteredAt
	if got != want {
		t.Fatalf("get = %+v, want %+v", got, want)
	}

	if _, err := repo.Get(context.Background(), created.ID+1000); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testDuplicateNationalID(t *testing.T, backend store.Backend) {
	repo := backend.Institutions()
	mustCreate(t, repo, Institution("12345678"))

	dup := Institution("12345678")
	dup.Name = "I.E. 2045"
	if _, err := repo.Create(context.Background(), dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func testConcurrentDuplicateCreates(t *testing.T, backend store.Backend) {
	repo := backend.Institutions()
	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(context.Background(), Institution("87654321"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicts != writers-1 {
		t.Fatalf("succeeded=%d conflicts=%d, want 1 and %d", succeeded, conflicts, writers-1)
	}
}

func testListNewestFirst(t *testing.T, backend store.Backend) {
	repo := backend.Institutions()
	first := mustCreate(t, repo, Institution("11111111"))
	second := mustCreate(t, repo, Institution("22222222"))
	third := mustCreate(t, repo, Institution("33333333"))

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("list len = %d, want 3", len(list))
	}
	wantIDs := []int{third.ID, second.ID, first.ID}
	for i, want := range wantIDs {
		if list[i].ID != want {
			t.Fatalf("list[%d].id = %d, want %d", i, list[i].ID, want)
		}
	}
}

func testUpdateKeepsRegisteredAt(t *testing.T, backend store.Backend) {
	repo := backend.Institutions()
	created := mustCreate(t, repo, Institution("12345678"))

	changed := created
	changed.Phone = "999999999"
	updated, err := repo.Update(context.Background(), changed)
	if err != nil {
		t.Fatalf("update with own national id: %v", err)
	}
	if !updated.RegisteredAt.Equal(created.RegisteredAt) {
		t.Fatalf("registered_at changed from %s to %s", created.RegisteredAt, updated.RegisteredAt)
	}

	got, err := repo.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phone != "999999999" {
		t.Fatalf("phone = %q, want 999999999", got.Phone)
	}
}

func testUpdateMissing(t *testing.T, backend store.Backend) {
	missing := Institution("12345678")
	missing.ID = 4242
	if _, err := backend.Institutions().Update(context.Background(), missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testUpdateDuplicateNationalID(t *testing.T, backend store.Backend) {
	repo := backend.Institutions()
	mustCreate(t, repo, Institution("11111111"))
	other := mustCreate(t, repo, Institution("22222222"))

	other.NationalID = "11111111"
	if _, err := repo.Update(context.Background(), other); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func testDeleteReportsCount(t *testing.T, backend store.Backend) {
	repo := backend.Institutions()
	created := mustCreate(t, repo, Institution("12345678"))

	n, err := repo.Delete(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}
	if _, err := repo.Get(context.Background(), created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	n, err = repo.Delete(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if n != 0 {
		t.Fatalf("second delete = %d, want 0", n)
	}
}

func testExistsWithNationalID(t *testing.T, backend store.Backend) {
	ctx := context.Background()
	repo := backend.Institutions()
	created := mustCreate(t, repo, Institution("12345678"))

	cases := []struct {
		name       string
		nationalID string
		excludeID  int
		want       bool
	}{
		{"match", "12345678", 0, true},
		{"no match", "00000000", 0, false},
		{"self excluded", "12345678", created.ID, false},
		{"other excluded", "12345678", created.ID + 1, true},
	}
	for _, tc := range cases {
		got, err := repo.ExistsWithNationalID(ctx, tc.nationalID, tc.excludeID)
		if err != nil {
			t.Fatalf("%s: exists: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: exists = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func testAdminCreateIfAbsent(t *testing.T, backend store.Backend) {
	ctx := context.Background()
	admins := backend.Admins()

	if _, err := admins.GetByUsername(ctx, "admin"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, err := admins.CreateIfAbsent(ctx, types.Admin{Username: "admin", PasswordHash: "hash-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatalf("expected first insert to create")
	}

	created, err = admins.CreateIfAbsent(ctx, types.Admin{Username: "admin", PasswordHash: "hash-2"})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatalf("expected second insert to be a no-op")
	}

	admin, err := admins.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if admin.PasswordHash != "hash-1" {
		t.Fatalf("password hash overwritten: %q", admin.PasswordHash)
	}
	if admin.Role != types.RoleAdmin {
		t.Fatalf("role = %q, want %q", admin.Role, types.RoleAdmin)
	}
}
