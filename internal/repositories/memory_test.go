package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/intega/platform/internal/models"
)

func seedMemoryUsers(t *testing.T, store *MemoryStore, users ...models.User) {
	t.Helper()
	for _, u := range users {
		if err := store.Users().Create(context.Background(), u); err != nil {
			t.Fatalf("create user %s: %v", u.ID, err)
		}
	}
}

func TestMemoryUserRepository_EmailIsUnique(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Users()
	ctx := context.Background()

	if err := repo.Create(ctx, models.User{ID: "u1", Email: "Ana@example.com", Type: models.UserStudent}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, models.User{ID: "u2", Email: "ana@example.com"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	got, err := repo.FindByEmail(ctx, "ANA@example.com")
	if err != nil || got.ID != "u1" {
		t.Fatalf("expected case-insensitive lookup, got %+v %v", got, err)
	}
	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryInternshipRepository_PartneredSchoolListing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedMemoryUsers(t, store,
		models.User{ID: "school", Email: "s@example.com", Type: models.UserSchool},
		models.User{ID: "partner", Email: "p@example.com", Type: models.UserCompany},
		models.User{ID: "other", Email: "o@example.com", Type: models.UserCompany},
	)

	if err := store.Partnerships().Create(ctx, models.Partnership{ID: "p1", SchoolID: "school", CompanyID: "partner", Status: models.PartnershipActive}); err != nil {
		t.Fatalf("create partnership: %v", err)
	}
	if err := store.Partnerships().Create(ctx, models.Partnership{ID: "p2", SchoolID: "school", CompanyID: "partner"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected duplicate partnership conflict, got %v", err)
	}

	internships := store.Internships()
	for _, in := range []models.Internship{
		{ID: "i1", CompanyID: "partner", Status: models.InternshipPending, IsActive: true},
		{ID: "i2", CompanyID: "other", Status: models.InternshipPending, IsActive: true},
	} {
		if err := internships.Create(ctx, in); err != nil {
			t.Fatalf("create internship: %v", err)
		}
	}

	listed, err := internships.List(ctx, InternshipQuery{PartneredSchoolID: "school"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "i1" {
		t.Fatalf("expected partnered internship only, got %+v", listed)
	}

	if err := store.Partnerships().SetStatus(ctx, "p1", models.PartnershipInactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	listed, err = internships.List(ctx, InternshipQuery{PartneredSchoolID: "school"})
	if err != nil {
		t.Fatalf("list after deactivate: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no internships after deactivation, got %+v", listed)
	}
}

func TestMemoryDocumentRepository_ForwardOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedMemoryUsers(t, store,
		models.User{ID: "student", Email: "st@example.com", Type: models.UserStudent},
		models.User{ID: "school", Email: "sc@example.com", Type: models.UserSchool},
		models.User{ID: "company", Email: "co@example.com", Type: models.UserCompany},
	)
	docs := store.Documents()

	if err := docs.Create(ctx, models.Document{ID: "d1", OwnerID: "student", Name: "cv.pdf", StorageStatus: models.StoragePending}); err != nil {
		t.Fatalf("create document: %v", err)
	}
	if err := docs.Share(ctx, models.SharedDocument{ID: "s1", DocumentID: "d1", OwnerID: "student", RecipientID: "school"}); err != nil {
		t.Fatalf("share: %v", err)
	}
	if err := docs.MarkStored(ctx, "d1", "documents/d1", 10); err != nil {
		t.Fatalf("mark stored: %v", err)
	}

	share, err := docs.FindShare(ctx, "s1")
	if err != nil {
		t.Fatalf("find share: %v", err)
	}
	if share.Document.StorageStatus != models.StorageReady {
		t.Fatalf("share should reflect current document state, got %+v", share.Document)
	}

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := docs.Forward(ctx, "s1", "company", at); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if err := docs.Forward(ctx, "s1", "company", at); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	forwarded, err := docs.ListSharedWith(ctx, "company")
	if err != nil {
		t.Fatalf("list shared with company: %v", err)
	}
	if len(forwarded) != 1 || !forwarded[0].Forwarded() || !forwarded[0].ForwardedAt.Equal(at) {
		t.Fatalf("unexpected forwarded shares: %+v", forwarded)
	}

	ok, err := docs.CanAccess(ctx, "d1", "company")
	if err != nil || !ok {
		t.Fatalf("company should have access after forward: %v %v", ok, err)
	}
}

func TestBuildConversations(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{ID: "m1", SenderID: "bob", ReceiverID: "me", CreatedAt: base},
		{ID: "m2", SenderID: "me", ReceiverID: "bob", CreatedAt: base.Add(time.Minute)},
		{ID: "m3", SenderID: "carol", ReceiverID: "me", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "m4", SenderID: "carol", ReceiverID: "me", IsRead: true, CreatedAt: base.Add(3 * time.Minute)},
	}

	convs := buildConversations("me", messages)
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].PeerID != "carol" || convs[0].LastMessage.ID != "m4" || convs[0].UnreadCount != 1 {
		t.Fatalf("unexpected first conversation: %+v", convs[0])
	}
	if convs[1].PeerID != "bob" || convs[1].LastMessage.ID != "m2" || convs[1].UnreadCount != 1 {
		t.Fatalf("unexpected second conversation: %+v", convs[1])
	}
}

func TestMemoryApplicationRepository_UpdateStatusRequiresExpectedStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedMemoryUsers(t, store,
		models.User{ID: "company", Email: "c@example.com", Type: models.UserCompany},
		models.User{ID: "student", Email: "st@example.com", Type: models.UserStudent},
	)
	if err := store.Internships().Create(ctx, models.Internship{ID: "i1", CompanyID: "company", Status: models.InternshipPending}); err != nil {
		t.Fatalf("create internship: %v", err)
	}
	apps := store.Applications()
	if err := apps.Create(ctx, models.Application{ID: "a1", InternshipID: "i1", StudentID: "student", Status: models.ApplicationPending}); err != nil {
		t.Fatalf("create application: %v", err)
	}

	now := time.Now().UTC()
	if err := apps.UpdateStatus(ctx, "a1", models.ApplicationPending, models.ApplicationAccepted, now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := apps.UpdateStatus(ctx, "a1", models.ApplicationPending, models.ApplicationRejected, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for a stale expected status, got %v", err)
	}
	if err := apps.UpdateStatus(ctx, "missing", models.ApplicationPending, models.ApplicationRejected, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := apps.FindByID(ctx, "a1")
	if err != nil || got.Status != models.ApplicationAccepted {
		t.Fatalf("expected accepted to stick, got %+v %v", got, err)
	}

	internships := store.Internships()
	if err := internships.UpdateStatus(ctx, "i1", models.InternshipPending, models.InternshipApproved, now); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := internships.UpdateStatus(ctx, "i1", models.InternshipPending, models.InternshipRejected, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected re-review to conflict, got %v", err)
	}
}
