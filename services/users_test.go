package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

func TestUserServiceSetActive(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	admin := models.User{FullName: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	student := models.User{FullName: "Nguyen An", Email: "an@example.com"}
	for _, u := range []*models.User{&admin, &student} {
		if err := db.Create(u).Error; err != nil {
			t.Fatal(err)
		}
	}

	u, err := svc.SetActive(ctx, admin.ID, student.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if u.Status == nil || *u.Status {
		t.Fatalf("expected locked user, got %+v", u)
	}
	saved, err := svc.Get(ctx, student.ID)
	if err != nil || saved.Status == nil || *saved.Status {
		t.Fatalf("saved %+v, %v", saved, err)
	}

	if u, err = svc.SetActive(ctx, admin.ID, student.ID, true); err != nil || !*u.Status {
		t.Fatalf("activate: %+v, %v", u, err)
	}

	if _, err := svc.SetActive(ctx, admin.ID, admin.ID, false); KindOf(err) != KindInvalidInput {
		t.Fatalf("self lock: %v", err)
	}
	if _, err := svc.SetActive(ctx, admin.ID, uuid.New(), false); KindOf(err) != KindNotFound {
		t.Fatalf("missing user: %v", err)
	}
}

func TestUserServiceListSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	for _, u := range []models.User{
		{FullName: "Nguyen An", Email: "an@example.com"},
		{FullName: "Tran Binh", Email: "binh@school.edu"},
	} {
		u := u
		if err := db.Create(&u).Error; err != nil {
			t.Fatal(err)
		}
	}

	tests := map[string]int{"": 2, "SCHOOL": 1, "nguyen": 1, "nobody": 0}
	for search, want := range tests {
		got, err := svc.List(ctx, search)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != want {
			t.Errorf("search %q: got %d users want %d", search, len(got), want)
		}
	}
}
