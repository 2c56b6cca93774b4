package users

import (
	"context"
	"testing"
)

func TestUpsertFromAuthValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.UpsertFromAuth(context.Background(), User{Provider: "google"})
	if err == nil {
		t.Fatal("expected error for missing subject")
	}
	_, err = svc.UpsertFromAuth(context.Background(), User{Provider: "google", Subject: "sub-1"})
	if err == nil {
		t.Fatal("expected error for missing email")
	}
}

func TestUpsertFromAuthStableIdentity(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	first, err := svc.UpsertFromAuth(ctx, User{Provider: "google", Subject: "sub-1", Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := svc.UpsertFromAuth(ctx, User{Provider: "google", Subject: "sub-1", Email: "a@new.example.com", Name: "A New"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("identity changed across logins: %s vs %s", first.ID, second.ID)
	}
	if second.Email != "a@new.example.com" {
		t.Fatalf("email not refreshed: %q", second.Email)
	}

	got, err := svc.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "A New" {
		t.Fatalf("profile not refreshed: %+v", got)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.GetByID(context.Background(), "missing")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
