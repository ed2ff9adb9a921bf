package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/model"
)

// =========================================================================
// UPSERT TESTS
// =========================================================================

func TestUserUpsert_NewUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		GitHubID:  55555,
		Login:     "new_upsert_user",
		Email:     "new@example.com",
		AvatarURL: "https://example.com/new.png",
		Name:      strPtr("New User"),
	}

	if err := db.Upsert(context.Background(), user); err != nil {
		t.Fatalf("Upsert() (new) error = %v", err)
	}

	if user.ID == "" {
		t.Error("Upsert() did not set user.ID for new user")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Upsert() did not set user.CreatedAt for new user")
	}
	if user.Name == nil || *user.Name != "New User" {
		t.Errorf("Name = %v, want %q", user.Name, "New User")
	}

	found, err := db.GetUserByGitHubID(context.Background(), 55555)
	if err != nil {
		t.Fatalf("GetUserByGitHubID() after Upsert: %v", err)
	}
	if found.Login != "new_upsert_user" {
		t.Errorf("Login = %q, want %q", found.Login, "new_upsert_user")
	}
	if found.Bio != nil {
		t.Errorf("Bio = %v, want nil", *found.Bio)
	}
}

func TestUserUpsert_ExistingUser_KeepsIDAndProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := createTestUser(t, db, 66666, "original_login")

	// The user edits their bio between logins
	if _, err := db.UpdateProfile(ctx, first.ID, model.ProfileEdit{Bio: strPtr("hello")}); err != nil {
		t.Fatalf("UpdateProfile(): %v", err)
	}

	second := &model.User{
		GitHubID:  66666,
		Login:     "updated_login",
		Email:     "new@example.com",
		AvatarURL: "https://example.com/new.png",
	}
	if err := db.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() second login: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Upsert() changed user ID: got %q, want %q", second.ID, first.ID)
	}
	if second.Login != "updated_login" {
		t.Errorf("Login after upsert = %q, want %q", second.Login, "updated_login")
	}
	if second.Bio == nil || *second.Bio != "hello" {
		t.Errorf("Bio after upsert = %v, want %q", second.Bio, "hello")
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("Upsert() changed CreatedAt: got %v, want %v", second.CreatedAt, first.CreatedAt)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, 111, "getbyid_user")

	found, err := db.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.GitHubID != 111 {
		t.Errorf("GitHubID = %d, want %d", found.GitHubID, 111)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByGitHubID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByGitHubID(context.Background(), 999999999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByGitHubID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// PROFILE WRITE TESTS
// =========================================================================

func TestUpdateProfile_WritesEditableColumnsOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 222, "editor")

	if _, err := db.ApplySync(ctx, user.ID, model.SyncedFields{
		GitHubURL: strPtr("https://github.com/editor"),
	}); err != nil {
		t.Fatalf("ApplySync(): %v", err)
	}

	updated, err := db.UpdateProfile(ctx, user.ID, model.ProfileEdit{
		Name:        strPtr("Ed Itor"),
		Website:     strPtr("https://editor.dev"),
		LinkedinURL: strPtr("https://linkedin.com/in/editor"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if updated.Name == nil || *updated.Name != "Ed Itor" {
		t.Errorf("Name = %v, want %q", updated.Name, "Ed Itor")
	}
	if updated.LinkedinURL == nil || *updated.LinkedinURL != "https://linkedin.com/in/editor" {
		t.Errorf("LinkedinURL = %v", updated.LinkedinURL)
	}
	// github_url is not touched by the edit path
	if updated.GitHubURL == nil || *updated.GitHubURL != "https://github.com/editor" {
		t.Errorf("GitHubURL = %v, want it preserved", updated.GitHubURL)
	}
}

func TestUpdateProfile_NilClearsColumn(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 333, "clearer")

	if _, err := db.UpdateProfile(ctx, user.ID, model.ProfileEdit{Location: strPtr("Berlin")}); err != nil {
		t.Fatalf("UpdateProfile() set: %v", err)
	}
	cleared, err := db.UpdateProfile(ctx, user.ID, model.ProfileEdit{Location: nil})
	if err != nil {
		t.Fatalf("UpdateProfile() clear: %v", err)
	}
	if cleared.Location != nil {
		t.Errorf("Location = %q, want nil", *cleared.Location)
	}
}

func TestUpdateProfile_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.UpdateProfile(context.Background(), "missing", model.ProfileEdit{})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateProfile() error = %v, want ErrNotFound", err)
	}
}

func TestApplySync_WritesFullFieldSet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 444, "syncer")

	if _, err := db.UpdateProfile(ctx, user.ID, model.ProfileEdit{
		Bio:         strPtr("local bio"),
		LinkedinURL: strPtr("https://linkedin.com/in/syncer"),
	}); err != nil {
		t.Fatalf("UpdateProfile(): %v", err)
	}

	synced, err := db.ApplySync(ctx, user.ID, model.SyncedFields{
		Name:      strPtr("Syncer"),
		Bio:       nil,
		Website:   strPtr("https://syncer.dev"),
		GitHubURL: strPtr("https://github.com/syncer"),
	})
	if err != nil {
		t.Fatalf("ApplySync() error = %v", err)
	}

	if synced.Bio != nil {
		t.Errorf("Bio = %q, want nil (overwritten by sync)", *synced.Bio)
	}
	if synced.GitHubURL == nil || *synced.GitHubURL != "https://github.com/syncer" {
		t.Errorf("GitHubURL = %v", synced.GitHubURL)
	}
	// linkedin_url is outside the synced set
	if synced.LinkedinURL == nil || *synced.LinkedinURL != "https://linkedin.com/in/syncer" {
		t.Errorf("LinkedinURL = %v, want it preserved", synced.LinkedinURL)
	}
}
