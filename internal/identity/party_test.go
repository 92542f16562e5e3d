package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/MahdiBaghbani/ocmgate/internal/logutil"
)

func TestMemoryPartyRepo_CreateAndGet(t *testing.T) {
	repo := NewMemoryPartyRepo()
	ctx := context.Background()

	user := &User{Username: "alice", DisplayName: "Alice"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == "" {
		t.Error("Create should assign an ID")
	}

	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if got.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}

	byID, err := repo.Get(ctx, user.ID)
	if err != nil || byID.Username != "alice" {
		t.Errorf("Get by ID = %+v, %v", byID, err)
	}
}

func TestMemoryPartyRepo_DuplicateUsername(t *testing.T) {
	repo := NewMemoryPartyRepo()
	ctx := context.Background()

	repo.Create(ctx, &User{Username: "alice"})
	err := repo.Create(ctx, &User{Username: "alice"})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestMemoryPartyRepo_NotFound(t *testing.T) {
	repo := NewMemoryPartyRepo()

	if _, err := repo.GetByUsername(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMemoryPartyRepo_UpdateRenames(t *testing.T) {
	repo := NewMemoryPartyRepo()
	ctx := context.Background()

	user := &User{Username: "alice"}
	repo.Create(ctx, user)

	user.Username = "alicia"
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := repo.GetByUsername(ctx, "alice"); !errors.Is(err, ErrUserNotFound) {
		t.Error("old username should be gone")
	}
	if _, err := repo.GetByUsername(ctx, "alicia"); err != nil {
		t.Errorf("new username lookup failed: %v", err)
	}
}

func TestMemoryPartyRepo_CopySemantics(t *testing.T) {
	repo := NewMemoryPartyRepo()
	ctx := context.Background()

	user := &User{Username: "alice", DisplayName: "Alice"}
	repo.Create(ctx, user)

	got, _ := repo.GetByUsername(ctx, "alice")
	got.DisplayName = "Mallory"

	again, _ := repo.GetByUsername(ctx, "alice")
	if again.DisplayName != "Alice" {
		t.Error("repo contents were mutated via returned pointer")
	}
}

func TestUserAuth_HashAndVerify(t *testing.T) {
	auth := NewUserAuth(4) // minimal cost for test speed

	hash, err := auth.HashPassword("s3cr3t")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cr3t" {
		t.Error("hash should not equal the plaintext")
	}

	if err := auth.VerifyPassword(hash, "s3cr3t"); err != nil {
		t.Errorf("VerifyPassword failed: %v", err)
	}
	if err := auth.VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestUserAuth_Authenticate(t *testing.T) {
	repo := NewMemoryPartyRepo()
	auth := NewUserAuth(4)
	ctx := context.Background()

	hash, _ := auth.HashPassword("hunter2")
	repo.Create(ctx, &User{Username: "alice", PasswordHash: hash})

	user, err := auth.Authenticate(ctx, repo, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q", user.Username)
	}

	if _, err := auth.Authenticate(ctx, repo, "alice", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
	if _, err := auth.Authenticate(ctx, repo, "ghost", "hunter2"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestBootstrap_Idempotent(t *testing.T) {
	repo := NewMemoryPartyRepo()
	auth := NewUserAuth(4)
	b := NewBootstrap(repo, auth, logutil.Noop())
	ctx := context.Background()

	admin := SeededUser{Username: "admin", Password: "changeme"}
	seeded := []SeededUser{{Username: "alice", Password: "pw"}}

	created, err := b.Run(ctx, admin, seeded)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}

	created, err = b.Run(ctx, admin, seeded)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if created != 0 {
		t.Errorf("second run should create nothing, got %d", created)
	}

	got, err := repo.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("admin missing: %v", err)
	}
	if got.Role != RoleAdmin {
		t.Errorf("admin role = %q", got.Role)
	}
}
