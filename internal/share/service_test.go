package share

import (
	"context"
	"errors"
	"testing"

	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/identity"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/ocmerr"
	"github.com/MahdiBaghbani/ocmgate/internal/store"
	storejson "github.com/MahdiBaghbani/ocmgate/internal/store/json"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	d, err := storejson.NewDriver(&store.DriverConfig{Driver: "json", DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}
	drv := d.(*storejson.Driver)
	if err := drv.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { drv.Close() })

	users := identity.NewMemoryPartyRepo()
	users.Create(context.Background(), &identity.User{Username: "alice"})
	users.Create(context.Background(), &identity.User{Username: "bob"})

	fed := config.FederationConfig{IncomingEnabled: true, OutgoingEnabled: true}
	return NewService(drv, users, fed)
}

func seedShare(t *testing.T, svc *Service) *store.RemoteShare {
	t.Helper()
	share := &store.RemoteShare{
		ProviderID:      "42",
		SenderHost:      "remote.example.org",
		Token:           "s3cr3t",
		Owner:           "bob@remote.example.org",
		Sender:          "bob@remote.example.org",
		ShareWith:       "alice@local.example.org",
		RecipientUserID: "alice",
		Name:            "report.pdf",
		ResourceType:    "file",
	}
	if err := svc.CreateShare(context.Background(), share); err != nil {
		t.Fatalf("CreateShare failed: %v", err)
	}
	return share
}

func TestCreateShare_AssignsDefaults(t *testing.T) {
	svc := newTestService(t)
	share := seedShare(t, svc)

	if share.ID == "" {
		t.Error("CreateShare should assign a local ID")
	}
	if share.ShareType != store.ShareTypeRemote {
		t.Errorf("ShareType = %q", share.ShareType)
	}
	if share.State != store.StatePending {
		t.Errorf("State = %q", share.State)
	}
}

func TestCreateShare_DuplicateProviderID(t *testing.T) {
	svc := newTestService(t)
	seedShare(t, svc)

	dup := &store.RemoteShare{ProviderID: "42", RecipientUserID: "alice"}
	err := svc.CreateShare(context.Background(), dup)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestResolveAuthorized(t *testing.T) {
	svc := newTestService(t)
	seedShare(t, svc)
	ctx := context.Background()

	got, err := svc.ResolveAuthorized(ctx, "42", "s3cr3t")
	if err != nil {
		t.Fatalf("ResolveAuthorized failed: %v", err)
	}
	if got.RecipientUserID != "alice" {
		t.Errorf("RecipientUserID = %q", got.RecipientUserID)
	}
}

func TestResolveAuthorized_NotFoundPropagates(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ResolveAuthorized(context.Background(), "missing", "s3cr3t")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected store.ErrNotFound unchanged, got %v", err)
	}
	var oe *ocmerr.Error
	if errors.As(err, &oe) {
		t.Error("not-found must not be wrapped into a taxonomy error here")
	}
}

func TestResolveAuthorized_WrongSecret(t *testing.T) {
	svc := newTestService(t)
	seedShare(t, svc)

	_, err := svc.ResolveAuthorized(context.Background(), "42", "wrong")
	var oe *ocmerr.Error
	if !errors.As(err, &oe) || oe.Status != 403 {
		t.Errorf("expected Forbidden, got %v", err)
	}
}

func TestResolveAuthorized_WrongShareType(t *testing.T) {
	svc := newTestService(t)
	share := seedShare(t, svc)
	ctx := context.Background()

	share.ShareType = "link"
	if err := svc.shares.UpdateRemoteShare(ctx, share); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	_, err := svc.ResolveAuthorized(ctx, "42", "s3cr3t")
	var oe *ocmerr.Error
	if !errors.As(err, &oe) || oe.Status != 400 {
		t.Errorf("expected BadRequest, got %v", err)
	}
}

func TestAcceptAndDecline(t *testing.T) {
	svc := newTestService(t)
	seedShare(t, svc)
	ctx := context.Background()

	got, err := svc.Accept(ctx, "42", "s3cr3t")
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if got.State != store.StateAccepted {
		t.Errorf("State = %q", got.State)
	}

	got, err = svc.Decline(ctx, "42", "s3cr3t")
	if err != nil {
		t.Fatalf("Decline failed: %v", err)
	}
	if got.State != store.StateDeclined {
		t.Errorf("State = %q", got.State)
	}
}

func TestReshare(t *testing.T) {
	svc := newTestService(t)
	parent := seedShare(t, svc)
	ctx := context.Background()

	child, err := svc.Reshare(ctx, "42", "s3cr3t", "bob")
	if err != nil {
		t.Fatalf("Reshare failed: %v", err)
	}

	if child.ParentID != parent.ID {
		t.Errorf("ParentID = %q, want %q", child.ParentID, parent.ID)
	}
	if child.ProviderID == parent.ProviderID {
		t.Error("reshare must get a fresh providerId")
	}
	if child.Token == parent.Token {
		t.Error("reshare must get a fresh token")
	}
	if child.Permissions != "0" {
		t.Errorf("Permissions = %q, want zero", child.Permissions)
	}
	if child.RecipientUserID != "bob" {
		t.Errorf("RecipientUserID = %q", child.RecipientUserID)
	}

	// The child is resolvable with its own credentials
	if _, err := svc.ResolveAuthorized(ctx, child.ProviderID, child.Token); err != nil {
		t.Errorf("child not resolvable: %v", err)
	}
}

func TestUpdatePermissions_RawValue(t *testing.T) {
	svc := newTestService(t)
	seedShare(t, svc)

	got, err := svc.UpdatePermissions(context.Background(), "42", "s3cr3t", "{read,write}")
	if err != nil {
		t.Fatalf("UpdatePermissions failed: %v", err)
	}
	if got.Permissions != "{read,write}" {
		t.Errorf("Permissions = %q, value must be stored verbatim", got.Permissions)
	}
}

func TestUnshare(t *testing.T) {
	svc := newTestService(t)
	seedShare(t, svc)
	ctx := context.Background()

	if err := svc.Unshare(ctx, "42", "wrong"); err == nil {
		t.Fatal("Unshare with wrong secret must fail")
	}

	if err := svc.Unshare(ctx, "42", "s3cr3t"); err != nil {
		t.Fatalf("Unshare failed: %v", err)
	}
	if _, err := svc.ResolveAuthorized(ctx, "42", "s3cr3t"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("share should be gone, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	svc := newTestService(t)
	seedShare(t, svc)
	ctx := context.Background()

	child, err := svc.Reshare(ctx, "42", "s3cr3t", "bob")
	if err != nil {
		t.Fatalf("Reshare failed: %v", err)
	}

	if err := svc.Revoke(ctx, child.ProviderID, child.Token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := svc.ResolveAuthorized(ctx, child.ProviderID, child.Token); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("reshare should be gone, got %v", err)
	}

	// Parent survives
	if _, err := svc.ResolveAuthorized(ctx, "42", "s3cr3t"); err != nil {
		t.Errorf("parent share should survive revoke: %v", err)
	}
}

func TestUserExists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if !svc.UserExists(ctx, "alice") {
		t.Error("alice should exist")
	}
	if svc.UserExists(ctx, "ghost") {
		t.Error("ghost should not exist")
	}
}

func TestRecipientScopedAccess(t *testing.T) {
	svc := newTestService(t)
	share := seedShare(t, svc)
	ctx := context.Background()

	if _, err := svc.GetForRecipient(ctx, share.ID, "alice"); err != nil {
		t.Errorf("GetForRecipient failed: %v", err)
	}
	if _, err := svc.GetForRecipient(ctx, share.ID, "bob"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("foreign recipient must get not-found, got %v", err)
	}

	got, err := svc.AcceptLocal(ctx, share.ID, "alice")
	if err != nil {
		t.Fatalf("AcceptLocal failed: %v", err)
	}
	if got.State != store.StateAccepted {
		t.Errorf("State = %q", got.State)
	}

	shares, err := svc.ListForRecipient(ctx, "alice")
	if err != nil || len(shares) != 1 {
		t.Errorf("ListForRecipient = %v, %v", shares, err)
	}
}

func TestIsValidMountName(t *testing.T) {
	valid := []string{"report.pdf", "My Documents", "a", "файл.txt", "x-y_z (1).tar.gz"}
	for _, name := range valid {
		if !IsValidMountName(name) {
			t.Errorf("IsValidMountName(%q) = false, want true", name)
		}
	}

	invalid := []string{"", ".", "..", "a/b", "a\\b", "a\x00b", "a\nb", "\tx"}
	for _, name := range invalid {
		if IsValidMountName(name) {
			t.Errorf("IsValidMountName(%q) = true, want false", name)
		}
	}
}
