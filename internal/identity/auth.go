package identity

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a throwaway bcrypt hash compared against when a username
// does not exist, so lookup failures cost the same as password failures.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// UserAuth hashes and verifies account passwords with bcrypt.
type UserAuth struct {
	cost int
}

// NewUserAuth returns a UserAuth with the given bcrypt cost. Costs below
// bcrypt's minimum fall back to the library default; tests pass a low
// cost to keep hashing fast.
func NewUserAuth(cost int) *UserAuth {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &UserAuth{cost: cost}
}

// HashPassword returns the bcrypt hash to persist for a password.
func (a *UserAuth) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	return string(hash), err
}

// VerifyPassword returns ErrInvalidPassword unless password matches hash.
func (a *UserAuth) VerifyPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Authenticate resolves username and checks password against the stored
// hash. An unknown username still burns a bcrypt comparison so response
// timing does not reveal which accounts exist.
func (a *UserAuth) Authenticate(ctx context.Context, repo PartyRepo, username, password string) (*User, error) {
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, err
	}
	if err := a.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}
