package auth

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"pos-backend/internal/apperr"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/models"
)

// Users stores accounts under user:<id>. Writes are serialized so that email uniqueness and
// the first-run check hold.
type Users struct {
	store kvstore.Store
	mu    sync.Mutex
}

func NewUsers(store kvstore.Store) *Users {
	return &Users{store: store}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *Users) Get(ctx context.Context, id string) (models.UserAccount, error) {
	acct, err := kvstore.GetJSON[models.UserAccount](ctx, u.store, models.UserKey(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return models.UserAccount{}, apperr.NotFoundf("user %s not found", id)
	}
	return acct, err
}

func (u *Users) FindByEmail(ctx context.Context, email string) (models.UserAccount, error) {
	email = normalizeEmail(email)
	accts, err := kvstore.ScanJSON[models.UserAccount](ctx, u.store, models.PrefixUser)
	if err != nil {
		return models.UserAccount{}, err
	}
	for _, a := range accts {
		if a.Email == email {
			return a, nil
		}
	}
	return models.UserAccount{}, apperr.NotFoundf("user %s not found", email)
}

// List returns all users ordered by name.
func (u *Users) List(ctx context.Context) ([]models.User, error) {
	accts, err := kvstore.ScanJSON[models.UserAccount](ctx, u.store, models.PrefixUser)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.User)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create stores acct. With firstOnly set it fails once any user exists.
func (u *Users) Create(ctx context.Context, acct models.UserAccount, firstOnly bool) (models.UserAccount, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	existing, err := kvstore.ScanJSON[models.UserAccount](ctx, u.store, models.PrefixUser)
	if err != nil {
		return models.UserAccount{}, err
	}
	if firstOnly && len(existing) > 0 {
		return models.UserAccount{}, apperr.New(apperr.Forbidden, "setup has already been completed")
	}

	acct.Email = normalizeEmail(acct.Email)
	for _, e := range existing {
		if e.Email == acct.Email {
			return models.UserAccount{}, apperr.Invalid("email %s is already registered", acct.Email)
		}
	}

	if err := kvstore.SetJSON(ctx, u.store, models.UserKey(acct.ID), acct); err != nil {
		return models.UserAccount{}, err
	}
	return acct, nil
}

// Update loads the account, lets apply change it and return extra ops to commit alongside,
// then stores everything in one batch.
func (u *Users) Update(ctx context.Context, id string, apply func(acct *models.UserAccount) ([]kvstore.Op, error)) (models.UserAccount, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	acct, err := u.Get(ctx, id)
	if err != nil {
		return models.UserAccount{}, err
	}
	extra, err := apply(&acct)
	if err != nil {
		return models.UserAccount{}, err
	}

	op, err := kvstore.Put(models.UserKey(acct.ID), acct)
	if err != nil {
		return models.UserAccount{}, apperr.Storage(err, "encode user")
	}
	if err := kvstore.Commit(ctx, u.store, append([]kvstore.Op{op}, extra...)); err != nil {
		return models.UserAccount{}, err
	}
	return acct, nil
}
