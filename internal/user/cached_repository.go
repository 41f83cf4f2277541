package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/contacts-api/internal/logging"
)

// Cache is a JSON key/value store with expiry
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// cachedUser keeps the fields hidden from API JSON
type cachedUser struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         Role      `json:"role"`
	Confirmed    bool      `json:"confirmed"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toCached(u *User) cachedUser {
	return cachedUser(*u)
}

func (c cachedUser) user() *User {
	u := User(c)
	return &u
}

// CachedRepository serves FindByUsername from the cache. Writes evict the
// affected entry. Cache failures are logged and fall through to the store.
type CachedRepository struct {
	Store
	cache  Cache
	ttl    time.Duration
	logger *logging.Logger
}

func NewCachedRepository(store Store, cache Cache, ttl time.Duration, logger *logging.Logger) *CachedRepository {
	return &CachedRepository{Store: store, cache: cache, ttl: ttl, logger: logger}
}

func usernameKey(username string) string {
	return "username:" + username
}

func (r *CachedRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var hit cachedUser
	found, err := r.cache.Get(ctx, usernameKey(username), &hit)
	if err != nil {
		r.logger.Warn("user cache read failed", "username", username, "error", err)
	} else if found {
		return hit.user(), nil
	}

	u, err := r.Store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, usernameKey(username), toCached(u), r.ttl); err != nil {
		r.logger.Warn("user cache write failed", "username", username, "error", err)
	}
	return u, nil
}

func (r *CachedRepository) MarkConfirmed(ctx context.Context, email string) error {
	if err := r.Store.MarkConfirmed(ctx, email); err != nil {
		return err
	}
	r.evictByEmail(ctx, email)
	return nil
}

func (r *CachedRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if err := r.Store.UpdatePassword(ctx, id, passwordHash); err != nil {
		return err
	}
	if u, err := r.Store.FindByID(ctx, id); err == nil {
		r.evict(ctx, u.Username)
	} else {
		r.logger.Warn("user cache eviction lookup failed", "user_id", id, "error", err)
	}
	return nil
}

func (r *CachedRepository) UpdateAvatar(ctx context.Context, email, url string) (*User, error) {
	u, err := r.Store.UpdateAvatar(ctx, email, url)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, u.Username)
	return u, nil
}

func (r *CachedRepository) evictByEmail(ctx context.Context, email string) {
	u, err := r.Store.FindByEmail(ctx, email)
	if err != nil {
		r.logger.Warn("user cache eviction lookup failed", "email", email, "error", err)
		return
	}
	r.evict(ctx, u.Username)
}

func (r *CachedRepository) evict(ctx context.Context, username string) {
	if err := r.cache.Delete(ctx, usernameKey(username)); err != nil {
		r.logger.Warn("user cache eviction failed", "username", username, "error", err)
	}
}
