// Package recipients resolves push targets from user records.
package recipients

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/store"
)

const tokenCachePrefix = "push:token:"

// Status distinguishes a real absence from an infrastructure failure.
type Status int

const (
	Found Status = iota
	NotFound
	LookupError
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "lookup_error"
	}
}

// Lookup is the outcome of resolving a single user. Recipient is set when
// Status is Found; Err is set when Status is LookupError.
type Lookup struct {
	Status    Status
	Recipient models.Recipient
	Err       error
}

func (l Lookup) Token() string {
	if l.Status != Found {
		return ""
	}
	return l.Recipient.Token
}

type Resolver struct {
	users    store.UserStore
	cache    redis.Cmdable
	cacheTTL time.Duration
	logger   logger.Logger
}

type Option func(*Resolver)

// WithTokenCache enables a Redis read-through cache of single-user tokens.
// A non-positive ttl leaves the cache disabled.
func WithTokenCache(cache redis.Cmdable, ttl time.Duration) Option {
	return func(r *Resolver) {
		if cache != nil && ttl > 0 {
			r.cache = cache
			r.cacheTTL = ttl
		}
	}
}

func NewResolver(users store.UserStore, log logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{users: users, logger: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func cacheKey(uid string) string {
	return tokenCachePrefix + uid
}

func (r *Resolver) ResolveByUserID(ctx context.Context, uid string) Lookup {
	if uid == "" {
		return Lookup{Status: NotFound}
	}

	if token, ok := r.cachedToken(ctx, uid); ok {
		return Lookup{Status: Found, Recipient: models.Recipient{UID: uid, Token: token}}
	}

	user, err := r.users.GetUser(ctx, uid)
	if stderrors.Is(err, store.ErrNotFound) {
		return Lookup{Status: NotFound}
	}
	if err != nil {
		return Lookup{Status: LookupError, Err: errors.NewRecipientLookupFailedError(uid, err)}
	}
	if !user.HasToken() {
		return Lookup{Status: NotFound, Recipient: *user}
	}

	r.cacheToken(ctx, uid, user.Token)
	return Lookup{Status: Found, Recipient: *user}
}

// ResolveAdmins returns every admin with a push token. Admins without a
// token are left out.
func (r *Resolver) ResolveAdmins(ctx context.Context) ([]models.Recipient, error) {
	admins, err := r.users.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Recipient, 0, len(admins))
	for _, admin := range admins {
		if !admin.HasToken() {
			continue
		}
		if admin.Name == "" {
			admin.Name = models.DefaultAdminName
		}
		out = append(out, admin)
	}
	return out, nil
}

// Forget drops a cached token, used once the token is known to be invalid.
func (r *Resolver) Forget(ctx context.Context, uid string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, cacheKey(uid)).Err(); err != nil {
		r.logger.Warn("token cache delete failed", map[string]interface{}{"userId": uid, "error": err})
	}
}

func (r *Resolver) cachedToken(ctx context.Context, uid string) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	token, err := r.cache.Get(ctx, cacheKey(uid)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		r.logger.Warn("token cache read failed", map[string]interface{}{"userId": uid, "error": err})
		return "", false
	}
	return token, token != ""
}

func (r *Resolver) cacheToken(ctx context.Context, uid, token string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(uid), token, r.cacheTTL).Err(); err != nil {
		r.logger.Warn("token cache write failed", map[string]interface{}{"userId": uid, "error": err})
	}
}
