// Package tokens keeps track of push tokens the gateway rejected and clears
// them from user records in a separate maintenance step.
package tokens

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/common/metrics"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
	"foodbank-notifier/internal/store"
)

// LedgerKey is the Redis hash of uid -> rejected token.
const LedgerKey = "push:invalid-tokens"

// Ledger records unregistered tokens found in dispatch results.
type Ledger struct {
	client redis.Cmdable
	logger logger.Logger
}

func NewLedger(client redis.Cmdable, log logger.Logger) *Ledger {
	return &Ledger{client: client, logger: log}
}

// Record stores every unregistered token in results and returns how many
// were written.
func (l *Ledger) Record(ctx context.Context, results []models.DispatchResult) (int, error) {
	recorded := 0
	for _, r := range dispatch.Unregistered(results) {
		if r.RecipientID == "" || r.Token == "" {
			continue
		}
		if err := l.client.HSet(ctx, LedgerKey, r.RecipientID, r.Token).Err(); err != nil {
			return recorded, err
		}
		recorded++
	}
	if recorded > 0 {
		metrics.InvalidTokensRecorded.Add(float64(recorded))
		l.logger.Info("recorded unregistered push tokens", map[string]interface{}{"count": recorded})
	}
	return recorded, nil
}

// Pending returns the recorded uid -> token entries.
func (l *Ledger) Pending(ctx context.Context) (map[string]string, error) {
	return l.client.HGetAll(ctx, LedgerKey).Result()
}

func (l *Ledger) remove(ctx context.Context, uid string) error {
	return l.client.HDel(ctx, LedgerKey, uid).Err()
}

// Forgetter drops any cached copy of a user's token.
type Forgetter interface {
	Forget(ctx context.Context, uid string)
}

// Cleanup clears recorded tokens from user records.
type Cleanup struct {
	ledger *Ledger
	users  store.UserStore
	cache  Forgetter
	logger logger.Logger
}

func NewCleanup(ledger *Ledger, users store.UserStore, cache Forgetter, log logger.Logger) *Cleanup {
	return &Cleanup{ledger: ledger, users: users, cache: cache, logger: log}
}

// Run processes every pending entry. An entry is removed once the store
// confirms the update, whether or not the user still held that token.
// Entries that fail stay in the ledger for the next run.
func (c *Cleanup) Run(ctx context.Context) (models.CleanupSummary, error) {
	var summary models.CleanupSummary

	pending, err := c.ledger.Pending(ctx)
	if err != nil {
		return summary, errors.NewTokenCleanupFailedError(err)
	}

	uids := make([]string, 0, len(pending))
	for uid := range pending {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	for _, uid := range uids {
		token := pending[uid]
		cleared, err := c.users.ClearPushToken(ctx, uid, token)
		if err != nil {
			summary.Failed++
			c.logger.Warn("failed to clear push token", map[string]interface{}{"userId": uid, "error": err})
			continue
		}
		if cleared {
			summary.Cleared++
		}
		if c.cache != nil {
			c.cache.Forget(ctx, uid)
		}
		if err := c.ledger.remove(ctx, uid); err != nil {
			c.logger.Warn("failed to remove ledger entry", map[string]interface{}{"userId": uid, "error": err})
		}
	}

	c.logger.Info("push token cleanup finished", map[string]interface{}{
		"pending": len(uids),
		"cleared": summary.Cleared,
		"failed":  summary.Failed,
	})
	return summary, nil
}
