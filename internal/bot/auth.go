package bot

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/planwise/sprintbot/internal/metrics"
	"github.com/planwise/sprintbot/internal/model"
	"github.com/planwise/sprintbot/lru"
)

// Authenticator resolves Telegram sender ids to registered users.
//
// Lookup results are cached, including misses: a sender not found in the
// directory is remembered as absent and stays locked out until Invalidate
// is called for them or the process restarts. The cache distinguishes
// "cached as absent" (entry present, nil user) from "never looked up"
// (no entry).
type Authenticator struct {
	dir     Directory
	cache   *lru.Cache[int64, *model.User]
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewAuthenticator creates an Authenticator with the given cache capacity.
func NewAuthenticator(dir Directory, capacity int, m *metrics.Metrics, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		dir:     dir,
		cache:   lru.New[int64, *model.User](capacity),
		metrics: m,
		logger:  logger.With().Str("component", "auth").Logger(),
	}
}

// Prime fills the cache with every user already linked to a Telegram id.
func (a *Authenticator) Prime(ctx context.Context) error {
	users, err := a.dir.AllUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].TelegramID == 0 {
			continue
		}
		u := users[i]
		a.cache.Put(u.TelegramID, &u)
	}
	a.logger.Info().Int("cached", a.cache.Len()).Msg("identity cache primed")
	return nil
}

// Authenticate returns the user registered under senderID, or nil when the
// sender is unknown. A directory error also yields nil, but is not cached,
// so the next event retries the lookup.
func (a *Authenticator) Authenticate(ctx context.Context, senderID int64) *model.User {
	if user, ok := a.cache.Get(senderID); ok {
		if user == nil {
			a.metrics.RecordAuthLookup("absent")
		} else {
			a.metrics.RecordAuthLookup("hit")
		}
		return user
	}

	a.logger.Info().Int64("sender_id", senderID).Msg("authenticating")
	a.metrics.RecordAuthLookup("miss")

	users, err := a.dir.AllUsers(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("directory lookup failed")
		return nil
	}

	var found *model.User
	for i := range users {
		if users[i].TelegramID == senderID {
			u := users[i]
			found = &u
			break
		}
	}

	a.cache.Put(senderID, found)
	return found
}

// Invalidate drops the cached resolution for senderID so the next event
// triggers a fresh directory lookup. Returns true if an entry was dropped.
func (a *Authenticator) Invalidate(senderID int64) bool {
	dropped := a.cache.Delete(senderID)
	if dropped {
		a.logger.Info().Int64("sender_id", senderID).Msg("identity cache entry invalidated")
	}
	return dropped
}
