package rooms

import (
	"context"
	"log/slog"

	"github.com/m3rciful/tickerbot/core/logger"
)

// Resolver chains allow-list sources: the database store when configured,
// then the static config map. A store lookup error fails closed — a group
// chat is not admitted on its word alone.
type Resolver struct {
	primary  Allowlist
	fallback Allowlist
}

// NewResolver builds a Resolver. Either source may be nil.
func NewResolver(primary, fallback Allowlist) *Resolver {
	return &Resolver{primary: primary, fallback: fallback}
}

// AllowedThread implements Allowlist.
func (r *Resolver) AllowedThread(ctx context.Context, chatID int64) (int64, bool, error) {
	if r.primary != nil {
		thread, ok, err := r.primary.AllowedThread(ctx, chatID)
		if err != nil {
			logger.Warn(ctx, "session", "rooms.lookup_failed",
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
			return 0, false, err
		}
		if ok {
			return thread, true, nil
		}
	}
	if r.fallback != nil {
		return r.fallback.AllowedThread(ctx, chatID)
	}
	return 0, false, nil
}
