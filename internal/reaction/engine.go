// Package reaction toggles per-user reactions on messages and posts.
package reaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chatcore/internal/domain"
	"chatcore/internal/metrics"
)

type Outcome string

const (
	Added   Outcome = "added"
	Removed Outcome = "removed"
	Updated Outcome = "updated"
)

const DefaultMaxAttempts = 5

// Result is the state after a toggle. Reaction is nil when the outcome is Removed.
type Result struct {
	Outcome   Outcome
	Reaction  *domain.Reaction
	Reactions []*domain.Reaction
}

// Engine applies the toggle rule atomically per (target, user).
type Engine struct {
	locks       *keyLock
	maxAttempts int
	metrics     *metrics.Recorder
	log         *zap.Logger

	Now func() time.Time
}

func NewEngine(maxAttempts int, rec *metrics.Recorder, log *zap.Logger) *Engine {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		locks:       newKeyLock(),
		maxAttempts: maxAttempts,
		metrics:     rec,
		log:         log,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// Toggle adds, removes or retypes userID's reaction on targetID.
// typ is ignored for untyped targets.
func (e *Engine) Toggle(ctx context.Context, target Target, targetID, userID int64, typ domain.ReactionType) (*Result, error) {
	if target.Typed() {
		parsed, err := domain.ParseReactionType(string(typ))
		if err != nil {
			return nil, err
		}
		typ = parsed
	} else {
		typ = ""
	}

	if err := target.Check(ctx, targetID, userID); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(fmt.Sprintf("%s:%d:%d", target.Kind(), targetID, userID))
	defer unlock()

	for attempt := 1; ; attempt++ {
		res, err := e.toggleOnce(ctx, target, targetID, userID, typ)
		if err == nil {
			e.metrics.ReactionToggled(target.Kind(), string(res.Outcome))
			return res, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}

		e.metrics.ReactionConflict(target.Kind())
		e.log.Debug("reaction_conflict_retry",
			zap.String("target", target.Kind()),
			zap.Int64("target_id", targetID),
			zap.Int64("user_id", userID),
			zap.Int("attempt", attempt),
		)
		if attempt >= e.maxAttempts {
			return nil, fmt.Errorf("toggle %s reaction after %d attempts: %w", target.Kind(), attempt, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (e *Engine) toggleOnce(ctx context.Context, target Target, targetID, userID int64, typ domain.ReactionType) (*Result, error) {
	res := &Result{}
	err := target.WithinTx(ctx, func(repo domain.ReactionRepository) error {
		existing, err := repo.Find(ctx, targetID, userID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			r := &domain.Reaction{TargetID: targetID, UserID: userID, Type: typ, CreatedAt: e.Now()}
			if err := repo.Insert(ctx, r); err != nil {
				return err
			}
			res.Outcome, res.Reaction = Added, r
		case !target.Typed() || existing.Type == typ:
			if err := repo.Delete(ctx, existing.ID); err != nil {
				return err
			}
			res.Outcome = Removed
		default:
			existing.Type = typ
			existing.CreatedAt = e.Now()
			if err := repo.Update(ctx, existing); err != nil {
				return err
			}
			res.Outcome, res.Reaction = Updated, existing
		}

		res.Reactions, err = repo.ListForTarget(ctx, targetID)
		if err != nil {
			return err
		}
		if res.Reaction != nil {
			for _, r := range res.Reactions {
				if r.ID == res.Reaction.ID {
					res.Reaction.Username = r.Username
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
