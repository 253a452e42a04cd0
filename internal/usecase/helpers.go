package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/domain/workflow"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/sethvargo/go-retry"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 200 * time.Millisecond
)

func utcNow() time.Time { return time.Now().UTC() }

// loadForCaller resolves an estimation the caller may access.
// Other clients' estimations are reported as forbidden, never as found.
func loadForCaller(ctx context.Context, repo interfaces.IEstimationRepository, caller entities.Caller, id string) (entities.Estimation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Estimation{}, ErrInvalidEstimationID
	}
	e, err := repo.GetByID(ctx, id)
	if err != nil {
		return entities.Estimation{}, domainerr.NewPersistenceError("get estimation", err)
	}
	if e.ID == "" {
		return entities.Estimation{}, ErrEstimationNotFound
	}
	if !caller.CanAccess(e) {
		log.Printf("[estimation][usecase] access denied estimation_id=%s caller=%s", id, caller.ClientID)
		return entities.Estimation{}, ErrForbidden
	}
	return e, nil
}

// transition validates the edge, then writes it conditionally on the stored status
// still being one the action may start from. applied=false means a concurrent
// writer moved the row first; the returned estimation is then the current row.
func transition(
	ctx context.Context,
	repo interfaces.IEstimationRepository,
	e entities.Estimation,
	action workflow.Action,
	changes entities.EstimationChanges,
	now time.Time,
) (entities.Estimation, bool, error) {
	next, err := workflow.Next(e.Status, action)
	if err != nil {
		return entities.Estimation{}, false, err
	}
	changes.Status = &next
	changes.UpdatedAt = now
	updated, applied, err := repo.UpdateConditional(ctx, e.ID, workflow.AllowedFrom(action), changes)
	if err != nil {
		return entities.Estimation{}, false, domainerr.NewPersistenceError("update estimation", err)
	}
	if updated.ID == "" {
		return entities.Estimation{}, false, ErrEstimationNotFound
	}
	return updated, applied, nil
}

// mustTransition is transition for user actions: losing the race is reported as a
// state transition error from the status that won.
func mustTransition(
	ctx context.Context,
	repo interfaces.IEstimationRepository,
	e entities.Estimation,
	action workflow.Action,
	changes entities.EstimationChanges,
	now time.Time,
) (entities.Estimation, error) {
	updated, applied, err := transition(ctx, repo, e, action, changes, now)
	if err != nil {
		return entities.Estimation{}, err
	}
	if !applied {
		return entities.Estimation{}, &domainerr.StateTransitionError{From: string(updated.Status), Action: string(action)}
	}
	return updated, nil
}

type retryPolicy struct {
	attempts uint64
	base     time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: defaultRetryAttempts, base: defaultRetryBase}
}

// do retries fn while it fails with interfaces.ErrTransient. Other errors stop at once.
func (p retryPolicy) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(p.attempts, retry.NewExponential(p.base))
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && errors.Is(err, interfaces.ErrTransient) {
			log.Printf("[retry] %s transient failure attempt=%d err=%v", op, attempt, err)
			return retry.RetryableError(err)
		}
		return err
	})
}

// monotonicClock never returns the same instant twice, so events appended in one
// process keep their write order in the ledger even under a coarse or fixed clock.
type monotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

type noopAlerter struct{}

func (noopAlerter) Alert(string, string, error, map[string]string) {}
