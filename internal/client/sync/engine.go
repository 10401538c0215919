// Package sync reconciles the local mirror with the central server, one
// entity kind per engine. A pass runs three phases in strict order:
//
//  1. push creates: every unsynced local record is POSTed to the server
//  2. push deletes: every tombstoned id is DELETEd on the server
//  3. pull: the authoritative collection is fetched and overwritten into
//     the mirror, additively (local rows absent from the response stay)
//
// A failure on one record never blocks the others; the record simply stays
// unsynced and is retried on the next pass.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ortofresco/gestionale/internal/client/api"
	"github.com/ortofresco/gestionale/internal/client/repositories/tombstones"
	"github.com/ortofresco/gestionale/internal/logging"
)

// DeletePolicy decides what happens to tombstones whose remote DELETE failed.
type DeletePolicy int

const (
	// ClearAlways empties the tombstone table after the drain loop no matter
	// what the server answered. A failed delete is lost.
	ClearAlways DeletePolicy = iota

	// RetryFailed removes only confirmed tombstones; failed ids stay queued
	// for the next pass.
	RetryFailed
)

// LocalStore is the mirror-side contract the engine needs for one kind.
type LocalStore[T any] interface {
	ListUnsynced(ctx context.Context) ([]T, error)
	UpsertFromServer(ctx context.Context, record T) error
	DeleteByID(ctx context.Context, id int64) error
}

// Remote is the server-side contract; api.Resource satisfies it.
type Remote[T any, D any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, payload D) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// Config assembles one engine. All fields are required except DeletePolicy,
// which defaults to ClearAlways.
type Config[T any, D any] struct {
	// Kind names the entity for logs, e.g. "clienti".
	Kind string

	// Online reports current connectivity; a pass is a no-op while it
	// returns false. Nil means always online.
	Online func() bool

	Local      LocalStore[T]
	Tombstones tombstones.Repository
	Remote     Remote[T, D]

	// Payload projects a local record onto its create payload.
	Payload func(T) D
	// ID extracts the record id.
	ID func(T) int64

	DeletePolicy DeletePolicy
	Logger       logging.Logger
}

// Engine synchronizes one entity kind.
type Engine[T any, D any] struct {
	kind       string
	online     func() bool
	local      LocalStore[T]
	tombstones tombstones.Repository
	remote     Remote[T, D]
	payload    func(T) D
	id         func(T) int64
	policy     DeletePolicy
	logger     logging.Logger

	// bounded backoff for remote deletes
	retryBase     time.Duration
	retryAttempts uint64
}

func New[T any, D any](cfg Config[T, D]) *Engine[T, D] {
	return &Engine[T, D]{
		kind:          cfg.Kind,
		online:        cfg.Online,
		local:         cfg.Local,
		tombstones:    cfg.Tombstones,
		remote:        cfg.Remote,
		payload:       cfg.Payload,
		id:            cfg.ID,
		policy:        cfg.DeletePolicy,
		logger:        cfg.Logger.With("kind", cfg.Kind),
		retryBase:     200 * time.Millisecond,
		retryAttempts: 2,
	}
}

// Run executes one full pass. While offline the pass is a no-op: nothing is
// pushed, and in particular no tombstone is drained without a server to
// deliver the delete to. It returns an error only when the pass could not
// complete (server unreachable, pull failed); per-record failures are logged
// and retried next time.
func (e *Engine[T, D]) Run(ctx context.Context) error {
	if e.online != nil && !e.online() {
		e.logger.Debug(ctx, "skipping sync pass while offline")
		return nil
	}
	if err := e.pushCreates(ctx); err != nil {
		return err
	}
	if err := e.pushDeletes(ctx); err != nil {
		return err
	}
	return e.pull(ctx)
}

func (e *Engine[T, D]) pushCreates(ctx context.Context) error {
	unsynced, err := e.local.ListUnsynced(ctx)
	if err != nil {
		return fmt.Errorf("listing unsynced %s: %w", e.kind, err)
	}

	var pushed int
	for _, record := range unsynced {
		localID := e.id(record)

		created, err := e.remote.Create(ctx, e.payload(record))
		if errors.Is(err, api.ErrUnavailable) {
			// offline again, the whole pass is pointless
			return err
		}
		if err != nil {
			// record stays unsynced, retried next pass
			e.logger.Warn(ctx, "push failed", "id", localID, "error", err)
			continue
		}

		// replace the provisional row with the server copy; the pull phase
		// would do the same, but doing it here keeps the record safe even
		// if the pull fails mid-pass
		if serverID := e.id(*created); serverID != localID {
			if err := e.local.DeleteByID(ctx, localID); err != nil {
				return fmt.Errorf("dropping provisional %s %d: %w", e.kind, localID, err)
			}
		}
		if err := e.local.UpsertFromServer(ctx, *created); err != nil {
			return fmt.Errorf("storing pushed %s: %w", e.kind, err)
		}
		pushed++
	}

	if pushed > 0 {
		e.logger.Info(ctx, "pushed offline creates", "count", pushed)
	}
	return nil
}

func (e *Engine[T, D]) pushDeletes(ctx context.Context) error {
	ids, err := e.tombstones.List(ctx)
	if err != nil {
		return fmt.Errorf("listing tombstones %s: %w", e.kind, err)
	}
	if len(ids) == 0 {
		return nil
	}

	for _, id := range ids {
		err := e.deleteRemote(ctx, id)
		if err != nil && !errors.Is(err, api.ErrNotFound) {
			e.logger.Warn(ctx, "remote delete failed", "id", id, "error", err)
			if e.policy == RetryFailed {
				continue
			}
		}
		if e.policy == RetryFailed {
			if err := e.tombstones.Remove(ctx, id); err != nil {
				return fmt.Errorf("removing tombstone %s %d: %w", e.kind, id, err)
			}
		}
	}

	if e.policy == ClearAlways {
		if err := e.tombstones.Clear(ctx); err != nil {
			return fmt.Errorf("clearing tombstones %s: %w", e.kind, err)
		}
	}

	e.logger.Info(ctx, "drained tombstones", "count", len(ids))
	return nil
}

// deleteRemote issues the DELETE with a short bounded backoff. An id the
// server no longer knows is already deleted and returns ErrNotFound.
func (e *Engine[T, D]) deleteRemote(ctx context.Context, id int64) error {
	backoff := retry.WithMaxRetries(e.retryAttempts, retry.NewExponential(e.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := e.remote.Delete(ctx, id)
		if errors.Is(err, api.ErrNotFound) {
			return err
		}
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (e *Engine[T, D]) pull(ctx context.Context) error {
	records, err := e.remote.List(ctx)
	if err != nil {
		return fmt.Errorf("pulling %s: %w", e.kind, err)
	}

	for _, record := range records {
		if err := e.local.UpsertFromServer(ctx, record); err != nil {
			return fmt.Errorf("storing pulled %s %d: %w", e.kind, e.id(record), err)
		}
	}

	e.logger.Info(ctx, "pulled server state", "count", len(records))
	return nil
}
