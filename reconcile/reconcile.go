package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/replycorpus/curator/database/db"
	"github.com/replycorpus/curator/forum"
	"github.com/replycorpus/curator/model"

	log "github.com/sirupsen/logrus"
)

// Window bounds the reconciliation working set to records captured within
// the last N days. Negative values mean no age bound at all; very old
// discussions are assumed settled, so a bounded window saves API budget.
type Window int

// WindowUnbounded selects every record not yet confirmed removed,
// regardless of age.
const WindowUnbounded Window = -1

func (w Window) Unbounded() bool {
	return w < 0
}

// CutoffEpoch returns the epoch second before which records fall outside
// the window.
func (w Window) CutoffEpoch(now time.Time) int64 {
	return now.Unix() - int64(w)*86400
}

// RecordStore is the slice of the record store the reconciler uses.
type RecordStore interface {
	SelectCheckableIDs(ctx context.Context, createdAfter *int64) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status model.Status, lastChecked time.Time) error
	RecordRun(ctx context.Context, kind db.RunKind, started time.Time, examined int, affected int) error
}

type ReplyFetcher interface {
	FetchReply(ctx context.Context, id string) (*forum.RawReply, error)
}

// Summary describes one completed reconciliation pass.
type Summary struct {
	Checked int
	Removed int
	Skipped int
}

// Reconciler re-checks previously captured replies against the live forum
// and flips their takedown status accordingly.
type Reconciler struct {
	forum ReplyFetcher
	store RecordStore

	now func() time.Time
}

func NewReconciler(forumFetcher ReplyFetcher, store RecordStore) *Reconciler {
	return &Reconciler{
		forum: forumFetcher,
		store: store,
		now:   time.Now,
	}
}

/*
Reconcile selects every record not yet confirmed removed — restricted to
those captured inside the window unless it is unbounded — and re-fetches
each from the forum. A redacted body (or an id that no longer resolves)
marks the record removed; anything else marks it live. Either way the
record's last-checked timestamp is stamped with this pass's wall clock.
A transient fetch failure leaves that one record exactly as it was and
moves on; only a store failure aborts the pass.
*/
func (r *Reconciler) Reconcile(ctx context.Context, window Window) (Summary, error) {
	started := r.now().UTC()

	var createdAfter *int64
	if !window.Unbounded() {
		cutoff := window.CutoffEpoch(started)
		createdAfter = &cutoff
	}

	ids, err := r.store.SelectCheckableIDs(ctx, createdAfter)
	if err != nil {
		return Summary{}, fmt.Errorf("selecting working set: %w", err)
	}
	log.WithField("window", int(window)).Infof("re-checking %d captured replies", len(ids))

	summary := Summary{}
	for _, id := range ids {
		status, err := r.checkReply(ctx, id)
		if err != nil {
			// Leave the prior status and timestamp untouched; the next
			// pass will pick this record up again.
			summary.Skipped++
			log.WithField("id", id).Warnf("could not re-check reply: %v", err)
			continue
		}

		if err := r.store.UpdateStatus(ctx, id, status, r.now().UTC()); err != nil {
			return summary, fmt.Errorf("updating status of %s: %w", id, err)
		}
		summary.Checked++
		if status == model.StatusRemoved {
			summary.Removed++
			log.WithField("id", id).Info("reply was removed")
		}
	}

	if err := r.store.RecordRun(ctx, db.RunKindCheck, started, len(ids), summary.Removed); err != nil {
		// The pass itself succeeded, so a failed audit row is not fatal
		log.Warnf("reconciliation pass completed but wasn't recorded in the database: %v", err)
	}

	log.WithField("selected", len(ids)).
		WithField("checked", summary.Checked).
		WithField("removed", summary.Removed).
		WithField("skipped", summary.Skipped).
		Info("reconciliation pass complete")
	return summary, nil
}

// checkReply determines the current takedown status of one reply. An id
// that no longer resolves counts as removed: the content is gone even if
// the forum never substituted the redaction placeholder.
func (r *Reconciler) checkReply(ctx context.Context, id string) (model.Status, error) {
	raw, err := r.forum.FetchReply(ctx, id)
	if err != nil {
		if errors.Is(err, forum.ErrNotFound) {
			return model.StatusRemoved, nil
		}
		return model.StatusUnknown, err
	}
	if raw.IsRemoved() {
		return model.StatusRemoved, nil
	}
	return model.StatusLive, nil
}

// Run repeats reconciliation passes until the context closes. Per-reply
// fetch failures are already absorbed inside Reconcile, so any error here
// is a store failure and stops the loop.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration, window Window) error {
	for {
		select {
		case <-ctx.Done():
			log.Debug("exiting reconciler by closing channel")
			return nil
		case <-time.After(interval):
			if _, err := r.Reconcile(ctx, window); err != nil {
				return err
			}
		}
	}
}
