package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/replycorpus/curator/database/db"
	"github.com/replycorpus/curator/forum"
	"github.com/replycorpus/curator/model"

	log "github.com/sirupsen/logrus"
)

// ForumReader is the read access the pipeline needs from the forum.
type ForumReader interface {
	FetchRecent(ctx context.Context, limit int) ([]forum.RawReply, error)
	FetchReply(ctx context.Context, id string) (*forum.RawReply, error)
}

// ReplyStore is the slice of the record store the pipeline writes to.
type ReplyStore interface {
	InsertComment(ctx context.Context, reply model.CapturedReply) (bool, error)
	RecordRun(ctx context.Context, kind db.RunKind, started time.Time, examined int, affected int) error
}

// Summary describes one completed harvest pass.
type Summary struct {
	Examined int
	Inserted int
	Skipped  map[SkipReason]int
}

// Pipeline pulls recent replies from the forum, filters them, and performs
// dedupe-safe inserts into the record store.
type Pipeline struct {
	forum           ForumReader
	store           ReplyStore
	filter          *Filter
	testModeEnabled bool
}

func NewPipeline(forumReader ForumReader, store ReplyStore, isTestMode bool) *Pipeline {
	return &Pipeline{
		forum:           forumReader,
		store:           store,
		filter:          NewFilter(forumReader),
		testModeEnabled: isTestMode,
	}
}

/*
Ingest runs one harvest pass over up to limit of the newest replies.
Filter skips and per-reply lookup failures drop only the reply in question;
a store write failure aborts the pass and propagates, leaving whatever was
already committed in place. The summary's Inserted counts only rows that
were genuinely new — re-running over an overlapping stream is a no-op for
ids already captured.
*/
func (p *Pipeline) Ingest(ctx context.Context, limit int) (Summary, error) {
	started := time.Now().UTC()
	summary := Summary{Skipped: map[SkipReason]int{}}
	if limit <= 0 {
		return summary, nil
	}

	replies, err := p.forum.FetchRecent(ctx, limit)
	if err != nil {
		return summary, fmt.Errorf("fetching recent replies: %w", err)
	}
	summary.Examined = len(replies)

	for _, raw := range replies {
		captured, reason := p.filter.Classify(ctx, raw)
		if reason != SkipNone {
			summary.Skipped[reason]++
			log.WithField("id", raw.ID).WithField("reason", string(reason)).Debug("skipping reply")
			continue
		}

		if p.testModeEnabled {
			summary.Inserted++
			log.WithField("id", captured.ID).Info("test mode: simulating capture")
			continue
		}

		isNew, err := p.store.InsertComment(ctx, *captured)
		if err != nil {
			return summary, fmt.Errorf("storing reply %s: %w", captured.ID, err)
		}
		if isNew {
			summary.Inserted++
		}
	}

	if !p.testModeEnabled {
		if err := p.store.RecordRun(ctx, db.RunKindGather, started, summary.Examined, summary.Inserted); err != nil {
			// The pass itself succeeded, so a failed audit row is not fatal
			log.Warnf("harvest pass completed but wasn't recorded in the database: %v", err)
		}
	}

	log.WithField("examined", summary.Examined).
		WithField("inserted", summary.Inserted).
		WithField("nested", summary.Skipped[SkipNested]).
		WithField("alreadyRemoved", summary.Skipped[SkipAlreadyRemoved]).
		WithField("incomplete", summary.Skipped[SkipIncomplete]).
		Info("harvest pass complete")
	return summary, nil
}

// Run repeats harvest passes until the context closes. Transient forum
// failures are logged and retried on the next tick; store failures stop the
// loop.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration, limit int) error {
	for {
		select {
		case <-ctx.Done():
			log.Debug("exiting harvester by closing channel")
			return nil
		case <-time.After(interval):
			if _, err := p.Ingest(ctx, limit); err != nil {
				if forum.IsTransient(err) {
					log.Warnf("harvest pass failed, will retry: %v", err)
					continue
				}
				return err
			}
		}
	}
}
