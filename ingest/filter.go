package ingest

import (
	"context"

	"github.com/replycorpus/curator/forum"
	"github.com/replycorpus/curator/model"

	log "github.com/sirupsen/logrus"
)

// SkipReason explains why a fetched reply was not captured. Skips are local
// outcomes: the offending reply is dropped, never the batch.
type SkipReason string

const (
	SkipNone SkipReason = ""
	// SkipAlreadyRemoved means the body was redacted before we saw it,
	// so there is nothing worth capturing.
	SkipAlreadyRemoved SkipReason = "already_removed"
	// SkipNested means the reply answers another reply, not the root post.
	SkipNested SkipReason = "nested"
	// SkipIncomplete means required fields were missing or the clarifying
	// lookup failed.
	SkipIncomplete SkipReason = "incomplete"
)

type ReplyFetcher interface {
	FetchReply(ctx context.Context, id string) (*forum.RawReply, error)
}

// Filter decides which fetched replies are eligible for capture.
type Filter struct {
	fetcher ReplyFetcher
}

func NewFilter(fetcher ReplyFetcher) *Filter {
	return &Filter{fetcher: fetcher}
}

/*
Classify inspects one raw reply and either returns the record to capture or
the reason it was skipped. Eligibility requires a non-redacted body, all
capture fields present, and a parent reference pointing at the root post.
Listing payloads usually carry the parent reference already; when they
don't, the reply is re-fetched by id to read it, and any failure of that
lookup makes the reply incomplete rather than failing the caller's batch.
*/
func (f *Filter) Classify(ctx context.Context, raw forum.RawReply) (*model.CapturedReply, SkipReason) {
	if raw.IsRemoved() {
		return nil, SkipAlreadyRemoved
	}
	if raw.ID == "" || raw.Author == "" || raw.Body == "" || raw.Permalink == "" || raw.CreatedAt.IsZero() {
		return nil, SkipIncomplete
	}

	parentRef := raw.ParentRef
	if parentRef == "" {
		fetched, err := f.fetcher.FetchReply(ctx, raw.ID)
		if err != nil {
			log.WithField("id", raw.ID).Warnf("could not retrieve reply details: %v", err)
			return nil, SkipIncomplete
		}
		parentRef = fetched.ParentRef
	}

	if _, _, err := forum.ParseRef(parentRef); err != nil {
		return nil, SkipIncomplete
	}
	if !forum.IsPostRef(parentRef) {
		return nil, SkipNested
	}

	return &model.CapturedReply{
		ID:        raw.ID,
		Author:    raw.Author,
		CreatedAt: raw.CreatedAt,
		Text:      raw.Body,
		Permalink: raw.Permalink,
		Status:    model.StatusUnknown,
		// Until the first re-check, the capture time is the best
		// "last known good" timestamp we have.
		LastChecked: raw.CreatedAt,
	}, SkipNone
}
