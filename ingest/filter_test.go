package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/replycorpus/curator/forum"
	"github.com/replycorpus/curator/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockReplyFetcher struct {
	mock.Mock
}

func (m *MockReplyFetcher) FetchReply(ctx context.Context, id string) (*forum.RawReply, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*forum.RawReply), args.Error(1)
}

func topLevelReply() forum.RawReply {
	return forum.RawReply{
		ID:        "c1",
		Author:    "historian42",
		Body:      "a thorough answer with sources",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Permalink: "/r/history/comments/p1/q/c1/",
		ParentRef: "t3_p1",
	}
}

func TestClassify(t *testing.T) {
	t.Run("captures a top-level reply with a full body", func(t *testing.T) {
		fetcher := new(MockReplyFetcher)
		raw := topLevelReply()

		captured, reason := NewFilter(fetcher).Classify(context.TODO(), raw)
		assert.Equal(t, SkipNone, reason)
		assert.Equal(t, "c1", captured.ID)
		assert.Equal(t, "historian42", captured.Author)
		assert.Equal(t, raw.Body, captured.Text)
		assert.Equal(t, raw.Permalink, captured.Permalink)
		assert.Equal(t, model.StatusUnknown, captured.Status)
		assert.Equal(t, raw.CreatedAt, captured.LastChecked)
		// The listing already carried the parent reference
		fetcher.AssertNumberOfCalls(t, "FetchReply", 0)
	})

	t.Run("skips nested replies regardless of other fields", func(t *testing.T) {
		raw := topLevelReply()
		raw.ParentRef = "t1_other"

		captured, reason := NewFilter(new(MockReplyFetcher)).Classify(context.TODO(), raw)
		assert.Equal(t, SkipNested, reason)
		assert.Nil(t, captured)
	})

	t.Run("skips replies whose body is already redacted", func(t *testing.T) {
		raw := topLevelReply()
		raw.Body = forum.RemovedBody

		captured, reason := NewFilter(new(MockReplyFetcher)).Classify(context.TODO(), raw)
		assert.Equal(t, SkipAlreadyRemoved, reason)
		assert.Nil(t, captured)
	})

	t.Run("skips replies missing required fields", func(t *testing.T) {
		raw := topLevelReply()
		raw.Author = ""

		captured, reason := NewFilter(new(MockReplyFetcher)).Classify(context.TODO(), raw)
		assert.Equal(t, SkipIncomplete, reason)
		assert.Nil(t, captured)
	})

	t.Run("fetches the reply when the listing omits the parent reference", func(t *testing.T) {
		raw := topLevelReply()
		raw.ParentRef = ""
		full := topLevelReply()

		fetcher := new(MockReplyFetcher)
		fetcher.On("FetchReply", context.TODO(), "c1").Return(&full, nil)

		captured, reason := NewFilter(fetcher).Classify(context.TODO(), raw)
		assert.Equal(t, SkipNone, reason)
		assert.NotNil(t, captured)
		fetcher.AssertNumberOfCalls(t, "FetchReply", 1)
	})

	t.Run("a failed clarifying lookup makes the reply incomplete, not fatal", func(t *testing.T) {
		raw := topLevelReply()
		raw.ParentRef = ""

		fetcher := new(MockReplyFetcher)
		fetcher.On("FetchReply", context.TODO(), "c1").Return(&forum.RawReply{}, &forum.TransientError{Op: "reply fetch"})

		captured, reason := NewFilter(fetcher).Classify(context.TODO(), raw)
		assert.Equal(t, SkipIncomplete, reason)
		assert.Nil(t, captured)
	})

	t.Run("a malformed parent reference makes the reply incomplete", func(t *testing.T) {
		raw := topLevelReply()
		raw.ParentRef = "garbage"

		captured, reason := NewFilter(new(MockReplyFetcher)).Classify(context.TODO(), raw)
		assert.Equal(t, SkipIncomplete, reason)
		assert.Nil(t, captured)
	})
}
