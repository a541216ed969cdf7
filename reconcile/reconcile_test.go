package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/replycorpus/curator/database/db"
	"github.com/replycorpus/curator/forum"
	"github.com/replycorpus/curator/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) SelectCheckableIDs(ctx context.Context, createdAfter *int64) ([]string, error) {
	args := m.Called(ctx, createdAfter)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRecordStore) UpdateStatus(ctx context.Context, id string, status model.Status, lastChecked time.Time) error {
	args := m.Called(ctx, id, status, lastChecked)
	return args.Error(0)
}

func (m *MockRecordStore) RecordRun(ctx context.Context, kind db.RunKind, started time.Time, examined int, affected int) error {
	args := m.Called(ctx, kind, started, examined, affected)
	return args.Error(0)
}

type MockReplyFetcher struct {
	mock.Mock
}

func (m *MockReplyFetcher) FetchReply(ctx context.Context, id string) (*forum.RawReply, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*forum.RawReply), args.Error(1)
}

var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestReconciler(fetcher ReplyFetcher, store RecordStore) *Reconciler {
	r := NewReconciler(fetcher, store)
	r.now = func() time.Time { return fixedNow }
	return r
}

func liveReply(id string) *forum.RawReply {
	return &forum.RawReply{
		ID:        id,
		Author:    "historian42",
		Body:      "still a thorough answer",
		CreatedAt: fixedNow.Add(-48 * time.Hour),
		Permalink: fmt.Sprintf("/r/history/comments/p1/q/%s/", id),
		ParentRef: "t3_p1",
	}
}

func removedReply(id string) *forum.RawReply {
	raw := liveReply(id)
	raw.Body = forum.RemovedBody
	return raw
}

func TestWindow(t *testing.T) {
	t.Run("negative windows are unbounded", func(t *testing.T) {
		assert.True(t, WindowUnbounded.Unbounded())
		assert.True(t, Window(-3).Unbounded())
		assert.False(t, Window(0).Unbounded())
		assert.False(t, Window(7).Unbounded())
	})

	t.Run("cutoff excludes records older than the window", func(t *testing.T) {
		cutoff := Window(7).CutoffEpoch(fixedNow)

		eightDaysOld := fixedNow.Unix() - 8*86400
		sixDaysOld := fixedNow.Unix() - 6*86400
		assert.False(t, eightDaysOld > cutoff)
		assert.True(t, sixDaysOld > cutoff)
	})
}

func TestReconcile(t *testing.T) {
	t.Run("bounded windows restrict the selection by age", func(t *testing.T) {
		cutoff := fixedNow.Unix() - 7*86400

		mockStore := new(MockRecordStore)
		mockStore.On("SelectCheckableIDs", context.TODO(), &cutoff).Return([]string{}, nil)
		mockStore.On("RecordRun", context.TODO(), db.RunKindCheck, mock.Anything, 0, 0).Return(nil)

		_, err := newTestReconciler(new(MockReplyFetcher), mockStore).Reconcile(context.TODO(), Window(7))
		assert.NoError(t, err)
		mockStore.AssertExpectations(t)
	})

	t.Run("the unbounded sentinel selects without an age bound", func(t *testing.T) {
		mockStore := new(MockRecordStore)
		mockStore.On("SelectCheckableIDs", context.TODO(), (*int64)(nil)).Return([]string{}, nil)
		mockStore.On("RecordRun", context.TODO(), db.RunKindCheck, mock.Anything, 0, 0).Return(nil)

		_, err := newTestReconciler(new(MockReplyFetcher), mockStore).Reconcile(context.TODO(), WindowUnbounded)
		assert.NoError(t, err)
		mockStore.AssertExpectations(t)
	})

	t.Run("flips statuses from the live fetch outcome", func(t *testing.T) {
		mockFetcher := new(MockReplyFetcher)
		mockFetcher.On("FetchReply", context.TODO(), "c1").Return(liveReply("c1"), nil)
		mockFetcher.On("FetchReply", context.TODO(), "c2").Return(removedReply("c2"), nil)

		mockStore := new(MockRecordStore)
		mockStore.On("SelectCheckableIDs", context.TODO(), (*int64)(nil)).Return([]string{"c1", "c2"}, nil)
		mockStore.On("UpdateStatus", context.TODO(), "c1", model.StatusLive, fixedNow).Return(nil)
		mockStore.On("UpdateStatus", context.TODO(), "c2", model.StatusRemoved, fixedNow).Return(nil)
		mockStore.On("RecordRun", context.TODO(), db.RunKindCheck, mock.Anything, 2, 1).Return(nil)

		summary, err := newTestReconciler(mockFetcher, mockStore).Reconcile(context.TODO(), WindowUnbounded)
		assert.NoError(t, err)
		assert.Equal(t, 2, summary.Checked)
		assert.Equal(t, 1, summary.Removed)
		mockStore.AssertExpectations(t)
	})

	t.Run("an id that no longer resolves counts as removed", func(t *testing.T) {
		mockFetcher := new(MockReplyFetcher)
		mockFetcher.On("FetchReply", context.TODO(), "c1").Return(&forum.RawReply{}, forum.ErrNotFound)

		mockStore := new(MockRecordStore)
		mockStore.On("SelectCheckableIDs", context.TODO(), (*int64)(nil)).Return([]string{"c1"}, nil)
		mockStore.On("UpdateStatus", context.TODO(), "c1", model.StatusRemoved, fixedNow).Return(nil)
		mockStore.On("RecordRun", context.TODO(), db.RunKindCheck, mock.Anything, 1, 1).Return(nil)

		summary, err := newTestReconciler(mockFetcher, mockStore).Reconcile(context.TODO(), WindowUnbounded)
		assert.NoError(t, err)
		assert.Equal(t, 1, summary.Removed)
	})

	t.Run("a transient failure leaves that record untouched and continues", func(t *testing.T) {
		ids := []string{"c1", "c2", "c3", "c4", "c5"}
		mockFetcher := new(MockReplyFetcher)
		for _, id := range ids {
			if id == "c3" {
				mockFetcher.On("FetchReply", context.TODO(), id).Return(&forum.RawReply{}, &forum.TransientError{Op: "reply fetch"})
			} else {
				mockFetcher.On("FetchReply", context.TODO(), id).Return(liveReply(id), nil)
			}
		}

		mockStore := new(MockRecordStore)
		mockStore.On("SelectCheckableIDs", context.TODO(), (*int64)(nil)).Return(ids, nil)
		mockStore.On("UpdateStatus", context.TODO(), mock.Anything, model.StatusLive, fixedNow).Return(nil)
		mockStore.On("RecordRun", context.TODO(), db.RunKindCheck, mock.Anything, 5, 0).Return(nil)

		summary, err := newTestReconciler(mockFetcher, mockStore).Reconcile(context.TODO(), WindowUnbounded)
		assert.NoError(t, err)
		assert.Equal(t, 4, summary.Checked)
		assert.Equal(t, 1, summary.Skipped)
		mockStore.AssertNumberOfCalls(t, "UpdateStatus", 4)
		mockStore.AssertNotCalled(t, "UpdateStatus", context.TODO(), "c3", mock.Anything, mock.Anything)
	})

	t.Run("a store failure aborts the pass", func(t *testing.T) {
		mockFetcher := new(MockReplyFetcher)
		mockFetcher.On("FetchReply", context.TODO(), "c1").Return(liveReply("c1"), nil)

		mockStore := new(MockRecordStore)
		mockStore.On("SelectCheckableIDs", context.TODO(), (*int64)(nil)).Return([]string{"c1", "c2"}, nil)
		mockStore.On("UpdateStatus", context.TODO(), "c1", model.StatusLive, fixedNow).Return(fmt.Errorf("connection refused"))

		_, err := newTestReconciler(mockFetcher, mockStore).Reconcile(context.TODO(), WindowUnbounded)
		assert.Error(t, err)
		mockStore.AssertNumberOfCalls(t, "UpdateStatus", 1)
		mockFetcher.AssertNumberOfCalls(t, "FetchReply", 1)
	})

	t.Run("a selection failure aborts the pass", func(t *testing.T) {
		mockStore := new(MockRecordStore)
		mockStore.On("SelectCheckableIDs", context.TODO(), (*int64)(nil)).Return([]string{}, fmt.Errorf("connection refused"))

		_, err := newTestReconciler(new(MockReplyFetcher), mockStore).Reconcile(context.TODO(), WindowUnbounded)
		assert.Error(t, err)
	})
}
