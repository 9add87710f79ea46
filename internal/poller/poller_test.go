package poller

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reddit-modbot/internal/models"
	"reddit-modbot/internal/modules"
)

var (
	startTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	cycleTime = startTime.Add(30 * time.Second)
)

type fakeFeed struct {
	posts  []models.Post
	err    error
	pulled int
}

func (f *fakeFeed) NewPosts(ctx context.Context, community string) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		for _, p := range f.posts {
			f.pulled++
			if !yield(p, nil) {
				return
			}
		}
		if f.err != nil {
			yield(models.Post{}, f.err)
		}
	}
}

type recordingModule struct {
	name    string
	calls   *[]string
	batches [][]models.Post
	err     error
	panics  bool
	block   chan struct{}
	entered chan struct{}
}

func (m *recordingModule) Name() string { return m.name }

func (m *recordingModule) ProcessNewPosts(ctx context.Context, posts []models.Post) error {
	*m.calls = append(*m.calls, m.name)
	m.batches = append(m.batches, posts)
	if m.entered != nil {
		close(m.entered)
	}
	if m.block != nil {
		<-m.block
	}
	if m.panics {
		panic("boom")
	}
	return m.err
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) UpsertCommunityMetadata(ctx context.Context, metadata *models.CommunityMetadata) error {
	args := m.Called(metadata)
	return args.Error(0)
}

func post(id string, created time.Time) models.Post {
	return models.Post{ID: id, Title: "post " + id, Author: "kirito", Community: "sao", CreatedUTC: created}
}

func newTestPoller(feed Feed, recorder CheckpointRecorder, mods ...modules.PostMonitorModule) *Poller {
	p := New(feed, "sao", modules.NewRegistry(mods...), recorder, nil)
	p.checkpoint = startTime
	p.now = func() time.Time { return cycleTime }
	return p
}

func TestCycle_DispatchesNewPostsInRegistryOrder(t *testing.T) {
	var calls []string
	first := &recordingModule{name: "first", calls: &calls}
	second := &recordingModule{name: "second", calls: &calls}

	feed := &fakeFeed{posts: []models.Post{
		post("c", startTime.Add(20*time.Second)),
		post("b", startTime.Add(10*time.Second)),
		post("a", startTime),
		post("old", startTime.Add(-time.Second)),
		post("older", startTime.Add(-time.Minute)),
	}}
	p := newTestPoller(feed, nil, first, second)

	result, err := p.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, calls)
	require.Len(t, first.batches, 1)
	assert.Equal(t, feed.posts[:3], first.batches[0])
	assert.Equal(t, first.batches, second.batches)

	assert.Equal(t, 4, feed.pulled, "fetch should stop at the first post older than the checkpoint")
	assert.Equal(t, 3, result.Posts)
	assert.Equal(t, startTime, result.Since)
	assert.Equal(t, cycleTime, result.Checkpoint)
	assert.Equal(t, cycleTime, p.Checkpoint())
}

func TestCycle_FetchErrorKeepsCheckpoint(t *testing.T) {
	var calls []string
	mod := &recordingModule{name: "mod", calls: &calls}
	feed := &fakeFeed{
		posts: []models.Post{post("a", startTime.Add(time.Second))},
		err:   context.DeadlineExceeded,
	}
	p := newTestPoller(feed, nil, mod)

	result, err := p.Cycle(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, result)
	assert.Empty(t, calls)
	assert.Equal(t, startTime, p.Checkpoint())
}

func TestCycle_EmptyBatch(t *testing.T) {
	var calls []string
	mod := &recordingModule{name: "mod", calls: &calls}
	recorder := new(MockRecorder)
	feed := &fakeFeed{posts: []models.Post{post("old", startTime.Add(-time.Second))}}
	p := newTestPoller(feed, recorder, mod)

	result, err := p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Posts)
	assert.Empty(t, calls)
	assert.Equal(t, startTime, p.Checkpoint())
	recorder.AssertNotCalled(t, "UpsertCommunityMetadata", mock.Anything)
}

func TestCycle_ModuleFailureDoesNotBlockSiblings(t *testing.T) {
	var calls []string
	failing := &recordingModule{name: "failing", calls: &calls, err: errors.New("webhook down")}
	panicking := &recordingModule{name: "panicking", calls: &calls, panics: true}
	healthy := &recordingModule{name: "healthy", calls: &calls}

	feed := &fakeFeed{posts: []models.Post{post("a", startTime.Add(time.Second))}}
	p := newTestPoller(feed, nil, failing, panicking, healthy)

	result, err := p.Cycle(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "failing: webhook down")
	assert.ErrorContains(t, err, "panicking: panic: boom")

	assert.Equal(t, []string{"failing", "panicking", "healthy"}, calls)
	assert.Equal(t, 1, result.Posts)
	assert.Equal(t, cycleTime, p.Checkpoint(), "checkpoint advances once the fetch succeeded")
}

func TestCycle_RecordsCheckpoint(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("UpsertCommunityMetadata", &models.CommunityMetadata{
		CommunityName: "sao",
		LastCheckedAt: cycleTime,
		LastBatchSize: 2,
	}).Return(errors.New("mongo down")).Once()

	feed := &fakeFeed{posts: []models.Post{
		post("b", startTime.Add(2*time.Second)),
		post("a", startTime.Add(time.Second)),
	}}
	p := newTestPoller(feed, recorder)

	_, err := p.Cycle(context.Background())
	require.NoError(t, err, "recording failures are only logged")
	recorder.AssertExpectations(t)
}

func TestCycle_CheckpointNeverMovesBackwards(t *testing.T) {
	feed := &fakeFeed{posts: []models.Post{post("a", startTime.Add(time.Second))}}
	p := newTestPoller(feed, nil)
	p.now = func() time.Time { return startTime.Add(-time.Hour) }

	result, err := p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, startTime, result.Checkpoint)
	assert.Equal(t, startTime, p.Checkpoint())
}

func TestCycle_OverlappingTickIsSkipped(t *testing.T) {
	var calls []string
	slow := &recordingModule{
		name:    "slow",
		calls:   &calls,
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	feed := &fakeFeed{posts: []models.Post{post("a", startTime.Add(time.Second))}}
	p := newTestPoller(feed, nil, slow)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := p.Cycle(context.Background())
		assert.NoError(t, err)
	}()

	<-slow.entered
	result, err := p.Cycle(context.Background())
	assert.ErrorIs(t, err, ErrCycleInProgress)
	assert.Nil(t, result)

	close(slow.block)
	wg.Wait()
	assert.Equal(t, []string{"slow"}, calls)
}

func TestNew_CheckpointStartsNow(t *testing.T) {
	before := time.Now().UTC()
	p := New(&fakeFeed{}, "sao", modules.NewRegistry(), nil, nil)
	after := time.Now().UTC()

	cp := p.Checkpoint()
	assert.False(t, cp.Before(before))
	assert.False(t, cp.After(after))
}
