// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"reddit-modbot/internal/models"
	"reddit-modbot/internal/modules"
)

// ErrCycleInProgress is returned by Cycle when the previous cycle has not
// finished yet. The tick is dropped.
var ErrCycleInProgress = errors.New("poll cycle already in progress")

// Feed lists a community's posts, newest first.
type Feed interface {
	NewPosts(ctx context.Context, community string) iter.Seq2[models.Post, error]
}

// CheckpointRecorder persists the checkpoint for inspection. It is never read
// back to resume polling.
type CheckpointRecorder interface {
	UpsertCommunityMetadata(ctx context.Context, metadata *models.CommunityMetadata) error
}

// Result describes one completed cycle.
type Result struct {
	Since      time.Time
	Checkpoint time.Time
	Posts      int
}

type Poller struct {
	feed      Feed
	community string
	registry  *modules.Registry
	recorder  CheckpointRecorder
	logger    *slog.Logger
	now       func() time.Time

	// mu is held for the whole cycle and guards checkpoint.
	mu         sync.Mutex
	checkpoint time.Time
}

// New creates a poller whose checkpoint starts at the current time, so posts
// made before startup are never dispatched. recorder may be nil.
func New(feed Feed, community string, registry *modules.Registry, recorder CheckpointRecorder, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		feed:      feed,
		community: community,
		registry:  registry,
		recorder:  recorder,
		logger:    logger.With("subsystem", "poller", "community", community),
		now:       time.Now,
	}
	p.checkpoint = p.now().UTC()
	return p
}

// Checkpoint returns the creation time boundary of the next fetch.
func (p *Poller) Checkpoint() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkpoint
}

// Cycle fetches the posts created since the checkpoint and hands them to
// every registered module in order.
//
// The checkpoint only moves after a successful, non-empty fetch, and then to
// the time the cycle started. Module errors and panics are logged and
// collected; they never stop later modules from running.
func (p *Poller) Cycle(ctx context.Context) (*Result, error) {
	if !p.mu.TryLock() {
		cyclesSkipped.Inc()
		p.logger.Warn("previous poll cycle still running, skipping tick")
		return nil, ErrCycleInProgress
	}
	defer p.mu.Unlock()

	since := p.checkpoint
	cycleStart := p.now().UTC()

	posts, err := p.fetchSince(ctx, since)
	if err != nil {
		pollCycles.WithLabelValues("fetch_error").Inc()
		p.logger.Error("failed to fetch new posts", "since", since, "err", err)
		return nil, fmt.Errorf("fetching new posts: %w", err)
	}

	result := &Result{Since: since, Checkpoint: since, Posts: len(posts)}
	if len(posts) == 0 {
		pollCycles.WithLabelValues("empty").Inc()
		return result, nil
	}

	if cycleStart.After(p.checkpoint) {
		p.checkpoint = cycleStart
	}
	result.Checkpoint = p.checkpoint
	postsFetched.Add(float64(len(posts)))
	p.recordCheckpoint(ctx, len(posts))

	for _, post := range posts {
		p.logger.Info("new post", "title", post.Title, "author", post.Author, "link", post.Shortlink())
	}

	var errs []error
	for _, module := range p.registry.Modules() {
		if err := p.dispatch(ctx, module, posts); err != nil {
			moduleErrors.WithLabelValues(module.Name()).Inc()
			p.logger.Error("module failed to process posts", "module", module.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", module.Name(), err))
		}
	}

	if len(errs) > 0 {
		pollCycles.WithLabelValues("module_error").Inc()
		return result, errors.Join(errs...)
	}
	pollCycles.WithLabelValues("ok").Inc()
	return result, nil
}

// fetchSince pulls posts until the first one created before since.
func (p *Poller) fetchSince(ctx context.Context, since time.Time) ([]models.Post, error) {
	var posts []models.Post
	for post, err := range p.feed.NewPosts(ctx, p.community) {
		if err != nil {
			return nil, err
		}
		if post.CreatedUTC.Before(since) {
			break
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (p *Poller) dispatch(ctx context.Context, module modules.PostMonitorModule, posts []models.Post) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return module.ProcessNewPosts(ctx, posts)
}

func (p *Poller) recordCheckpoint(ctx context.Context, batchSize int) {
	if p.recorder == nil {
		return
	}
	metadata := &models.CommunityMetadata{
		CommunityName: p.community,
		LastCheckedAt: p.checkpoint,
		LastBatchSize: batchSize,
	}
	if err := p.recorder.UpsertCommunityMetadata(ctx, metadata); err != nil {
		p.logger.Warn("failed to record checkpoint", "err", err)
	}
}
