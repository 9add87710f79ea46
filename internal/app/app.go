// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ersauravadhikari/blueberry-go/blueberry"
	"github.com/ersauravadhikari/blueberry-go/blueberry/store"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"reddit-modbot/internal/client"
	"reddit-modbot/internal/config"
	"reddit-modbot/internal/modules"
	"reddit-modbot/internal/poller"
	"reddit-modbot/internal/processor"
	"reddit-modbot/internal/storage"
	"reddit-modbot/internal/tasks"
)

const reportCacheSize = 4096

type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	BlueBerry   *blueberry.BlueBerry
	Storage     storage.StorageInterface
	Client      client.RedditClientInterface
	Registry    *modules.Registry
	Poller      *poller.Poller
	TaskManager tasks.TaskManagerInterface

	metricsServer *http.Server
}

// Initialize logs into Reddit, resolves the community and builds every
// collaborator. Any failure here is fatal.
func Initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	redditClient := NewRedditClient(cfg, logger)

	community, err := verifyReddit(ctx, redditClient, cfg, logger)
	if err != nil {
		return nil, err
	}

	mongoStore, err := storage.NewMongoStorage(cfg.MongoDBURI, cfg.DatabaseName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB storage: %w", err)
	}

	previous, err := mongoStore.GetCommunityMetadata(ctx, community)
	if err != nil {
		logger.Warn("failed to read previous checkpoint", "err", err)
	} else if previous != nil {
		logger.Info("previous run checkpoint found, starting from now without replay",
			"last_checked_at", previous.LastCheckedAt)
	}

	blueBerryStore, err := store.NewMongoDB(cfg.MongoDBURI, cfg.DatabaseName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize BlueBerry MongoDB store: %w", err)
	}

	bb := blueberry.NewBlueBerryInstance(blueBerryStore)
	bb.AddWebOnlyPasswordAuth(cfg.WebAuthUser, cfg.WebAuthPassword)

	var ledger modules.ReportLedger
	if cfg.ReportDedupe {
		cached, err := storage.NewCachedReportLedger(mongoStore, reportCacheSize)
		if err != nil {
			return nil, err
		}
		ledger = cached
	}

	webhookClient := cleanhttp.DefaultPooledClient()
	webhookClient.Timeout = cfg.RequestTimeout

	targets := make([]modules.WebhookTarget, 0, len(cfg.DiscordWebhookURLs))
	for _, u := range cfg.DiscordWebhookURLs {
		targets = append(targets, modules.WebhookTarget{
			URL:       u,
			BotName:   cfg.DiscordBotName,
			AvatarURL: cfg.DiscordAvatarURL,
		})
	}

	registry := modules.NewRegistry(
		modules.NewImagePostTrackerModule(redditClient, community, cfg.ImageWindow, ledger, logger),
		modules.NewDiscordWebhookModule(webhookClient, community, targets, logger),
	)
	for _, name := range registry.Names() {
		logger.Info("found module", "name", name, "kind", "post monitor")
	}
	if len(targets) == 0 {
		logger.Info("no Discord webhooks configured, notifications disabled")
	}

	postPoller := poller.New(redditClient, community, registry, mongoStore, logger)
	taskManager := tasks.NewPollTaskManager(bb, postPoller, community, cfg.PollInterval)

	app := &App{
		Config:      cfg,
		Logger:      logger,
		BlueBerry:   bb,
		Storage:     mongoStore,
		Client:      redditClient,
		Registry:    registry,
		Poller:      postPoller,
		TaskManager: taskManager,
		metricsServer: &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	if err := app.TaskManager.RegisterTasks(); err != nil {
		return nil, fmt.Errorf("failed to register tasks: %w", err)
	}

	logger.Info("initialization complete")
	return app, nil
}

// NewRedditClient builds the Reddit API client from configuration.
func NewRedditClient(cfg *config.Config, logger *slog.Logger) *client.RedditClient {
	return client.NewRedditClient(client.Options{
		BaseURL:           cfg.RedditAPIURL,
		AuthURL:           cfg.RedditAuthURL,
		Username:          cfg.RedditUsername,
		Password:          cfg.RedditPassword,
		ClientID:          cfg.RedditClientID,
		ClientSecret:      cfg.RedditClientSecret,
		RedirectURI:       cfg.RedditRedirectURI,
		UserAgent:         cfg.RedditUserAgent,
		RequestsPerMinute: cfg.RedditRequestsPerMinute,
		MaxRetries:        cfg.RedditMaxRetries,
		Timeout:           cfg.RequestTimeout,
	}, processor.NewProcessor(), logger)
}

// Check verifies Reddit credentials, the community and MongoDB without
// scheduling anything.
func Check(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if _, err := verifyReddit(ctx, NewRedditClient(cfg, logger), cfg, logger); err != nil {
		return err
	}

	mongoStore, err := storage.NewMongoStorage(cfg.MongoDBURI, cfg.DatabaseName)
	if err != nil {
		return fmt.Errorf("failed to initialize MongoDB storage: %w", err)
	}
	defer mongoStore.Close()

	if err := mongoStore.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("MongoDB reachable", "database", cfg.DatabaseName)
	return nil
}

func verifyReddit(ctx context.Context, redditClient client.RedditClientInterface, cfg *config.Config, logger *slog.Logger) (string, error) {
	user, err := redditClient.Me(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to log into Reddit: %w", err)
	}
	logger.Info("logged into Reddit", "user", "/u/"+user)

	community, err := redditClient.Community(ctx, cfg.Subreddit)
	if err != nil {
		return "", fmt.Errorf("failed to load subreddit: %w", err)
	}
	logger.Info("loaded subreddit", "community", "/r/"+community)

	return community, nil
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start runs the task scheduler, the BlueBerry dashboard and the metrics
// endpoint until one of them fails.
func (a *App) Start() error {
	a.Logger.Info("initializing task scheduler", "interval", a.Config.PollInterval)
	a.BlueBerry.InitTaskScheduler()

	var g errgroup.Group

	g.Go(func() error {
		a.Logger.Info("starting metrics server", "addr", a.metricsServer.Addr)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.Logger.Info("starting API server", "port", a.Config.ServerPort)
		a.BlueBerry.RunAPI(a.Config.ServerPort)
		return nil
	})

	return g.Wait()
}

func (a *App) Shutdown() {
	a.Logger.Info("shutting down moderation bot")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		a.Logger.Warn("metrics server shutdown", "err", err)
	}

	a.BlueBerry.Shutdown()
	if a.Storage != nil {
		a.Storage.Close()
	}
}
