package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/flowdash/internal/domain/chat"
	"github.com/yanqian/flowdash/internal/domain/dashboard"
	"github.com/yanqian/flowdash/internal/domain/deploy"
	"github.com/yanqian/flowdash/internal/domain/preview"
	"github.com/yanqian/flowdash/internal/domain/toolkit"
	"github.com/yanqian/flowdash/internal/infra/archive"
	"github.com/yanqian/flowdash/internal/infra/clientrepo"
	"github.com/yanqian/flowdash/internal/infra/config"
	"github.com/yanqian/flowdash/internal/infra/eventrepo"
	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	"github.com/yanqian/flowdash/internal/infra/pgschema"
	"github.com/yanqian/flowdash/internal/infra/queue"
	"github.com/yanqian/flowdash/internal/infra/specstore"
	"github.com/yanqian/flowdash/internal/infra/threadrepo"
	"github.com/yanqian/flowdash/internal/infra/tokenizer"
	"github.com/yanqian/flowdash/pkg/logger"
	"github.com/yanqian/flowdash/pkg/metrics"
)

func provideLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Log.Level, cfg.Log.Format)
}

// providePostgresPool returns nil when no DSN is set or the database is unreachable;
// the repositories then fall back to memory.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func()) {
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil, noop
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil, noop
	}
	if err := pgschema.Ensure(ctx, pool); err != nil {
		logger.Error("postgres schema setup failed, using memory repositories", "error", err)
		pool.Close()
		return nil, noop
	}
	logger.Info("postgres repositories enabled")
	return pool, pool.Close
}

// provideValkeyClient returns nil when redis is disabled or unreachable.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	noop := func() {}
	if !cfg.Store.Redis.Enabled {
		return nil, noop
	}
	opt, err := buildValkeyOptions(cfg.Store.Redis.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory", "error", err)
		return nil, noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory", "error", err)
		client.Close()
		return nil, noop
	}
	logger.Info("valkey enabled", "addr", cfg.Store.Redis.Addr)
	return client, client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideSpecStore(cfg *config.Config, client valkey.Client) dashboard.SpecStore {
	if client != nil {
		return specstore.NewValkeyStore(client, cfg.Store.KeyPrefix, cfg.Store.SpecTTL)
	}
	return specstore.NewMemoryStore(cfg.Store.MemoryMaxEntries, cfg.Store.SpecTTL)
}

func provideClientRepository(pool *pgxpool.Pool) deploy.Repository {
	if pool != nil {
		return clientrepo.NewPostgresRepository(pool)
	}
	return clientrepo.NewMemoryRepository()
}

func provideEventRepository(pool *pgxpool.Pool) preview.EventRepository {
	if pool != nil {
		return eventrepo.NewPostgresRepository(pool)
	}
	return eventrepo.NewMemoryRepository()
}

func provideThreadRepository(pool *pgxpool.Pool) chat.ThreadRepository {
	if pool != nil {
		return threadrepo.NewPostgresRepository(pool)
	}
	return threadrepo.NewMemoryRepository()
}

func provideArchive(cfg *config.Config, logger *slog.Logger) deploy.SnapshotArchive {
	if !cfg.Archive.Enabled {
		return archive.NewMemoryArchive()
	}
	a, err := archive.NewR2Archive(cfg.Archive.Endpoint, cfg.Archive.AccessKey, cfg.Archive.SecretKey, cfg.Archive.Bucket, cfg.Archive.Region, logger)
	if err != nil {
		logger.Error("failed to initialize archive, keeping snapshots in memory", "error", err)
		return archive.NewMemoryArchive()
	}
	return a
}

func provideQueue(cfg *config.Config, client valkey.Client, logger *slog.Logger) (queue.HandlerQueue, func()) {
	var q queue.HandlerQueue
	if cfg.Queue.Backend == "valkey" && client != nil {
		q = queue.NewValkeyQueue(client, cfg.Queue.Name, logger)
	} else {
		if cfg.Queue.Backend == "valkey" {
			logger.Warn("valkey unavailable, running jobs in process")
		}
		q = queue.NewImmediateQueue(nil)
	}
	return q, func() { _ = q.Close() }
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) preview.TokenCounter {
	return tokenizer.New(cfg.Generation.TokenizerModel, logger)
}

// provideToolRunner returns nil when no API key is configured.
func provideToolRunner(cfg *config.Config, registry *toolkit.Registry, recorder *metrics.Recorder, logger *slog.Logger) (*toolkit.Runner, error) {
	if !cfg.LLMEnabled() {
		logger.Info("llm api key not set, model backed features disabled")
		return nil, nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		return nil, err
	}
	return toolkit.NewRunner(toolkit.RunnerConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxRounds:   cfg.LLM.MaxToolRounds,
	}, client, registry, recorder, logger), nil
}

// provideChatRunner keeps a nil runner a nil interface.
func provideChatRunner(runner *toolkit.Runner) chat.ToolRunner {
	if runner == nil {
		return nil
	}
	return runner
}

func provideSpecGenerator(cfg *config.Config, runner *toolkit.Runner, logger *slog.Logger) preview.SpecGenerator {
	useLLM := cfg.Generation.Mode == preview.ModeLLM ||
		(cfg.Generation.Mode == preview.ModeAuto && runner != nil)
	if useLLM && runner != nil {
		logger.Info("preview generation uses the language model")
		return preview.NewLLMGenerator(runner, cfg.Generation.SystemPrompt, logger)
	}
	logger.Info("preview generation uses the direct composer")
	return preview.NewDirectGenerator(cfg.Generation.DefaultTitle)
}

func providePreviewConfig(cfg *config.Config) preview.Config {
	return preview.Config{
		Mode:             cfg.Generation.Mode,
		SystemPrompt:     cfg.Generation.SystemPrompt,
		DefaultTitle:     cfg.Generation.DefaultTitle,
		MaxPayloadTokens: cfg.Generation.MaxPayloadTokens,
		Timeout:          cfg.Generation.Timeout,
	}
}

func provideDeployConfig(cfg *config.Config) deploy.Config {
	return deploy.Config{
		BaseDomain:    cfg.Deploy.BaseDomain,
		ArchivePrefix: cfg.Archive.Prefix,
	}
}

func provideChatConfig() chat.Config {
	return chat.Config{SystemPrompt: chat.DefaultSystemPrompt}
}

func provideClientDirectory(deploys deploy.Service) preview.ClientDirectory {
	return deploys
}

func provideJobQueue(q queue.HandlerQueue) preview.JobQueue {
	return q
}
