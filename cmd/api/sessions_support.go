package main

import (
	"context"
	"log/slog"

	redis "github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/yourusername/issuehub/internal/config"
	"github.com/yourusername/issuehub/internal/jobs"
	"github.com/yourusername/issuehub/internal/session"
)

// sessionBackend はセッションミラーと、その後始末をまとめたものです。
type sessionBackend struct {
	Mirror  session.Mirror
	closers []func(ctx context.Context) error
}

// Close は起動したワーカーや接続を閉じます。
func (b *sessionBackend) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i](ctx)
	}
}

func setupSessionBackend(ctx context.Context, cfg *config.Config, db *bun.DB, logger *slog.Logger) (*sessionBackend, error) {
	backend := &sessionBackend{}

	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		opt, err := redis.ParseURL(cfg.SessionRedisURL)
		if err != nil {
			return nil, err
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, err
		}
		backend.Mirror = session.NewRedisMirror(rdb)
		backend.closers = append(backend.closers, func(context.Context) error { return rdb.Close() })

	case config.SessionBackendDB:
		mirror := session.NewDBMirror(db)
		if err := mirror.CreateTable(ctx); err != nil {
			return nil, err
		}
		backend.Mirror = mirror

		// Redis の TTL が無いため、期限切れ行は Asynq で定期的に掃除する
		if cfg.QueueRedisURL == "" {
			logger.Warn("QUEUE_REDIS_URL is empty; expired sessions are not swept")
			break
		}
		manager, err := jobs.NewManager(cfg, mirror, logger)
		if err != nil {
			return nil, err
		}
		if err := manager.StartWorkers(); err != nil {
			_ = manager.Shutdown(ctx)
			return nil, err
		}
		if _, err := manager.EnqueueSweep(ctx); err != nil {
			logger.Warn("failed to enqueue initial session sweep", "error", err)
		}
		backend.closers = append(backend.closers, manager.Shutdown)

	default:
		logger.Warn("using in-memory session store; sessions are lost on restart")
		mirror := session.NewMemoryMirror()
		backend.Mirror = mirror

		sweepCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			session.RunSweeper(sweepCtx, mirror, cfg.SweepInterval, logger)
		}()
		backend.closers = append(backend.closers, func(context.Context) error {
			cancel()
			<-done
			return nil
		})
	}

	return backend, nil
}
