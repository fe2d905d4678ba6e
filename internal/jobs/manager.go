// Package jobs は期限切れセッションの定期掃除を Asynq で実行します。
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yourusername/issuehub/internal/config"
)

const (
	taskTypeSweep = "session:sweep"
	queueSessions = "sessions"
)

// Sweeper は期限切れセッションを削除できるミラーが実装します。
type Sweeper interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SweepPayload は掃除ジョブのペイロードです。
type SweepPayload struct {
	// Before が空の場合は処理時刻を使います。
	Before time.Time `json:"before,omitempty"`
}

// Manager はジョブの投入とワーカーの起動を担います。
type Manager struct {
	client    *asynq.Client
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	interval  time.Duration
	sweeper   Sweeper
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager は Manager を初期化します。
func NewManager(cfg *config.Config, sweeper Sweeper, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if sweeper == nil {
		return nil, errors.New("sweeper is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opt, err := asynq.ParseRedisURI(cfg.QueueRedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				queueSessions: 1,
			},
		},
	)

	manager := &Manager{
		client:    asynq.NewClient(opt),
		server:    server,
		scheduler: asynq.NewScheduler(opt, nil),
		mux:       asynq.NewServeMux(),
		interval:  interval,
		sweeper:   sweeper,
		logger:    logger,
		now:       time.Now,
	}
	manager.mux.HandleFunc(taskTypeSweep, manager.handleSweepTask)
	return manager, nil
}

// StartWorkers は定期スケジュールを登録し、Asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() error {
	task, err := newSweepTask(SweepPayload{})
	if err != nil {
		return err
	}
	spec := fmt.Sprintf("@every %s", m.interval)
	if _, err := m.scheduler.Register(spec, task, asynq.Queue(queueSessions), asynq.MaxRetry(0)); err != nil {
		return fmt.Errorf("register sweep schedule: %w", err)
	}
	if err := m.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	go func() {
		if err := m.server.Run(m.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			m.logger.Error("asynq server stopped with error", "error", err)
		}
	}()
	return nil
}

// Shutdown はスケジューラー・サーバー・クライアントを閉じます。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.scheduler.Shutdown()
	m.server.Shutdown()
	return m.client.Close()
}

// EnqueueSweep は掃除ジョブを即時実行キューに投入します。
func (m *Manager) EnqueueSweep(ctx context.Context) (string, error) {
	task, err := newSweepTask(SweepPayload{Before: m.now().UTC()})
	if err != nil {
		return "", err
	}
	info, err := m.client.EnqueueContext(ctx, task, asynq.Queue(queueSessions), asynq.MaxRetry(1))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (m *Manager) handleSweepTask(ctx context.Context, task *asynq.Task) error {
	var payload SweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode sweep payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	before := payload.Before
	if before.IsZero() {
		before = m.now()
	}

	n, err := m.sweeper.DeleteExpired(ctx, before)
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "expired sessions swept", "deleted", n, "before", before)
	return nil
}

func newSweepTask(payload SweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskTypeSweep, body), nil
}
