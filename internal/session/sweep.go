package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper は期限切れレコードを一括削除できるミラーです。
type Sweeper interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// RunSweeper は interval ごとに期限切れレコードを削除します。ctx が終わるまで戻りません。
// TTL を持たないミラー（メモリ）のプロセス内掃除に使います。
func RunSweeper(ctx context.Context, sw Sweeper, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sw.DeleteExpired(ctx, time.Now())
			if err != nil {
				logger.WarnContext(ctx, "sweep expired sessions failed", "error", err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "swept expired sessions", "deleted", n)
			}
		}
	}
}
