package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Issues は issues テーブルの読み取りを提供します。
type Issues struct {
	db bun.IDB
}

// NewIssues は Issues を作成します。
func NewIssues(db bun.IDB) *Issues {
	return &Issues{db: db}
}

// ListIssuesWithOwner は所有ユーザーを結合した課題一覧を新しい順に返します。
func (r *Issues) ListIssuesWithOwner(ctx context.Context) ([]Issue, error) {
	issues := make([]Issue, 0)
	err := r.db.NewSelect().
		Model(&issues).
		Relation("User").
		OrderExpr("i.created_at DESC").
		OrderExpr("i.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}
