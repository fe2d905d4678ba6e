package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Open はドライバー名に応じて bun.DB を作成します。
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case "sqlite":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite は書き込みが直列化されるため接続は1本に絞る
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// CreateSchema は users / issues テーブルを作成します（既存の場合は何もしません）。
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	if _, err := db.NewCreateTable().
		Model((*Issue)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create issues table: %w", err)
	}
	if _, err := db.NewCreateIndex().
		Model((*Issue)(nil)).
		Index("issues_created_at_idx").
		IfNotExists().
		Column("created_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("create issues index: %w", err)
	}
	return nil
}

// isUniqueViolation は一意制約違反かどうかを判定します。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// SQLite は cgo / pure Go どちらのドライバーでも同じ文言を返す
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
