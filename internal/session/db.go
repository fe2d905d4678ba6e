package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type sessionRow struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID        string    `bun:"id,pk"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:varchar(36)"`
	IssuedAt  time.Time `bun:"issued_at,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

// DBMirror はミラーを sessions テーブルに保存します。
// 期限切れの行は DeleteExpired で掃除します。
type DBMirror struct {
	db bun.IDB
}

// NewDBMirror は DBMirror を作成します。
func NewDBMirror(db bun.IDB) *DBMirror {
	return &DBMirror{db: db}
}

// CreateTable は sessions テーブルを作成します（既存の場合は何もしません）。
func (m *DBMirror) CreateTable(ctx context.Context) error {
	if _, err := m.db.NewCreateTable().
		Model((*sessionRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	_, err := m.db.NewCreateIndex().
		Model((*sessionRow)(nil)).
		Index("sessions_expires_at_idx").
		IfNotExists().
		Column("expires_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create sessions index: %w", err)
	}
	return nil
}

func (m *DBMirror) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	row := &sessionRow{
		ID:        record.ID,
		UserID:    record.UserID,
		IssuedAt:  record.IssuedAt.UTC(),
		ExpiresAt: record.ExpiresAt.UTC(),
	}
	_, err := m.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (m *DBMirror) Load(ctx context.Context, id string) (*Record, error) {
	row := new(sessionRow)
	err := m.db.NewSelect().
		Model(row).
		Where("s.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &Record{
		ID:        row.ID,
		UserID:    row.UserID,
		IssuedAt:  row.IssuedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (m *DBMirror) Delete(ctx context.Context, id string) error {
	_, err := m.db.NewDelete().
		Model((*sessionRow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DeleteExpired は before 時点で期限切れの行を削除し、削除件数を返します。
func (m *DBMirror) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := m.db.NewDelete().
		Model((*sessionRow)(nil)).
		Where("expires_at <= ?", before.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
