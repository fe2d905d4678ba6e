package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisMirror はミラーを Redis に保存します。期限切れのレコードは TTL で消えます。
type RedisMirror struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisMirror は RedisMirror を作成します。
func NewRedisMirror(rdb *redis.Client) *RedisMirror {
	return &RedisMirror{
		rdb: rdb,
		now: time.Now,
	}
}

func (m *RedisMirror) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	ttl := record.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", record.ID)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, sessionKey(record.ID), payload, ttl).Err()
}

func (m *RedisMirror) Load(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}
	data, err := m.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (m *RedisMirror) Delete(ctx context.Context, id string) error {
	return m.rdb.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
