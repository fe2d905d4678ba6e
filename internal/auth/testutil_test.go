package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/issuehub/internal/session"
	"github.com/yourusername/issuehub/internal/store"
)

type memoryChannel struct {
	token string
}

func (c *memoryChannel) Token() string { return c.token }

func (c *memoryChannel) Put(token string) error {
	c.token = token
	return nil
}

func (c *memoryChannel) Clear() error {
	c.token = ""
	return nil
}

type failingUsers struct {
	err error
}

func (f failingUsers) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return nil, f.err
}

func (f failingUsers) FindUserByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	return nil, f.err
}

func (f failingUsers) InsertUser(ctx context.Context, email, passwordHash string) (*store.User, error) {
	return nil, f.err
}

// flakyUsers は fail が立っている間だけ FindUserByID を失敗させます。
type flakyUsers struct {
	*store.Users
	fail atomic.Bool
}

func (f *flakyUsers) FindUserByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	if f.fail.Load() {
		return nil, errBoom
	}
	return f.Users.FindUserByID(ctx, id)
}

type failingSessions struct {
	*session.Store
	destroyErr error
}

func (f failingSessions) Destroy(ctx context.Context, ch session.Channel) error {
	return f.destroyErr
}

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	users    *store.Users
	sessions *session.Store
	mirror   *session.MemoryMirror
	svc      *Service
	identity *Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.CreateSchema(context.Background(), db))

	mirror := session.NewMemoryMirror()
	sessions, err := session.NewStore(mirror, session.Options{Secret: []byte("test-secret")}, discardLogger())
	require.NoError(t, err)

	users := store.NewUsers(db)
	svc, err := NewService(users, sessions, NewBcryptHasher(bcrypt.MinCost), discardLogger())
	require.NoError(t, err)

	return &fixture{
		users:    users,
		sessions: sessions,
		mirror:   mirror,
		svc:      svc,
		identity: NewIdentity(sessions, users, discardLogger()),
	}
}
