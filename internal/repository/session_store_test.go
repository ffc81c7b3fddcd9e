package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-spm/internal/domain"
)

var analyst = domain.User{
	ID:    "u-42",
	Email: "analyst@ai-spm.com",
	Name:  "Threat Analyst",
	Role:  domain.RoleAnalyst,
}

func exerciseStore(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrRecordNotFound)

	require.NoError(t, store.Save(ctx, analyst))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, analyst, got)

	withAvatar := analyst
	withAvatar.Avatar = "/placeholder.svg"
	require.NoError(t, store.Save(ctx, withAvatar))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, withAvatar, got)

	require.NoError(t, store.Delete(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, ErrRecordNotFound)

	// Borrar algo inexistente no es un error.
	require.NoError(t, store.Delete(ctx))
}

func TestMemorySessionStore(t *testing.T) {
	exerciseStore(t, NewMemorySessionStore())
}

func TestMemorySessionStore_Corrupt(t *testing.T) {
	store := NewMemorySessionStore()
	store.SetRaw([]byte("{not json"))
	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, ErrRecordCorrupt)

	raw, ok := store.Raw()
	require.True(t, ok)
	assert.Equal(t, "{not json", string(raw))
}

func TestFileSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStore(t, NewFileSessionStore(path))
}

func TestFileSessionStore_WritesJSONWithPrivatePerms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileSessionStore(path)
	require.NoError(t, store.Save(context.Background(), analyst))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u-42","email":"analyst@ai-spm.com","name":"Threat Analyst","role":"analyst"}`, string(raw))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileSessionStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":`), 0o600))
	_, err := NewFileSessionStore(path).Load(context.Background())
	require.ErrorIs(t, err, ErrRecordCorrupt)
}

func TestSQLiteSessionStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := OpenSQLiteSessionStore(ctx, path)
	require.NoError(t, err)
	exerciseStore(t, store)
	require.NoError(t, store.Close())

	// Persistencia entre aperturas.
	store, err = OpenSQLiteSessionStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, analyst))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteSessionStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, analyst, got)
}

func TestSQLiteSessionStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteSessionStore(ctx, filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.ExecContext(ctx, `INSERT INTO session_records (key, value, updated_at) VALUES (?, ?, ?)`, SessionKey, "garbage", time.Now().UTC())
	require.NoError(t, err)

	_, err = store.Load(ctx)
	require.ErrorIs(t, err, ErrRecordCorrupt)
}

type mockRedisKVClient struct {
	data   map[string]string
	getErr error
	setErr error
	delErr error

	lastSetKey string
	lastSetTTL time.Duration
}

func newMockRedisKVClient() *mockRedisKVClient {
	return &mockRedisKVClient{data: make(map[string]string)}
}

func (m *mockRedisKVClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	val, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (m *mockRedisKVClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKVClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if m.delErr != nil {
		cmd.SetErr(m.delErr)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisSessionStore(t *testing.T) {
	mock := newMockRedisKVClient()
	store := &RedisSessionStore{client: mock, key: "aispm:" + SessionKey}
	exerciseStore(t, store)
	assert.Equal(t, "aispm:ai-spm-user", mock.lastSetKey)
	assert.Equal(t, time.Duration(0), mock.lastSetTTL)
}

func TestRedisSessionStore_ErrorPaths(t *testing.T) {
	mock := newMockRedisKVClient()
	mock.getErr = errors.New("get failed")
	mock.setErr = errors.New("set failed")
	mock.delErr = errors.New("del failed")
	store := &RedisSessionStore{client: mock, key: SessionKey}
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRecordNotFound))
	require.Error(t, store.Save(ctx, analyst))
	require.Error(t, store.Delete(ctx))
}

func TestNewRedisSessionStore_NilClient(t *testing.T) {
	assert.Nil(t, NewRedisSessionStore(nil, "x:"))
}

// mockPgQuerier simula la tabla session_records en memoria.
type mockPgQuerier struct {
	rows    map[string]string
	execs   []string
	execErr error
	rowErr  error
}

func newMockPgQuerier() *mockPgQuerier {
	return &mockPgQuerier{rows: make(map[string]string)}
}

func (m *mockPgQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execErr != nil {
		return pgconn.CommandTag{}, m.execErr
	}
	stmt := strings.TrimSpace(sql)
	m.execs = append(m.execs, stmt)
	switch {
	case strings.HasPrefix(stmt, "CREATE TABLE"):
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case strings.HasPrefix(stmt, "INSERT"):
		if _, ok := args[2].(time.Time); !ok {
			return pgconn.CommandTag{}, fmt.Errorf("updated_at must be a time, got %T", args[2])
		}
		m.rows[args[0].(string)] = args[1].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(stmt, "DELETE"):
		delete(m.rows, args[0].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected statement %q", stmt)
}

func (m *mockPgQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.rowErr != nil {
		return mockPgRow{err: m.rowErr}
	}
	value, ok := m.rows[args[0].(string)]
	if !ok {
		return mockPgRow{err: pgx.ErrNoRows}
	}
	return mockPgRow{value: value}
}

type mockPgRow struct {
	value string
	err   error
}

func (r mockPgRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.value
	return nil
}

func TestPgSessionStore(t *testing.T) {
	mock := newMockPgQuerier()
	store := &PgSessionStore{db: mock}

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NotEmpty(t, mock.execs)
	assert.Contains(t, mock.execs[0], "CREATE TABLE IF NOT EXISTS session_records")

	exerciseStore(t, store)
	assert.Contains(t, strings.Join(mock.execs, "\n"), "ON CONFLICT (key) DO UPDATE")
	assert.Contains(t, strings.Join(mock.execs, "\n"), "DELETE FROM session_records")
}

func TestPgSessionStore_Corrupt(t *testing.T) {
	mock := newMockPgQuerier()
	mock.rows[SessionKey] = "{not json"
	store := &PgSessionStore{db: mock}

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, ErrRecordCorrupt)
	assert.Equal(t, "{not json", mock.rows[SessionKey])
}

func TestPgSessionStore_ErrorPaths(t *testing.T) {
	mock := newMockPgQuerier()
	mock.execErr = errors.New("connection reset")
	mock.rowErr = errors.New("connection reset")
	store := &PgSessionStore{db: mock}
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRecordNotFound))
	require.Error(t, store.EnsureSchema(ctx))
	require.Error(t, store.Save(ctx, analyst))
	require.Error(t, store.Delete(ctx))
}
