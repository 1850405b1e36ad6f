// Package sqlite persists sessions, and the relay maps they carry, in a
// SQLite database through sqlx.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	msgpack "github.com/vmihailenco/msgpack/v5"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/middleware"
)

const schema = `create table if not exists sessions(
	id         text not null primary key,
	data       blob not null,
	expires_at integer not null
)`

// Store implements middleware.Store.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ middleware.Store = (*Store)(nil)

// Open connects to dsn and creates the sessions table. ":memory:" keeps a
// single connection so every query sees the same database.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening session database")
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	s := New(db)
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. Call Migrate before use.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates the sessions table if it does not exist.
func (s *Store) Migrate(c context.Context) error {
	if _, err := s.db.ExecContext(c, schema); err != nil {
		return errors.Wrap(err, "creating sessions table")
	}
	return nil
}

type row struct {
	Data      []byte `db:"data"`
	ExpiresAt int64  `db:"expires_at"`
}

// Get returns the session values. Expired rows are deleted and reported as
// missing.
func (s *Store) Get(c context.Context, id string) (map[string]any, bool, error) {
	var r row
	err := s.db.GetContext(c, &r, `select data, expires_at from sessions where id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "fetching session")
	}
	if r.ExpiresAt <= s.now().Unix() {
		return nil, false, s.Delete(c, id)
	}
	var values map[string]any
	if err := msgpack.Unmarshal(r.Data, &values); err != nil {
		return nil, false, errors.Wrap(err, "decoding session")
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, true, nil
}

// Save upserts the session with a fresh expiry.
func (s *Store) Save(c context.Context, id string, data map[string]any, ttl time.Duration) error {
	b, err := msgpack.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	_, err = s.db.ExecContext(c,
		`insert into sessions(id, data, expires_at) values (?, ?, ?)
		on conflict(id) do update set data = excluded.data, expires_at = excluded.expires_at`,
		id, b, s.now().Add(ttl).Unix())
	return errors.Wrap(err, "saving session")
}

// Delete removes the session. Unknown ids are not an error.
func (s *Store) Delete(c context.Context, id string) error {
	_, err := s.db.ExecContext(c, `delete from sessions where id = ?`, id)
	return errors.Wrap(err, "deleting session")
}

// DeleteExpired removes every expired session and reports how many went.
func (s *Store) DeleteExpired(c context.Context) (int64, error) {
	res, err := s.db.ExecContext(c, `delete from sessions where expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired sessions")
	}
	return res.RowsAffected()
}

// Ping checks the connection; serve uses it for the health endpoint.
func (s *Store) Ping(c context.Context) error { return s.db.PingContext(c) }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
