package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/clientscout/internal/leads"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
	email        TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	company_name TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	website      TEXT NOT NULL DEFAULT '',
	tier         TEXT NOT NULL DEFAULT 'FREE',
	search_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS saved_lists (
	id         TEXT PRIMARY KEY,
	user_email TEXT NOT NULL REFERENCES users(email),
	query      TEXT NOT NULL,
	results    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_saved_lists_user_email ON saved_lists(user_email);
CREATE INDEX IF NOT EXISTS idx_users_tier ON users(tier);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, u User) (*User, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (email, name, company_name, phone, website, tier, search_count)
		 VALUES ($1, $2, $3, $4, $5, $6, 1)
		 ON CONFLICT (email) DO UPDATE
		 SET name = EXCLUDED.name, company_name = EXCLUDED.company_name,
		     phone = EXCLUDED.phone, website = EXCLUDED.website`,
		u.Email, u.Name, u.CompanyName, u.Phone, u.Website, string(TierFree),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert user")
	}
	return s.GetUser(ctx, u.Email)
}

func (s *PostgresStore) GetUser(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT email, name, company_name, phone, website, tier, search_count
		 FROM users WHERE email = $1`,
		email,
	)

	var u User
	var tier string
	err := row.Scan(&u.Email, &u.Name, &u.CompanyName, &u.Phone, &u.Website, &tier, &u.SearchCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get user")
	}
	u.Tier = Tier(tier)
	return &u, nil
}

func (s *PostgresStore) IncrementSearchCount(ctx context.Context, email string) (*User, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET search_count = search_count + 1 WHERE email = $1`,
		email,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: increment search count %s", email)
	}
	if tag.RowsAffected() == 0 {
		return nil, eris.Wrapf(ErrNotFound, "user %s", email)
	}
	return s.GetUser(ctx, email)
}

func (s *PostgresStore) UpgradeTier(ctx context.Context, email string, tier Tier) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET tier = $1 WHERE email = $2`,
		string(tier), email,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upgrade tier %s", email)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "user %s", email)
	}
	return nil
}

func (s *PostgresStore) CreateList(ctx context.Context, list SavedList) (*SavedList, error) {
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}
	list.ItemCount = len(list.Results)

	resultsJSON, err := json.Marshal(list.Results)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal results")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO saved_lists (id, user_email, query, results, created_at) VALUES ($1, $2, $3, $4, $5)`,
		list.ID, list.UserEmail, list.Query, string(resultsJSON), list.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert saved list")
	}
	return &list, nil
}

func (s *PostgresStore) ListLists(ctx context.Context, userEmail string) ([]SavedList, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_email, query, results, created_at
		 FROM saved_lists WHERE user_email = $1 ORDER BY created_at DESC`,
		userEmail,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list saved lists")
	}
	defer rows.Close()

	var lists []SavedList
	for rows.Next() {
		l, err := scanPGList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, *l)
	}
	return lists, eris.Wrap(rows.Err(), "postgres: list saved lists iterate")
}

func (s *PostgresStore) GetList(ctx context.Context, id string) (*SavedList, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_email, query, results, created_at FROM saved_lists WHERE id = $1`,
		id,
	)
	return scanPGList(row)
}

func (s *PostgresStore) DeleteList(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_lists WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete saved list %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "saved list %s", id)
	}
	return nil
}

func scanPGList(row scannable) (*SavedList, error) {
	var l SavedList
	var resultsJSON []byte

	err := row.Scan(&l.ID, &l.UserEmail, &l.Query, &resultsJSON, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan saved list")
	}

	if err := json.Unmarshal(resultsJSON, &l.Results); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal results")
	}
	if l.Results == nil {
		l.Results = leads.ResultSet{}
	}
	l.ItemCount = len(l.Results)
	return &l, nil
}
