package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/clientscout/internal/leads"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	results    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_saved_lists_user_email ON saved_lists(user_email);
CREATE INDEX IF NOT EXISTS idx_users_tier ON users(tier);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertUser inserts a new FREE user with one search already counted, or
// refreshes the profile fields of an existing one. Tier and search count
// are never reset by a re-register.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u User) (*User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, company_name, phone, website, tier, search_count)
		 VALUES (?, ?, ?, ?, ?, ?, 1)
		 ON CONFLICT (email) DO UPDATE
		 SET name = excluded.name, company_name = excluded.company_name,
		     phone = excluded.phone, website = excluded.website`,
		u.Email, u.Name, u.CompanyName, u.Phone, u.Website, string(TierFree),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert user")
	}
	return s.GetUser(ctx, u.Email)
}

func (s *SQLiteStore) GetUser(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT email, name, company_name, phone, website, tier, search_count
		 FROM users WHERE email = ?`,
		email,
	)

	var u User
	var tier string
	err := row.Scan(&u.Email, &u.Name, &u.CompanyName, &u.Phone, &u.Website, &tier, &u.SearchCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get user")
	}
	u.Tier = Tier(tier)
	return &u, nil
}

func (s *SQLiteStore) IncrementSearchCount(ctx context.Context, email string) (*User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET search_count = search_count + 1 WHERE email = ?`,
		email,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: increment search count %s", email)
	}
	if err := checkRowsAffected(res, "user", email); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, email)
}

func (s *SQLiteStore) UpgradeTier(ctx context.Context, email string, tier Tier) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET tier = ? WHERE email = ?`,
		string(tier), email,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upgrade tier %s", email)
	}
	return checkRowsAffected(res, "user", email)
}

func (s *SQLiteStore) CreateList(ctx context.Context, list SavedList) (*SavedList, error) {
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}
	list.ItemCount = len(list.Results)

	resultsJSON, err := json.Marshal(list.Results)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal results")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_lists (id, user_email, query, results, created_at) VALUES (?, ?, ?, ?, ?)`,
		list.ID, list.UserEmail, list.Query, string(resultsJSON), list.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert saved list")
	}
	return &list, nil
}

func (s *SQLiteStore) ListLists(ctx context.Context, userEmail string) ([]SavedList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_email, query, results, created_at
		 FROM saved_lists WHERE user_email = ? ORDER BY created_at DESC`,
		userEmail,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list saved lists")
	}
	defer rows.Close()

	var lists []SavedList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, *l)
	}
	return lists, eris.Wrap(rows.Err(), "sqlite: list saved lists iterate")
}

func (s *SQLiteStore) GetList(ctx context.Context, id string) (*SavedList, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_email, query, results, created_at FROM saved_lists WHERE id = ?`,
		id,
	)
	return scanList(row)
}

func (s *SQLiteStore) DeleteList(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_lists WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete saved list %s", id)
	}
	return checkRowsAffected(res, "saved list", id)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanList(row scannable) (*SavedList, error) {
	var l SavedList
	var resultsJSON string

	err := row.Scan(&l.ID, &l.UserEmail, &l.Query, &resultsJSON, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan saved list")
	}

	if err := json.Unmarshal([]byte(resultsJSON), &l.Results); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal results")
	}
	if l.Results == nil {
		l.Results = leads.ResultSet{}
	}
	l.ItemCount = len(l.Results)
	return &l, nil
}
