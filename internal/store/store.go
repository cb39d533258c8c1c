package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/clientscout/internal/leads"
)

// Tier is a user's subscription level.
type Tier string

const (
	TierGuest Tier = "GUEST"
	TierFree  Tier = "FREE"
	TierPaid  Tier = "PAID"
)

// User is an account record, keyed by email.
type User struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Tier        Tier   `json:"tier"`
	SearchCount int    `json:"searchCount"`
}

// SavedList is one saved search result set.
type SavedList struct {
	ID        string          `json:"id"`
	UserEmail string          `json:"-"`
	Query     string          `json:"query"`
	ItemCount int             `json:"itemCount"`
	Results   leads.ResultSet `json:"results"`
	CreatedAt time.Time       `json:"date"`
}

// ErrNotFound is returned when a requested user or list does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines persistence for users and saved lists.
type Store interface {
	// Users
	UpsertUser(ctx context.Context, u User) (*User, error)
	GetUser(ctx context.Context, email string) (*User, error)
	IncrementSearchCount(ctx context.Context, email string) (*User, error)
	UpgradeTier(ctx context.Context, email string, tier Tier) error

	// Saved lists
	CreateList(ctx context.Context, list SavedList) (*SavedList, error)
	ListLists(ctx context.Context, userEmail string) ([]SavedList, error)
	GetList(ctx context.Context, id string) (*SavedList, error)
	DeleteList(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
