package storage

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

// errorTextCap bounds error log entries so a chatty failure cannot bloat the db.
const errorTextCap = 2000

// Account is one worker identity in the pool.
//
// CreatedGroups counts fully-seeded provisioning actions only; a group row
// whose message seeding never completed does not bump it.
type Account struct {
	ID            int64
	Phone         string
	Label         string
	SessionPath   string
	Active        bool
	CreatedGroups int

	// FirstActivityAt is set on the first successful provisioning action
	// and never overwritten afterwards.
	FirstActivityAt *time.Time
	LastGroupAt     *time.Time
	AddedAt         time.Time

	Proxy          ProxyConfig
	DisabledReason string
}

// ProxyConfig is an optional per-account SOCKS5 proxy.
type ProxyConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (p ProxyConfig) Configured() bool { return p.Host != "" && p.Port > 0 }

// Group is one provisioned supergroup owned by an account.
type Group struct {
	ID           int64
	AccountID    int64
	ChatID       string
	Title        string
	CreatedAt    time.Time
	MessagesSent int
}

// ErrorRecord is an append-only log entry read back by operators.
type ErrorRecord struct {
	ID        int64
	AccountID *int64
	Context   string
	Text      string
	CreatedAt time.Time
}

// Stats is the aggregate view behind the operator /status command.
type Stats struct {
	TotalAccounts  int
	ActiveAccounts int
	TotalGroups    int
	Accounts       []Account
}
