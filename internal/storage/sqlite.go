package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Store is the SQLite-backed persistence layer.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	s := &Store{db: db, log: log.With().Str("component", "storage").Logger()}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- accounts ----

func (s *Store) AddAccount(ctx context.Context, phone, sessionPath, label string) (int64, error) {
	if label == "" {
		label = phone
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts(phone, session_path, label, is_active, added_at)
		 VALUES(?,?,?,1,?)`,
		phone, sessionPath, label, fmtTime(time.Now().UTC()),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const accountCols = `id, phone, label, session_path, is_active, created_groups_count,
	first_activity_at, last_group_created_at, added_at,
	proxy_host, proxy_port, proxy_username, proxy_password, disabled_reason`

// ListAccounts returns accounts ordered by id. The stable order supplies the
// ordinal index used in group titles.
func (s *Store) ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error) {
	q := `SELECT ` + accountCols + ` FROM accounts`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Store) Account(ctx context.Context, id int64) (Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	return scanAccountRow(row)
}

func (s *Store) AccountByPhone(ctx context.Context, phone string) (Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE phone = ?`, phone)
	return scanAccountRow(row)
}

// ToggleAccount flips the operator-controlled active flag and clears the
// disabled reason on re-enable.
func (s *Store) ToggleAccount(ctx context.Context, id int64) (Account, error) {
	acc, err := s.Account(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if acc.Active {
		_, err = s.db.ExecContext(ctx,
			`UPDATE accounts SET is_active = 0, disabled_reason = ? WHERE id = ?`,
			"disabled by operator", id)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE accounts SET is_active = 1, disabled_reason = NULL WHERE id = ?`, id)
	}
	if err != nil {
		return Account{}, err
	}
	return s.Account(ctx, id)
}

// DisableAccount is the scheduler-driven one-way transition to disabled.
func (s *Store) DisableAccount(ctx context.Context, id int64, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = 0, disabled_reason = ? WHERE id = ?`,
		reason, id)
	return err
}

func (s *Store) DeleteAccount(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) UpdateProxy(ctx context.Context, id int64, p ProxyConfig) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts
		 SET proxy_host = ?, proxy_port = ?, proxy_username = ?, proxy_password = ?
		 WHERE id = ?`,
		nullStr(p.Host), nullInt(p.Port), nullStr(p.Username), nullStr(p.Password), id)
	return err
}

func (s *Store) IncrementGroupCount(ctx context.Context, accountID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET created_groups_count = created_groups_count + 1 WHERE id = ?`,
		accountID)
	return err
}

// UpdateActivity records a successful provisioning action. first_activity_at
// is only ever written once: COALESCE keeps the prior value when already set.
func (s *Store) UpdateActivity(ctx context.Context, accountID int64, first, last time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts
		 SET first_activity_at = COALESCE(first_activity_at, ?),
		     last_group_created_at = ?
		 WHERE id = ?`,
		fmtTime(first), fmtTime(last), accountID)
	return err
}

// ---- groups ----

func (s *Store) CreateGroup(ctx context.Context, accountID int64, chatID, title string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO groups(account_id, chat_id, title, created_at, messages_sent)
		 VALUES(?,?,?,?,0)`,
		accountID, chatID, title, fmtTime(at))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) SetGroupMessages(ctx context.Context, groupID int64, n int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE groups SET messages_sent = ? WHERE id = ?`, n, groupID)
	return err
}

func (s *Store) Group(ctx context.Context, id int64) (Group, error) {
	var (
		g         Group
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, chat_id, title, created_at, messages_sent
		 FROM groups WHERE id = ?`, id).
		Scan(&g.ID, &g.AccountID, &g.ChatID, &g.Title, &createdAt, &g.MessagesSent)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, err
	}
	g.CreatedAt, _ = parseTime(createdAt)
	return g, nil
}

// ---- errors ----

func (s *Store) AppendError(ctx context.Context, rec ErrorRecord) error {
	text := rec.Text
	if len(text) > errorTextCap {
		text = text[:errorTextCap]
	}
	at := rec.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	var accID any
	if rec.AccountID != nil {
		accID = *rec.AccountID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO errors(account_id, context, error_text, created_at) VALUES(?,?,?,?)`,
		accID, rec.Context, text, fmtTime(at))
	return err
}

func (s *Store) LatestErrors(ctx context.Context, limit int) ([]ErrorRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, context, error_text, created_at
		 FROM errors ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ErrorRecord
	for rows.Next() {
		var (
			rec       ErrorRecord
			accID     sql.NullInt64
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &accID, &rec.Context, &rec.Text, &createdAt); err != nil {
			return nil, err
		}
		if accID.Valid {
			id := accID.Int64
			rec.AccountID = &id
		}
		rec.CreatedAt, _ = parseTime(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ---- aggregates ----

func (s *Store) GlobalStats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&st.TotalAccounts); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE is_active = 1`).Scan(&st.ActiveAccounts); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(created_groups_count), 0) FROM accounts`).Scan(&st.TotalGroups); err != nil {
		return Stats{}, err
	}
	accounts, err := s.ListAccounts(ctx, false)
	if err != nil {
		return Stats{}, err
	}
	st.Accounts = accounts
	return st, nil
}

// ---- scanning helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(row *sql.Row) (Account, error) {
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return acc, err
}

func scanAccount(r rowScanner) (Account, error) {
	var (
		acc            Account
		label          sql.NullString
		active         int
		first, last    sql.NullString
		addedAt        sql.NullString
		pHost, pUser   sql.NullString
		pPass, dReason sql.NullString
		pPort          sql.NullInt64
	)
	err := r.Scan(&acc.ID, &acc.Phone, &label, &acc.SessionPath, &active, &acc.CreatedGroups,
		&first, &last, &addedAt,
		&pHost, &pPort, &pUser, &pPass, &dReason)
	if err != nil {
		return Account{}, err
	}
	acc.Label = label.String
	acc.Active = active != 0
	acc.FirstActivityAt = parseTimePtr(first)
	acc.LastGroupAt = parseTimePtr(last)
	if addedAt.Valid {
		acc.AddedAt, _ = parseTime(addedAt.String)
	}
	acc.Proxy = ProxyConfig{
		Host:     pHost.String,
		Port:     int(pPort.Int64),
		Username: pUser.String,
		Password: pPass.String,
	}
	acc.DisabledReason = dReason.String
	return acc, nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
