package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"signet/internal/domain"
)

// ErrInvalidInvite is returned by SaveInvite for payloads missing the sender
// or the signature.
var ErrInvalidInvite = errors.New("invalid invite payload")

// InviteDB stores received invites in SQLite.
type InviteDB struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewInviteDB opens (or creates) the invite database at path. A nil logger
// means slog.Default.
func NewInviteDB(path string, logger *slog.Logger) (*InviteDB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "invites")

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Writers come from the transport's read goroutine; one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &InviteDB{db: db, logger: logger, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("invite store initialized", "path", path)
	return s, nil
}

func (s *InviteDB) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS invites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_user TEXT NOT NULL,
			signature TEXT NOT NULL,
			payload TEXT NOT NULL,
			received_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_invites_from
			ON invites(from_user);
	`)
	return err
}

// SaveInvite validates and stores an inbound invite payload.
func (s *InviteDB) SaveInvite(ctx context.Context, payload json.RawMessage) error {
	var inv domain.InboundInvite
	if err := json.Unmarshal(payload, &inv); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInvite, err)
	}
	if inv.User == "" {
		return fmt.Errorf("%w: missing user", ErrInvalidInvite)
	}
	if inv.Signature == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidInvite)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invites (from_user, signature, payload, received_at) VALUES (?, ?, ?, ?)`,
		inv.User.String(), inv.Signature, string(payload), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting invite: %w", err)
	}
	s.logger.Debug("invite stored", "from", inv.User)
	return nil
}

// ListInvites returns the most recent invites first. A limit of zero or less
// returns all of them.
func (s *InviteDB) ListInvites(ctx context.Context, limit int) ([]domain.StoredInvite, error) {
	query := `SELECT id, from_user, signature, payload, received_at FROM invites ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying invites: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredInvite
	for rows.Next() {
		var (
			inv         domain.StoredInvite
			from        string
			payload     string
			receivedStr string
		)
		if err := rows.Scan(&inv.ID, &from, &inv.Signature, &payload, &receivedStr); err != nil {
			return nil, fmt.Errorf("scanning invite: %w", err)
		}
		receivedAt, err := time.Parse(time.RFC3339Nano, receivedStr)
		if err != nil {
			return nil, fmt.Errorf("parsing received_at: %w", err)
		}
		inv.ReceivedAt = receivedAt
		inv.From = domain.Username(from)
		inv.Payload = json.RawMessage(payload)
		out = append(out, inv)
	}
	return out, rows.Err()
}

// RemoveInvitesFrom deletes every stored invite sent by from and reports
// how many were removed.
func (s *InviteDB) RemoveInvitesFrom(ctx context.Context, from domain.Username) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invites WHERE from_user = ?`, from.String())
	if err != nil {
		return 0, fmt.Errorf("deleting invites: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted invites: %w", err)
	}
	s.logger.Debug("invites removed", "from", from, "count", n)
	return n, nil
}

// Close closes the database.
func (s *InviteDB) Close() error {
	return s.db.Close()
}

var _ domain.InviteStore = (*InviteDB)(nil)
