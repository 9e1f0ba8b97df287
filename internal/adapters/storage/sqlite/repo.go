package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/kanboard/internal/app"
	"github.com/hylla/kanboard/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// seededKey marks a database whose board has been initialized once.
const seededKey = "board_seeded_at"

// Repository persists board cards in SQLite.
type Repository struct {
	db *sql.DB
}

var _ app.Persistence = (*Repository)(nil)

// Open opens (and migrates) the database at path, creating parent directories.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a shared in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_status_position ON cards(status, position);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}

	alters := []string{
		`ALTER TABLE cards ADD COLUMN assignee_id TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE cards ADD COLUMN assignee_name TEXT NOT NULL DEFAULT ''`,
	}
	for _, stmt := range alters {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil && !isDuplicateColumnErr(err) {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// LoadBoard reads every card, grouped by status and ordered by position.
func (r *Repository) LoadBoard(ctx context.Context) (domain.Board, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, title, description, assignee_id, assignee_name, created_at, updated_at
		FROM cards
		ORDER BY status, position, created_at, id
	`)
	if err != nil {
		return domain.Board{}, err
	}
	defer rows.Close()

	board := domain.NewBoard(nil)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return domain.Board{}, err
		}
		ci := board.ColumnIndex(card.Status)
		if ci < 0 {
			return domain.Board{}, fmt.Errorf("card %q has unknown status %q: %w", card.ID, card.Status, domain.ErrInvalidStatus)
		}
		board.Columns[ci].Cards = append(board.Columns[ci].Cards, card)
	}
	if err := rows.Err(); err != nil {
		return domain.Board{}, err
	}
	return board, nil
}

// SaveCard upserts card. New cards, and cards whose status changed, go to the
// end of their column; otherwise the stored position is kept.
func (r *Repository) SaveCard(ctx context.Context, card domain.Card) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		storedStatus string
		position     int
	)
	err = tx.QueryRowContext(ctx, `SELECT status, position FROM cards WHERE id = ?`, card.ID).Scan(&storedStatus, &position)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		position, err = nextPosition(ctx, tx, card.Status)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case storedStatus != string(card.Status):
		position, err = nextPosition(ctx, tx, card.Status)
		if err != nil {
			return err
		}
	}

	assigneeID, assigneeName := "", ""
	if card.Assignee != nil {
		assigneeID, assigneeName = card.Assignee.ID, card.Assignee.Name
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cards(id, status, position, title, description, assignee_id, assignee_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			position = excluded.position,
			title = excluded.title,
			description = excluded.description,
			assignee_id = excluded.assignee_id,
			assignee_name = excluded.assignee_name,
			updated_at = excluded.updated_at
	`,
		card.ID,
		string(card.Status),
		position,
		card.Title,
		card.Description,
		assigneeID,
		assigneeName,
		ts(card.CreatedAt),
		ts(card.UpdatedAt),
	)
	if err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// RemoveCard deletes the card with id.
func (r *Repository) RemoveCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// SaveColumnOrder rewrites positions for ids within status in the given order.
func (r *Repository) SaveColumnOrder(ctx context.Context, status domain.Status, ids []string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for pos, id := range ids {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `UPDATE cards SET position = ? WHERE id = ? AND status = ?`, pos, id, string(status))
		if err != nil {
			return err
		}
		if err = translateNoRows(res); err != nil {
			return fmt.Errorf("reorder %q in %q: %w", id, status, err)
		}
	}
	err = tx.Commit()
	return err
}

// BoardSeeded reports whether the seeded marker row exists.
func (r *Repository) BoardSeeded(ctx context.Context) (bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, seededKey).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// MarkBoardSeeded records the seeded marker row. It keeps the first timestamp.
func (r *Repository) MarkBoardSeeded(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, seededKey, ts(time.Now()))
	return err
}

func nextPosition(ctx context.Context, q queryRower, status domain.Status) (int, error) {
	var maxPos sql.NullInt64
	if err := q.QueryRowContext(ctx, `SELECT MAX(position) FROM cards WHERE status = ?`, string(status)).Scan(&maxPos); err != nil {
		return 0, err
	}
	if !maxPos.Valid {
		return 0, nil
	}
	return int(maxPos.Int64) + 1, nil
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (domain.Card, error) {
	var (
		card         domain.Card
		status       string
		assigneeID   string
		assigneeName string
		createdRaw   string
		updatedRaw   string
	)
	if err := s.Scan(&card.ID, &status, &card.Title, &card.Description, &assigneeID, &assigneeName, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Card{}, app.ErrNotFound
		}
		return domain.Card{}, err
	}
	card.Status = domain.Status(status)
	card.CreatedAt = parseTS(createdRaw)
	card.UpdatedAt = parseTS(updatedRaw)
	if assigneeID != "" || assigneeName != "" {
		card.Assignee = &domain.Assignee{ID: assigneeID, Name: assigneeName}
	}
	return card, nil
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func isDuplicateColumnErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
