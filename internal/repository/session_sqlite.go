package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
)

type sqliteSession struct {
	db *sql.DB
}

// NewSQLiteSessionRepository - expects the sessions table created by storage.SQLiteStorage.Init.
func NewSQLiteSessionRepository(db *sql.DB) SessionRepository {
	return &sqliteSession{
		db: db,
	}
}

func (that *sqliteSession) Create(ctx context.Context, session *entity.Snapshot) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	query := `INSERT INTO sessions (id, state, updated_at) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`

	result, err := that.db.ExecContext(ctx, query, session.ID, string(sessionJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrSessionExists, session.ID)
	}

	return nil
}

func (that *sqliteSession) CreateOrUpdate(ctx context.Context, session *entity.Snapshot) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	query := `INSERT INTO sessions (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`

	if _, err = that.db.ExecContext(ctx, query, session.ID, string(sessionJSON), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

func (that *sqliteSession) GetByID(ctx context.Context, id string) (*entity.Snapshot, error) {
	var state string

	err := that.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	var session entity.Snapshot
	if err = json.Unmarshal([]byte(state), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}
