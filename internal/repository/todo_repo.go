package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"todoapp/internal/model"
)

// TodoRepository persists todos. Every statement that touches an existing
// row combines the id filter with the owner filter, so "not yours" and
// "does not exist" are the same zero-rows outcome.
type TodoRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTodoRepository(db *pgxpool.Pool, logger *zap.Logger) *TodoRepository {
	return &TodoRepository{db: db, logger: logger}
}

func (r *TodoRepository) ListByOwner(ctx context.Context, userID int64) ([]model.Todo, error) {
	query := `
        SELECT id, title, completed, created_at, updated_at
        FROM todos
        WHERE user_id = $1
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query todos", zap.Error(err), zap.Int64("user_id", userID))
		return nil, err
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		var t model.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			r.logger.Error("Failed to scan todo row", zap.Error(err), zap.Int64("user_id", userID))
			return nil, err
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Todo row iteration failed", zap.Error(err), zap.Int64("user_id", userID))
		return nil, err
	}

	r.logger.Debug("Todos listed",
		zap.Int64("user_id", userID),
		zap.Int("count", len(todos)),
	)
	return todos, nil
}

// Insert creates a todo owned by userID. The owner and the completed flag
// are never caller-supplied.
func (r *TodoRepository) Insert(ctx context.Context, userID int64, title string) (*model.Todo, error) {
	query := `
        INSERT INTO todos (user_id, title)
        VALUES ($1, $2)
        RETURNING id, title, completed, created_at, updated_at
    `
	var t model.Todo
	err := r.db.QueryRow(ctx, query, userID, title).Scan(
		&t.ID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		switch pgCode(err) {
		case pgForeignKeyViolation:
			// user row vanished between session issue and insert
			r.logger.Warn("Insert for missing user", zap.Int64("user_id", userID))
			return nil, ErrNotFound
		case pgCheckViolation, pgStringTooLong:
			r.logger.Warn("Todo rejected by store validation", zap.Error(err))
			return nil, ErrInvalidField
		}
		r.logger.Error("Failed to insert todo", zap.Error(err), zap.Int64("user_id", userID))
		return nil, err
	}

	r.logger.Info("Todo inserted",
		zap.Int64("todo_id", t.ID),
		zap.Int64("user_id", userID),
	)
	return &t, nil
}

// SetCompleted updates the completed flag of a todo owned by userID.
func (r *TodoRepository) SetCompleted(ctx context.Context, userID, todoID int64, completed bool) (*model.Todo, error) {
	query := `
        UPDATE todos
        SET completed = $3, updated_at = NOW()
        WHERE id = $1 AND user_id = $2
        RETURNING id, title, completed, created_at, updated_at
    `
	var t model.Todo
	err := r.db.QueryRow(ctx, query, todoID, userID, completed).Scan(
		&t.ID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to update todo",
			zap.Error(err),
			zap.Int64("todo_id", todoID),
			zap.Int64("user_id", userID),
		)
		return nil, err
	}

	r.logger.Info("Todo updated",
		zap.Int64("todo_id", t.ID),
		zap.Int64("user_id", userID),
		zap.Bool("completed", t.Completed),
	)
	return &t, nil
}

// Delete removes a todo owned by userID.
func (r *TodoRepository) Delete(ctx context.Context, userID, todoID int64) error {
	query := `
        DELETE FROM todos
        WHERE id = $1 AND user_id = $2
    `
	result, err := r.db.Exec(ctx, query, todoID, userID)
	if err != nil {
		r.logger.Error("Failed to delete todo",
			zap.Error(err),
			zap.Int64("todo_id", todoID),
			zap.Int64("user_id", userID),
		)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Info("Todo deleted",
		zap.Int64("todo_id", todoID),
		zap.Int64("user_id", userID),
	)
	return nil
}
