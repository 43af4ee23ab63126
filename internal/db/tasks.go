package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tgienger/taskboard/internal/models"
)

const taskColumns = "id, title, description, status, due_date, created_at, updated_at"

// InsertOrReplace writes the full task row, replacing any row with the same id
func (db *DB) InsertOrReplace(ctx context.Context, t models.Task) error {
	r := t.Row()
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Title, r.Description, r.Status, r.DueDate, r.CreatedAt, r.UpdatedAt)
	return classify(err)
}

// FindByID retrieves a task by ID. A missing row is reported by ok == false, not an error.
func (db *DB) FindByID(ctx context.Context, id string) (models.Task, bool, error) {
	var r models.Row
	err := db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = ?
	`, id).Scan(&r.ID, &r.Title, &r.Description, &r.Status, &r.DueDate, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, false, nil
	}
	if err != nil {
		return models.Task{}, false, err
	}

	t, err := models.FromRow(r)
	if err != nil {
		return models.Task{}, false, err
	}
	return t, true, nil
}

// FindAll returns every task, most recently created first
func (db *DB) FindAll(ctx context.Context) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var r models.Row
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.Status, &r.DueDate, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		t, err := models.FromRow(r)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// DeleteByID deletes a task and reports whether a row was removed
func (db *DB) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return false, classify(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
