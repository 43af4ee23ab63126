package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tgienger/taskboard/internal/models"
)

// Postgres stores tasks in PostgreSQL through a pgx pool
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and initializes the schema
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Ping checks the connection
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the pool
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// InsertOrReplace writes the full task row, replacing any row with the same id
func (p *Postgres) InsertOrReplace(ctx context.Context, t models.Task) error {
	r := t.Row()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			due_date = EXCLUDED.due_date,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`, r.ID, r.Title, r.Description, r.Status, r.DueDate, r.CreatedAt, r.UpdatedAt)
	return classifyPg(err)
}

// FindByID retrieves a task by ID. A missing row is reported by ok == false, not an error.
func (p *Postgres) FindByID(ctx context.Context, id string) (models.Task, bool, error) {
	var r models.Row
	err := p.pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1
	`, id).Scan(&r.ID, &r.Title, &r.Description, &r.Status, &r.DueDate, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
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
func (p *Postgres) FindAll(ctx context.Context) ([]models.Task, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		ORDER BY created_at DESC, id DESC
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
func (p *Postgres) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return false, classifyPg(err)
	}
	return tag.RowsAffected() > 0, nil
}

// classifyPg wraps integrity constraint violations (SQLSTATE class 23)
func classifyPg(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	return err
}
