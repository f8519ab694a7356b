package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/taskbot/core/logger"
)

var (
	// ErrNotFound is returned when the referenced user or task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when a handle is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrAlreadyRegistered is returned when the chat identity already has a user.
	ErrAlreadyRegistered = errors.New("user already registered")
	// ErrUnknownField is returned by Update for columns outside the allow-list.
	ErrUnknownField = errors.New("unknown task field")
	// ErrInvalidValue is returned by Update when the value type does not fit the field.
	ErrInvalidValue = errors.New("invalid value for task field")
)

const uniqueViolation = "23505"

// Update statements are fixed per field; the column name never comes from input.
var updateStatements = map[Field]string{
	FieldTitle:       `UPDATE tasks SET title = ? WHERE id = ?`,
	FieldDescription: `UPDATE tasks SET description = ? WHERE id = ?`,
	FieldCompleted:   `UPDATE tasks SET is_completed = ? WHERE id = ?`,
}

const (
	taskColumns = `id, telegram_id, title, description, is_completed, created_at`
	userColumns = `id, telegram_id, username, name`
)

// Options tunes a Repository.
type Options struct {
	// OpTimeout bounds every statement; 0 means 3s.
	OpTimeout time.Duration
	// Now stamps created_at on new tasks; nil means time.Now.
	Now func() time.Time
}

// Repository is the durable store of users and tasks.
type Repository struct {
	db        *sqlx.DB
	opTimeout time.Duration
	now       func() time.Time
}

// NewRepository wraps a long-lived database handle.
func NewRepository(db *sqlx.DB, opts Options) *Repository {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Repository{db: db, opTimeout: opts.OpTimeout, now: opts.Now}
}

func (r *Repository) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opTimeout)
}

// CreateUser inserts a new user and returns it with its surrogate id.
func (r *Repository) CreateUser(ctx context.Context, telegramID int64, name, username string) (*User, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	u := &User{TelegramID: telegramID, Name: name, Username: username}
	q := r.db.Rebind(`INSERT INTO users (telegram_id, username, name) VALUES (?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, q, telegramID, username, name).Scan(&u.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if strings.Contains(pqErr.Constraint, "username") {
				return nil, ErrUsernameTaken
			}
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.Info(ctx, "service.users", "user.created",
		slog.String("status", "ok"),
		slog.Int64("user_id", telegramID),
	)
	return u, nil
}

// GetUserByTelegramID looks up a user by chat identity.
func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)
}

// UserByUsername looks up a user by unique handle.
func (r *Repository) UserByUsername(ctx context.Context, username string) (*User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// UserExists reports whether the chat identity completed registration.
func (r *Repository) UserExists(ctx context.Context, telegramID int64) (bool, error) {
	_, err := r.GetUserByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *Repository) getUser(ctx context.Context, query string, arg any) (*User, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	var u User
	if err := r.db.GetContext(ctx, &u, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// CreateTask inserts a task for owner. An empty description is stored as NULL.
func (r *Repository) CreateTask(ctx context.Context, owner int64, title, description string) (*Task, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	t := &Task{
		TelegramID:  owner,
		Title:       title,
		Description: sql.NullString{String: description, Valid: description != ""},
		CreatedAt:   r.now().UTC(),
	}
	q := r.db.Rebind(`INSERT INTO tasks (telegram_id, title, description, is_completed, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, q, t.TelegramID, t.Title, t.Description, false, t.CreatedAt).Scan(&t.ID); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	logger.Info(ctx, "service.tasks", "task.created",
		slog.String("status", "ok"),
		slog.Int64("user_id", owner),
		slog.Int64("task_id", t.ID),
	)
	return t, nil
}

// GetTask loads a task by durable id.
func (r *Repository) GetTask(ctx context.Context, id int64) (*Task, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	var t Task
	q := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// ListTasks returns owner's tasks in creation order; index+1 is the ordinal.
func (r *Repository) ListTasks(ctx context.Context, owner int64) ([]Task, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	start := time.Now()
	var list []Task
	q := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE telegram_id = ? ORDER BY created_at ASC, id ASC`)
	err := r.db.SelectContext(ctx, &list, q, owner)
	logger.Debug(ctx, "service.tasks", "task.listed",
		slog.String("status", logger.Status(err)),
		slog.Int64("user_id", owner),
		slog.Int("count", len(list)),
		slog.Duration("duration", logger.Took(start)),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return list, nil
}

// Update sets one allow-listed field. Title and description take a string,
// is_completed takes a bool.
func (r *Repository) Update(ctx context.Context, id int64, field Field, value any) error {
	stmt, ok := updateStatements[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	arg, err := fieldValue(field, value)
	if err != nil {
		return err
	}

	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(stmt), arg, id)
	if err != nil {
		return fmt.Errorf("update task %s: %w", field, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	logger.Debug(ctx, "service.tasks", "task.updated",
		slog.String("status", "ok"),
		slog.Int64("task_id", id),
		slog.String("field", string(field)),
	)
	return nil
}

func fieldValue(field Field, value any) (any, error) {
	switch field {
	case FieldTitle:
		s, ok := value.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("%w: title must be a non-empty string", ErrInvalidValue)
		}
		return s, nil
	case FieldDescription:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: description must be a string", ErrInvalidValue)
		}
		return sql.NullString{String: s, Valid: s != ""}, nil
	case FieldCompleted:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: is_completed must be a bool", ErrInvalidValue)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// DeleteTask removes a task. Deleting a missing task returns ErrNotFound.
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	logger.Info(ctx, "service.tasks", "task.deleted",
		slog.String("status", "ok"),
		slog.Int64("task_id", id),
	)
	return nil
}
