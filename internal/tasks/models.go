package tasks

import (
	"database/sql"
	"time"
)

// User is a registered chat identity.
type User struct {
	ID         int64  `db:"id"`
	TelegramID int64  `db:"telegram_id"`
	Username   string `db:"username"`
	Name       string `db:"name"`
}

// Task belongs to a user through TelegramID. Its position in the owner's
// list is derived from CreatedAt at read time and never stored.
type Task struct {
	ID          int64          `db:"id"`
	TelegramID  int64          `db:"telegram_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	IsCompleted bool           `db:"is_completed"`
	CreatedAt   time.Time      `db:"created_at"`
}

// DescriptionText returns the description or "" when none was set.
func (t Task) DescriptionText() string {
	if !t.Description.Valid {
		return ""
	}
	return t.Description.String
}

// Field names a column that Update is allowed to change.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldCompleted   Field = "is_completed"
)

// Ordinal returns the 1-based position of taskID in list, or 0 if absent.
func Ordinal(list []Task, taskID int64) int {
	for i, t := range list {
		if t.ID == taskID {
			return i + 1
		}
	}
	return 0
}
