package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/core/telegram/callbacks"
	"github.com/m3rciful/taskbot/internal/tasks"
)

// HandleCallback processes an inline button press carrying "action:task_id"
// data. currentText is the text of the message that holds the button.
func (e *Engine) HandleCallback(ctx context.Context, userID int64, data, currentText string) CallbackResult {
	name, taskID, err := callbacks.ParseTarget(data)
	if err != nil {
		logger.Debug(ctx, component, "callback.malformed",
			slog.Int64("user_id", userID),
			slog.String("payload", logger.SanitizeLimit(data, 64)),
		)
		return CallbackResult{Answer: InvalidAction, Alert: true}
	}
	action := Action(name)
	if !knownAction(action) {
		return CallbackResult{Answer: InvalidAction, Alert: true}
	}
	defer e.locks.lock(userID)()

	t, err := e.repo.GetTask(ctx, taskID)
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		return notFound()
	case err != nil:
		return e.callbackFail(ctx, userID, action, err)
	case t.TelegramID != userID:
		logger.Warn(ctx, component, "callback.foreign_task",
			slog.Int64("user_id", userID),
			slog.Int64("task_id", taskID),
		)
		return notFound()
	}

	logger.Debug(ctx, component, "callback.received",
		slog.Int64("user_id", userID),
		slog.String("action", name),
		slog.Int64("task_id", taskID),
	)

	var res CallbackResult
	switch action {
	case ActionToggleStatus:
		res, err = e.toggleStatus(ctx, userID, t, currentText)
	case ActionEditTitle:
		res, err = e.startEditing(ctx, userID, t, StateEditTaskTitle)
	case ActionEditDescription:
		res, err = e.startEditing(ctx, userID, t, StateEditTaskDescription)
	case ActionCancelEdit:
		res = e.cancelEdit(ctx, userID, t)
	case ActionDeleteTask:
		res, err = e.deleteTask(ctx, userID, t)
	}
	if err != nil {
		return e.callbackFail(ctx, userID, action, err)
	}
	return res
}

func knownAction(a Action) bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

func notFound() CallbackResult {
	return CallbackResult{Answer: TaskNotFound, Alert: true}
}

func (e *Engine) callbackFail(ctx context.Context, userID int64, action Action, err error) CallbackResult {
	logger.Error(ctx, component, "callback.unexpected_error",
		slog.String("status", "fail"),
		slog.Int64("user_id", userID),
		slog.String("action", string(action)),
		slog.String("err", err.Error()),
	)
	e.clear(ctx, userID)
	return CallbackResult{Answer: UnexpectedError, Alert: true}
}

// toggleStatus flips completion and swaps the status icon in the
// displayed message.
func (e *Engine) toggleStatus(ctx context.Context, userID int64, t *tasks.Task, currentText string) (CallbackResult, error) {
	completed := !t.IsCompleted
	if err := e.repo.Update(ctx, t.ID, tasks.FieldCompleted, completed); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return notFound(), nil
		}
		return CallbackResult{}, err
	}

	updated := strings.Replace(currentText, StatusIcon(t.IsCompleted), StatusIcon(completed), 1)
	if updated == currentText {
		return CallbackResult{Answer: TaskAlreadyInStatus}, nil
	}

	editing := false
	if sess, err := e.sessions.Get(ctx, userID); err == nil {
		editing = sess.EditingTask(t.ID)
	}
	return CallbackResult{
		Answer:           TaskStatusUpdated,
		Edit:             &Message{Text: updated, Keyboard: taskActions(t.ID, completed, editing)},
		EditFailedAnswer: UnableToUpdateStatus,
	}, nil
}

func (e *Engine) startEditing(ctx context.Context, userID int64, t *tasks.Task, next State) (CallbackResult, error) {
	err := e.sessions.Update(ctx, userID, func(s *Session) {
		*s = Session{State: next, EditedTaskID: t.ID}
	})
	if err != nil {
		return CallbackResult{}, err
	}

	header, current, prompt := EditTaskTitle, t.Title, SendNewTitle
	if next == StateEditTaskDescription {
		header, current, prompt = EditTaskDescription, t.DescriptionText(), SendNewDescription
		if current == "" {
			current = NoDescriptionYet
		}
	}
	kb := taskActions(t.ID, t.IsCompleted, true)
	return CallbackResult{
		EditMarkup: &kb,
		Messages: []Message{
			{Text: header},
			{Text: current},
			{Text: prompt, Keyboard: removeKeyboard},
		},
	}, nil
}

func (e *Engine) cancelEdit(ctx context.Context, userID int64, t *tasks.Task) CallbackResult {
	e.clear(ctx, userID)
	kb := taskActions(t.ID, t.IsCompleted, false)
	return CallbackResult{
		EditMarkup: &kb,
		Messages:   []Message{{Text: EditingCancelled, Keyboard: mainKeyboard}},
	}
}

func (e *Engine) deleteTask(ctx context.Context, userID int64, t *tasks.Task) (CallbackResult, error) {
	if err := e.repo.DeleteTask(ctx, t.ID); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return notFound(), nil
		}
		return CallbackResult{}, err
	}
	if sess, err := e.sessions.Get(ctx, userID); err == nil && sess.EditingTask(t.ID) {
		e.clear(ctx, userID)
	}
	return CallbackResult{
		Answer: TaskDeleted,
		Edit:   &Message{Text: TaskDeletedNotice},
	}, nil
}
