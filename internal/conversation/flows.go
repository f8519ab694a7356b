package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/internal/tasks"
)

func (e *Engine) handleState(ctx context.Context, userID int64, sess Session, text string) ([]Message, error) {
	text = strings.TrimSpace(text)
	switch sess.State {
	case StateEnterName:
		return e.enterName(ctx, userID, text)
	case StateEnterUsername:
		return e.enterUsername(ctx, userID, sess, text)
	case StateEnterTaskTitle:
		return e.enterTaskTitle(ctx, userID, text)
	case StateEnterTaskDescription:
		return e.enterTaskDescription(ctx, userID, sess, text)
	case StateEnterTaskNumber:
		return e.enterTaskNumber(ctx, userID, text)
	case StateEditTaskTitle:
		return e.editTask(ctx, userID, sess, tasks.FieldTitle, text)
	case StateEditTaskDescription:
		return e.editTask(ctx, userID, sess, tasks.FieldDescription, text)
	}
	logger.Debug(ctx, component, "flow.unknown_state",
		slog.Int64("user_id", userID),
		slog.String("state", string(sess.State)),
	)
	return nil, nil
}

func (e *Engine) enterName(ctx context.Context, userID int64, name string) ([]Message, error) {
	if name == "" {
		return reply(EnterYourName, noKeyboard), nil
	}
	err := e.sessions.Update(ctx, userID, func(s *Session) {
		s.Name = name
		s.State = StateEnterUsername
	})
	if err != nil {
		return nil, err
	}
	return reply(EnterYourUsername, noKeyboard), nil
}

func (e *Engine) enterUsername(ctx context.Context, userID int64, sess Session, username string) ([]Message, error) {
	if sess.Name == "" {
		// the name was lost with an expired session; ask again
		if err := e.setState(ctx, userID, StateEnterName); err != nil {
			return nil, err
		}
		return reply(EnterYourName, noKeyboard), nil
	}
	if username == "" {
		return reply(EnterYourUsername, noKeyboard), nil
	}

	_, err := e.repo.UserByUsername(ctx, username)
	switch {
	case err == nil:
		return reply(UsernameExists, noKeyboard), nil
	case !errors.Is(err, tasks.ErrNotFound):
		return nil, err
	}

	_, err = e.repo.CreateUser(ctx, userID, sess.Name, username)
	switch {
	case errors.Is(err, tasks.ErrUsernameTaken):
		return reply(UsernameExists, noKeyboard), nil
	case errors.Is(err, tasks.ErrAlreadyRegistered):
		e.clear(ctx, userID)
		return reply(StartRegistered, mainKeyboard), nil
	case err != nil:
		return nil, err
	}
	e.clear(ctx, userID)
	return reply(Welcome(sess.Name), mainKeyboard), nil
}

func (e *Engine) enterTaskTitle(ctx context.Context, userID int64, title string) ([]Message, error) {
	if title == "" {
		return reply(EnterTaskTitle, removeKeyboard), nil
	}
	err := e.sessions.Update(ctx, userID, func(s *Session) {
		s.TaskTitle = title
		s.State = StateEnterTaskDescription
	})
	if err != nil {
		return nil, err
	}
	return reply(EnterTaskDescription, removeKeyboard), nil
}

func (e *Engine) enterTaskDescription(ctx context.Context, userID int64, sess Session, description string) ([]Message, error) {
	if sess.TaskTitle == "" {
		if err := e.setState(ctx, userID, StateEnterTaskTitle); err != nil {
			return nil, err
		}
		return reply(EnterTaskTitle, removeKeyboard), nil
	}
	if _, err := e.repo.CreateTask(ctx, userID, sess.TaskTitle, description); err != nil {
		return nil, err
	}
	e.clear(ctx, userID)
	return reply(TaskAdded, mainKeyboard), nil
}

func (e *Engine) enterTaskNumber(ctx context.Context, userID int64, text string) ([]Message, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return reply(InvalidInput, noKeyboard), nil
	}
	list, err := e.repo.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(list) {
		return reply(TaskNotFoundEnterValid, noKeyboard), nil
	}

	t := list[n-1]
	e.clear(ctx, userID)
	return []Message{
		{
			Text:     TaskDetails(n, t.IsCompleted, t.Title, t.DescriptionText()),
			Keyboard: taskActions(t.ID, t.IsCompleted, false),
		},
		{Text: MainMenu, Keyboard: mainKeyboard},
	}, nil
}

// editTask applies a new title or description to the task held in the
// session. Unchanged input keeps the flow open for another attempt.
func (e *Engine) editTask(ctx context.Context, userID int64, sess Session, field tasks.Field, value string) ([]Message, error) {
	if sess.EditedTaskID == 0 {
		e.clear(ctx, userID)
		return reply(TaskNotFound, mainKeyboard), nil
	}
	t, err := e.repo.GetTask(ctx, sess.EditedTaskID)
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		e.clear(ctx, userID)
		return reply(TaskNotFound, mainKeyboard), nil
	case err != nil:
		return nil, err
	case t.TelegramID != userID:
		e.clear(ctx, userID)
		return reply(TaskNotFound, mainKeyboard), nil
	}

	title, description := t.Title, t.DescriptionText()
	old := title
	if field == tasks.FieldDescription {
		old = description
	}
	if value == old {
		return reply(NoChangesMade, noKeyboard), nil
	}
	if value == "" && field == tasks.FieldTitle {
		return reply(SendNewTitle, noKeyboard), nil
	}

	err = e.repo.Update(ctx, t.ID, field, value)
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		e.clear(ctx, userID)
		return reply(TaskNotFound, mainKeyboard), nil
	case err != nil:
		return nil, err
	}
	logger.Info(ctx, component, "task.edited",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("task_id", t.ID),
		slog.String("field", string(field)),
	)

	list, err := e.repo.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	n := tasks.Ordinal(list, t.ID)
	e.clear(ctx, userID)
	if n == 0 {
		return reply(TaskNotFound, mainKeyboard), nil
	}

	if field == tasks.FieldTitle {
		title = withPencil(value)
	} else {
		description = withPencil(value)
	}
	return []Message{
		{
			Text:     TaskDetails(n, t.IsCompleted, title, description),
			Keyboard: taskActions(t.ID, t.IsCompleted, false),
		},
		{Text: MainMenu, Keyboard: mainKeyboard},
	}, nil
}
