package conversation

import (
	"context"
	"log/slog"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/core/telegram/state"
	"github.com/m3rciful/taskbot/internal/tasks"
)

const component = "conversation"

// Repository is the slice of the task store the engine depends on.
type Repository interface {
	CreateUser(ctx context.Context, telegramID int64, name, username string) (*tasks.User, error)
	UserByUsername(ctx context.Context, username string) (*tasks.User, error)
	CreateTask(ctx context.Context, owner int64, title, description string) (*tasks.Task, error)
	GetTask(ctx context.Context, id int64) (*tasks.Task, error)
	ListTasks(ctx context.Context, owner int64) ([]tasks.Task, error)
	Update(ctx context.Context, id int64, field tasks.Field, value any) error
	DeleteTask(ctx context.Context, id int64) error
}

// Message is one outbound chat message.
type Message struct {
	Text     string
	Keyboard Keyboard
}

// CallbackResult tells the transport how to answer a button press.
type CallbackResult struct {
	// Answer is the callback acknowledgement; empty acknowledges silently.
	Answer string
	Alert  bool
	// Edit replaces the text and markup of the message holding the button.
	Edit *Message
	// EditFailedAnswer replaces Answer when Edit cannot be applied.
	EditFailedAnswer string
	// EditMarkup replaces only the markup of that message.
	EditMarkup *Keyboard
	// Messages are sent after the edits, in order.
	Messages []Message
}

// Engine turns inbound text and button events into repository and session
// changes plus the replies to send. Events from one user are handled one
// at a time; different users proceed in parallel.
type Engine struct {
	repo     Repository
	sessions state.Store[Session]
	locks    userLocks
}

// NewEngine wires the engine to its collaborators.
func NewEngine(repo Repository, sessions state.Store[Session]) *Engine {
	return &Engine{repo: repo, sessions: sessions}
}

// HandleMessage processes a text message. While a flow is active the text
// feeds that flow; otherwise it is matched against the command table. An
// unrecognized session state yields no reply.
func (e *Engine) HandleMessage(ctx context.Context, userID int64, userExists bool, text string) []Message {
	defer e.locks.lock(userID)()

	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return e.fail(ctx, userID, "session.get", err)
	}

	var (
		msgs []Message
		op   string
	)
	if sess.State != StateNone {
		op = string(sess.State)
		logger.Debug(ctx, component, "flow.step",
			slog.Int64("user_id", userID),
			slog.String("state", op),
		)
		msgs, err = e.handleState(ctx, userID, sess, text)
	} else {
		cmd := parseCommand(text)
		op = cmd.String()
		logger.Debug(ctx, component, "command.received",
			slog.Int64("user_id", userID),
			slog.String("command", op),
		)
		msgs, err = e.handleCommand(ctx, userID, userExists, cmd)
	}
	if err != nil {
		return e.fail(ctx, userID, op, err)
	}
	return msgs
}

// fail logs an unexpected error, drops the session so the user is not
// stuck mid-flow, and returns the generic error reply.
func (e *Engine) fail(ctx context.Context, userID int64, op string, err error) []Message {
	logger.Error(ctx, component, "flow.unexpected_error",
		slog.String("status", "fail"),
		slog.Int64("user_id", userID),
		slog.String("op", op),
		slog.String("err", err.Error()),
	)
	e.clear(ctx, userID)
	return []Message{{Text: UnexpectedError}}
}

func (e *Engine) clear(ctx context.Context, userID int64) {
	if err := e.sessions.Delete(ctx, userID); err != nil {
		logger.Warn(ctx, component, "session.clear_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

func (e *Engine) setState(ctx context.Context, userID int64, next State) error {
	return e.sessions.Update(ctx, userID, func(s *Session) { s.State = next })
}

func reply(text string, kb Keyboard) []Message {
	return []Message{{Text: text, Keyboard: kb}}
}
