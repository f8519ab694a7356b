package conversation

import "github.com/m3rciful/taskbot/core/telegram/callbacks"

// KeyboardKind selects which affordance accompanies a message.
type KeyboardKind int

const (
	// KeyboardNone leaves the current keyboard untouched.
	KeyboardNone KeyboardKind = iota
	// KeyboardRemove hides the reply keyboard.
	KeyboardRemove
	KeyboardRegistration
	KeyboardMain
	// KeyboardTaskActions is the inline layout built from TaskID,
	// Completed and Editing.
	KeyboardTaskActions
)

// Keyboard describes a keyboard without binding it to a transport.
type Keyboard struct {
	Kind      KeyboardKind
	TaskID    int64
	Completed bool
	Editing   bool
}

// Button is an inline button carrying raw "action:task_id" data.
type Button struct {
	Text string
	Data string
}

var (
	noKeyboard           = Keyboard{}
	removeKeyboard       = Keyboard{Kind: KeyboardRemove}
	registrationKeyboard = Keyboard{Kind: KeyboardRegistration}
	mainKeyboard         = Keyboard{Kind: KeyboardMain}
)

func taskActions(taskID int64, completed, editing bool) Keyboard {
	return Keyboard{Kind: KeyboardTaskActions, TaskID: taskID, Completed: completed, Editing: editing}
}

// ReplyRows returns the reply keyboard layout, or nil for inline kinds.
func (k Keyboard) ReplyRows() [][]string {
	switch k.Kind {
	case KeyboardRegistration:
		return [][]string{{ButtonRegistration, ButtonHelp}}
	case KeyboardMain:
		return [][]string{
			{ButtonAddTask, ButtonAllTasks, ButtonTaskByNumber},
			{ButtonHelp},
		}
	}
	return nil
}

// InlineRows returns the inline layout for KeyboardTaskActions.
func (k Keyboard) InlineRows() [][]Button {
	if k.Kind != KeyboardTaskActions {
		return nil
	}
	btn := func(text string, a Action) Button {
		return Button{Text: text, Data: callbacks.Join(string(a), k.TaskID)}
	}

	toggle := btn(ButtonMarkDone, ActionToggleStatus)
	if k.Completed {
		toggle = btn(ButtonMarkTodo, ActionToggleStatus)
	}
	rows := [][]Button{{toggle}}
	if k.Editing {
		rows = append(rows, []Button{btn(ButtonCancelEdit, ActionCancelEdit)})
	} else {
		rows = append(rows, []Button{
			btn(ButtonEditTitle, ActionEditTitle),
			btn(ButtonEditDescription, ActionEditDescription),
		})
	}
	return append(rows, []Button{btn(ButtonDelete, ActionDeleteTask)})
}
