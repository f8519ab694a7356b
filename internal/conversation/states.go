package conversation

// State marks the multi-step flow a user is inside. The zero value means
// no flow is active and text is read as a command.
type State string

const (
	StateNone                 State = ""
	StateEnterName            State = "enter_name"
	StateEnterUsername        State = "enter_username"
	StateEnterTaskTitle       State = "enter_task_title"
	StateEnterTaskDescription State = "enter_task_description"
	StateEnterTaskNumber      State = "enter_task_number"
	StateEditTaskTitle        State = "edit_task_title"
	StateEditTaskDescription  State = "edit_task_description"
)

// Editing reports whether s is one of the edit flows.
func (s State) Editing() bool {
	return s == StateEditTaskTitle || s == StateEditTaskDescription
}

// Session is the per-user scratch document kept in the session store.
// Which fields are meaningful depends on State:
//
//	enter_username          Name
//	enter_task_description  TaskTitle
//	edit_task_*             EditedTaskID
type Session struct {
	State        State  `json:"state,omitempty"`
	Name         string `json:"name,omitempty"`
	TaskTitle    string `json:"task_title,omitempty"`
	EditedTaskID int64  `json:"edited_task_id,omitempty"`
}

// EditingTask reports whether the session is an edit flow targeting taskID.
func (s Session) EditingTask(taskID int64) bool {
	return s.State.Editing() && s.EditedTaskID == taskID
}

// command is a stateless entry point matched by exact text.
type command int

const (
	cmdUnknown command = iota
	cmdStart
	cmdHelp
	cmdRegistration
	cmdAllTasks
	cmdAddTask
	cmdTaskByNumber
)

func parseCommand(text string) command {
	switch text {
	case "/start":
		return cmdStart
	case "/help", ButtonHelp:
		return cmdHelp
	case ButtonRegistration:
		return cmdRegistration
	case ButtonAllTasks:
		return cmdAllTasks
	case ButtonAddTask:
		return cmdAddTask
	case ButtonTaskByNumber:
		return cmdTaskByNumber
	}
	return cmdUnknown
}

func (c command) String() string {
	switch c {
	case cmdStart:
		return "start"
	case cmdHelp:
		return "help"
	case cmdRegistration:
		return "registration"
	case cmdAllTasks:
		return "all_tasks"
	case cmdAddTask:
		return "add_task"
	case cmdTaskByNumber:
		return "task_by_number"
	}
	return "unknown"
}

// Action is the operation encoded in an inline button.
type Action string

const (
	ActionToggleStatus    Action = "toggle_status"
	ActionEditTitle       Action = "edit_task_title"
	ActionEditDescription Action = "edit_task_description"
	ActionDeleteTask      Action = "delete_task"
	ActionCancelEdit      Action = "cancel_edit"
)

// Actions lists every callback action the engine understands.
var Actions = []Action{
	ActionToggleStatus,
	ActionEditTitle,
	ActionEditDescription,
	ActionDeleteTask,
	ActionCancelEdit,
}
