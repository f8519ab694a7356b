package conversation

import (
	"fmt"
	"strings"

	"github.com/m3rciful/taskbot/internal/tasks"
)

// Reply keyboard labels. They double as command text.
const (
	ButtonAddTask      = "➕ Add new task"
	ButtonAllTasks     = "📇 All tasks"
	ButtonTaskByNumber = "🎯 Task by №"
	ButtonRegistration = "😎 Registration"
	ButtonHelp         = "Help"
)

// Inline button labels.
const (
	ButtonCancelEdit      = "🚫 Cancel Editing"
	ButtonDelete          = "❌ Delete"
	ButtonMarkTodo        = IconTodo + " TODO"
	ButtonMarkDone        = IconDone + " Done"
	ButtonEditTitle       = "✏️ Title"
	ButtonEditDescription = "✏️ Descr"
)

const (
	IconDone = "✅"
	IconTodo = "➡️"
)

const (
	StartRegistered  = "You are already registered!"
	StartNew         = "Welcome to the Task Management bot!"
	NeedRegistration = "Please register first to manage your tasks."

	EnterYourName     = "Enter your name:"
	EnterYourUsername = "Enter your username:"
	UsernameExists    = "❌ This username is already taken.\nPlease enter a different username:"

	EnterTaskTitle       = "Enter task title:"
	EnterTaskDescription = "Enter task description:"
	TaskAdded            = "Task added successfully!"
	NoTasksYet           = "You have no tasks yet."
	MainMenu             = "🔽 Main Menu 🔽"

	EditTaskTitle       = "✏️ Edit Task Title:\n\nOld Title to copy:"
	EditTaskDescription = "✏️ Edit Task Description:\n\nOld Description to copy:"
	SendNewTitle        = "Send a new title:"
	SendNewDescription  = "Send a new description:"
	NoDescriptionYet    = "...No description yet..."
	NoChangesMade       = "No changes have been made"
	EditingCancelled    = "Editing cancelled."

	TaskNotFound           = "❌ Task not found!"
	TaskNotFoundEnterValid = "❌ Task not found. Enter a valid task number."
	TaskStatusUpdated      = "✅ Task status updated!"
	TaskAlreadyInStatus    = "⚠️ Task is already in this state."
	UnableToUpdateStatus   = "⚠️ Unable to update task status!"
	TaskDeleted            = "✅ Task deleted!"
	TaskDeletedNotice      = "🗑 This task has been deleted."

	HelpText        = "This bot helps you manage your tasks. You can add, list, and delete tasks."
	UnknownCommand  = "Unknown command"
	InvalidInput    = "❌ Invalid input. Please enter a valid task number."
	InvalidAction   = "❌ Invalid action!"
	UnexpectedError = "⚠️ Unexpected error occurred."
	SlowDown        = "⏳ Too many requests, please slow down."
)

// StatusIcon returns the list/detail icon for a completion flag.
func StatusIcon(completed bool) string {
	if completed {
		return IconDone
	}
	return IconTodo
}

// Welcome greets a freshly registered user.
func Welcome(name string) string {
	return fmt.Sprintf("Welcome, %s!", name)
}

// TaskNumberRequest asks for an ordinal within 1..count.
func TaskNumberRequest(count int) string {
	return fmt.Sprintf("Enter the task number (1-%d):", count)
}

// withPencil marks a value that was just changed.
func withPencil(v string) string {
	return v + " (✏️)"
}

// TaskList renders one "icon n. title" line per task.
func TaskList(list []tasks.Task) string {
	var b strings.Builder
	b.WriteString("📇 Your tasks:\n\n")
	for i, t := range list {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %d. %s", StatusIcon(t.IsCompleted), i+1, t.Title)
	}
	return b.String()
}

// TaskDetails renders the detail view of the task at ordinal n.
func TaskDetails(n int, completed bool, title, description string) string {
	return fmt.Sprintf("%s Task № %d\n\nTitle: %s\nDescription: %s",
		StatusIcon(completed), n, title, description)
}
