package conversation

import "context"

func (e *Engine) handleCommand(ctx context.Context, userID int64, userExists bool, cmd command) ([]Message, error) {
	switch cmd {
	case cmdStart:
		if userExists {
			return reply(StartRegistered, mainKeyboard), nil
		}
		return reply(StartNew, registrationKeyboard), nil
	case cmdHelp:
		return reply(HelpText, menuFor(userExists)), nil
	case cmdRegistration:
		if userExists {
			return reply(StartRegistered, mainKeyboard), nil
		}
		if err := e.setState(ctx, userID, StateEnterName); err != nil {
			return nil, err
		}
		return reply(EnterYourName, removeKeyboard), nil
	case cmdAllTasks, cmdAddTask, cmdTaskByNumber:
		if !userExists {
			return reply(NeedRegistration, registrationKeyboard), nil
		}
		return e.taskCommand(ctx, userID, cmd)
	}
	return reply(UnknownCommand, menuFor(userExists)), nil
}

func (e *Engine) taskCommand(ctx context.Context, userID int64, cmd command) ([]Message, error) {
	if cmd == cmdAddTask {
		if err := e.setState(ctx, userID, StateEnterTaskTitle); err != nil {
			return nil, err
		}
		return reply(EnterTaskTitle, removeKeyboard), nil
	}

	list, err := e.repo.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return reply(NoTasksYet, mainKeyboard), nil
	}
	if cmd == cmdAllTasks {
		return reply(TaskList(list), mainKeyboard), nil
	}
	if err := e.setState(ctx, userID, StateEnterTaskNumber); err != nil {
		return nil, err
	}
	return reply(TaskNumberRequest(len(list)), removeKeyboard), nil
}

func menuFor(userExists bool) Keyboard {
	if userExists {
		return mainKeyboard
	}
	return registrationKeyboard
}
