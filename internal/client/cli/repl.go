package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Add(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Done(ctx context.Context, args []string) error
	Undone(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Reorder(ctx context.Context, args []string) error
	Slot(ctx context.Context, args []string) error
	Projects(ctx context.Context) error
	AddProject(ctx context.Context, args []string) error
	RemoveProject(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	EmptyTrash(ctx context.Context) error
	ClearCompleted(ctx context.Context) error
}

const helpLoggedIn = `Available commands:
  add <title>              create a task in the inbox
  list [list]              show tasks (inbox, next_actions, waiting_for,
                           calendar, someday_maybe, reference, all)
  show <id>                show one task
  done <id> / undone <id> [list]  complete / reopen a task
  move <id> <list>         move a task to another list
  rm <id>                  move a task to the trash
  reorder <id> <id>...     assign list positions in the given order
  slot add <id> <start> <end> | slot rm <id> <slotid>
                           manage calendar slots (RFC 3339 times)
  projects                 list projects
  addproject <title>       create a project
  rmproject <id>           delete a project and its tasks
  emptytrash               permanently drop trashed tasks
  clearcompleted           permanently drop completed tasks
  sync                     force a sync round-trip
  status                   show sync status
  logout                   forget the stored PIN
  exit | quit              leave`

const helpLoggedOut = `Available commands: register, login, status, exit`

// runREPL reads lines from scanner, parses the first token as the command
// and dispatches to a. Handler errors are printed, never fatal. The loop
// exits on EOF or "exit"/"quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	printlnFn("gtdkeeper CLI (type 'help' for commands)")
	for {
		printlnFn(fmt.Sprintf("gtd [%s] > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "add":
			err = a.Add(ctx, args)
		case "l", "list":
			err = a.List(ctx, args)
		case "show":
			err = a.Show(ctx, args)
		case "done":
			err = a.Done(ctx, args)
		case "undone":
			err = a.Undone(ctx, args)
		case "move":
			err = a.Move(ctx, args)
		case "rm":
			err = a.Remove(ctx, args)
		case "reorder":
			err = a.Reorder(ctx, args)
		case "slot":
			err = a.Slot(ctx, args)
		case "projects":
			err = a.Projects(ctx)
		case "addproject":
			err = a.AddProject(ctx, args)
		case "rmproject":
			err = a.RemoveProject(ctx, args)
		case "emptytrash":
			err = a.EmptyTrash(ctx)
		case "clearcompleted":
			err = a.ClearCompleted(ctx)
		case "sync":
			err = a.Sync(ctx)
		case "status":
			err = a.Status(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
