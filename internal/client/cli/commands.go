package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/client/models"
)

// Input seams, swappable in tests.
var getSimpleText = GetSimpleText
var getPin = GetPin

var errUsage = errors.New("usage")

func usage(msg string) error {
	return fmt.Errorf("%w: %s", errUsage, msg)
}

// Register prompts for a PIN twice and creates a new server account.
func (a *App) Register(ctx context.Context) error {
	pin, err := getPin(os.Stdout)
	if err != nil {
		return err
	}
	confirm, err := getPin(os.Stdout)
	if err != nil {
		return err
	}
	if pin != confirm {
		return errors.New("pins do not match")
	}
	if err := a.auth.Register(ctx, pin); err != nil {
		return err
	}
	printlnFn("Registered. Sync is now enabled.")
	return nil
}

// Login prompts for the PIN, verifies it against the server and stores it.
func (a *App) Login(ctx context.Context) error {
	pin, err := getPin(os.Stdout)
	if err != nil {
		return err
	}
	if err := a.auth.Login(ctx, pin); err != nil {
		return err
	}
	printlnFn("Logged in. Sync is now enabled.")
	return nil
}

// Logout forgets the stored PIN. Local tasks stay usable offline.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Logged out.")
	return nil
}

// Add creates a task in the inbox from the remaining arguments.
func (a *App) Add(ctx context.Context, args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		var err error
		title, err = getSimpleText(a.reader, "Task title", os.Stdout)
		if err != nil {
			return err
		}
	}
	task, err := a.tasks.Create(ctx, models.TaskInput{Title: title})
	if err != nil {
		return err
	}
	printlnFn("Created", task.ID)
	return nil
}

func parseList(name string) (models.GtdList, error) {
	switch models.GtdList(name) {
	case models.ListInbox, models.ListNextActions, models.ListWaitingFor,
		models.ListCalendar, models.ListSomedayMaybe, models.ListReference,
		models.ListTrash, models.ListCompleted:
		return models.GtdList(name), nil
	}
	return "", fmt.Errorf("unknown list %q", name)
}

// List prints the tasks of one list, or of the inbox by default. "all"
// shows every non-deleted task.
func (a *App) List(ctx context.Context, args []string) error {
	list := models.ListInbox
	if len(args) > 0 {
		if args[0] == "all" {
			list = ""
		} else {
			var err error
			if list, err = parseList(args[0]); err != nil {
				return err
			}
		}
	}
	items, err := a.tasks.List(ctx, list)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printlnFn("(empty)")
		return nil
	}
	for _, t := range items {
		printlnFn(formatTask(t))
	}
	return nil
}

func formatTask(t *models.Task) string {
	mark := "[ ]"
	if t.IsCompleted {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s (%s, %s)", mark, t.ID, t.Title, t.GtdList, t.Priority)
	if t.Deadline != nil {
		line += "  due " + t.Deadline.Format("2006-01-02")
	}
	return line
}

// Show prints one task in full.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("show <id>")
	}
	t, err := a.tasks.Get(ctx, args[0])
	if err != nil {
		return err
	}
	printlnFn(formatTask(t))
	if t.Memo != "" {
		printlnFn("  memo:", t.Memo)
	}
	if len(t.Tags) > 0 {
		printlnFn("  tags:", strings.Join(t.Tags, ", "))
	}
	if t.ProjectID != "" {
		printlnFn("  project:", t.ProjectID)
	}
	for _, slot := range t.CalendarSlots {
		printlnFn(fmt.Sprintf("  slot %s: %s - %s", slot.ID,
			slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339)))
	}
	return nil
}

// Done marks a task completed.
func (a *App) Done(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("done <id>")
	}
	t, err := a.tasks.Complete(ctx, args[0])
	if err != nil {
		return err
	}
	printlnFn("Completed", t.Title)
	return nil
}

// Undone reopens a completed task onto the given list (inbox by default).
func (a *App) Undone(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("undone <id> [list]")
	}
	list := models.ListInbox
	if len(args) == 2 {
		var err error
		if list, err = parseList(args[1]); err != nil {
			return err
		}
	}
	t, err := a.tasks.Uncomplete(ctx, args[0], list)
	if err != nil {
		return err
	}
	printlnFn("Reopened", t.Title)
	return nil
}

// Move puts a task on another list.
func (a *App) Move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("move <id> <list>")
	}
	list, err := parseList(args[1])
	if err != nil {
		return err
	}
	t, err := a.tasks.Move(ctx, args[0], list)
	if err != nil {
		return err
	}
	printlnFn("Moved", t.Title, "to", string(list))
	return nil
}

// Remove soft-deletes a task.
func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("rm <id>")
	}
	if err := a.tasks.Delete(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Moved to trash.")
	return nil
}

// Reorder assigns list positions following the given id order.
func (a *App) Reorder(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("reorder <id> <id>...")
	}
	if err := a.tasks.Reorder(ctx, args); err != nil {
		return err
	}
	printlnFn("Reordered.")
	return nil
}

// Slot manages a task's calendar slots: "slot add <id> <start> <end>",
// "slot update <id> <slotid> <start> <end>", "slot rm <id> <slotid>".
// Times are RFC 3339.
func (a *App) Slot(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("slot add|update|rm ...")
	}
	parseTime := func(s string) (time.Time, error) { return time.Parse(time.RFC3339, s) }
	switch args[0] {
	case "add":
		if len(args) != 4 {
			return usage("slot add <id> <start> <end>")
		}
		start, err := parseTime(args[2])
		if err != nil {
			return err
		}
		end, err := parseTime(args[3])
		if err != nil {
			return err
		}
		if _, err := a.tasks.AddCalendarSlot(ctx, args[1], start, end); err != nil {
			return err
		}
		printlnFn("Slot added.")
	case "update":
		if len(args) != 5 {
			return usage("slot update <id> <slotid> <start> <end>")
		}
		start, err := parseTime(args[3])
		if err != nil {
			return err
		}
		end, err := parseTime(args[4])
		if err != nil {
			return err
		}
		if _, err := a.tasks.UpdateCalendarSlot(ctx, args[1], args[2], start, end); err != nil {
			return err
		}
		printlnFn("Slot updated.")
	case "rm":
		if len(args) != 3 {
			return usage("slot rm <id> <slotid>")
		}
		if _, err := a.tasks.RemoveCalendarSlot(ctx, args[1], args[2]); err != nil {
			return err
		}
		printlnFn("Slot removed.")
	default:
		return usage("slot add|update|rm ...")
	}
	return nil
}

// Projects lists all projects.
func (a *App) Projects(ctx context.Context) error {
	items, err := a.projects.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printlnFn("(no projects)")
		return nil
	}
	for _, p := range items {
		mark := "[ ]"
		if p.IsCompleted {
			mark = "[x]"
		}
		printlnFn(fmt.Sprintf("%s %s  %s (%s)", mark, p.ID, p.Title, p.Priority))
	}
	return nil
}

// AddProject creates a project from the remaining arguments.
func (a *App) AddProject(ctx context.Context, args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		var err error
		title, err = getSimpleText(a.reader, "Project title", os.Stdout)
		if err != nil {
			return err
		}
	}
	p, err := a.projects.Create(ctx, models.ProjectInput{Title: title})
	if err != nil {
		return err
	}
	printlnFn("Created", p.ID)
	return nil
}

// RemoveProject deletes a project and cascades to its tasks.
func (a *App) RemoveProject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("rmproject <id>")
	}
	if err := a.projects.Delete(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Project and its tasks moved to trash.")
	return nil
}

// EmptyTrash drops trashed tasks for good.
func (a *App) EmptyTrash(ctx context.Context) error {
	n, err := a.tasks.EmptyTrash(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Dropped %d task(s).", n))
	return nil
}

// ClearCompleted drops completed tasks for good.
func (a *App) ClearCompleted(ctx context.Context) error {
	n, err := a.tasks.ClearCompleted(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Dropped %d task(s).", n))
	return nil
}

// Sync forces a synchronous round-trip.
func (a *App) Sync(ctx context.Context) error {
	if err := a.engine.SyncNow(ctx); err != nil {
		return err
	}
	printlnFn("Sync:", string(a.engine.Status()))
	return nil
}

// Status prints connectivity and sync state.
func (a *App) Status(ctx context.Context) error {
	online := "offline"
	if a.engine.Online() {
		online = "online"
	}
	printlnFn(fmt.Sprintf("server: %s (%s), sync: %s", a.config.ServerURL, online, a.engine.Status()))
	return nil
}
