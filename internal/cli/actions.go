package cli

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
)

var errUsage = errors.New("wrong number of arguments")

// parseAction maps a verb and its arguments to a dashboard action. The verbs
// are shared by one-shot commands and the shell.
func parseAction(verb string, args []string) (dashboard.Action, error) {
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: %w", verb, errUsage)
		}
		return nil
	}

	switch verb {
	case "load":
		channel := ""
		if len(args) > 0 {
			channel = args[0]
		}
		return dashboard.LoadAction{Channel: channel}, nil
	case "refresh":
		return dashboard.LoadAction{Channel: strings.Join(args, " "), Force: true}, nil
	case "search":
		return dashboard.SearchAction{Query: strings.Join(args, " ")}, nil
	case "client":
		return dashboard.FilterClientAction{Client: strings.Join(args, " ")}, nil
	case "tab":
		if err := need(1); err != nil {
			return nil, err
		}
		tab := dashboard.Tab(strings.ToLower(args[0]))
		if !slices.Contains(dashboard.Tabs, tab) {
			return nil, fmt.Errorf("unknown tab %q", args[0])
		}
		return dashboard.SelectTabAction{Tab: tab}, nil
	case "select":
		if err := need(1); err != nil {
			return nil, err
		}
		return dashboard.ToggleSelectAction{Ref: args[0]}, nil
	case "clear":
		return dashboard.ClearSelectionAction{}, nil
	case "status":
		if err := need(2); err != nil {
			return nil, err
		}
		status := order.Status(strings.ToLower(args[1]))
		if err := order.ValidateStatus(status); err != nil {
			return nil, err
		}
		return dashboard.ChangeStatusAction{Ref: args[0], Status: status}, nil
	case "notes":
		if err := need(2); err != nil {
			return nil, err
		}
		return dashboard.SaveNotesAction{Ref: args[0], Notes: strings.Join(args[1:], " ")}, nil
	case "clear-notes":
		if err := need(1); err != nil {
			return nil, err
		}
		return dashboard.ClearNotesAction{Ref: args[0]}, nil
	case "task":
		if err := need(2); err != nil {
			return nil, err
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		switch args[1] {
		case "done":
			return dashboard.ToggleTaskAction{TaskID: id, Done: true}, nil
		case "undone":
			return dashboard.ToggleTaskAction{TaskID: id, Done: false}, nil
		}
		return nil, fmt.Errorf("task state must be done or undone, got %q", args[1])
	case "archive":
		if err := need(1); err != nil {
			return nil, err
		}
		return dashboard.ArchiveAction{Ref: args[0]}, nil
	case "archive-block":
		if err := need(1); err != nil {
			return nil, err
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return dashboard.ArchiveBlockAction{BlockID: id}, nil
	case "group":
		return dashboard.GroupAction{}, nil
	case "ungroup":
		if err := need(1); err != nil {
			return nil, err
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return dashboard.UngroupAction{BlockID: id}, nil
	case "restore":
		if err := need(1); err != nil {
			return nil, err
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return dashboard.RestoreAction{HistoryID: id}, nil
	case "sync":
		return dashboard.SyncAction{}, nil
	}
	return nil, fmt.Errorf("unknown command %q", verb)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
