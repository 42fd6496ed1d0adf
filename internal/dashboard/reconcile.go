package dashboard

import (
	"slices"

	"github.com/ganot/logitrack/internal/api"
)

// MutationKind names a server mutation whose confirmed result is patched into
// the local order list.
type MutationKind string

const (
	MutationStatus       MutationKind = "status"
	MutationNotes        MutationKind = "notes"
	MutationClearNotes   MutationKind = "clear_notes"
	MutationTask         MutationKind = "task"
	MutationArchive      MutationKind = "archive"
	MutationArchiveBlock MutationKind = "archive_block"
	MutationGroup        MutationKind = "group"
	MutationUngroup      MutationKind = "ungroup"
)

// Reconcile applies exactly the change the server confirmed in res. It is the
// only place the order list of a State is patched after a mutation. An
// unsuccessful result leaves the state unchanged; a successful one also clears
// the selection.
//
//	status         status = res.Status on every ref in res.UpdatedRefs
//	notes          notes = *res.Notes on res.Ref
//	clear_notes    notes = "" on res.Ref
//	task           done = res.Done on task res.TaskID of res.Ref, other tasks untouched
//	archive(_block) every ref in res.ArchivedRefs removed from the list
//	group          block = res.BlockID on every ref in res.GroupedRefs
//	ungroup        block cleared on every ref in res.UngroupedRefs
func Reconcile(s State, kind MutationKind, res api.MutationResult) State {
	if !res.Success {
		return s
	}

	items := make([]Item, 0, len(s.Orders))
	for _, it := range s.Orders {
		it.Order = it.Order.Clone()
		switch kind {
		case MutationStatus:
			if slices.Contains(res.UpdatedRefs, it.Ref) && res.Status != "" {
				it.Status = res.Status
			}
		case MutationNotes:
			if it.Ref == res.Ref && res.Notes != nil {
				it.Notes = *res.Notes
			}
		case MutationClearNotes:
			if it.Ref == res.Ref {
				it.Notes = ""
			}
		case MutationTask:
			if it.Ref == res.Ref {
				for i := range it.Tasks {
					if it.Tasks[i].ID == res.TaskID {
						it.Tasks[i].Done = res.Done
					}
				}
			}
		case MutationArchive, MutationArchiveBlock:
			if slices.Contains(res.ArchivedRefs, it.Ref) {
				continue
			}
		case MutationGroup:
			if slices.Contains(res.GroupedRefs, it.Ref) && res.BlockID != 0 {
				id := res.BlockID
				it.BlockID = &id
			}
		case MutationUngroup:
			if slices.Contains(res.UngroupedRefs, it.Ref) {
				it.BlockID = nil
			}
		}
		items = append(items, it)
	}

	next := s
	next.Orders = items
	next.Selection = s.Selection.Clear()
	next.Loading = false
	next.Alert = ""
	next.Notice = res.Message
	return next
}
