package core

import (
	"fmt"

	"github.com/JonMunkholm/crudtables/internal/access"
)

// archiveCapability gates archive and restore. They reuse the delete
// capability: whoever may remove a record may also shelve it.
const archiveCapability = access.Delete

// ToggleAction is the single control shown by the archive toggle.
type ToggleAction struct {
	Kind ActionKind // ActionArchive or ActionRestore
}

// Toggle selects restore for archived records and archive otherwise.
func Toggle(archived bool) ToggleAction {
	if archived {
		return ToggleAction{Kind: ActionRestore}
	}
	return ToggleAction{Kind: ActionArchive}
}

// Action returns the toggle as a gated actions-column entry.
func (t ToggleAction) Action() Action {
	return Action{Kind: t.Kind, Capability: archiveCapability}
}

// ConfirmPrompt is the question asked before a destructive action on record.
// Edit needs no confirmation and yields "".
func ConfirmPrompt(kind ActionKind, record Record) string {
	var verb string
	switch kind {
	case ActionDelete:
		verb = "Delete"
	case ActionArchive:
		verb = "Archive"
	case ActionRestore:
		verb = "Restore"
	default:
		return ""
	}
	return fmt.Sprintf("%s record %s?", verb, record.Label())
}
