package web

import (
	"github.com/JonMunkholm/crudtables/internal/core"
	"github.com/JonMunkholm/crudtables/internal/web/templates"
)

// successMessage is the toast shown after any successful operation.
const successMessage = "Done"

// requestBridge is the Notifier and Confirmer of one session table. It is
// reset at the start of every request: notifications collect into toasts,
// and confirmations answer with what the browser's hx-confirm dialog
// already decided.
type requestBridge struct {
	confirmed bool
	toasts    []templates.Toast
}

func (b *requestBridge) begin(confirmed bool) {
	b.confirmed = confirmed
	b.toasts = nil
}

// Success implements core.Notifier.
func (b *requestBridge) Success() {
	b.toasts = append(b.toasts, templates.Toast{Kind: templates.ToastSuccess, Message: successMessage})
}

// Error implements core.Notifier. message is the underlying error text;
// the toast leads with its mapped user message.
func (b *requestBridge) Error(message string) {
	um := core.MapMessage(message)
	b.toasts = append(b.toasts, templates.Toast{
		Kind:    templates.ToastError,
		Message: um.Message,
		Detail:  message,
		Action:  um.Action,
		Code:    um.Code,
	})
}

// Confirm implements core.Confirmer.
func (b *requestBridge) Confirm(string) bool {
	return b.confirmed
}
