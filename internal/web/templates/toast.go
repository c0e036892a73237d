package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ToastKind is the visual flavor of a notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is one notification raised while handling a request.
type Toast struct {
	Kind    ToastKind
	Message string
	Detail  string
	Action  string
	Code    string
}

// Toasts replaces the page's toast container out of band.
func Toasts(toasts []Toast) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &writer{w: w}
		o.raw(`<div id="toasts" class="toasts fixed bottom-4 right-4" hx-swap-oob="true">`)
		for _, t := range toasts {
			o.raw(`<div role="status"`)
			o.attr("class", "toast toast-"+string(t.Kind))
			o.raw(`><strong>`)
			o.text(t.Message)
			o.raw(`</strong>`)
			if t.Detail != "" && t.Detail != t.Message {
				o.raw(`<p class="toast-detail">`)
				o.text(t.Detail)
				o.raw(`</p>`)
			}
			if t.Action != "" {
				o.raw(`<p class="toast-action">`)
				o.text(t.Action)
				o.raw(`</p>`)
			}
			if t.Code != "" {
				o.raw(`<small class="toast-code">Code: `)
				o.text(t.Code)
				o.raw(`</small>`)
			}
			o.raw(`</div>`)
		}
		o.raw(`</div>`)
		return o.err
	})
}

// ErrorAlert renders a request-level error for HTMX targets.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &writer{w: w}
		o.raw(`<div class="alert alert-error" role="alert"><strong>`)
		o.text(message)
		o.raw(`</strong>`)
		if action != "" {
			o.raw(`<p>`)
			o.text(action)
			o.raw(`</p>`)
		}
		if code != "" {
			o.raw(`<small>Code: `)
			o.text(code)
			o.raw(`</small>`)
		}
		o.raw(`</div>`)
		return o.err
	})
}
