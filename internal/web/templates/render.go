// Package templates holds the templ components of the admin screens.
//
// Components are plain templ.Component values so they compose with
// access.Gate and can be swapped by hosts (see ModalRenderer).
package templates

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

// htmxSrc is loaded by every page.
const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

// TableTarget is the element swapped by every table interaction.
const TableTarget = "#table-region"

// writer accumulates the first write error so components read linearly.
type writer struct {
	w   io.Writer
	err error
}

func (o *writer) raw(parts ...string) {
	for _, p := range parts {
		if o.err != nil {
			return
		}
		_, o.err = io.WriteString(o.w, p)
	}
}

// text writes s HTML-escaped. Safe for element content and quoted attributes.
func (o *writer) text(s string) {
	o.raw(templ.EscapeString(s))
}

func (o *writer) attr(name, value string) {
	o.raw(" ", name, `="`)
	o.text(value)
	o.raw(`"`)
}

// attrs writes the attributes in order. Strings are escaped, true booleans
// render bare and false ones are skipped.
func (o *writer) attrs(ctx context.Context, a templ.OrderedAttributes) {
	if o.err != nil {
		return
	}
	o.err = templ.RenderAttributes(ctx, o.w, a)
}

// swap targets the table region with an hx-post to path.
func swap(path string, extra ...templ.KeyValue[string, any]) templ.OrderedAttributes {
	a := templ.OrderedAttributes{
		templ.KV[string, any]("hx-post", path),
		templ.KV[string, any]("hx-target", TableTarget),
		templ.KV[string, any]("hx-swap", "outerHTML"),
	}
	return append(a, extra...)
}

func (o *writer) render(ctx context.Context, c templ.Component) {
	if o.err != nil || c == nil {
		return
	}
	o.err = c.Render(ctx, o.w)
}

// TablePath builds /tables/{key}[/{action}[/{id}]].
func TablePath(key string, parts ...string) string {
	p := "/tables/" + url.PathEscape(key)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func itoa(n int) string { return strconv.Itoa(n) }
