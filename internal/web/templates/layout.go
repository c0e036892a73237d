package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/crudtables/internal/access"
)

// Page wraps body in the HTML document shell.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &writer{w: w}
		o.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		o.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		o.text(title)
		o.raw(`</title><script`)
		o.attr("src", htmxSrc)
		o.raw(` defer></script></head><body class="bg-gray-50 text-gray-900">`)
		o.raw(`<nav class="border-b bg-white px-6 py-3"><a href="/" class="font-semibold">Admin</a></nav>`)
		o.raw(`<main class="container mx-auto p-6">`)
		o.render(ctx, body)
		o.raw(`</main><div id="toasts" class="toasts fixed bottom-4 right-4"></div></body></html>`)
		return o.err
	})
}

// Title renders the table heading with a "Create" button gated on create.
func Title(key, text string, set access.Set) templ.Component {
	create := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &writer{w: w}
		o.raw(`<button type="button" class="create-button btn btn-primary"`)
		o.attrs(ctx, swap(TablePath(key, "create")))
		o.raw(`>Create</button>`)
		return o.err
	})

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &writer{w: w}
		o.raw(`<div class="table-title flex items-center justify-between mb-4"><h1 class="text-xl font-semibold">`)
		o.text(text)
		o.raw(`</h1>`)
		o.render(ctx, access.Gate(set, access.Create, create))
		o.raw(`</div>`)
		return o.err
	})
}
