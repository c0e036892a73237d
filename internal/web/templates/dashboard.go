package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// TableCard is one entry on the dashboard.
type TableCard struct {
	Key      string
	Label    string
	ReadOnly bool
}

// TableGroup collects the cards of one registry group.
type TableGroup struct {
	Name   string
	Tables []TableCard
}

// Dashboard lists every registered table by group.
func Dashboard(groups []TableGroup) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &writer{w: w}
		o.raw(`<h1 class="text-2xl font-semibold mb-6">Tables</h1>`)
		if len(groups) == 0 {
			o.raw(`<p class="empty">No tables registered.</p>`)
		}
		for _, g := range groups {
			o.raw(`<section class="table-group mb-6"><h2 class="text-lg font-medium mb-2">`)
			o.text(g.Name)
			o.raw(`</h2><ul class="grid gap-2">`)
			for _, t := range g.Tables {
				o.raw(`<li class="table-card"><a`)
				o.attr("href", TablePath(t.Key))
				o.raw(`>`)
				o.text(t.Label)
				o.raw(`</a>`)
				if t.ReadOnly {
					o.raw(` <span class="badge">read-only</span>`)
				}
				o.raw(`</li>`)
			}
			o.raw(`</ul></section>`)
		}
		return o.err
	})
	return Page("Tables", body)
}
