package templates

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/core"
	"github.com/JonMunkholm/crudtables/internal/schema"
)

// TableData is everything the table region needs for one render.
type TableData struct {
	Key           string
	Title         string
	Access        access.Set
	Columns       []schema.Column
	Records       []core.Record
	Actions       func(core.Record) []core.Action
	ArchivedField string

	// Sort is the data index the rows are ordered by, "" for list order.
	Sort string
	Desc bool

	// Modal is the open create/edit dialog, nil when closed.
	Modal templ.Component
}

// TableView is the full page for one table.
func TableView(d TableData) templ.Component {
	return Page(d.Title, TablePartial(d))
}

// TablePartial renders the swappable table region: heading, rows and modal.
func TablePartial(d TableData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &writer{w: w}
		o.raw(`<section id="table-region" class="editable-table"`)
		o.attr("data-table", d.Key)
		o.raw(`>`)
		o.render(ctx, Title(d.Key, d.Title, d.Access))

		o.raw(`<table class="table w-full"><thead><tr>`)
		for _, c := range d.Columns {
			header(o, d, c)
		}
		o.raw(`</tr></thead><tbody>`)

		if len(d.Records) == 0 {
			o.raw(`<tr class="empty"><td`)
			o.attr("colspan", itoa(max(len(d.Columns), 1)))
			o.raw(`>No records</td></tr>`)
		}
		for _, rec := range d.Records {
			archived := d.ArchivedField != "" && rec.Archived(d.ArchivedField)
			if archived {
				o.raw(`<tr class="archived">`)
			} else {
				o.raw(`<tr>`)
			}
			for _, c := range d.Columns {
				if c.Kind == schema.KindActions {
					o.raw(`<td class="actions">`)
					if d.Actions != nil {
						for _, a := range d.Actions(rec) {
							o.render(ctx, access.Gate(d.Access, a.Capability, ActionButton(d.Key, rec, a.Kind)))
						}
					}
					o.raw(`</td>`)
					continue
				}
				o.raw(`<td>`)
				o.text(c.Cell(rec))
				o.raw(`</td>`)
			}
			o.raw(`</tr>`)
		}
		o.raw(`</tbody></table>`)

		o.render(ctx, d.Modal)
		o.raw(`</section>`)
		return o.err
	})
}

func header(o *writer, d TableData, c schema.Column) {
	o.raw(`<th`)
	if c.Width > 0 {
		o.attr("style", "width:"+itoa(c.Width)+"px")
	}
	o.raw(`>`)
	if !c.Sortable() {
		o.text(c.Title)
		o.raw(`</th>`)
		return
	}

	q := url.Values{"sort": {c.DataIndex}}
	indicator := ""
	if d.Sort == c.DataIndex {
		if d.Desc {
			indicator = " ▼"
		} else {
			q.Set("desc", "true")
			indicator = " ▲"
		}
	}
	o.raw(`<a class="sort-link" href="#"`)
	o.attr("hx-get", TablePath(d.Key)+"?"+q.Encode())
	o.attr("hx-target", TableTarget)
	o.raw(` hx-swap="outerHTML">`)
	o.text(c.Title + indicator)
	o.raw(`</a></th>`)
}

// ActionButton renders one per-record control. Destructive actions carry
// an hx-confirm prompt and post confirmed=true once the user agrees.
func ActionButton(key string, rec core.Record, kind core.ActionKind) templ.Component {
	if kind == core.ActionArchive || kind == core.ActionRestore {
		return ArchiveToggle(key, rec, core.Toggle(kind == core.ActionRestore))
	}

	label := "Edit"
	class := "edit-button"
	if kind == core.ActionDelete {
		label = "Delete"
		class = "delete-button"
	}
	return button(key, rec, kind, class, label)
}

// ArchiveToggle renders the archive or restore button selected by action.
func ArchiveToggle(key string, rec core.Record, action core.ToggleAction) templ.Component {
	label := "Archive"
	if action.Kind == core.ActionRestore {
		label = "Restore"
	}
	class := "archive-button archive-" + string(action.Kind) + "-button"
	return button(key, rec, action.Kind, class, label)
}

func button(key string, rec core.Record, kind core.ActionKind, class, label string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &writer{w: w}
		a := templ.OrderedAttributes{templ.KV[string, any]("class", class)}
		a = append(a, swap(TablePath(key, string(kind), rec.IDString()))...)
		if prompt := core.ConfirmPrompt(kind, rec); prompt != "" {
			a = append(a,
				templ.KV[string, any]("hx-confirm", prompt),
				templ.KV[string, any]("hx-vals", `{"confirmed":"true"}`),
			)
		}
		o.raw(`<button type="button"`)
		o.attrs(ctx, a)
		o.raw(`>`)
		o.text(label)
		o.raw(`</button>`)
		return o.err
	})
}
