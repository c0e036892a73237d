package templates

import (
	"context"
	"errors"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/crudtables/internal/core"
	"github.com/JonMunkholm/crudtables/internal/form"
	"github.com/JonMunkholm/crudtables/internal/schema"
)

// ModalField is one input of the record form.
type ModalField struct {
	Name      string
	Label     string
	InputType string
	Value     string
	Checked   bool
	Required  bool
	Error     string
}

// ModalData describes an open create/edit dialog.
type ModalData struct {
	Key    string
	Title  string
	Busy   bool
	Fields []ModalField

	// Error is a submission failure not tied to a single field.
	Error string
}

// ModalRenderer turns ModalData into a component. Hosts may supply their
// own to restyle the dialog.
type ModalRenderer func(ModalData) templ.Component

// NewModalData builds the form fields from the modal buffer and its last
// validation error.
func NewModalData(key string, s schema.FieldSchema, m core.Modal) ModalData {
	d := ModalData{Key: key, Title: m.Title(), Busy: m.Busy()}

	var fieldErrs form.Errors
	if err := m.Err(); err != nil && !errors.As(err, &fieldErrs) {
		d.Error = err.Error()
	}

	buf := m.Buffer()
	for _, p := range s.Properties {
		f := ModalField{
			Name:      p.Name,
			Label:     p.Label(),
			InputType: form.InputType(p),
			Value:     form.InputValue(p, buf[p.Key()]),
			Required:  p.Required,
			Error:     fieldErrs.For(p.Name),
		}
		if f.InputType == "checkbox" {
			f.Checked = checked(buf[p.Key()])
			f.Value = "true"
		}
		d.Fields = append(d.Fields, f)
	}
	return d
}

func checked(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "true" || x == "on" || x == "1"
	}
	return false
}

// modalSpinner is shown by htmx while a save request is in flight.
const modalSpinner = "modal-spinner"

// RecordModal is the stock create/edit dialog. The submit button is
// disabled for the duration of a save request.
func RecordModal(d ModalData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &writer{w: w}
		o.raw(`<div class="modal-backdrop"><div class="modal" role="dialog" aria-modal="true"><h2 class="modal-title">`)
		o.text(d.Title)
		o.raw(`</h2><form class="record-form"`)
		o.attrs(ctx, swap(TablePath(d.Key, "store"),
			templ.KV[string, any]("hx-disabled-elt", "find button[type=submit]"),
			templ.KV[string, any]("hx-indicator", "#"+modalSpinner),
		))
		o.raw(`>`)

		if d.Error != "" {
			o.raw(`<p class="form-error">`)
			o.text(d.Error)
			o.raw(`</p>`)
		}

		for _, f := range d.Fields {
			o.raw(`<label class="field"><span>`)
			o.text(f.Label)
			if f.Required {
				o.raw(` <abbr title="required">*</abbr>`)
			}
			o.raw(`</span><input`)
			o.attr("type", f.InputType)
			o.attr("name", f.Name)
			o.attr("value", f.Value)
			if f.Checked {
				o.raw(` checked`)
			}
			if f.Required && f.InputType != "checkbox" {
				o.raw(` required`)
			}
			if f.Error != "" {
				o.raw(` aria-invalid="true"`)
			}
			o.raw(`>`)
			if f.Error != "" {
				o.raw(`<small class="field-error">`)
				o.text(f.Error)
				o.raw(`</small>`)
			}
			o.raw(`</label>`)
		}

		o.raw(`<div class="modal-footer"><span class="htmx-indicator spinner" aria-hidden="true"`)
		o.attr("id", modalSpinner)
		o.raw(`></span><button type="button" class="cancel-button"`)
		o.attrs(ctx, swap(TablePath(d.Key, "hide")))
		o.raw(`>Cancel</button><button`)
		o.attrs(ctx, templ.OrderedAttributes{
			templ.KV[string, any]("type", "submit"),
			templ.KV[string, any]("class", "save-button btn btn-primary"),
			templ.KV[string, any]("disabled", d.Busy),
		})
		o.raw(`>Save</button></div></form></div></div>`)
		return o.err
	})
}
