package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/form"
	"github.com/JonMunkholm/crudtables/internal/schema"
	"golang.org/x/text/language"
)

// Options configures an EditableTable. Every recognized option is listed
// here with its default; NewEditableTable applies defaults and validates.
type Options struct {
	// Schema drives columns and the form (required).
	Schema schema.FieldSchema

	// Resource serves the records (required).
	Resource Resource

	// Notifier reports outcomes (required).
	Notifier Notifier

	// Confirmer guards delete/archive/restore (required).
	Confirmer Confirmer

	// Modal overrides the create/edit modal (default: NewDefaultModal()).
	Modal Modal

	// FormEngine validates submissions (default: form.New()).
	FormEngine FormEngine

	// Access is the granted capability set (default: create, update, delete).
	// A non-nil empty set grants nothing.
	Access access.Set

	// WithID includes the leading "#" column (default: true).
	WithID *bool

	// WithActions includes the trailing actions column (default: true).
	WithActions *bool

	// Title is the table heading.
	Title string

	// Archivable shows the archive/restore toggle (default: false).
	Archivable bool

	// ArchivedField is the record flag read by the toggle (default: "isArchive").
	ArchivedField string

	// Rows seeds the table once instead of listing from Resource.
	Rows []Record

	// Language drives string collation (default: English).
	Language language.Tag
}

// Bool returns a pointer to b, for the *bool options.
func Bool(b bool) *bool {
	return &b
}

func (o Options) withDefaults() Options {
	if o.Modal == nil {
		o.Modal = NewDefaultModal()
	}
	if o.FormEngine == nil {
		o.FormEngine = form.New()
	}
	if o.Access == nil {
		o.Access = access.Default()
	}
	if o.WithID == nil {
		o.WithID = Bool(true)
	}
	if o.WithActions == nil {
		o.WithActions = Bool(true)
	}
	if o.ArchivedField == "" {
		o.ArchivedField = DefaultArchivedField
	}
	if o.Language == language.Und {
		o.Language = language.English
	}
	return o
}

// Validate reports every missing or inconsistent option.
func (o Options) Validate() error {
	var errs []string

	if o.Schema.Len() == 0 {
		errs = append(errs, "schema is required")
	} else if err := o.Schema.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("schema: %v", err))
	}
	if o.Resource == nil {
		errs = append(errs, "resource is required")
	}
	if o.Notifier == nil {
		errs = append(errs, "notifier is required")
	}
	if o.Confirmer == nil {
		errs = append(errs, "confirmer is required")
	}
	if o.Archivable && o.Resource != nil {
		if _, ok := o.Resource.(Archiver); !ok {
			errs = append(errs, "archivable: "+ErrArchiveUnsupported.Error())
		}
	}

	if len(errs) > 0 {
		return errors.New("invalid options: " + strings.Join(errs, "; "))
	}
	return nil
}
