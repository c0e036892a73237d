// Package core provides the CRUD screen logic behind crudtables.
//
// This package holds the domain logic independent of any UI or transport
// layer. It can be driven by web handlers, the CLI or tests without
// modification.
//
// # Architecture
//
//   - EditableTable: orchestrates one screen. It owns the record list, the
//     modal and the record being edited, and calls out to a [Resource] for
//     every change.
//   - Modal: the create/edit dialog and its edit buffer. [DefaultModal] is
//     used unless [Options.Modal] overrides it.
//   - Toggle: picks the archive or restore control for a record.
//   - Table Definitions: screens registered at init time via [Register].
//   - Audit: [AuditedResource] logs every mutation with request metadata.
//
// # Table Registry
//
// Screens are registered from init functions:
//
//	core.Register(core.TableDefinition{
//	    Info:   core.TableInfo{Key: "employees", Group: "HR", Label: "Employees"},
//	    Schema: schema.MustParseJSON(employeesSchema),
//	    Archivable: true,
//	})
//
// A definition is turned into [Options] per session with
// [TableDefinition.Options], supplying the session's Resource, Notifier and
// Confirmer.
//
// # Error Handling
//
// Resource failures never escape EditableTable: they are logged and the
// underlying message is handed to [Notifier.Error]. Presentation layers map
// that message to a support code with [MapMessage]:
//
//   - DB001-DB005: database errors (duplicates, connections, timeouts)
//   - REC001-REC004: record errors (missing, archive unsupported, invalid)
//   - ACC001-ACC004: access errors (forbidden, unauthorized, rate limited)
//   - ERR000: anything else
package core
