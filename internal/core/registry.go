package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/schema"
)

// TableInfo identifies a registered screen.
type TableInfo struct {
	Key   string // URL segment, e.g. "employees"
	Group string // dashboard section
	Label string // display name
}

// TableDefinition describes a CRUD screen. Collaborators that belong to a
// user session (Notifier, Confirmer, Resource) are supplied when the
// definition is turned into Options.
type TableDefinition struct {
	Info   TableInfo
	Schema schema.FieldSchema

	// Resource names the backend resource; defaults to Info.Key.
	Resource string

	// Access limits what the screen allows. Nil leaves the decision to the
	// caller's granted set.
	Access access.Set

	WithID        *bool
	WithActions   *bool
	Archivable    bool
	ArchivedField string
	Rows          []Record

	// FormEngine overrides the default form engine for this screen.
	FormEngine FormEngine

	// Seed holds demo records written to an empty resource on request.
	Seed []Record
}

// ResourceName returns the backend resource the definition reads from.
func (d TableDefinition) ResourceName() string {
	if d.Resource != "" {
		return d.Resource
	}
	return d.Info.Key
}

// Title is the heading shown above the table.
func (d TableDefinition) Title() string {
	if d.Info.Label != "" {
		return d.Info.Label
	}
	return d.Info.Key
}

// Options builds EditableTable options for one session. granted is the
// caller's capability set; it is narrowed by the definition's own Access.
func (d TableDefinition) Options(res Resource, n Notifier, c Confirmer, granted access.Set) Options {
	set := granted
	if set == nil {
		set = access.Default()
	}
	if d.Access != nil {
		set = set.Intersect(d.Access)
	}

	return Options{
		Schema:        d.Schema,
		Resource:      res,
		Notifier:      n,
		Confirmer:     c,
		Access:        set,
		WithID:        d.WithID,
		WithActions:   d.WithActions,
		Title:         d.Title(),
		Archivable:    d.Archivable,
		ArchivedField: d.ArchivedField,
		Rows:          cloneRecords(d.Rows),
		FormEngine:    d.FormEngine,
	}
}

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if the key is taken or the schema is invalid.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}
	if err := def.Schema.Validate(); err != nil {
		panic(fmt.Sprintf("table %s: %v", def.Info.Key, err))
	}

	registry[def.Info.Key] = def
}

// Get returns a table definition by key.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get returning ErrUnknownTable for missing keys.
func Lookup(key string) (TableDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return TableDefinition{}, fmt.Errorf("%w: %s", ErrUnknownTable, key)
	}
	return def, nil
}

// All returns all registered table definitions, sorted by group then key.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns the definitions of one group, sorted by key.
func ByGroup(group string) []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []TableDefinition
	for _, def := range registry {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Groups returns all unique group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}
