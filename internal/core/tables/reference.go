package tables

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/core"
	"github.com/JonMunkholm/crudtables/internal/schema"
)

const usStatesSchema = `{
  "properties": {
    "code": {"title": "Code", "type": "string"},
    "name": {"title": "State", "type": "string"}
  },
  "required": ["code", "name"]
}`

// usStates lists US state codes with their display names.
var usStates = [][2]string{
	{"AL", "Alabama"},
	{"AK", "Alaska"},
	{"AZ", "Arizona"},
	{"AR", "Arkansas"},
	{"CA", "California"},
	{"CO", "Colorado"},
	{"CT", "Connecticut"},
	{"DE", "Delaware"},
	{"FL", "Florida"},
	{"GA", "Georgia"},
	{"HI", "Hawaii"},
	{"ID", "Idaho"},
	{"IL", "Illinois"},
	{"IN", "Indiana"},
	{"IA", "Iowa"},
	{"KS", "Kansas"},
	{"KY", "Kentucky"},
	{"LA", "Louisiana"},
	{"ME", "Maine"},
	{"MD", "Maryland"},
	{"MA", "Massachusetts"},
	{"MI", "Michigan"},
	{"MN", "Minnesota"},
	{"MS", "Mississippi"},
	{"MO", "Missouri"},
	{"MT", "Montana"},
	{"NE", "Nebraska"},
	{"NV", "Nevada"},
	{"NH", "New Hampshire"},
	{"NJ", "New Jersey"},
	{"NM", "New Mexico"},
	{"NY", "New York"},
	{"NC", "North Carolina"},
	{"ND", "North Dakota"},
	{"OH", "Ohio"},
	{"OK", "Oklahoma"},
	{"OR", "Oregon"},
	{"PA", "Pennsylvania"},
	{"RI", "Rhode Island"},
	{"SC", "South Carolina"},
	{"SD", "South Dakota"},
	{"TN", "Tennessee"},
	{"TX", "Texas"},
	{"UT", "Utah"},
	{"VT", "Vermont"},
	{"VA", "Virginia"},
	{"WA", "Washington"},
	{"WV", "West Virginia"},
	{"WI", "Wisconsin"},
	{"WY", "Wyoming"},
}

func init() {
	registerUsStates()
}

// registerUsStates adds a read-only reference screen seeded from usStates.
func registerUsStates() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "us_states",
			Group: "Reference",
			Label: "US States",
		},
		Schema:      schema.MustParseJSON(usStatesSchema),
		Access:      access.New(),
		WithActions: core.Bool(false),
		Rows:        usStateRows(),
	})
}

func usStateRows() []core.Record {
	rows := make([]core.Record, len(usStates))
	for i, s := range usStates {
		rows[i] = core.Record{"id": i + 1, "code": s[0], "name": s[1]}
	}
	return rows
}

// NormalizeUsState converts US state names to their 2-letter codes.
// Codes and unrecognized input are returned trimmed, codes upper-cased.
func NormalizeUsState(s string) string {
	s = strings.TrimSpace(s)
	for _, st := range usStates {
		if strings.EqualFold(s, st[1]) || strings.EqualFold(s, st[0]) {
			return st[0]
		}
	}
	return s
}

// UsStateCodes returns every state code, sorted.
func UsStateCodes() []string {
	codes := make([]string, len(usStates))
	for i, st := range usStates {
		codes[i] = st[0]
	}
	sort.Strings(codes)
	return codes
}
