package tables

import (
	"net/url"

	"github.com/JonMunkholm/crudtables/internal/core"
	"github.com/JonMunkholm/crudtables/internal/form"
	"github.com/JonMunkholm/crudtables/internal/schema"
)

const departmentsSchema = `{
  "properties": {
    "name":     {"title": "Name", "type": "string"},
    "code":     {"title": "Code", "type": "string"},
    "budget":   {"title": "Budget", "type": "number"},
    "founded":  {"title": "Founded", "type": "string", "format": "date"}
  },
  "required": ["name", "code"]
}`

const employeesSchema = `{
  "properties": {
    "name":       {"title": "Name", "type": "string"},
    "email":      {"title": "Email", "type": "string"},
    "department": {"title": "Department", "type": "string"},
    "state":      {"title": "State", "type": "string"},
    "salary":     {"title": "Salary", "type": "number"},
    "grade":      {"title": "Grade", "type": "integer"},
    "hired":      {"title": "Hired", "type": "string", "format": "date"},
    "remote":     {"title": "Remote", "type": "boolean"}
  },
  "required": ["name", "email"]
}`

func init() {
	registerDepartments()
	registerEmployees()
}

func registerDepartments() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "departments",
			Group: "HR",
			Label: "Departments",
		},
		Schema: schema.MustParseJSON(departmentsSchema),
		Seed: []core.Record{
			{"name": "Engineering", "code": "ENG", "budget": 1250000, "founded": "2014-03-01"},
			{"name": "Finance", "code": "FIN", "budget": 420000, "founded": "2012-09-15"},
			{"name": "People", "code": "PPL", "budget": 310000, "founded": "2016-01-04"},
		},
	})
}

func registerEmployees() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   "employees",
			Group: "HR",
			Label: "Employees",
		},
		Schema:     schema.MustParseJSON(employeesSchema),
		Archivable: true,
		FormEngine: stateNormalizer{form.New()},
		Seed: []core.Record{
			{"name": "Ada Lovelace", "email": "ada@example.com", "department": "Engineering", "state": "NY", "salary": 145000, "grade": 7, "hired": "2019-05-13", "remote": true},
			{"name": "Grace Hopper", "email": "grace@example.com", "department": "Engineering", "state": "VA", "salary": 152000, "grade": 8, "hired": "2017-11-02", "remote": false},
			{"name": "Luca Pacioli", "email": "luca@example.com", "department": "Finance", "state": "MA", "salary": 98000, "grade": 5, "hired": "2021-02-22", "remote": true},
			{"name": "Frances Perkins", "email": "frances@example.com", "department": "People", "state": "IL", "salary": 87000, "grade": 4, "hired": "2015-07-30", "remote": false, core.DefaultArchivedField: true},
		},
	})
}

// stateNormalizer rewrites the "state" field to its 2-letter code after
// validation.
type stateNormalizer struct {
	core.FormEngine
}

func (e stateNormalizer) Validate(s schema.FieldSchema, values url.Values, base map[string]any) (map[string]any, error) {
	model, err := e.FormEngine.Validate(s, values, base)
	if err != nil {
		return nil, err
	}
	if st, ok := model["state"].(string); ok {
		model["state"] = NormalizeUsState(st)
	}
	return model, nil
}
