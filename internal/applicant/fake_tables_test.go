package applicant

import (
	"context"
	"fmt"

	"github.com/spigell/applicant-pipeline/internal/airtable"
)

// fakeTables is an in-memory TableStore used across this package's tests.
type fakeTables struct {
	data   map[string][]airtable.Record
	nextID int

	failOn map[string]error // keyed by "op/table"
}

func newFakeTables() *fakeTables {
	return &fakeTables{
		data:   make(map[string][]airtable.Record),
		failOn: make(map[string]error),
	}
}

func (f *fakeTables) seed(table string, fields map[string]any) string {
	f.nextID++
	id := fmt.Sprintf("rec%03d", f.nextID)
	f.data[table] = append(f.data[table], airtable.Record{ID: id, Fields: fields})
	return id
}

func (f *fakeTables) fail(op, table string, err error) {
	f.failOn[op+"/"+table] = err
}

func (f *fakeTables) check(op, table string) error {
	return f.failOn[op+"/"+table]
}

func (f *fakeTables) FetchAll(_ context.Context, table, formula string) ([]airtable.Record, error) {
	if err := f.check("fetch", table); err != nil {
		return nil, err
	}
	if formula != "" {
		return nil, fmt.Errorf("fake FetchAll does not evaluate formulas: %q", formula)
	}
	return append([]airtable.Record(nil), f.data[table]...), nil
}

func (f *fakeTables) FindByField(_ context.Context, table, field, value string) ([]airtable.Record, error) {
	if err := f.check("find", table); err != nil {
		return nil, err
	}

	var matches []airtable.Record
	for _, record := range f.data[table] {
		if record.StringField(field) == value || linkContains(record.Fields[field], value) {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (f *fakeTables) Create(_ context.Context, table string, fields map[string]any) (*airtable.Record, error) {
	if err := f.check("create", table); err != nil {
		return nil, err
	}

	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	f.seed(table, copied)
	record := f.data[table][len(f.data[table])-1]
	return &record, nil
}

func (f *fakeTables) Update(_ context.Context, table, recordID string, fields map[string]any) (*airtable.Record, error) {
	if err := f.check("update", table); err != nil {
		return nil, err
	}

	for i := range f.data[table] {
		if f.data[table][i].ID != recordID {
			continue
		}
		if f.data[table][i].Fields == nil {
			f.data[table][i].Fields = make(map[string]any)
		}
		for k, v := range fields {
			f.data[table][i].Fields[k] = v
		}
		record := f.data[table][i]
		return &record, nil
	}

	return nil, &airtable.RequestError{Table: table, Status: 404, Body: "record not found"}
}

func (f *fakeTables) Delete(_ context.Context, table, recordID string) error {
	if err := f.check("delete", table); err != nil {
		return err
	}

	rows := f.data[table]
	for i := range rows {
		if rows[i].ID == recordID {
			f.data[table] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}

	return &airtable.RequestError{Table: table, Status: 404, Body: "record not found"}
}
