package airtable

import (
	"context"
	"fmt"
	"net/url"
)

// Record is a single row of a table. Fields hold the raw column values as
// returned by the service; column names are the map keys.
type Record struct {
	ID          string         `json:"id,omitempty"`
	Fields      map[string]any `json:"fields"`
	CreatedTime string         `json:"createdTime,omitempty"`
}

type recordList struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// FetchAll returns every record of the table, following offset pagination.
// An empty formula fetches the whole table.
func (c *Client) FetchAll(ctx context.Context, table, formula string) ([]Record, error) {
	base, err := c.tableURL(table)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	if formula != "" {
		q.Set("filterByFormula", formula)
	}

	var records []Record
	for {
		var page recordList
		if err := c.getJSON(ctx, base, q, table, &page); err != nil {
			return nil, err
		}

		records = append(records, page.Records...)

		if page.Offset == "" {
			return records, nil
		}
		q.Set("offset", page.Offset)
	}
}

// FindByField returns records whose field equals value, in service order.
// The first match is the canonical target for upserts.
func (c *Client) FindByField(ctx context.Context, table, field, value string) ([]Record, error) {
	return c.FetchAll(ctx, table, EqualityFormula(field, value))
}

// Get fetches one record by its service-assigned id.
func (c *Client) Get(ctx context.Context, table, recordID string) (*Record, error) {
	base, err := c.tableURL(table)
	if err != nil {
		return nil, err
	}

	var record Record
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s", base, recordID), nil, table, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

// Create inserts a record and returns it with the assigned id.
func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (*Record, error) {
	base, err := c.tableURL(table)
	if err != nil {
		return nil, err
	}

	var record Record
	payload := map[string]any{"fields": fields}
	if err := c.sendJSON(ctx, "POST", base, table, payload, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

// Update patches the given fields of a record, leaving other columns intact.
func (c *Client) Update(ctx context.Context, table, recordID string, fields map[string]any) (*Record, error) {
	base, err := c.tableURL(table)
	if err != nil {
		return nil, err
	}

	var record Record
	payload := map[string]any{"fields": fields}
	if err := c.sendJSON(ctx, "PATCH", fmt.Sprintf("%s/%s", base, recordID), table, payload, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

// Delete removes a record by id.
func (c *Client) Delete(ctx context.Context, table, recordID string) error {
	base, err := c.tableURL(table)
	if err != nil {
		return err
	}

	return c.sendJSON(ctx, "DELETE", fmt.Sprintf("%s/%s", base, recordID), table, nil, nil)
}

// StringField returns the named field as a string, or "" when absent or not
// string-valued.
func (r *Record) StringField(name string) string {
	if r == nil || r.Fields == nil {
		return ""
	}

	switch v := r.Fields[name].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}
