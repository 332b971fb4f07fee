package airtable

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spigell/applicant-pipeline/internal/utils"
)

// ErrRecordNotFound marks lookups whose business key matched no record.
// The client maps 404 responses onto it; callers looking up by formula
// return it themselves when a required lookup comes back empty.
var ErrRecordNotFound = errors.New("record not found")

// RequestError is a non-2xx response from the table service.
type RequestError struct {
	Table  string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("airtable table %q: status %d: %s", e.Table, e.Status, utils.TruncateForLog(e.Body, 200))
}

func (e *RequestError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrRecordNotFound
	}
	return nil
}

func newRequestError(table string, status int, body []byte) error {
	return &RequestError{Table: table, Status: status, Body: string(body)}
}
