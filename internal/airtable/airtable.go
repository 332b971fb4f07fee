package airtable

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.airtable.com/v0"
	userAgent = "applicant-pipeline (github.com/spigell/applicant-pipeline)"
)

// Logical table keys resolved through the configured table map.
const (
	TableApplicants  = "applicants"
	TablePersonal    = "personal"
	TableWork        = "work"
	TableSalary      = "salary"
	TableShortlisted = "shortlisted"
)

// Client talks to the Airtable REST API for a single base. All calls are
// blocking and never retried at this layer.
type Client struct {
	token  string
	baseID string
	tables map[string]string
	logger *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, token, baseID string, tables map[string]string) *Client {
	return &Client{
		token:  token,
		baseID: baseID,
		tables: tables,
		logger: logger,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
	}
}

// tableURL resolves a logical table key to its request URL.
func (c *Client) tableURL(table string) (string, error) {
	name, ok := c.tables[table]
	if !ok || strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("table %q is not configured", table)
	}

	return fmt.Sprintf("%s/%s/%s", c.APIURL, c.baseID, name), nil
}

// EqualityFormula builds a record-matching formula comparing a single field
// against a string value. Quotes inside the value are escaped.
func EqualityFormula(field, value string) string {
	value = strings.ReplaceAll(value, `'`, `\'`)
	return fmt.Sprintf("{%s}='%s'", field, value)
}
