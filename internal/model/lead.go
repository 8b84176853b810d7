// Package model holds the shared domain types of the lead pipeline.
package model

import (
	"strings"
	"time"
)

// Canonical crm.lead field names the pipeline treats specially.
const (
	FieldName       = "name"
	FieldEmail      = "email_from"
	FieldCampaign   = "campaign_id"
	FieldMedium     = "medium_id"
	FieldSource     = "source_id"
	FieldCountry    = "country_id"
	FieldState      = "state_id"
	FieldProduct    = "x_product_id"
	FieldBadProduct = "x_bad_product_name"
	FieldEmailSent  = "x_email_sent"
	FieldOwner      = "user_id"
	FieldStage      = "stage_id"
	FieldTeam       = "team_id"
	FieldType       = "type"
)

// Row is one lead row after header mapping: canonical field name → raw value.
type Row map[string]string

// Get returns the trimmed value for a field, "" if absent.
func (r Row) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Complete reports whether every mapped field carries a non-empty value.
func (r Row) Complete(fields []string) bool {
	for _, f := range fields {
		if r.Get(f) == "" {
			return false
		}
	}
	return true
}

// MappedHeader pairs a raw CSV header with its canonical field name.
type MappedHeader struct {
	Raw       string
	Canonical string
}

// ColumnMapping is the raw→canonical header mapping in CSV column order.
type ColumnMapping struct {
	Headers []MappedHeader
}

// Canonicals returns the canonical field names in CSV column order.
// Columns without a canonical name are omitted.
func (m ColumnMapping) Canonicals() []string {
	out := make([]string, 0, len(m.Headers))
	for _, h := range m.Headers {
		if h.Canonical == "" {
			continue
		}
		out = append(out, h.Canonical)
	}
	return out
}

// Product is one catalogue entry.
type Product struct {
	ID   int64
	Name string
}

// Template is a mail template resolved at startup.
type Template struct {
	ID        int64
	Name      string
	EmailFrom string
}

// Defaults are the pipeline-owned values stamped on every imported lead.
// A zero id means the lookup failed and the field is omitted.
type Defaults struct {
	StageID int64
	TeamID  int64
}

// RunKind identifies which command produced a ledger entry.
type RunKind string

const (
	RunKindImport   RunKind = "import"
	RunKindAssign   RunKind = "assign"
	RunKindNotify   RunKind = "notify"
	RunKindAutomate RunKind = "automate"
)

// Run is one run-ledger entry.
type Run struct {
	ID         string    `json:"id"`
	Kind       RunKind   `json:"kind"`
	SourceFile string    `json:"source_file,omitempty"`
	Accepted   int       `json:"accepted"`
	Rejected   int       `json:"rejected"`
	Imported   int       `json:"imported"`
	Assigned   int       `json:"assigned"`
	Notified   int       `json:"notified"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
