package domain

import "encoding/json"

// UnknownSubject is the subject id used when no identity can be resolved.
const UnknownSubject = "unknown"

// AuditRecord is the decoded part of a Cloud Audit Log entry the relay cares about.
type AuditRecord struct {
	Timestamp      json.RawMessage
	PrincipalEmail string
	HasPrincipal   bool
}

// LogPayload is the flat document shipped to the log ingestion API.
// Resource and method names are left out on purpose to keep log volume down.
// Fields absent from the audit entry are omitted; present ones, including
// null or empty values, are forwarded as they are.
type LogPayload struct {
	Timestamp      json.RawMessage `json:"timestamp,omitempty"`
	PrincipalEmail *string         `json:"principalEmail,omitempty"`
	SubjectID      string          `json:"subjectId"`
	ManualLookup   bool            `json:"manualLookup"`
}

// NewLogPayload builds the payload for record with its resolved subject.
func NewLogPayload(record AuditRecord, subjectID string, manualLookup bool) LogPayload {
	payload := LogPayload{
		Timestamp:    record.Timestamp,
		SubjectID:    subjectID,
		ManualLookup: manualLookup,
	}
	if record.HasPrincipal {
		email := record.PrincipalEmail
		payload.PrincipalEmail = &email
	}
	return payload
}
