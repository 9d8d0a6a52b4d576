// Package message decodes trigger events into audit records.
package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spounge-ai/logshipper/internal/domain"
	app_errors "github.com/spounge-ai/logshipper/internal/errors"
)

// logEntry is the part of a Cloud Audit Log entry that is read.
type logEntry struct {
	Timestamp    json.RawMessage `json:"timestamp"`
	ProtoPayload *struct {
		AuthenticationInfo *struct {
			PrincipalEmail *string `json:"principalEmail"`
		} `json:"authenticationInfo"`
	} `json:"protoPayload"`
}

// Decode extracts the audit record carried by event. An event without
// message data fails with ErrNoData; bad base64 or JSON fails with
// ErrDecodeFailure.
func Decode(event *domain.Event) (domain.AuditRecord, error) {
	if event == nil || event.Data == nil || event.Data.Data == "" {
		return domain.AuditRecord{}, app_errors.ErrNoData
	}

	raw, err := decodeBase64(event.Data.Data)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("%w: %w", app_errors.ErrDecodeFailure, err)
	}

	var entry *logEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("%w: %w", app_errors.ErrDecodeFailure, err)
	}
	if entry == nil {
		return domain.AuditRecord{}, fmt.Errorf("%w: log entry is null", app_errors.ErrDecodeFailure)
	}

	record := domain.AuditRecord{Timestamp: entry.Timestamp}
	if entry.ProtoPayload != nil && entry.ProtoPayload.AuthenticationInfo != nil {
		if email := entry.ProtoPayload.AuthenticationInfo.PrincipalEmail; email != nil {
			record.PrincipalEmail = *email
			record.HasPrincipal = true
		}
	}

	return record, nil
}

// decodeBase64 accepts the standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "-_") {
		return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
