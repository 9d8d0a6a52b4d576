package identity

import (
	"strings"

	"github.com/spounge-ai/logshipper/internal/domain"
)

// PetPrefix marks service accounts whose local part carries the subject id,
// e.g. pet-<subject>@<project>.iam.gserviceaccount.com.
const PetPrefix = "pet-"

// Method records how a subject id was obtained.
type Method string

const (
	MethodPrefix     Method = "prefix"
	MethodLookup     Method = "lookup"
	MethodUnresolved Method = "unresolved"
	MethodDeferred   Method = "deferred"
)

// Resolution is the outcome of resolving the subject of one audit record.
type Resolution struct {
	SubjectID          string
	ManualLookup       bool
	NeedsIdentityTable bool
	Method             Method
}

// Resolve derives the subject id for record. The pet- naming convention is
// tried first and never touches the table. Otherwise the table is consulted;
// if it has not been loaded yet the resolution is deferred with
// NeedsIdentityTable set, and the caller must load it and resolve again.
func Resolve(record domain.AuditRecord, table Table, tableLoaded bool) Resolution {
	res := Resolution{SubjectID: domain.UnknownSubject}

	if record.HasPrincipal && strings.HasPrefix(record.PrincipalEmail, PetPrefix) {
		parts := strings.Split(record.PrincipalEmail, "@")
		if len(parts) == 2 {
			res.SubjectID = strings.TrimPrefix(parts[0], PetPrefix)
			res.Method = MethodPrefix
			return res
		}
	}

	if !tableLoaded {
		res.NeedsIdentityTable = true
		res.Method = MethodDeferred
		return res
	}

	if record.HasPrincipal {
		if subjectID, ok := table.Lookup(record.PrincipalEmail); ok {
			res.SubjectID = subjectID
			res.ManualLookup = true
			res.Method = MethodLookup
			return res
		}
	}

	res.Method = MethodUnresolved
	return res
}
