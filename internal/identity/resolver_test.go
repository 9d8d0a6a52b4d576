package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spounge-ai/logshipper/internal/domain"
	"github.com/spounge-ai/logshipper/internal/identity"
)

func principal(email string) domain.AuditRecord {
	return domain.AuditRecord{PrincipalEmail: email, HasPrincipal: true}
}

func TestResolve(t *testing.T) {
	table := identity.Table{
		"alice@example.org":                       "subject-alice",
		"pet-abc@a@b.com":                         "subject-odd",
		"pet-xyz@project.iam.gserviceaccount.com": "subject-should-not-be-used",
	}

	tests := []struct {
		name        string
		record      domain.AuditRecord
		table       identity.Table
		loaded      bool
		wantSubject string
		wantManual  bool
		wantNeeds   bool
		wantMethod  identity.Method
	}{
		{
			name:        "pet prefix without table",
			record:      principal("pet-abc123@project.iam.gserviceaccount.com"),
			wantSubject: "abc123",
			wantMethod:  identity.MethodPrefix,
		},
		{
			name:        "pet prefix wins over table entry",
			record:      principal("pet-xyz@project.iam.gserviceaccount.com"),
			table:       table,
			loaded:      true,
			wantSubject: "xyz",
			wantMethod:  identity.MethodPrefix,
		},
		{
			name:        "pet prefix with two at signs falls back to table",
			record:      principal("pet-abc@a@b.com"),
			table:       table,
			loaded:      true,
			wantSubject: "subject-odd",
			wantManual:  true,
			wantMethod:  identity.MethodLookup,
		},
		{
			name:        "pet prefix with empty local part",
			record:      principal("pet-@x.com"),
			wantSubject: "",
			wantMethod:  identity.MethodPrefix,
		},
		{
			name:        "pet prefix without at sign needs table",
			record:      principal("pet-abc"),
			wantSubject: domain.UnknownSubject,
			wantNeeds:   true,
			wantMethod:  identity.MethodDeferred,
		},
		{
			name:        "table not loaded",
			record:      principal("alice@example.org"),
			wantSubject: domain.UnknownSubject,
			wantNeeds:   true,
			wantMethod:  identity.MethodDeferred,
		},
		{
			name:        "table hit",
			record:      principal("alice@example.org"),
			table:       table,
			loaded:      true,
			wantSubject: "subject-alice",
			wantManual:  true,
			wantMethod:  identity.MethodLookup,
		},
		{
			name:        "lookup is verbatim",
			record:      principal("Alice@example.org"),
			table:       table,
			loaded:      true,
			wantSubject: domain.UnknownSubject,
			wantMethod:  identity.MethodUnresolved,
		},
		{
			name:        "table miss",
			record:      principal("bob@example.org"),
			table:       table,
			loaded:      true,
			wantSubject: domain.UnknownSubject,
			wantMethod:  identity.MethodUnresolved,
		},
		{
			name:        "absent principal with loaded table",
			record:      domain.AuditRecord{},
			table:       identity.Table{"": "empty"},
			loaded:      true,
			wantSubject: domain.UnknownSubject,
			wantMethod:  identity.MethodUnresolved,
		},
		{
			name:        "absent principal needs table",
			record:      domain.AuditRecord{},
			wantSubject: domain.UnknownSubject,
			wantNeeds:   true,
			wantMethod:  identity.MethodDeferred,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := identity.Resolve(tt.record, tt.table, tt.loaded)
			assert.Equal(t, tt.wantSubject, res.SubjectID)
			assert.Equal(t, tt.wantManual, res.ManualLookup)
			assert.Equal(t, tt.wantNeeds, res.NeedsIdentityTable)
			assert.Equal(t, tt.wantMethod, res.Method)
		})
	}
}
