package models

import (
	"regexp"
	"strings"
	"testing"
)

func TestNewReferenceFormat(t *testing.T) {
	re := regexp.MustCompile(`^ATMP-\d{8}-[0-9A-F]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref := newReference("ATMP")
		if !re.MatchString(ref) {
			t.Fatalf("bad reference %q", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
	if !strings.HasPrefix(newReference("CTX"), "CTX-") {
		t.Fatalf("prefix not applied")
	}
}

func TestUserRoleValid(t *testing.T) {
	for _, r := range Roles {
		if !r.Valid() {
			t.Fatalf("role %s should be valid", r)
		}
	}
	if UserRole("INTERN").Valid() {
		t.Fatalf("unknown role accepted")
	}
}

func TestIsAdmin(t *testing.T) {
	if !(&User{Role: RoleAdmin}).IsAdmin() {
		t.Fatalf("ADMIN role is admin")
	}
	if !(&User{Role: RoleEmployee, IsSuperuser: true}).IsAdmin() {
		t.Fatalf("superuser flag is admin")
	}
	if (&User{Role: RoleJuriste}).IsAdmin() {
		t.Fatalf("juriste is not admin")
	}
}

func TestEnumValidity(t *testing.T) {
	if !DecisionContest.Valid() || AuditDecision("MAYBE").Valid() {
		t.Fatalf("audit decision validity broken")
	}
	if !TribunalJudiciaire.Valid() || JuridictionType("CONSEIL_ETAT").Valid() {
		t.Fatalf("juridiction validity broken")
	}
	if !DocCertificatMedical.Valid() || DocumentType("SELFIE").Valid() {
		t.Fatalf("document type validity broken")
	}
}

func TestFrenchTableNames(t *testing.T) {
	if (Contentieux{}).TableName() != "contentieux" {
		t.Fatalf("contentieux table name mangled")
	}
	if (Tiers{}).TableName() != "tiers" {
		t.Fatalf("tiers table name mangled")
	}
}
