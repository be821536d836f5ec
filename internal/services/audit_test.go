package services

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/praevia/atmp/internal/apperr"
	"github.com/praevia/atmp/internal/models"
)

func TestAuditStart(t *testing.T) {
	db := setupTestDB(t)
	employee := seedUser(t, db, "employee@acme.fr", models.RoleEmployee)
	manager := seedUser(t, db, "sm@acme.fr", models.RoleSafetyManager)
	dossier := seedDossier(t, db, employee, manager)
	svc := NewAuditService(db, zap.NewNop())
	ctx := context.Background()

	audit, err := svc.ByDossier(ctx, manager, dossier.ID)
	if err != nil {
		t.Fatalf("by dossier: %v", err)
	}

	started, err := svc.Start(ctx, manager, audit.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != models.AuditInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", started.Status)
	}
	if started.AuditorID == nil || *started.AuditorID != manager.ID {
		t.Fatalf("expected auditor recorded, got %v", started.AuditorID)
	}
	if started.StartedAt == nil {
		t.Fatalf("expected started_at set")
	}

	var d models.DossierATMP
	db.First(&d, dossier.ID)
	if d.Status != models.DossierAnalyseEnCours {
		t.Fatalf("expected dossier ANALYSE_EN_COURS, got %s", d.Status)
	}

	if _, err := svc.Start(ctx, manager, audit.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on second start, got %v", err)
	}
}

func TestAuditScopedToAssignedManager(t *testing.T) {
	db := setupTestDB(t)
	employee := seedUser(t, db, "employee@acme.fr", models.RoleEmployee)
	manager := seedUser(t, db, "sm@acme.fr", models.RoleSafetyManager)
	other := seedUser(t, db, "sm2@acme.fr", models.RoleSafetyManager)
	dossier := seedDossier(t, db, employee, manager)
	svc := NewAuditService(db, zap.NewNop())

	if _, err := svc.ByDossier(context.Background(), other, dossier.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found for unassigned manager, got %v", err)
	}
}

func TestFinalizeContestCreatesContentieux(t *testing.T) {
	db := setupTestDB(t)
	employee := seedUser(t, db, "employee@acme.fr", models.RoleEmployee)
	manager := seedUser(t, db, "sm@acme.fr", models.RoleSafetyManager)
	dossier := seedDossier(t, db, employee, manager)
	svc := NewAuditService(db, zap.NewNop())
	ctx := context.Background()

	audit, err := svc.ByDossier(ctx, manager, dossier.ID)
	if err != nil {
		t.Fatalf("by dossier: %v", err)
	}
	if _, err := svc.Start(ctx, manager, audit.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := svc.Finalize(ctx, manager, audit.ID, FinalizeInput{
		Decision: string(models.DecisionContest),
		Comments: "Taux d'incapacité contestable",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.Audit.Status != models.AuditCompleted {
		t.Fatalf("expected COMPLETED audit, got %s", result.Audit.Status)
	}
	if result.Audit.Decision == nil || *result.Audit.Decision != models.DecisionContest {
		t.Fatalf("expected CONTEST decision, got %v", result.Audit.Decision)
	}
	if result.Audit.CompletedAt == nil {
		t.Fatalf("expected completed_at set")
	}
	if result.Contentieux == nil {
		t.Fatalf("expected a contentieux in the finalize result")
	}
	if result.Contentieux.Status != models.ContentieuxDraft {
		t.Fatalf("expected DRAFT contentieux, got %s", result.Contentieux.Status)
	}
	if result.Contentieux.DossierID != dossier.ID {
		t.Fatalf("contentieux bound to wrong dossier")
	}

	var d models.DossierATMP
	db.First(&d, dossier.ID)
	if d.Status != models.DossierTransformeEnContentieux {
		t.Fatalf("expected TRANSFORME_EN_CONTENTIEUX, got %s", d.Status)
	}
}

func TestFinalizeWithoutContestClosesDossier(t *testing.T) {
	db := setupTestDB(t)
	employee := seedUser(t, db, "employee@acme.fr", models.RoleEmployee)
	manager := seedUser(t, db, "sm@acme.fr", models.RoleSafetyManager)
	dossier := seedDossier(t, db, employee, manager)
	svc := NewAuditService(db, zap.NewNop())
	ctx := context.Background()

	audit, _ := svc.ByDossier(ctx, manager, dossier.ID)

	result, err := svc.Finalize(ctx, manager, audit.ID, FinalizeInput{
		Decision: string(models.DecisionDoNotContest),
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.Contentieux != nil {
		t.Fatalf("no contentieux expected for DO_NOT_CONTEST")
	}

	var d models.DossierATMP
	db.First(&d, dossier.ID)
	if d.Status != models.DossierClotureSansSuite {
		t.Fatalf("expected CLOTURE_SANS_SUITE, got %s", d.Status)
	}
	var count int64
	db.Model(&models.Contentieux{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no contentieux rows, got %d", count)
	}
}

func TestFinalizeTwiceIsConflict(t *testing.T) {
	db := setupTestDB(t)
	employee := seedUser(t, db, "employee@acme.fr", models.RoleEmployee)
	manager := seedUser(t, db, "sm@acme.fr", models.RoleSafetyManager)
	dossier := seedDossier(t, db, employee, manager)
	svc := NewAuditService(db, zap.NewNop())
	ctx := context.Background()

	audit, _ := svc.ByDossier(ctx, manager, dossier.ID)
	first, err := svc.Finalize(ctx, manager, audit.ID, FinalizeInput{Decision: string(models.DecisionContest)})
	if err != nil {
		t.Fatalf("first finalize: %v", err)
	}

	_, err = svc.Finalize(ctx, manager, audit.ID, FinalizeInput{Decision: string(models.DecisionDoNotContest)})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on second finalize, got %v", err)
	}

	// First outcome is untouched: one contentieux, decision unchanged.
	var count int64
	db.Model(&models.Contentieux{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly 1 contentieux, got %d", count)
	}
	var reloaded models.Audit
	db.First(&reloaded, first.Audit.ID)
	if reloaded.Decision == nil || *reloaded.Decision != models.DecisionContest {
		t.Fatalf("decision must not change after conflict, got %v", reloaded.Decision)
	}
}

func TestFinalizeValidation(t *testing.T) {
	db := setupTestDB(t)
	employee := seedUser(t, db, "employee@acme.fr", models.RoleEmployee)
	manager := seedUser(t, db, "sm@acme.fr", models.RoleSafetyManager)
	other := seedUser(t, db, "sm2@acme.fr", models.RoleSafetyManager)
	dossier := seedDossier(t, db, employee, manager)
	svc := NewAuditService(db, zap.NewNop())
	ctx := context.Background()

	audit, _ := svc.ByDossier(ctx, manager, dossier.ID)

	if _, err := svc.Finalize(ctx, manager, audit.ID, FinalizeInput{}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for missing decision, got %v", err)
	}
	if _, err := svc.Finalize(ctx, manager, audit.ID, FinalizeInput{Decision: "MAYBE"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown decision, got %v", err)
	}
	// Unassigned manager cannot even see the audit.
	if _, err := svc.Finalize(ctx, other, audit.ID, FinalizeInput{Decision: string(models.DecisionContest)}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found for unassigned manager, got %v", err)
	}
	if _, err := svc.Finalize(ctx, employee, audit.ID, FinalizeInput{Decision: string(models.DecisionContest)}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for employee, got %v", err)
	}
}
