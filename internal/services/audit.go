package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/apperr"
	"github.com/praevia/atmp/internal/gate"
	"github.com/praevia/atmp/internal/models"
)

// AuditService drives the review workflow: start, lookup, and the
// finalize transition that may spawn a contentieux.
type AuditService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAuditService(db *gorm.DB, log *zap.Logger) *AuditService {
	return &AuditService{db: db, log: log}
}

// load fetches the audit with its dossier, scoped to the actor: safety
// managers only reach audits on dossiers assigned to them.
func (s *AuditService) load(ctx context.Context, actor *models.User, where string, arg any) (*models.Audit, error) {
	q := s.db.WithContext(ctx).Preload("Dossier").Preload("Auditor")
	if !actor.IsAdmin() {
		q = q.Joins("JOIN dossier_atmps ON dossier_atmps.id = audits.dossier_id").
			Where("dossier_atmps.safety_manager_id = ?", actor.ID)
	}
	var audit models.Audit
	if err := q.Where(where, arg).First(&audit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("audit not found")
		}
		return nil, err
	}
	return &audit, nil
}

// ByDossier returns the audit attached to a dossier.
func (s *AuditService) ByDossier(ctx context.Context, actor *models.User, dossierID uint) (*models.Audit, error) {
	if !gate.Allows(actor, gate.ResourceAudit, gate.ActionView) {
		return nil, apperr.Forbidden("role may not view audits")
	}
	return s.load(ctx, actor, "audits.dossier_id = ?", dossierID)
}

// Start moves a NOT_STARTED audit into IN_PROGRESS, records the auditor, and
// advances the dossier out of A_ANALYSER. Starting twice is a conflict.
func (s *AuditService) Start(ctx context.Context, actor *models.User, auditID uint) (*models.Audit, error) {
	if !gate.Allows(actor, gate.ResourceAudit, gate.ActionStart) {
		return nil, apperr.Forbidden("role may not start audits")
	}
	audit, err := s.load(ctx, actor, "audits.id = ?", auditID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Audit{}).
			Where("id = ? AND status = ?", audit.ID, models.AuditNotStarted).
			Updates(map[string]any{
				"status":     models.AuditInProgress,
				"started_at": now,
				"auditor_id": actor.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("audit already started")
		}
		return tx.Model(&models.DossierATMP{}).
			Where("id = ? AND status = ?", audit.DossierID, models.DossierAAnalyser).
			Update("status", models.DossierAnalyseEnCours).Error
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, actor, "audits.id = ?", auditID)
}

type FinalizeInput struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

// FinalizeResult is the finalize response: the completed audit and, for a
// CONTEST decision, the contentieux it created.
type FinalizeResult struct {
	Audit       *models.Audit       `json:"audit"`
	Contentieux *models.Contentieux `json:"contentieux,omitempty"`
}

// Finalize completes the audit and advances the dossier, all in a single
// transaction. The completed check is re-run inside the transaction so a
// concurrent second caller deterministically gets a conflict instead of a
// duplicate contentieux.
func (s *AuditService) Finalize(ctx context.Context, actor *models.User, auditID uint, in FinalizeInput) (*FinalizeResult, error) {
	if !gate.Allows(actor, gate.ResourceAudit, gate.ActionFinalize) {
		return nil, apperr.Forbidden("role may not finalize audits")
	}
	if in.Decision == "" {
		return nil, apperr.Validation("decision is required")
	}
	decision := models.AuditDecision(in.Decision)
	if !decision.Valid() {
		return nil, apperr.Validation("invalid decision")
	}

	audit, err := s.load(ctx, actor, "audits.id = ?", auditID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && audit.Dossier.SafetyManagerID != actor.ID {
		return nil, apperr.Forbidden("only the assigned safety manager may finalize")
	}
	if audit.Status == models.AuditCompleted {
		return nil, apperr.Conflict("audit already completed")
	}

	comments := in.Comments
	if comments == "" {
		comments = audit.Comments
	}

	var created *models.Contentieux
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Audit{}).
			Where("id = ? AND status <> ?", audit.ID, models.AuditCompleted).
			Updates(map[string]any{
				"status":       models.AuditCompleted,
				"decision":     decision,
				"comments":     comments,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("audit already completed")
		}

		if decision == models.DecisionContest {
			if err := tx.Model(&models.DossierATMP{}).
				Where("id = ?", audit.DossierID).
				Update("status", models.DossierContestationRecommandee).Error; err != nil {
				return err
			}
			contentieux := models.Contentieux{
				DossierID: audit.DossierID,
				Status:    models.ContentieuxDraft,
				Subject: models.Subject{
					Title:       fmt.Sprintf("Contestation %s", audit.Dossier.Reference),
					Description: fmt.Sprintf("Contentieux créé suite à l'audit du dossier %s", audit.Dossier.Reference),
				},
			}
			if err := tx.Create(&contentieux).Error; err != nil {
				return err
			}
			created = &contentieux
			return tx.Model(&models.DossierATMP{}).
				Where("id = ?", audit.DossierID).
				Update("status", models.DossierTransformeEnContentieux).Error
		}
		return tx.Model(&models.DossierATMP{}).
			Where("id = ?", audit.DossierID).
			Update("status", models.DossierClotureSansSuite).Error
	})
	if err != nil {
		return nil, err
	}

	audit, err = s.load(ctx, actor, "audits.id = ?", auditID)
	if err != nil {
		return nil, err
	}
	s.log.Info("audit finalized",
		zap.Uint("audit_id", audit.ID),
		zap.String("decision", string(decision)),
		zap.Bool("contentieux_created", created != nil),
	)
	return &FinalizeResult{Audit: audit, Contentieux: created}, nil
}
