package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/apperr"
	"github.com/praevia/atmp/internal/gate"
	"github.com/praevia/atmp/internal/models"
)

// ContentieuxService manages litigation records: the direct creation path,
// jurist reads, status progression, and jurisdiction steps.
type ContentieuxService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewContentieuxService(db *gorm.DB, log *zap.Logger) *ContentieuxService {
	return &ContentieuxService{db: db, log: log}
}

type SubjectInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type StepInput struct {
	Juridiction string     `json:"juridiction"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Decision    string     `json:"decision,omitempty"`
	DecisionAt  *time.Time `json:"decision_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type CreateContentieuxInput struct {
	DossierID uint         `json:"dossier_id"`
	Subject   SubjectInput `json:"subject"`
	Steps     []StepInput  `json:"juridiction_steps"`
}

func validateSteps(steps []StepInput) error {
	fields := map[string]string{}
	for _, st := range steps {
		if !models.JuridictionType(st.Juridiction).Valid() {
			fields["juridiction_steps.juridiction"] = "unknown juridiction"
		}
		if st.SubmittedAt.IsZero() {
			fields["juridiction_steps.submitted_at"] = "required"
		}
	}
	if len(fields) > 0 {
		return apperr.ValidationFields("validation failed", fields)
	}
	return nil
}

// buildSteps renumbers the incoming steps positionally, 1..n in submission
// order. Client-supplied identifiers never survive a save.
func buildSteps(contentieuxID uint, steps []StepInput) []models.JuridictionStep {
	out := make([]models.JuridictionStep, 0, len(steps))
	for i, st := range steps {
		out = append(out, models.JuridictionStep{
			ContentieuxID: contentieuxID,
			Position:      i + 1,
			Juridiction:   models.JuridictionType(st.Juridiction),
			SubmittedAt:   st.SubmittedAt,
			Decision:      st.Decision,
			DecisionAt:    st.DecisionAt,
			Notes:         st.Notes,
		})
	}
	return out
}

// Create opens a contentieux for a dossier that has none yet and marks the
// dossier transformed. A second creation attempt is a conflict and leaves the
// original untouched.
func (s *ContentieuxService) Create(ctx context.Context, actor *models.User, in CreateContentieuxInput) (*models.Contentieux, error) {
	if !gate.Allows(actor, gate.ResourceContentieux, gate.ActionCreate) {
		return nil, apperr.Forbidden("role may not create contentieux")
	}
	if in.DossierID == 0 {
		return nil, apperr.ValidationFields("validation failed", map[string]string{"dossier_id": "required"})
	}
	if in.Subject.Title == "" {
		return nil, apperr.ValidationFields("validation failed", map[string]string{"subject.title": "required"})
	}
	if err := validateSteps(in.Steps); err != nil {
		return nil, err
	}

	var dossier models.DossierATMP
	if err := s.db.WithContext(ctx).First(&dossier, in.DossierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("dossier not found")
		}
		return nil, err
	}

	contentieux := models.Contentieux{
		DossierID: dossier.ID,
		Status:    models.ContentieuxDraft,
		Subject:   models.Subject(in.Subject),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Contentieux{}).
			Where("dossier_id = ?", dossier.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("contentieux already exists for this dossier")
		}
		if err := tx.Create(&contentieux).Error; err != nil {
			return err
		}
		if steps := buildSteps(contentieux.ID, in.Steps); len(steps) > 0 {
			if err := tx.Create(&steps).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.DossierATMP{}).
			Where("id = ?", dossier.ID).
			Update("status", models.DossierTransformeEnContentieux).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, contentieux.ID)
}

func (s *ContentieuxService) List(ctx context.Context, actor *models.User) ([]models.Contentieux, error) {
	if !gate.Allows(actor, gate.ResourceContentieux, gate.ActionList) {
		return nil, apperr.Forbidden("role may not list contentieux")
	}
	var list []models.Contentieux
	err := s.db.WithContext(ctx).
		Preload("JuridictionSteps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Documents").Preload("Actions").
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ContentieuxService) Get(ctx context.Context, actor *models.User, id uint) (*models.Contentieux, error) {
	if !gate.Allows(actor, gate.ResourceContentieux, gate.ActionView) {
		return nil, apperr.Forbidden("role may not view contentieux")
	}
	var contentieux models.Contentieux
	err := s.db.WithContext(ctx).
		Preload("JuridictionSteps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Documents").Preload("Actions").
		First(&contentieux, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("contentieux not found")
		}
		return nil, err
	}
	return &contentieux, nil
}

type UpdateContentieuxInput struct {
	Status  *string       `json:"status,omitempty"`
	Subject *SubjectInput `json:"subject,omitempty"`
	Steps   *[]StepInput  `json:"juridiction_steps,omitempty"`
}

// statusRank orders the contentieux lifecycle; transitions only move forward.
var statusRank = map[models.ContentieuxStatus]int{
	models.ContentieuxDraft:   0,
	models.ContentieuxEnCours: 1,
	models.ContentieuxCloture: 2,
}

// Update applies status/subject changes and replaces the jurisdiction-step
// list wholesale, renumbered positionally. The reference is immutable.
func (s *ContentieuxService) Update(ctx context.Context, actor *models.User, id uint, in UpdateContentieuxInput) (*models.Contentieux, error) {
	if !gate.Allows(actor, gate.ResourceContentieux, gate.ActionUpdate) {
		return nil, apperr.Forbidden("role may not update contentieux")
	}
	contentieux, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Status != nil {
		next := models.ContentieuxStatus(*in.Status)
		nextRank, ok := statusRank[next]
		if !ok {
			return nil, apperr.ValidationFields("validation failed", map[string]string{"status": "unknown status"})
		}
		if nextRank < statusRank[contentieux.Status] {
			return nil, apperr.Conflict("contentieux status cannot move backwards")
		}
		updates["status"] = next
	}
	if in.Subject != nil {
		if in.Subject.Title == "" {
			return nil, apperr.ValidationFields("validation failed", map[string]string{"subject.title": "required"})
		}
	}
	if in.Steps != nil {
		if err := validateSteps(*in.Steps); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Contentieux{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if in.Subject != nil {
			if err := tx.Model(&models.Contentieux{ID: id}).
				Update("subject", models.Subject(*in.Subject)).Error; err != nil {
				return err
			}
		}
		if in.Steps != nil {
			if err := tx.Where("contentieux_id = ?", id).Delete(&models.JuridictionStep{}).Error; err != nil {
				return err
			}
			if steps := buildSteps(id, *in.Steps); len(steps) > 0 {
				if err := tx.Create(&steps).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// AddAction attaches a named follow-up action to the contentieux.
func (s *ContentieuxService) AddAction(ctx context.Context, actor *models.User, id uint, name, description string) (*models.Contentieux, error) {
	if !gate.Allows(actor, gate.ResourceContentieux, gate.ActionUpdate) {
		return nil, apperr.Forbidden("role may not update contentieux")
	}
	if name == "" {
		return nil, apperr.ValidationFields("validation failed", map[string]string{"name": "required"})
	}
	contentieux, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	action := models.Action{Name: name, Description: description}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&action).Error; err != nil {
			return err
		}
		return tx.Model(contentieux).Association("Actions").Append(&action)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}
