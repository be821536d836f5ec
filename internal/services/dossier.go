package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/apperr"
	"github.com/praevia/atmp/internal/gate"
	"github.com/praevia/atmp/internal/models"
	"github.com/praevia/atmp/internal/notify"
)

// DossierService owns the incident case lifecycle: composite declaration
// intake, role-scoped reads, and updates.
type DossierService struct {
	db       *gorm.DB
	log      *zap.Logger
	notifier notify.Notifier
	validate *validator.Validate
}

func NewDossierService(db *gorm.DB, log *zap.Logger, notifier notify.Notifier) *DossierService {
	return &DossierService{
		db:       db,
		log:      log,
		notifier: notifier,
		validate: validator.New(),
	}
}

// DeclarationInput is the composite incident declaration: the main dossier
// fields plus the entreprise/salarie/accident sections and optional third
// party and witnesses, validated per section.
type DeclarationInput struct {
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description" validate:"required"`
	DateOfIncident  string `json:"date_of_incident" validate:"required"`
	Location        string `json:"location" validate:"required"`
	SafetyManagerID uint   `json:"safety_manager_id" validate:"required"`

	Entreprise   models.Entreprise `json:"entreprise"`
	Salarie      models.Salarie    `json:"salarie"`
	Accident     models.Accident   `json:"accident"`
	ServiceSante string            `json:"service_sante"`

	Tiers   *TiersInput    `json:"tiers,omitempty"`
	Temoins []TemoinInput  `json:"temoins,omitempty"`
}

type TiersInput struct {
	Nom             string `json:"nom"`
	Adresse         string `json:"adresse"`
	Assurance       string `json:"assurance"`
	Immatriculation string `json:"immatriculation"`
}

type TemoinInput struct {
	Nom         string `json:"nom"`
	Coordonnees string `json:"coordonnees"`
}

func (in *DeclarationInput) sectionErrors() map[string]string {
	fields := map[string]string{}
	if in.Entreprise.Name == "" {
		fields["entreprise.name"] = "required"
	}
	if in.Entreprise.SIRET == "" {
		fields["entreprise.siret"] = "required"
	}
	if in.Entreprise.Address == "" {
		fields["entreprise.address"] = "required"
	}
	if in.Salarie.FirstName == "" {
		fields["salarie.first_name"] = "required"
	}
	if in.Salarie.LastName == "" {
		fields["salarie.last_name"] = "required"
	}
	if in.Salarie.SocialSecurityNumber == "" {
		fields["salarie.social_security_number"] = "required"
	}
	if in.Accident.Date == "" {
		fields["accident.date"] = "required"
	}
	if in.Accident.Time == "" {
		fields["accident.time"] = "required"
	}
	if in.Accident.Description == "" {
		fields["accident.description"] = "required"
	}
	for _, t := range in.Temoins {
		if t.Nom == "" {
			fields["temoins.nom"] = "required"
		}
	}
	return fields
}

// Create validates the declaration, persists the dossier with its audit row
// in one transaction, and dispatches the creation notification after commit.
func (s *DossierService) Create(ctx context.Context, actor *models.User, in DeclarationInput) (*models.DossierATMP, error) {
	if !gate.Allows(actor, gate.ResourceDossier, gate.ActionCreate) {
		return nil, apperr.Forbidden("role may not declare incidents")
	}
	if err := s.validate.Struct(&in); err != nil {
		return nil, apperr.ValidationFields("validation failed", validationFieldMap(err))
	}
	if fields := in.sectionErrors(); len(fields) > 0 {
		return nil, apperr.ValidationFields("validation failed", fields)
	}
	incidentDate, err := time.Parse("2006-01-02", in.DateOfIncident)
	if err != nil {
		return nil, apperr.ValidationFields("validation failed", map[string]string{"date_of_incident": "expected YYYY-MM-DD"})
	}

	var manager models.User
	if err := s.db.Where("id = ? AND role = ?", in.SafetyManagerID, models.RoleSafetyManager).
		First(&manager).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ValidationFields("validation failed", map[string]string{"safety_manager_id": "no such safety manager"})
		}
		return nil, err
	}

	dossier := models.DossierATMP{
		Title:           in.Title,
		Description:     in.Description,
		DateOfIncident:  incidentDate,
		Location:        in.Location,
		Status:          models.DossierAAnalyser,
		SafetyManagerID: manager.ID,
		CreatedByID:     actor.ID,
		Entreprise:      in.Entreprise,
		Salarie:         in.Salarie,
		Accident:        in.Accident,
		ServiceSante:    in.ServiceSante,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dossier).Error; err != nil {
			return err
		}
		if in.Tiers != nil {
			tiers := models.Tiers{
				DossierID:       dossier.ID,
				Nom:             in.Tiers.Nom,
				Adresse:         in.Tiers.Adresse,
				Assurance:       in.Tiers.Assurance,
				Immatriculation: in.Tiers.Immatriculation,
			}
			if err := tx.Create(&tiers).Error; err != nil {
				return err
			}
		}
		for _, t := range in.Temoins {
			temoin := models.Temoin{DossierID: dossier.ID, Nom: t.Nom, Coordonnees: t.Coordonnees}
			if err := tx.Create(&temoin).Error; err != nil {
				return err
			}
		}
		// Every dossier gets its audit row up front, waiting for the
		// safety manager to start the review.
		audit := models.Audit{DossierID: dossier.ID, Status: models.AuditNotStarted}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	ev := notify.DossierCreatedEvent{
		Reference:          dossier.Reference,
		Title:              dossier.Title,
		Description:        dossier.Description,
		Location:           dossier.Location,
		DateOfIncident:     dossier.DateOfIncident,
		CreatedByName:      actor.Name,
		CreatedByEmail:     actor.Email,
		SafetyManagerEmail: manager.Email,
	}
	if err := s.notifier.DossierCreated(ctx, ev); err != nil {
		// Notification failure never fails the declaration.
		s.log.Error("dossier creation notification failed",
			zap.String("reference", dossier.Reference), zap.Error(err))
	}

	return s.Get(ctx, actor, dossier.ID)
}

// scope narrows dossier queries to what the actor may see. Detail reads built
// on this collapse forbidden into not-found.
func (s *DossierService) scope(actor *models.User) (*gorm.DB, error) {
	q := s.db.Model(&models.DossierATMP{})
	switch {
	case actor.IsAdmin():
		return q, nil
	case actor.Role == models.RoleEmployee:
		return q.Where("created_by_id = ?", actor.ID), nil
	case actor.Role == models.RoleSafetyManager:
		return q.Where("safety_manager_id = ?", actor.ID), nil
	default:
		return nil, apperr.Forbidden("role may not access dossiers")
	}
}

func (s *DossierService) List(ctx context.Context, actor *models.User) ([]models.DossierATMP, error) {
	if !gate.Allows(actor, gate.ResourceDossier, gate.ActionList) {
		return nil, apperr.Forbidden("role may not list dossiers")
	}
	q, err := s.scope(actor)
	if err != nil {
		return nil, err
	}
	var dossiers []models.DossierATMP
	err = q.WithContext(ctx).
		Preload("SafetyManager").Preload("CreatedBy").Preload("Audit").
		Order("created_at DESC").
		Find(&dossiers).Error
	if err != nil {
		return nil, err
	}
	return dossiers, nil
}

func (s *DossierService) Get(ctx context.Context, actor *models.User, id uint) (*models.DossierATMP, error) {
	if !gate.Allows(actor, gate.ResourceDossier, gate.ActionView) {
		return nil, apperr.Forbidden("role may not view dossiers")
	}
	q, err := s.scope(actor)
	if err != nil {
		return nil, err
	}
	var dossier models.DossierATMP
	err = q.WithContext(ctx).
		Preload("SafetyManager").Preload("CreatedBy").
		Preload("Audit").Preload("Audit.Auditor").
		Preload("Contentieux").
		Preload("Contentieux.JuridictionSteps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Contentieux.Documents").
		Preload("Temoins").Preload("Tiers").Preload("Documents").
		Where("dossier_atmps.id = ?", id).
		First(&dossier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("dossier not found")
		}
		return nil, err
	}
	return &dossier, nil
}

// UpdateInput carries the mutable dossier fields. Status is never directly
// writable; it only moves through the audit and contentieux workflows.
type UpdateInput struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Location     *string `json:"location,omitempty"`
	ServiceSante *string `json:"service_sante,omitempty"`
}

func (s *DossierService) Update(ctx context.Context, actor *models.User, id uint, in UpdateInput) (*models.DossierATMP, error) {
	dossier, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && dossier.CreatedByID != actor.ID && dossier.SafetyManagerID != actor.ID {
		return nil, apperr.Forbidden("only the creator or assigned safety manager may update")
	}
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.ServiceSante != nil {
		updates["service_sante"] = *in.ServiceSante
	}
	if len(updates) == 0 {
		return dossier, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.DossierATMP{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

func (s *DossierService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("only administrators may delete dossiers")
	}
	res := s.db.WithContext(ctx).Delete(&models.DossierATMP{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("dossier not found")
	}
	return nil
}

// validationFieldMap flattens validator errors into field→reason pairs.
func validationFieldMap(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return fields
}
