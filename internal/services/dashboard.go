package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/apperr"
	"github.com/praevia/atmp/internal/gate"
	"github.com/praevia/atmp/internal/models"
)

// estimatedRiskPerCase is the flat per-dossier financial exposure used by the
// direction dashboard.
const estimatedRiskPerCase = 5000

// DashboardService computes the read-only role-scoped aggregates.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DecisionCount struct {
	Decision string `json:"decision"`
	Count    int64  `json:"count"`
}

type RecentContentieux struct {
	ID        uint   `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Juridique aggregates contentieux data for the jurist dashboard.
func (s *DashboardService) Juridique(ctx context.Context, actor *models.User) (map[string]any, error) {
	if !gate.Allows(actor, gate.ResourceDashboardJuridique, gate.ActionView) {
		return nil, apperr.Forbidden("jurist dashboard requires the JURISTE role")
	}
	q := s.db.WithContext(ctx)

	var total, pending int64
	if err := q.Model(&models.Contentieux{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Contentieux{}).
		Where("status = ?", models.ContentieuxEnCours).Count(&pending).Error; err != nil {
		return nil, err
	}
	var byStatus []StatusCount
	if err := q.Model(&models.Contentieux{}).
		Select("status, COUNT(id) AS count").Group("status").Order("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	var recent []RecentContentieux
	if err := q.Model(&models.Contentieux{}).
		Select("id, reference, status").Order("created_at DESC").Limit(5).
		Scan(&recent).Error; err != nil {
		return nil, err
	}

	return map[string]any{
		"totalContentieux":    total,
		"pendingContentieux":  pending,
		"contentieuxByStatus": byStatus,
		"recentContentieux":   recent,
	}, nil
}

// RH aggregates dossier intake data for the HR dashboard.
func (s *DashboardService) RH(ctx context.Context, actor *models.User) (map[string]any, error) {
	if !gate.Allows(actor, gate.ResourceDashboardRH, gate.ActionView) {
		return nil, apperr.Forbidden("RH dashboard requires the RH role")
	}
	q := s.db.WithContext(ctx)

	var total, toAnalyze, byEmployee int64
	if err := q.Model(&models.DossierATMP{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.DossierATMP{}).
		Where("status = ?", models.DossierAAnalyser).Count(&toAnalyze).Error; err != nil {
		return nil, err
	}
	var byStatus []StatusCount
	if err := q.Model(&models.DossierATMP{}).
		Select("status, COUNT(id) AS count").Group("status").Order("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.DossierATMP{}).
		Joins("JOIN users ON users.id = dossier_atmps.created_by_id").
		Where("users.role = ?", models.RoleEmployee).
		Count(&byEmployee).Error; err != nil {
		return nil, err
	}

	return map[string]any{
		"totalDossiers":              total,
		"incidentsAAnalyser":         toAnalyze,
		"incidentsByStatus":          byStatus,
		"incidentsCreatedByEmployee": byEmployee,
	}, nil
}

// QSE aggregates audit progress for the QSE dashboard.
func (s *DashboardService) QSE(ctx context.Context, actor *models.User) (map[string]any, error) {
	if !gate.Allows(actor, gate.ResourceDashboardQSE, gate.ActionView) {
		return nil, apperr.Forbidden("QSE dashboard requires the QSE role")
	}
	q := s.db.WithContext(ctx)

	var total, completed, inProgress, contested int64
	if err := q.Model(&models.DossierATMP{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Audit{}).
		Where("status = ?", models.AuditCompleted).Count(&completed).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Audit{}).
		Where("status = ?", models.AuditInProgress).Count(&inProgress).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Audit{}).
		Where("decision = ?", models.DecisionContest).Count(&contested).Error; err != nil {
		return nil, err
	}

	return map[string]any{
		"totalDossiers":               total,
		"auditsCompleted":             completed,
		"auditsInProgress":            inProgress,
		"dossiersContestedRecommended": contested,
	}, nil
}

// Direction aggregates the executive overview, including the flat risk
// estimate over open dossiers.
func (s *DashboardService) Direction(ctx context.Context, actor *models.User) (map[string]any, error) {
	if !gate.Allows(actor, gate.ResourceDashboardDirection, gate.ActionView) {
		return nil, apperr.Forbidden("direction dashboard requires the DIRECTION role")
	}
	q := s.db.WithContext(ctx)

	var total, open int64
	if err := q.Model(&models.DossierATMP{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.DossierATMP{}).
		Where("status <> ?", models.DossierClotureSansSuite).Count(&open).Error; err != nil {
		return nil, err
	}
	var contentieuxCounts []StatusCount
	if err := q.Model(&models.Contentieux{}).
		Select("status, COUNT(id) AS count").Group("status").
		Scan(&contentieuxCounts).Error; err != nil {
		return nil, err
	}
	var auditDecisions []DecisionCount
	if err := q.Model(&models.Audit{}).
		Select("decision, COUNT(id) AS count").
		Where("decision IS NOT NULL").Group("decision").
		Scan(&auditDecisions).Error; err != nil {
		return nil, err
	}

	return map[string]any{
		"stats": map[string]any{
			"openDossiers":      open,
			"totalDossiers":     total,
			"totalRiskValue":    open * estimatedRiskPerCase,
			"contentieuxCounts": contentieuxCounts,
			"auditDecisions":    auditDecisions,
		},
	}, nil
}
