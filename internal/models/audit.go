package models

import "time"

type AuditStatus string

const (
	AuditNotStarted AuditStatus = "NOT_STARTED"
	AuditInProgress AuditStatus = "IN_PROGRESS"
	AuditCompleted  AuditStatus = "COMPLETED"
)

// AuditDecision is the terminal outcome of a completed audit.
type AuditDecision string

const (
	DecisionContest       AuditDecision = "CONTEST"
	DecisionDoNotContest  AuditDecision = "DO_NOT_CONTEST"
	DecisionNeedMoreInfo  AuditDecision = "NEED_MORE_INFO"
	DecisionReferToExpert AuditDecision = "REFER_TO_EXPERT"
)

// Valid reports whether d is a recognized decision.
func (d AuditDecision) Valid() bool {
	switch d {
	case DecisionContest, DecisionDoNotContest, DecisionNeedMoreInfo, DecisionReferToExpert:
		return true
	}
	return false
}

// Audit is the safety manager's review of a dossier, one per dossier.
// Decision stays nil until the audit is completed; a completed audit is
// immutable through the exposed operations.
type Audit struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	DossierID uint           `gorm:"uniqueIndex;not null" json:"dossier_id"`
	Dossier   *DossierATMP   `gorm:"foreignKey:DossierID" json:"-"`
	AuditorID *uint          `json:"auditor_id,omitempty"`
	Auditor   *User          `gorm:"foreignKey:AuditorID" json:"auditor,omitempty"`
	Status    AuditStatus    `gorm:"not null;default:'NOT_STARTED'" json:"status"`
	Decision  *AuditDecision `json:"decision,omitempty"`
	Comments  string         `json:"comments,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"-"`
}
