package models

import (
	"time"

	"gorm.io/gorm"
)

type ContentieuxStatus string

const (
	ContentieuxDraft   ContentieuxStatus = "DRAFT"
	ContentieuxEnCours ContentieuxStatus = "EN_COURS"
	ContentieuxCloture ContentieuxStatus = "CLOTURE"
)

type JuridictionType string

const (
	TribunalJudiciaire JuridictionType = "TRIBUNAL_JUDICIAIRE"
	CourAppel          JuridictionType = "COUR_APPEL"
	CourCassation      JuridictionType = "COUR_CASSATION"
)

// Valid reports whether j is a recognized juridiction.
func (j JuridictionType) Valid() bool {
	switch j {
	case TribunalJudiciaire, CourAppel, CourCassation:
		return true
	}
	return false
}

// Subject is the title/description pair of a contentieux.
type Subject struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Contentieux is the litigation record escalated from a contested dossier.
// At most one per dossier.
type Contentieux struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	DossierID uint              `gorm:"uniqueIndex;not null" json:"dossier_id"`
	Dossier   *DossierATMP      `gorm:"foreignKey:DossierID" json:"-"`
	Reference string            `gorm:"uniqueIndex;not null" json:"reference"`
	Subject   Subject           `gorm:"serializer:json" json:"subject"`
	Status    ContentieuxStatus `gorm:"not null;default:'DRAFT'" json:"status"`

	JuridictionSteps []JuridictionStep `gorm:"foreignKey:ContentieuxID" json:"juridiction_steps"`
	Documents        []Document        `gorm:"foreignKey:ContentieuxID" json:"documents"`
	Actions          []Action          `gorm:"many2many:contentieux_actions" json:"actions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// TableName pins the table name; the default pluralizer mangles the
// French noun.
func (Contentieux) TableName() string { return "contentieux" }

// BeforeCreate assigns the unique reference exactly once.
// Format: CTX-YYYYMMDD-XXXXXXXX.
func (c *Contentieux) BeforeCreate(tx *gorm.DB) error {
	if c.Reference == "" {
		c.Reference = newReference("CTX")
	}
	if c.Status == "" {
		c.Status = ContentieuxDraft
	}
	return nil
}

// JuridictionStep is one recorded stage of a contentieux before a legal venue.
// Position is assigned server-side: steps are renumbered 1..n on every save,
// never keyed by client-supplied identifiers.
type JuridictionStep struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ContentieuxID uint            `gorm:"index;not null" json:"-"`
	Position      int             `gorm:"not null" json:"position"`
	Juridiction   JuridictionType `json:"juridiction"`
	SubmittedAt   time.Time       `json:"submitted_at"`
	Decision      string          `json:"decision,omitempty"` // FAVORABLE / DEFAVORABLE
	DecisionAt    *time.Time      `json:"decision_at,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// Action is a named follow-up attached to a contentieux.
type Action struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}
