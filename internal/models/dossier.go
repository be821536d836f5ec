package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DossierStatus is the incident case lifecycle. Transitions only ever advance:
// A_ANALYSER → ANALYSE_EN_COURS → {CONTESTATION_RECOMMANDEE, CLOTURE_SANS_SUITE}
// → TRANSFORME_EN_CONTENTIEUX.
type DossierStatus string

const (
	DossierAAnalyser               DossierStatus = "A_ANALYSER"
	DossierAnalyseEnCours          DossierStatus = "ANALYSE_EN_COURS"
	DossierContestationRecommandee DossierStatus = "CONTESTATION_RECOMMANDEE"
	DossierClotureSansSuite        DossierStatus = "CLOTURE_SANS_SUITE"
	DossierTransformeEnContentieux DossierStatus = "TRANSFORME_EN_CONTENTIEUX"
)

// Entreprise is the declaring company section of an incident declaration.
type Entreprise struct {
	Name    string `json:"name"`
	SIRET   string `json:"siret"`
	Address string `json:"address"`
}

// Salarie identifies the employee involved in the incident.
type Salarie struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	SocialSecurityNumber string `json:"social_security_number"`
	JobTitle             string `json:"job_title,omitempty"`
}

// Accident describes the incident circumstances.
type Accident struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// DossierATMP is the occupational-incident case record.
type DossierATMP struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Reference       string        `gorm:"uniqueIndex;not null" json:"reference"`
	Title           string        `gorm:"not null" json:"title"`
	Description     string        `json:"description"`
	DateOfIncident  time.Time     `json:"date_of_incident"`
	Location        string        `json:"location"`
	Status          DossierStatus `gorm:"not null" json:"status"`
	SafetyManagerID uint          `gorm:"index" json:"safety_manager_id"`
	SafetyManager   *User         `gorm:"foreignKey:SafetyManagerID" json:"safety_manager,omitempty"`
	CreatedByID     uint          `gorm:"index;not null" json:"created_by_id"`
	CreatedBy       *User         `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	Entreprise   Entreprise `gorm:"serializer:json" json:"entreprise"`
	Salarie      Salarie    `gorm:"serializer:json" json:"salarie"`
	Accident     Accident   `gorm:"serializer:json" json:"accident"`
	ServiceSante string     `json:"service_sante,omitempty"`

	Audit       *Audit       `gorm:"foreignKey:DossierID" json:"audit,omitempty"`
	Contentieux *Contentieux `gorm:"foreignKey:DossierID" json:"contentieux,omitempty"`
	Temoins     []Temoin     `gorm:"foreignKey:DossierID" json:"temoins"`
	Tiers       *Tiers       `gorm:"foreignKey:DossierID" json:"tiers,omitempty"`
	Documents   []Document   `gorm:"foreignKey:DossierID" json:"documents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate assigns the unique reference exactly once.
// Format: ATMP-YYYYMMDD-XXXXXXXX.
func (d *DossierATMP) BeforeCreate(tx *gorm.DB) error {
	if d.Reference == "" {
		d.Reference = newReference("ATMP")
	}
	if d.Status == "" {
		d.Status = DossierAAnalyser
	}
	return nil
}

// Temoin is a witness attached to a dossier.
type Temoin struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	DossierID   uint   `gorm:"index;not null" json:"-"`
	Nom         string `gorm:"not null" json:"nom"`
	Coordonnees string `json:"coordonnees,omitempty"`
}

// Tiers is the optional third party involved in the incident.
type Tiers struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	DossierID       uint   `gorm:"uniqueIndex;not null" json:"-"`
	Nom             string `json:"nom,omitempty"`
	Adresse         string `json:"adresse,omitempty"`
	Assurance       string `json:"assurance,omitempty"`
	Immatriculation string `json:"immatriculation,omitempty"`
}

// TableName pins the table name; "tiers" is already plural.
func (Tiers) TableName() string { return "tiers" }

func newReference(prefix string) string {
	id := uuid.New()
	return fmt.Sprintf("%s-%s-%X", prefix, time.Now().Format("20060102"), id[:4])
}
