package models

import "time"

// DocumentType enumerates the recognized attachment kinds.
type DocumentType string

const (
	DocDAT               DocumentType = "DAT"
	DocCertificatMedical DocumentType = "CERTIFICAT_MEDICAL"
	DocArretTravail      DocumentType = "ARRET_TRAVAIL"
	DocTemoignage        DocumentType = "TEMOIGNAGE"
	DocDecisionCPAM      DocumentType = "DECISION_CPAM"
	DocExpertiseMedicale DocumentType = "EXPERTISE_MEDICALE"
	DocLettreReserve     DocumentType = "LETTRE_RESERVE"
	DocContratTravail    DocumentType = "CONTRAT_TRAVAIL"
	DocFichePoste        DocumentType = "FICHE_POSTE"
	DocRapportEnquete    DocumentType = "RAPPORT_ENQUETE"
	DocNotificationTaux  DocumentType = "NOTIFICATION_TAUX"
	DocCourrier          DocumentType = "COURRIER"
	DocAutre             DocumentType = "AUTRE"
)

// Valid reports whether t is a recognized document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocDAT, DocCertificatMedical, DocArretTravail, DocTemoignage,
		DocDecisionCPAM, DocExpertiseMedicale, DocLettreReserve,
		DocContratTravail, DocFichePoste, DocRapportEnquete,
		DocNotificationTaux, DocCourrier, DocAutre:
		return true
	}
	return false
}

// Document is a stored file attachment, linkable to a dossier, to its
// contentieux, or both. Name, size and MIME type are derived from the stored
// content at upload time, never taken from client metadata.
type Document struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	DossierID     *uint        `gorm:"index" json:"dossier_id,omitempty"`
	ContentieuxID *uint        `gorm:"index" json:"contentieux_id,omitempty"`
	UploadedByID  uint         `gorm:"index;not null" json:"uploaded_by_id"`
	UploadedBy    *User        `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
	Type          DocumentType `json:"document_type"`
	Description   string       `json:"description,omitempty"`

	OriginalName string `json:"original_name"`
	Path         string `json:"-"` // chemin relatif sous MEDIA_ROOT
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
