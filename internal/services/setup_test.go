package services

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/models"
	"github.com/praevia/atmp/internal/notify"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	entities := []any{
		&models.User{}, &models.DossierATMP{}, &models.Audit{},
		&models.Contentieux{}, &models.JuridictionStep{}, &models.Action{},
		&models.Document{}, &models.Temoin{}, &models.Tiers{},
	}
	for _, e := range entities {
		if err := db.AutoMigrate(e); err != nil {
			t.Fatalf("migrate %T: %v", e, err)
		}
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()
	u := models.User{Email: email, Password: "hash", Name: email, Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return &u
}

func newDossierService(db *gorm.DB) *DossierService {
	log := zap.NewNop()
	return NewDossierService(db, log, &notify.LogNotifier{Log: log})
}

func validDeclaration(managerID uint) DeclarationInput {
	return DeclarationInput{
		Title:           "Chute dans l'atelier",
		Description:     "Chute d'un salarié depuis un escabeau",
		DateOfIncident:  "2026-03-10",
		Location:        "Atelier B",
		SafetyManagerID: managerID,
		Entreprise: models.Entreprise{
			Name:    "Acme SARL",
			SIRET:   "12345678901234",
			Address: "1 rue de la Paix, Paris",
		},
		Salarie: models.Salarie{
			FirstName:            "Jean",
			LastName:             "Dupont",
			SocialSecurityNumber: "180036412345678",
			JobTitle:             "Technicien",
		},
		Accident: models.Accident{
			Date:        "2026-03-10",
			Time:        "14:30",
			Description: "Perte d'équilibre sur escabeau",
			Location:    "Atelier B",
		},
	}
}

// seedDossier creates a declared dossier with its audit row via the service.
func seedDossier(t *testing.T, db *gorm.DB, employee, manager *models.User) *models.DossierATMP {
	t.Helper()
	svc := newDossierService(db)
	dossier, err := svc.Create(context.Background(), employee, validDeclaration(manager.ID))
	if err != nil {
		t.Fatalf("seed dossier: %v", err)
	}
	return dossier
}
