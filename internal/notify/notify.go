// Package notify delivers the dossier-creation notification. The event is an
// explicit return of the creation workflow handed to a Notifier collaborator,
// not an implicit model hook.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DossierCreatedEvent carries everything a notifier needs without reaching
// back into the database.
type DossierCreatedEvent struct {
	Reference          string
	Title              string
	Description        string
	Location           string
	DateOfIncident     time.Time
	CreatedByName      string
	CreatedByEmail     string
	SafetyManagerEmail string
}

type Notifier interface {
	DossierCreated(ctx context.Context, ev DossierCreatedEvent) error
}

// LogNotifier records events to the application log. Used in development and
// as the default when SMTP is not configured.
type LogNotifier struct {
	Log *zap.Logger
}

func (n *LogNotifier) DossierCreated(_ context.Context, ev DossierCreatedEvent) error {
	n.Log.Info("dossier created",
		zap.String("reference", ev.Reference),
		zap.String("created_by", ev.CreatedByEmail),
		zap.String("safety_manager", ev.SafetyManagerEmail),
	)
	return nil
}

// SMTPNotifier mails the assigned safety manager and the declarant.
type SMTPNotifier struct {
	Host string
	Port string
	From string
	Pass string
}

func (n *SMTPNotifier) DossierCreated(_ context.Context, ev DossierCreatedEvent) error {
	recipients := make([]string, 0, 2)
	if ev.SafetyManagerEmail != "" {
		recipients = append(recipients, ev.SafetyManagerEmail)
	}
	if ev.CreatedByEmail != "" {
		recipients = append(recipients, ev.CreatedByEmail)
	}
	if len(recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("New ATMP Incident: %s", ev.Title)
	body := fmt.Sprintf(
		"New incident reported by %s (%s)\r\n\r\nReference: %s\r\nDate: %s\r\nLocation: %s\r\nDescription: %s\r\n",
		ev.CreatedByName, ev.CreatedByEmail,
		ev.Reference, ev.DateOfIncident.Format("2006-01-02"), ev.Location, ev.Description,
	)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.From, strings.Join(recipients, ", "), subject, body)

	addr := n.Host + ":" + n.Port
	auth := smtp.PlainAuth("", n.From, n.Pass, n.Host)
	return smtp.SendMail(addr, auth, n.From, recipients, []byte(msg))
}
