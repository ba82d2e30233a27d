// Package mail sends the client-facing notification emails over SMTP.
// When no SMTP host is configured the mailer degrades to logging the
// would-be messages, which keeps local development working without a
// mail account.
package mail

import (
	"fmt"
	"log"
	"mime"
	"net/smtp"
	"strings"

	"github.com/rmstudio/salon-booking/internal/model"
)

// Config holds the SMTP settings.
//
// Fields:
//  Host     – SMTP server; empty disables sending.
//  Port     – SMTP port, usually 587.
//  Username – SMTP auth user.
//  Password – SMTP auth password.
//  From     – sender address on outgoing mail.
//  SiteURL  – base URL used to build cancellation links.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SiteURL  string
}

// Mailer sends appointment notifications.  Safe for concurrent use.
type Mailer struct {
	cfg Config
}

// New builds a Mailer from the config.
func New(cfg Config) *Mailer { return &Mailer{cfg: cfg} }

// AppointmentReceived tells the client the booking request arrived and
// hands them their cancellation link.
func (m *Mailer) AppointmentReceived(a *model.Appointment) error {
	msg := receivedMessage(a, m.cancelURL(a))
	return m.send(a.ClientEmail, msg)
}

// AppointmentConfirmed tells the client the appointment is confirmed.
func (m *Mailer) AppointmentConfirmed(a *model.Appointment) error {
	return m.send(a.ClientEmail, confirmedMessage(a))
}

// AppointmentCancelled tells the client the appointment was cancelled.
func (m *Mailer) AppointmentCancelled(a *model.Appointment) error {
	return m.send(a.ClientEmail, cancelledMessage(a))
}

// AppointmentCompleted thanks the client after the visit.
func (m *Mailer) AppointmentCompleted(a *model.Appointment) error {
	return m.send(a.ClientEmail, completedMessage(a))
}

// AppointmentReminder reminds the client one day ahead.
func (m *Mailer) AppointmentReminder(a *model.Appointment) error {
	return m.send(a.ClientEmail, reminderMessage(a))
}

// MaintenanceReminder invites the client back some weeks after a
// completed visit.
func (m *Mailer) MaintenanceReminder(a *model.Appointment) error {
	return m.send(a.ClientEmail, maintenanceMessage(a))
}

func (m *Mailer) cancelURL(a *model.Appointment) string {
	return fmt.Sprintf("%s/agendamento/%d/cancelar/%s", strings.TrimRight(m.cfg.SiteURL, "/"), a.ID, a.Token)
}

// send delivers one multipart (plain + HTML) message.  With no host
// configured it logs instead of sending.
func (m *Mailer) send(to string, msg message) error {
	if to == "" {
		return nil
	}
	if m.cfg.Host == "" {
		log.Printf("mail disabled, would send %q to %s", msg.subject, to)
		return nil
	}

	const boundary = "mpb-3f1c9d"
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(msg.html)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
