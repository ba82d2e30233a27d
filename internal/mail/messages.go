package mail

import (
	"fmt"
	"strings"

	"github.com/rmstudio/salon-booking/internal/model"
)

// message is one rendered email.
type message struct {
	subject string
	text    string
	html    string
}

func when(a *model.Appointment) string {
	day := a.Date.Format("02/01/2006")
	if a.BackupTime == "" {
		return day
	}
	return day + " às " + strings.TrimSuffix(a.BackupTime, ":00")
}

func price(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}

func receivedMessage(a *model.Appointment, cancelURL string) message {
	text := fmt.Sprintf(
		"Olá %s,\n\nRecebemos seu agendamento de %s para %s.\nValor: %s\n\n"+
			"Você receberá a confirmação em breve. Se precisar cancelar, use o link:\n%s\n",
		a.ClientName, a.ServiceName, when(a), price(a.TotalCents), cancelURL)
	html := fmt.Sprintf(
		"<p>Olá %s,</p><p>Recebemos seu agendamento de <strong>%s</strong> para <strong>%s</strong>.<br>"+
			"Valor: %s</p><p>Você receberá a confirmação em breve. "+
			"Se precisar cancelar, <a href=%q>clique aqui</a>.</p>",
		a.ClientName, a.ServiceName, when(a), price(a.TotalCents), cancelURL)
	return message{subject: "Recebemos seu agendamento", text: text, html: html}
}

func confirmedMessage(a *model.Appointment) message {
	text := fmt.Sprintf(
		"Olá %s,\n\nSeu agendamento de %s está confirmado para %s.\n\nAté lá!\n",
		a.ClientName, a.ServiceName, when(a))
	html := fmt.Sprintf(
		"<p>Olá %s,</p><p>Seu agendamento de <strong>%s</strong> está confirmado para <strong>%s</strong>.</p><p>Até lá!</p>",
		a.ClientName, a.ServiceName, when(a))
	return message{subject: "Agendamento confirmado", text: text, html: html}
}

func cancelledMessage(a *model.Appointment) message {
	text := fmt.Sprintf(
		"Olá %s,\n\nSeu agendamento de %s em %s foi cancelado.\n"+
			"Se quiser, faça um novo agendamento pelo nosso site.\n",
		a.ClientName, a.ServiceName, when(a))
	html := fmt.Sprintf(
		"<p>Olá %s,</p><p>Seu agendamento de <strong>%s</strong> em %s foi cancelado.<br>"+
			"Se quiser, faça um novo agendamento pelo nosso site.</p>",
		a.ClientName, a.ServiceName, when(a))
	return message{subject: "Agendamento cancelado", text: text, html: html}
}

func completedMessage(a *model.Appointment) message {
	text := fmt.Sprintf(
		"Olá %s,\n\nObrigado pela visita! Esperamos que tenha gostado de %s.\n",
		a.ClientName, a.ServiceName)
	html := fmt.Sprintf(
		"<p>Olá %s,</p><p>Obrigado pela visita! Esperamos que tenha gostado de <strong>%s</strong>.</p>",
		a.ClientName, a.ServiceName)
	return message{subject: "Obrigado pela visita", text: text, html: html}
}

func reminderMessage(a *model.Appointment) message {
	text := fmt.Sprintf(
		"Olá %s,\n\nLembrete: seu agendamento de %s é amanhã, %s.\n",
		a.ClientName, a.ServiceName, when(a))
	html := fmt.Sprintf(
		"<p>Olá %s,</p><p>Lembrete: seu agendamento de <strong>%s</strong> é amanhã, <strong>%s</strong>.</p>",
		a.ClientName, a.ServiceName, when(a))
	return message{subject: "Lembrete do seu agendamento", text: text, html: html}
}

func maintenanceMessage(a *model.Appointment) message {
	text := fmt.Sprintf(
		"Olá %s,\n\nJá faz um tempinho desde seu último %s. "+
			"Que tal agendar a manutenção? Estamos te esperando!\n",
		a.ClientName, a.ServiceName)
	html := fmt.Sprintf(
		"<p>Olá %s,</p><p>Já faz um tempinho desde seu último <strong>%s</strong>. "+
			"Que tal agendar a manutenção? Estamos te esperando!</p>",
		a.ClientName, a.ServiceName)
	return message{subject: "Hora da manutenção?", text: text, html: html}
}
