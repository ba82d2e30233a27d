// Command reminders sends the scheduled client emails: the day-before
// appointment reminder and the maintenance nudge a couple of weeks
// after a completed visit.  It runs once with -once (for an external
// scheduler) or stays resident and fires on an internal cron schedule.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/rmstudio/salon-booking/internal/config"
	"github.com/rmstudio/salon-booking/internal/database"
	"github.com/rmstudio/salon-booking/internal/mail"
	"github.com/rmstudio/salon-booking/internal/repository"
)

// maintenanceAfterDays is how long after a completed visit the
// maintenance nudge goes out.
const maintenanceAfterDays = 15

func main() {
	once := flag.Bool("once", false, "run a single pass and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	appts := repository.NewAppointmentRepo(db)
	mailer := mail.New(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
		SiteURL:  cfg.SiteURL,
	})

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		sendDayBefore(ctx, appts, mailer)
		sendMaintenance(ctx, appts, mailer)
	}

	if *once {
		run()
		return
	}

	spec := os.Getenv("REMINDER_CRON")
	if spec == "" {
		spec = "0 8 * * *" // every day at 08:00
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, run); err != nil {
		log.Fatalf("invalid REMINDER_CRON %q: %v", spec, err)
	}
	log.Printf("reminder scheduler running (%s)", spec)
	c.Run()
}

// sendDayBefore mails every client with a confirmed appointment
// tomorrow.
func sendDayBefore(ctx context.Context, appts *repository.AppointmentRepo, mailer *mail.Mailer) {
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	due, err := appts.DueReminders(ctx, tomorrow)
	if err != nil {
		log.Printf("reminders: query failed: %v", err)
		return
	}
	sent := 0
	for i := range due {
		if err := mailer.AppointmentReminder(&due[i]); err != nil {
			log.Printf("reminders: appointment %d: %v", due[i].ID, err)
			continue
		}
		sent++
	}
	log.Printf("reminders: %d/%d day-before emails sent", sent, len(due))
}

// sendMaintenance mails clients whose completed visit is old enough,
// at most once per appointment.
func sendMaintenance(ctx context.Context, appts *repository.AppointmentRepo, mailer *mail.Mailer) {
	cutoff := time.Now().UTC().AddDate(0, 0, -maintenanceAfterDays)
	due, err := appts.DueMaintenance(ctx, cutoff)
	if err != nil {
		log.Printf("maintenance: query failed: %v", err)
		return
	}
	sent := 0
	for i := range due {
		if err := mailer.MaintenanceReminder(&due[i]); err != nil {
			log.Printf("maintenance: appointment %d: %v", due[i].ID, err)
			continue
		}
		// Flag only after a successful send so a failed run retries.
		if err := appts.MarkMaintenanceReminded(ctx, due[i].ID); err != nil {
			log.Printf("maintenance: flag appointment %d: %v", due[i].ID, err)
			continue
		}
		sent++
	}
	log.Printf("maintenance: %d/%d nudges sent", sent, len(due))
}
