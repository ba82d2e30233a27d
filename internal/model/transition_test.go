package model

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func futureAppointment(status Status) *Appointment {
	return &Appointment{
		Status:        status,
		Confirmed:     status == StatusConfirmed,
		PaymentStatus: PaymentPending,
		Date:          time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		BackupTime:    "14:00:00",
	}
}

func TestTransition_Confirm(t *testing.T) {
	t.Run("Given a pending appointment When confirmed Then slot is locked and flag synced", func(t *testing.T) {
		a := futureAppointment(StatusPending)

		effect, err := Transition(a, StatusConfirmed, testNow)

		if err != nil {
			t.Fatalf("Transition failed: %v", err)
		}
		if effect != SlotLock {
			t.Errorf("expected SlotLock, got %v", effect)
		}
		if a.Status != StatusConfirmed || !a.Confirmed {
			t.Errorf("status/confirmed out of sync: %s / %v", a.Status, a.Confirmed)
		}
	})

	t.Run("Given an already confirmed appointment When confirmed again Then it is a no-op lock", func(t *testing.T) {
		a := futureAppointment(StatusConfirmed)

		effect, err := Transition(a, StatusConfirmed, testNow)

		if err != nil {
			t.Fatalf("Transition failed: %v", err)
		}
		if effect != SlotLock {
			t.Errorf("expected SlotLock, got %v", effect)
		}
	})

	t.Run("Given a past-dated appointment When confirmed Then the transition is rejected", func(t *testing.T) {
		a := futureAppointment(StatusPending)
		a.Date = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

		_, err := Transition(a, StatusConfirmed, testNow)

		if !errors.Is(err, ErrPastAppointment) {
			t.Fatalf("expected ErrPastAppointment, got %v", err)
		}
		if a.Status != StatusPending {
			t.Errorf("status changed on rejected transition: %s", a.Status)
		}
	})
}

func TestTransition_Cancel(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusConfirmed} {
		t.Run("Given a "+string(from)+" appointment When cancelled Then the slot is released", func(t *testing.T) {
			a := futureAppointment(from)

			effect, err := Transition(a, StatusCancelled, testNow)

			if err != nil {
				t.Fatalf("Transition failed: %v", err)
			}
			if effect != SlotRelease {
				t.Errorf("expected SlotRelease, got %v", effect)
			}
			if a.Status != StatusCancelled || a.Confirmed {
				t.Errorf("status/confirmed out of sync: %s / %v", a.Status, a.Confirmed)
			}
		})
	}
}

func TestTransition_Complete(t *testing.T) {
	t.Run("Given a pending appointment with pending payment When completed Then payment is promoted", func(t *testing.T) {
		a := futureAppointment(StatusPending)

		effect, err := Transition(a, StatusCompleted, testNow)

		if err != nil {
			t.Fatalf("Transition failed: %v", err)
		}
		if effect != SlotNone {
			t.Errorf("expected SlotNone, got %v", effect)
		}
		if a.PaymentStatus != PaymentApproved {
			t.Errorf("expected payment promoted to aprovado, got %s", a.PaymentStatus)
		}
	})

	t.Run("Given a rejected payment When completed Then the payment status is untouched", func(t *testing.T) {
		a := futureAppointment(StatusConfirmed)
		a.PaymentStatus = PaymentRejected

		if _, err := Transition(a, StatusCompleted, testNow); err != nil {
			t.Fatalf("Transition failed: %v", err)
		}
		if a.PaymentStatus != PaymentRejected {
			t.Errorf("payment status rewritten: %s", a.PaymentStatus)
		}
	})
}

func TestTransition_TerminalStates(t *testing.T) {
	targets := []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}
	for _, from := range []Status{StatusCancelled, StatusCompleted} {
		for _, to := range targets {
			t.Run("Given "+string(from)+" When transitioning to "+string(to)+" Then it is rejected", func(t *testing.T) {
				a := futureAppointment(from)
				before := *a

				_, err := Transition(a, to, testNow)

				if !errors.Is(err, ErrIllegalTransition) {
					t.Fatalf("expected ErrIllegalTransition, got %v", err)
				}
				if *a != before {
					t.Errorf("appointment mutated on rejected transition")
				}
			})
		}
	}
}
