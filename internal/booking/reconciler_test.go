package booking

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/rmstudio/salon-booking/internal/model"
)

// apptRef is the external reference carried on checkout preferences.
func apptRef(a *model.Appointment) string { return strconv.FormatUint(a.ID, 10) }

func reserveForPayment(t *testing.T, svc *Service) *model.Appointment {
	t.Helper()
	appt, err := svc.Reserve(context.Background(), reserveReq())
	if err != nil {
		t.Fatalf("reservation failed: %v", err)
	}
	return appt
}

func TestReconcilePayment(t *testing.T) {
	t.Run("Given an approved notification Then the appointment confirms and the client is mailed once", func(t *testing.T) {
		db, mail, svc := newFixture()
		appt := reserveForPayment(t, svc)

		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "approved", "pay-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := db.appts[appt.ID]
		if got.Status != model.StatusConfirmed || !got.Confirmed {
			t.Errorf("expected confirmado: %+v", got)
		}
		if got.PaymentStatus != model.PaymentApproved || got.PaymentID != "pay-1" {
			t.Errorf("payment not recorded: %+v", got)
		}
		if db.slots[slotID].Available {
			t.Error("slot must be locked")
		}
		if mail.confirmed != 1 {
			t.Errorf("expected one confirmation email, got %d", mail.confirmed)
		}
	})

	t.Run("Given the same approval delivered twice Then the second is a no-op", func(t *testing.T) {
		db, mail, svc := newFixture()
		appt := reserveForPayment(t, svc)

		for i := 0; i < 2; i++ {
			if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "approved", "pay-1"); err != nil {
				t.Fatalf("delivery %d failed: %v", i+1, err)
			}
		}

		if mail.confirmed != 1 {
			t.Errorf("redelivery must not renotify, got %d emails", mail.confirmed)
		}
		got := db.appts[appt.ID]
		if got.Status != model.StatusConfirmed || got.PaymentStatus != model.PaymentApproved {
			t.Errorf("state drifted on redelivery: %+v", got)
		}
	})

	t.Run("Given the same approval delivered concurrently Then the client is still mailed once", func(t *testing.T) {
		db, mail, svc := newFixture()
		appt := reserveForPayment(t, svc)

		const deliveries = 8
		var wg sync.WaitGroup
		errs := make([]error, deliveries)
		for i := 0; i < deliveries; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = svc.ReconcilePayment(context.Background(), apptRef(appt), "approved", "pay-1")
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("delivery %d failed: %v", i+1, err)
			}
		}
		if mail.confirmed != 1 {
			t.Errorf("concurrent redeliveries must notify exactly once, got %d emails", mail.confirmed)
		}
		if got := db.appts[appt.ID]; got.Status != model.StatusConfirmed {
			t.Errorf("expected confirmado: %+v", got)
		}
	})

	t.Run("Given an earlier abandoned checkout Then the approval still resolves by appointment id", func(t *testing.T) {
		db, mail, svc := newFixture()
		appt := reserveForPayment(t, svc)
		// Leftover of a checkout attempt the client never paid through.
		db.appts[appt.ID].PaymentID = "stale-attempt"

		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "approved", "pay-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := db.appts[appt.ID]
		if got.Status != model.StatusConfirmed || got.PaymentStatus != model.PaymentApproved {
			t.Errorf("approval was lost: %+v", got)
		}
		if got.PaymentID != "pay-1" {
			t.Errorf("payment id not replaced: %q", got.PaymentID)
		}
		if mail.confirmed != 1 {
			t.Errorf("expected one confirmation email, got %d", mail.confirmed)
		}
	})

	t.Run("Given staff cancelled before the approval arrived Then only the payment is recorded", func(t *testing.T) {
		db, mail, svc := newFixture()
		appt := reserveForPayment(t, svc)
		if _, err := svc.Cancel(context.Background(), appt.ID); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		mailedBefore := mail.confirmed

		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "approved", "pay-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := db.appts[appt.ID]
		if got.Status != model.StatusCancelled {
			t.Errorf("lifecycle must stay cancelado: %+v", got)
		}
		if got.PaymentStatus != model.PaymentApproved {
			t.Errorf("payment must still be recorded for the refund trail: %s", got.PaymentStatus)
		}
		if !db.slots[slotID].Available {
			t.Error("slot released by the cancellation must stay released")
		}
		if mail.confirmed != mailedBefore {
			t.Error("no confirmation email for a cancelled appointment")
		}
	})

	t.Run("Given a rejection Then the slot opens again and the booking stays pendente", func(t *testing.T) {
		db, _, svc := newFixture()
		appt := reserveForPayment(t, svc)

		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "rejected", "pay-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := db.appts[appt.ID]
		if got.Status != model.StatusPending {
			t.Errorf("rejection must not cancel the booking: %+v", got)
		}
		if got.PaymentStatus != model.PaymentRejected {
			t.Errorf("expected rejeitado, got %s", got.PaymentStatus)
		}
		if !db.slots[slotID].Available {
			t.Error("slot must be released so someone else can book it")
		}
	})

	t.Run("Given a rejection then a fresh approval Then the slot is locked again", func(t *testing.T) {
		db, _, svc := newFixture()
		appt := reserveForPayment(t, svc)

		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "rejected", "pay-1"); err != nil {
			t.Fatalf("rejection failed: %v", err)
		}
		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "approved", "pay-2"); err != nil {
			t.Fatalf("approval failed: %v", err)
		}

		if db.slots[slotID].Available {
			t.Error("approval after rejection must relock the slot")
		}
	})

	t.Run("Given a notification without a reference Then it resolves through the payment id", func(t *testing.T) {
		db, _, svc := newFixture()
		appt := reserveForPayment(t, svc)

		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "approved", "pay-1"); err != nil {
			t.Fatalf("approval failed: %v", err)
		}
		if err := svc.ReconcilePayment(context.Background(), "", "charged_back", "pay-1"); err != nil {
			t.Fatalf("chargeback failed: %v", err)
		}

		if got := db.appts[appt.ID]; got.PaymentStatus != model.PaymentRejected {
			t.Errorf("chargeback not recorded: %s", got.PaymentStatus)
		}
	})

	t.Run("Given an unknown reference Then the notification is dropped silently", func(t *testing.T) {
		_, mail, svc := newFixture()

		if err := svc.ReconcilePayment(context.Background(), "9999", "approved", "pay-9"); err != nil {
			t.Fatalf("unknown references must not error: %v", err)
		}
		if err := svc.ReconcilePayment(context.Background(), "not-a-number", "approved", ""); err != nil {
			t.Fatalf("garbage references must not error: %v", err)
		}
		if mail.confirmed != 0 {
			t.Error("nothing to notify for an unknown reference")
		}
	})

	t.Run("Given an in_process notification Then the payment moves to processando only once", func(t *testing.T) {
		db, _, svc := newFixture()
		appt := reserveForPayment(t, svc)

		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "in_process", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := db.appts[appt.ID]; got.PaymentStatus != model.PaymentProcessing {
			t.Errorf("expected processando, got %s", got.PaymentStatus)
		}

		// A stale pending after settlement must be dropped.
		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "approved", "pay-1"); err != nil {
			t.Fatalf("approval failed: %v", err)
		}
		if err := svc.ReconcilePayment(context.Background(), apptRef(appt), "pending", ""); err != nil {
			t.Fatalf("stale pending errored: %v", err)
		}
		if got := db.appts[appt.ID]; got.PaymentStatus != model.PaymentApproved {
			t.Errorf("stale pending overwrote the settled payment: %s", got.PaymentStatus)
		}
	})
}
