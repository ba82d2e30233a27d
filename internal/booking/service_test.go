package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rmstudio/salon-booking/internal/model"
)

var testNow = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

const (
	stylistID = 1
	serviceID = 1
	slotID    = 10
)

// newFixture seeds one active stylist, one active service and one
// available future slot.
func newFixture() (*memDB, *recordingMailer, *Service) {
	db := newMemDB()
	db.stylists[stylistID] = &model.Stylist{ID: stylistID, Name: "Ana", Slug: "ana", Active: true}
	db.services[serviceID] = &model.Service{ID: serviceID, Name: "Corte", PriceCents: 5000, Active: true}
	db.slots[slotID] = &model.Slot{
		ID:        slotID,
		StylistID: stylistID,
		Date:      time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC),
		TimeOfDay: "14:00:00",
		Available: true,
	}

	mail := &recordingMailer{}
	svc := NewService(db, mail, nil)
	svc.now = func() time.Time { return testNow }
	return db, mail, svc
}

func reserveReq() ReserveRequest {
	return ReserveRequest{
		StylistID:   stylistID,
		ServiceID:   serviceID,
		SlotID:      slotID,
		ClientName:  "Beatriz",
		ClientPhone: "11999990000",
		ClientEmail: "bia@example.com",
	}
}

func TestReserve(t *testing.T) {
	t.Run("Given an open slot When reserved Then the appointment is pendente and the slot taken", func(t *testing.T) {
		db, mail, svc := newFixture()

		appt, err := svc.Reserve(context.Background(), reserveReq())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if appt.Status != model.StatusPending || appt.PaymentStatus != model.PaymentPending {
			t.Errorf("new appointment must start pendente/pendente: %+v", appt)
		}
		if appt.ServiceName != "Corte" || appt.ServicePriceCents != 5000 || appt.TotalCents != 5000 {
			t.Errorf("snapshot not captured: %+v", appt)
		}
		if appt.BackupTime != "14:00:00" {
			t.Errorf("backup time not captured: %q", appt.BackupTime)
		}
		if appt.Token == "" {
			t.Error("cancellation token must be set")
		}
		if !appt.Billable {
			t.Error("client bookings are billable by default")
		}
		if db.slots[slotID].Available {
			t.Error("slot must be taken after a successful reservation")
		}
		if mail.received != 1 {
			t.Errorf("expected one received email, got %d", mail.received)
		}
	})

	t.Run("Given a taken slot When reserved again Then ErrSlotTaken and nothing is written", func(t *testing.T) {
		db, _, svc := newFixture()

		if _, err := svc.Reserve(context.Background(), reserveReq()); err != nil {
			t.Fatalf("first reservation failed: %v", err)
		}
		_, err := svc.Reserve(context.Background(), reserveReq())
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}
		if len(db.appts) != 1 {
			t.Errorf("losing attempt must not leave an appointment, have %d", len(db.appts))
		}
	})

	t.Run("Given concurrent attempts on one slot Then exactly one wins", func(t *testing.T) {
		db, _, svc := newFixture()

		const attempts = 16
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Reserve(context.Background(), reserveReq())
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSlotTaken):
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if wins != 1 {
			t.Fatalf("expected exactly one winner, got %d", wins)
		}
		if len(db.appts) != 1 {
			t.Fatalf("expected exactly one appointment, got %d", len(db.appts))
		}
	})

	t.Run("Given a failing insert When reserving Then the claim rolls back", func(t *testing.T) {
		db, _, svc := newFixture()
		svc.db = createFailDB{inner: db}

		_, err := svc.Reserve(context.Background(), reserveReq())
		if err == nil {
			t.Fatal("expected the injected failure")
		}
		if !db.slots[slotID].Available {
			t.Error("slot must be available again after rollback")
		}
	})

	t.Run("Given an inactive service Then ErrNotBookable", func(t *testing.T) {
		db, _, svc := newFixture()
		db.services[serviceID].Active = false

		if _, err := svc.Reserve(context.Background(), reserveReq()); !errors.Is(err, ErrNotBookable) {
			t.Fatalf("expected ErrNotBookable, got %v", err)
		}
	})

	t.Run("Given a slot of another stylist Then ErrSlotMismatch", func(t *testing.T) {
		db, _, svc := newFixture()
		db.slots[slotID].StylistID = 99

		if _, err := svc.Reserve(context.Background(), reserveReq()); !errors.Is(err, ErrSlotMismatch) {
			t.Fatalf("expected ErrSlotMismatch, got %v", err)
		}
	})

	t.Run("Given a slot in the past Then the reservation is rejected", func(t *testing.T) {
		db, _, svc := newFixture()
		db.slots[slotID].Date = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

		_, err := svc.Reserve(context.Background(), reserveReq())
		if !errors.Is(err, model.ErrPastAppointment) {
			t.Fatalf("expected ErrPastAppointment, got %v", err)
		}
		if !db.slots[slotID].Available {
			t.Error("past slot must stay available")
		}
	})
}

func TestCreateManual(t *testing.T) {
	manualReq := func() ManualRequest {
		return ManualRequest{
			StylistID:  stylistID,
			ServiceID:  serviceID,
			Date:       time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC),
			TimeOfDay:  "09:30:00",
			ClientName: "Carla",
			Billable:   true,
		}
	}

	t.Run("Given no slot When staff books a walk-in Then the appointment has only backup fields", func(t *testing.T) {
		db, mail, svc := newFixture()

		appt, err := svc.CreateManual(context.Background(), manualReq())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if appt.SlotID != nil {
			t.Error("manual bookings must not link a slot")
		}
		if appt.BackupTime != "09:30:00" {
			t.Errorf("backup time not captured: %q", appt.BackupTime)
		}
		if appt.Status != model.StatusPending || appt.ServiceName != "Corte" {
			t.Errorf("unexpected appointment: %+v", appt)
		}
		if !db.slots[slotID].Available {
			t.Error("schedule slots must be untouched")
		}
		if mail.received != 0 {
			t.Error("no email without a client address")
		}
	})

	t.Run("Given a past date Then the walk-in is rejected", func(t *testing.T) {
		_, _, svc := newFixture()
		req := manualReq()
		req.Date = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

		if _, err := svc.CreateManual(context.Background(), req); !errors.Is(err, model.ErrPastAppointment) {
			t.Fatalf("expected ErrPastAppointment, got %v", err)
		}
	})

	t.Run("Given a client email Then the received email goes out", func(t *testing.T) {
		_, mail, svc := newFixture()
		req := manualReq()
		req.ClientEmail = "carla@example.com"

		if _, err := svc.CreateManual(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mail.received != 1 {
			t.Errorf("expected one received email, got %d", mail.received)
		}
	})
}

func TestLifecycle(t *testing.T) {
	reserve := func(t *testing.T, svc *Service) *model.Appointment {
		t.Helper()
		appt, err := svc.Reserve(context.Background(), reserveReq())
		if err != nil {
			t.Fatalf("reservation failed: %v", err)
		}
		return appt
	}

	t.Run("Given a pending appointment When confirmed Then the slot is locked and the client mailed", func(t *testing.T) {
		db, mail, svc := newFixture()
		appt := reserve(t, svc)

		got, err := svc.Confirm(context.Background(), appt.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.StatusConfirmed || !got.Confirmed {
			t.Errorf("expected confirmado with flag set: %+v", got)
		}
		if db.slots[slotID].Available {
			t.Error("slot must stay locked after confirmation")
		}
		if mail.confirmed != 1 {
			t.Errorf("expected one confirmation email, got %d", mail.confirmed)
		}
	})

	t.Run("Given a confirmed appointment When cancelled Then the slot is released and unlinked", func(t *testing.T) {
		db, _, svc := newFixture()
		appt := reserve(t, svc)
		if _, err := svc.Confirm(context.Background(), appt.ID); err != nil {
			t.Fatalf("confirm failed: %v", err)
		}

		got, err := svc.Cancel(context.Background(), appt.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.StatusCancelled || got.Confirmed {
			t.Errorf("expected cancelado with flag cleared: %+v", got)
		}
		if got.SlotID != nil {
			t.Error("cancellation must unlink the slot")
		}
		if got.BackupTime != "14:00:00" {
			t.Error("backup time must survive the unlink")
		}
		if !db.slots[slotID].Available {
			t.Error("slot must be bookable again")
		}
	})

	t.Run("Given a pending payment When completed Then payment is promoted to aprovado", func(t *testing.T) {
		_, _, svc := newFixture()
		appt := reserve(t, svc)

		got, err := svc.Complete(context.Background(), appt.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.StatusCompleted {
			t.Errorf("expected concluido: %+v", got)
		}
		if got.PaymentStatus != model.PaymentApproved {
			t.Errorf("completion must promote a pending payment: %s", got.PaymentStatus)
		}
	})

	t.Run("Given a cancelled appointment When completed Then ErrIllegalTransition", func(t *testing.T) {
		_, _, svc := newFixture()
		appt := reserve(t, svc)
		if _, err := svc.Cancel(context.Background(), appt.ID); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		if _, err := svc.Complete(context.Background(), appt.ID); !errors.Is(err, model.ErrIllegalTransition) {
			t.Fatalf("expected ErrIllegalTransition, got %v", err)
		}
	})
}

func TestCancelByToken(t *testing.T) {
	reserve := func(t *testing.T, svc *Service) *model.Appointment {
		t.Helper()
		appt, err := svc.Reserve(context.Background(), reserveReq())
		if err != nil {
			t.Fatalf("reservation failed: %v", err)
		}
		return appt
	}

	t.Run("Given the right token Then the appointment is cancelled", func(t *testing.T) {
		db, mail, svc := newFixture()
		appt := reserve(t, svc)

		got, err := svc.CancelByToken(context.Background(), appt.ID, appt.Token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.StatusCancelled {
			t.Errorf("expected cancelado: %+v", got)
		}
		if !db.slots[slotID].Available {
			t.Error("slot must be released")
		}
		if mail.cancelled != 1 {
			t.Errorf("expected one cancellation email, got %d", mail.cancelled)
		}
	})

	t.Run("Given a wrong token Then ErrNotFound and no change", func(t *testing.T) {
		db, _, svc := newFixture()
		appt := reserve(t, svc)

		_, err := svc.CancelByToken(context.Background(), appt.ID, "not-the-token")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if db.appts[appt.ID].Status != model.StatusPending {
			t.Error("appointment must be untouched")
		}
	})

	t.Run("Given a completed appointment Then the token no longer cancels", func(t *testing.T) {
		_, _, svc := newFixture()
		appt := reserve(t, svc)
		if _, err := svc.Complete(context.Background(), appt.ID); err != nil {
			t.Fatalf("complete failed: %v", err)
		}

		_, err := svc.CancelByToken(context.Background(), appt.ID, appt.Token)
		if !errors.Is(err, model.ErrIllegalTransition) {
			t.Fatalf("expected ErrIllegalTransition, got %v", err)
		}
	})
}

// createFailDB injects a failure into the appointment insert so the
// rollback behavior of the reservation transaction can be observed.
type createFailDB struct{ inner DB }

func (d createFailDB) InTx(ctx context.Context, fn func(s Stores) error) error {
	return d.inner.InTx(ctx, func(s Stores) error {
		return fn(createFailStores{Stores: s})
	})
}

type createFailStores struct{ Stores }

func (s createFailStores) Appointments() AppointmentStore {
	return createFailAppts{AppointmentStore: s.Stores.Appointments()}
}

type createFailAppts struct{ AppointmentStore }

func (createFailAppts) Create(ctx context.Context, a *model.Appointment) error {
	return errors.New("insert failed")
}
