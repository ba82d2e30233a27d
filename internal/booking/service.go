package booking

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rmstudio/salon-booking/internal/model"
)

// Service carries out the reservation protocol and the appointment
// lifecycle operations.  Every write path runs inside one transaction;
// emails and queue events go out only after the commit.
type Service struct {
	db   DB
	mail Mailer
	pub  Publisher
	now  func() time.Time
}

// NewService wires the booking service.  mail and pub may be nil when
// the deployment runs without SMTP or the message broker.
func NewService(db DB, mail Mailer, pub Publisher) *Service {
	return &Service{db: db, mail: mail, pub: pub, now: time.Now}
}

// ReserveRequest is the validated input of one reservation attempt.
//
// Fields:
//  StylistID   – stylist whose slot is being booked.
//  ServiceID   – catalog service being booked.
//  SlotID      – the schedule slot to claim.
//  ClientName  – client's name.
//  ClientPhone – contact phone.
//  ClientEmail – contact email for notifications.
//  Notes       – optional free text.
type ReserveRequest struct {
	StylistID   uint64
	ServiceID   uint64
	SlotID      uint64
	ClientName  string
	ClientPhone string
	ClientEmail string
	Notes       string
}

// Reserve books one slot.  The whole attempt runs in a single
// transaction: the slot claim is an atomic conditional update and the
// appointment insert shares its fate, so either both happen or
// neither.  When the claim loses the race the transaction rolls back
// and the caller gets ErrSlotTaken; nothing stays half-booked.
//
// The created appointment starts pendente with payment pendente,
// carries the service name/price snapshot and an unguessable
// cancellation token, and the charged amount defaults to the service
// price at booking time.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*model.Appointment, error) {
	now := s.now()
	var appt *model.Appointment

	err := s.db.InTx(ctx, func(st Stores) error {
		stylist, err := st.Stylists().Get(ctx, req.StylistID)
		if err != nil {
			return err
		}
		if !stylist.Active {
			return ErrNotBookable
		}

		svc, err := st.Services().Get(ctx, req.ServiceID)
		if err != nil {
			return err
		}
		if !svc.Active {
			return ErrNotBookable
		}

		slot, err := st.Slots().Get(ctx, req.SlotID)
		if err != nil {
			return err
		}
		if slot.StylistID != req.StylistID {
			return ErrSlotMismatch
		}
		if starts, err := slot.StartsAt(); err != nil {
			return err
		} else if starts.Before(now) {
			return model.ErrPastAppointment
		}

		won, err := st.Slots().Claim(ctx, req.SlotID)
		if err != nil {
			return err
		}
		if !won {
			return ErrSlotTaken
		}

		slotID := slot.ID
		serviceID := svc.ID
		appt = &model.Appointment{
			StylistID:         req.StylistID,
			ClientName:        req.ClientName,
			ClientPhone:       req.ClientPhone,
			ClientEmail:       req.ClientEmail,
			ServiceID:         &serviceID,
			ServiceName:       svc.Name,
			ServicePriceCents: svc.PriceCents,
			Date:              slot.Date,
			SlotID:            &slotID,
			BackupTime:        slot.TimeOfDay,
			Notes:             req.Notes,
			Status:            model.StatusPending,
			PaymentStatus:     model.PaymentPending,
			TotalCents:        svc.PriceCents,
			Billable:          true,
			Token:             uuid.NewString(),
		}
		return st.Appointments().Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.sendMail("received", appt, func(a *model.Appointment) error { return s.mail.AppointmentReceived(a) })
	return appt, nil
}

// ManualRequest is a staff-entered booking without a schedule slot,
// for walk-ins or phone bookings at a time that was never opened
// online.  Date and TimeOfDay land in the appointment's backup fields.
type ManualRequest struct {
	StylistID   uint64
	ServiceID   uint64
	Date        time.Time
	TimeOfDay   string
	ClientName  string
	ClientPhone string
	ClientEmail string
	Notes       string
	Billable    bool
}

// CreateManual books an appointment that is not tied to any slot.  The
// same validation as Reserve applies minus the slot itself; there is no
// claim, so nothing can race.
func (s *Service) CreateManual(ctx context.Context, req ManualRequest) (*model.Appointment, error) {
	starts, err := model.CombineDayTime(req.Date, req.TimeOfDay)
	if err != nil {
		return nil, err
	}
	if starts.Before(s.now()) {
		return nil, model.ErrPastAppointment
	}

	var appt *model.Appointment
	err = s.db.InTx(ctx, func(st Stores) error {
		stylist, err := st.Stylists().Get(ctx, req.StylistID)
		if err != nil {
			return err
		}
		if !stylist.Active {
			return ErrNotBookable
		}
		svc, err := st.Services().Get(ctx, req.ServiceID)
		if err != nil {
			return err
		}
		if !svc.Active {
			return ErrNotBookable
		}

		serviceID := svc.ID
		appt = &model.Appointment{
			StylistID:         req.StylistID,
			ClientName:        req.ClientName,
			ClientPhone:       req.ClientPhone,
			ClientEmail:       req.ClientEmail,
			ServiceID:         &serviceID,
			ServiceName:       svc.Name,
			ServicePriceCents: svc.PriceCents,
			Date:              req.Date,
			BackupTime:        req.TimeOfDay,
			Notes:             req.Notes,
			Status:            model.StatusPending,
			PaymentStatus:     model.PaymentPending,
			TotalCents:        svc.PriceCents,
			Billable:          req.Billable,
			Token:             uuid.NewString(),
		}
		return st.Appointments().Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	// Walk-ins often have no email on file.
	if appt.ClientEmail != "" {
		s.sendMail("received", appt, func(a *model.Appointment) error { return s.mail.AppointmentReceived(a) })
	}
	return appt, nil
}

// Confirm moves the appointment to confirmado on behalf of staff.  The
// linked slot is locked again inside the same transaction, which also
// repairs a slot that was released by a payment rejection.
func (s *Service) Confirm(ctx context.Context, id uint64) (*model.Appointment, error) {
	appt, err := s.transition(ctx, id, model.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.sendMail("confirmed", appt, func(a *model.Appointment) error { return s.mail.AppointmentConfirmed(a) })
	s.publishConfirmed(appt)
	return appt, nil
}

// Cancel cancels the appointment on behalf of staff.  The slot is
// released and unlinked in the same transaction; the appointment keeps
// its date and backup time as the record of what was booked.
func (s *Service) Cancel(ctx context.Context, id uint64) (*model.Appointment, error) {
	appt, err := s.transition(ctx, id, model.StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.sendMail("cancelled", appt, func(a *model.Appointment) error { return s.mail.AppointmentCancelled(a) })
	return appt, nil
}

// Complete marks the appointment concluido.  A still-pending payment
// is promoted to aprovado, matching payment on site.
func (s *Service) Complete(ctx context.Context, id uint64) (*model.Appointment, error) {
	appt, err := s.transition(ctx, id, model.StatusCompleted)
	if err != nil {
		return nil, err
	}
	s.sendMail("completed", appt, func(a *model.Appointment) error { return s.mail.AppointmentCompleted(a) })
	return appt, nil
}

// CancelByToken cancels on behalf of the client holding the
// cancellation token.  An id/token mismatch surfaces as
// ErrNotFound so callers cannot probe which ids exist; a
// terminal appointment is rejected with ErrIllegalTransition.
func (s *Service) CancelByToken(ctx context.Context, id uint64, token string) (*model.Appointment, error) {
	var appt *model.Appointment
	err := s.db.InTx(ctx, func(st Stores) error {
		a, err := st.Appointments().GetByToken(ctx, id, token)
		if err != nil {
			return err
		}
		if err := s.applyTransition(ctx, st, a, model.StatusCancelled); err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.sendMail("cancelled", appt, func(a *model.Appointment) error { return s.mail.AppointmentCancelled(a) })
	return appt, nil
}

// transition runs one staff lifecycle change in a transaction.
func (s *Service) transition(ctx context.Context, id uint64, to model.Status) (*model.Appointment, error) {
	var appt *model.Appointment
	err := s.db.InTx(ctx, func(st Stores) error {
		a, err := st.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.applyTransition(ctx, st, a, to); err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// applyTransition mutates a through the state machine, applies the
// resulting slot effect and persists the appointment.  Cancellation
// additionally unlinks the slot after releasing it.
func (s *Service) applyTransition(ctx context.Context, st Stores, a *model.Appointment, to model.Status) error {
	effect, err := model.Transition(a, to, s.now())
	if err != nil {
		return err
	}
	if a.SlotID != nil {
		switch effect {
		case model.SlotLock:
			if err := st.Slots().Lock(ctx, *a.SlotID); err != nil {
				return err
			}
		case model.SlotRelease:
			if err := st.Slots().Release(ctx, *a.SlotID); err != nil {
				return err
			}
			a.SlotID = nil
		}
	}
	return st.Appointments().Update(ctx, a)
}

func (s *Service) sendMail(kind string, a *model.Appointment, send func(*model.Appointment) error) {
	if s.mail == nil || a == nil {
		return
	}
	if err := send(a); err != nil {
		log.Printf("mail: %s notification for appointment %d failed: %v", kind, a.ID, err)
	}
}

func (s *Service) publishConfirmed(a *model.Appointment) {
	if s.pub == nil || a == nil {
		return
	}
	if err := s.pub.AppointmentConfirmed(a); err != nil {
		log.Printf("queue: publish confirmed event for appointment %d failed: %v", a.ID, err)
	}
}
