package booking

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/rmstudio/salon-booking/internal/model"
)

// ReconcilePayment merges one payment-provider notification into the
// appointment named by ref, the external reference carried on every
// checkout preference.  The reference is the appointment id, which
// never changes, so notifications resolve no matter how many checkout
// attempts preceded the payment or how late they arrive.
// providerStatus is the provider's payment status string; paymentID,
// when non-empty, updates the stored provider payment identifier.
//
// Notifications are delivered at least once and out of order, so the
// whole operation is idempotent: the decision is a pure function of
// the stored state and redeliveries write nothing and renotify
// nobody.  An unknown ref is logged and dropped, not an error, since
// providers retry failed deliveries forever.
func (s *Service) ReconcilePayment(ctx context.Context, ref, providerStatus, paymentID string) error {
	var appt *model.Appointment
	var notify bool

	err := s.db.InTx(ctx, func(st Stores) error {
		a, err := resolveNotification(ctx, st, ref, paymentID)
		if err != nil {
			return err
		}

		out := model.Reconcile(a, providerStatus)
		if !out.Apply {
			return nil
		}

		a.PaymentStatus = out.PaymentStatus
		if paymentID != "" {
			a.PaymentID = paymentID
		}
		if out.Confirm {
			a.Status = model.StatusConfirmed
			a.Confirmed = true
		}
		if a.SlotID != nil {
			switch out.Slot {
			case model.SlotLock:
				if err := st.Slots().Lock(ctx, *a.SlotID); err != nil {
					return err
				}
			case model.SlotRelease:
				if err := st.Slots().Release(ctx, *a.SlotID); err != nil {
					return err
				}
			}
		}
		if err := st.Appointments().Update(ctx, a); err != nil {
			return err
		}
		appt = a
		notify = out.Notify
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		log.Printf("payment: notification for unknown reference %q dropped", ref)
		return nil
	}
	if err != nil {
		return err
	}

	if notify {
		s.sendMail("payment approved", appt, func(a *model.Appointment) error { return s.mail.AppointmentConfirmed(a) })
		s.publishConfirmed(appt)
	}
	return nil
}

// resolveNotification finds the appointment behind a provider
// notification: by the external reference (the appointment id) first,
// then by the stored provider payment id for notifications whose
// reference is missing or does not match, such as a refund reported
// against a payment we already recorded.
func resolveNotification(ctx context.Context, st Stores, ref, paymentID string) (*model.Appointment, error) {
	if id, perr := strconv.ParseUint(ref, 10, 64); perr == nil && id != 0 {
		a, err := st.Appointments().Get(ctx, id)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return a, err
		}
	}
	if paymentID != "" {
		return st.Appointments().GetByPaymentID(ctx, paymentID)
	}
	return nil, ErrNotFound
}
