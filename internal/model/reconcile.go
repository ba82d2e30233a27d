package model

// ReconcileOutcome is the decision produced by Reconcile for one
// payment-provider notification.  Apply is false when the notification
// changes nothing (unknown provider status, or a stale "pending" after
// the payment already settled); the caller then skips the write
// entirely, which is what makes redelivered notifications no-ops.
type ReconcileOutcome struct {
	Apply         bool          // whether anything should be written
	PaymentStatus PaymentStatus // new payment status when Apply
	Confirm       bool          // lifecycle moves to confirmado
	Slot          SlotEffect    // what to do with the linked slot
	Notify        bool          // send the confirmation email after commit
}

// mapProviderStatus translates a payment-provider status string into
// the internal payment status.  Unknown values map to "" and are
// ignored by Reconcile.
func mapProviderStatus(provider string) PaymentStatus {
	switch provider {
	case "approved":
		return PaymentApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return PaymentRejected
	case "in_process", "pending":
		return PaymentProcessing
	default:
		return ""
	}
}

// Reconcile decides how a payment-provider notification merges into an
// appointment.  It is a pure function of (current state, provider
// status): applying the same notification twice yields the same stored
// state and Notify is only true the first time the payment actually
// becomes approved.  Provider notifications arrive at least once and
// out of order, so every rule here is a precondition check rather than
// an assumption about delivery order.
//
//	approved  – if the lifecycle is no longer pendente/confirmado (staff
//	            already resolved the appointment) only the payment
//	            status/id are recorded: no lifecycle change, no slot
//	            change, no email.  Otherwise the appointment is
//	            confirmed, the slot locked, and the email sent once.
//	rejected / cancelled / refunded / charged_back – payment marked
//	            rejected and the slot released; the lifecycle stays
//	            pendente so the client can retry.
//	in_process / pending – payment moves to processando only while it
//	            is still pendente; a late "pending" after settlement is
//	            dropped.
func Reconcile(a *Appointment, providerStatus string) ReconcileOutcome {
	status := mapProviderStatus(providerStatus)
	switch status {
	case PaymentApproved:
		if a.Status != StatusPending && a.Status != StatusConfirmed {
			// Race guard: staff cancelled or completed before the payment
			// settled.  Record the payment, leave everything else alone.
			return ReconcileOutcome{Apply: true, PaymentStatus: PaymentApproved}
		}
		return ReconcileOutcome{
			Apply:         true,
			PaymentStatus: PaymentApproved,
			Confirm:       true,
			Slot:          SlotLock,
			Notify:        a.PaymentStatus != PaymentApproved,
		}
	case PaymentRejected:
		return ReconcileOutcome{
			Apply:         true,
			PaymentStatus: PaymentRejected,
			Slot:          SlotRelease,
		}
	case PaymentProcessing:
		if a.PaymentStatus != PaymentPending {
			return ReconcileOutcome{}
		}
		return ReconcileOutcome{Apply: true, PaymentStatus: PaymentProcessing}
	default:
		return ReconcileOutcome{}
	}
}
