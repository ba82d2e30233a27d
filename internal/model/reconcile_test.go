package model

import "testing"

func TestReconcile_Approved(t *testing.T) {
	t.Run("Given a pending appointment When approved Then confirm, lock slot and notify", func(t *testing.T) {
		a := futureAppointment(StatusPending)

		out := Reconcile(a, "approved")

		if !out.Apply || !out.Confirm || out.Slot != SlotLock || !out.Notify {
			t.Fatalf("unexpected outcome: %+v", out)
		}
		if out.PaymentStatus != PaymentApproved {
			t.Errorf("expected aprovado, got %s", out.PaymentStatus)
		}
	})

	t.Run("Given an appointment already paid When approved again Then no second notification", func(t *testing.T) {
		a := futureAppointment(StatusConfirmed)
		a.PaymentStatus = PaymentApproved

		out := Reconcile(a, "approved")

		if !out.Apply || !out.Confirm {
			t.Fatalf("redelivered approval should still apply: %+v", out)
		}
		if out.Notify {
			t.Errorf("notification must fire at most once")
		}
	})

	t.Run("Given a completed appointment When a late approval arrives Then only the payment is recorded", func(t *testing.T) {
		a := futureAppointment(StatusCompleted)

		out := Reconcile(a, "approved")

		if !out.Apply {
			t.Fatalf("payment status must still be recorded")
		}
		if out.Confirm || out.Slot != SlotNone || out.Notify {
			t.Errorf("terminal appointment must keep its lifecycle: %+v", out)
		}
		if out.PaymentStatus != PaymentApproved {
			t.Errorf("expected aprovado, got %s", out.PaymentStatus)
		}
	})

	t.Run("Given a cancelled appointment When approved Then lifecycle stays cancelled", func(t *testing.T) {
		a := futureAppointment(StatusCancelled)

		out := Reconcile(a, "approved")

		if out.Confirm || out.Notify {
			t.Errorf("race guard bypassed: %+v", out)
		}
	})
}

func TestReconcile_RejectedFamily(t *testing.T) {
	for _, provider := range []string{"rejected", "cancelled", "refunded", "charged_back"} {
		t.Run("Given a pending appointment When "+provider+" Then slot released and lifecycle kept", func(t *testing.T) {
			a := futureAppointment(StatusPending)

			out := Reconcile(a, provider)

			if !out.Apply || out.PaymentStatus != PaymentRejected {
				t.Fatalf("unexpected outcome: %+v", out)
			}
			if out.Slot != SlotRelease {
				t.Errorf("expected SlotRelease, got %v", out.Slot)
			}
			if out.Confirm || out.Notify {
				t.Errorf("rejection must not confirm or notify: %+v", out)
			}
		})
	}
}

func TestReconcile_Processing(t *testing.T) {
	t.Run("Given a pending payment When in_process arrives Then it moves to processando", func(t *testing.T) {
		a := futureAppointment(StatusPending)

		out := Reconcile(a, "in_process")

		if !out.Apply || out.PaymentStatus != PaymentProcessing {
			t.Fatalf("unexpected outcome: %+v", out)
		}
	})

	t.Run("Given an approved payment When a stale pending arrives Then it is dropped", func(t *testing.T) {
		a := futureAppointment(StatusPending)
		a.PaymentStatus = PaymentApproved

		out := Reconcile(a, "pending")

		if out.Apply {
			t.Errorf("stale pending must be a no-op: %+v", out)
		}
	})
}

func TestReconcile_UnknownStatus(t *testing.T) {
	t.Run("Given any appointment When the provider status is unknown Then nothing applies", func(t *testing.T) {
		a := futureAppointment(StatusPending)

		out := Reconcile(a, "authorized_weird")

		if out.Apply {
			t.Errorf("unknown status must be ignored: %+v", out)
		}
	})
}

func TestReconcile_Idempotence(t *testing.T) {
	statuses := []string{"approved", "rejected", "in_process", "pending"}
	for _, provider := range statuses {
		t.Run("Given "+provider+" applied twice Then the second application changes nothing", func(t *testing.T) {
			a := futureAppointment(StatusPending)

			first := Reconcile(a, provider)
			if first.Apply {
				a.PaymentStatus = first.PaymentStatus
				if first.Confirm {
					a.Status = StatusConfirmed
					a.Confirmed = true
				}
			}
			stateAfterFirst := *a

			second := Reconcile(a, provider)
			if second.Apply {
				a.PaymentStatus = second.PaymentStatus
				if second.Confirm {
					a.Status = StatusConfirmed
					a.Confirmed = true
				}
			}

			if *a != stateAfterFirst {
				t.Errorf("state drifted on redelivery: %+v vs %+v", *a, stateAfterFirst)
			}
			if second.Notify {
				t.Errorf("redelivery must not renotify")
			}
		})
	}
}
