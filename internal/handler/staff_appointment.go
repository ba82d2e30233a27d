package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rmstudio/salon-booking/internal/booking"
	"github.com/rmstudio/salon-booking/internal/model"
	"github.com/rmstudio/salon-booking/internal/repository"
)

// StaffHandler serves the back-office appointment views and lifecycle
// actions.  Lifecycle changes go through the booking service so the
// slot bookkeeping and notifications stay consistent with the public
// flow.
type StaffHandler struct {
	Booking *booking.Service
	Appts   *repository.AppointmentRepo
}

func NewStaffHandler(b *booking.Service, a *repository.AppointmentRepo) *StaffHandler {
	return &StaffHandler{Booking: b, Appts: a}
}

type staffAppointmentResp struct {
	ID            uint64 `json:"id"`
	StylistID     uint64 `json:"stylist_id"`
	ClientName    string `json:"client_name"`
	ClientPhone   string `json:"client_phone,omitempty"`
	ClientEmail   string `json:"client_email,omitempty"`
	ServiceName   string `json:"service_name"`
	Date          string `json:"date"`
	Time          string `json:"time,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	TotalCents    int64  `json:"total_cents"`
	Billable      bool   `json:"billable"`
	CreatedAt     string `json:"created_at"`
}

func toStaffResp(a *model.Appointment) staffAppointmentResp {
	return staffAppointmentResp{
		ID:            a.ID,
		StylistID:     a.StylistID,
		ClientName:    a.ClientName,
		ClientPhone:   a.ClientPhone,
		ClientEmail:   a.ClientEmail,
		ServiceName:   a.ServiceName,
		Date:          a.Date.Format("2006-01-02"),
		Time:          a.BackupTime,
		Notes:         a.Notes,
		Status:        string(a.Status),
		PaymentStatus: string(a.PaymentStatus),
		TotalCents:    a.TotalCents,
		Billable:      a.Billable,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toStaffList(appts []model.Appointment) []staffAppointmentResp {
	out := make([]staffAppointmentResp, 0, len(appts))
	for i := range appts {
		out = append(out, toStaffResp(&appts[i]))
	}
	return out
}

// Dashboard returns today's appointments plus the status counters.
func (h *StaffHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	today := time.Now().UTC()
	appts, err := h.Appts.ListForDay(ctx, today)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	counts, err := h.Appts.CountByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":  today.Format("2006-01-02"),
		"today": toStaffList(appts),
		"counts": echo.Map{
			"pendente":   counts[model.StatusPending],
			"confirmado": counts[model.StatusConfirmed],
			"cancelado":  counts[model.StatusCancelled],
			"concluido":  counts[model.StatusCompleted],
		},
	})
}

// List returns appointments filtered by the query parameters: name
// (substring), from/to (YYYY-MM-DD), service_id, status and stylist
// (slug).
func (h *StaffHandler) List(c echo.Context) error {
	var f repository.Filter
	f.ClientName = c.QueryParam("name")
	f.StylistSlug = c.QueryParam("stylist")
	if v := c.QueryParam("from"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
		}
		f.From = &d
	}
	if v := c.QueryParam("to"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
		}
		f.To = &d
	}
	if v := c.QueryParam("service_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service_id"})
		}
		f.ServiceID = &id
	}
	if v := c.QueryParam("status"); v != "" {
		switch model.Status(v) {
		case model.StatusPending, model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted:
			f.Status = model.Status(v)
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	appts, err := h.Appts.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"appointments": toStaffList(appts)})
}

// Show returns one appointment with full contact details.
func (h *StaffHandler) Show(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	appt, err := h.Appts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toStaffResp(appt))
}

type staffCreateReq struct {
	StylistID uint64 `json:"stylist_id"`
	ServiceID uint64 `json:"service_id"`
	SlotID    uint64 `json:"slot_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Notes     string `json:"notes"`
	Billable  *bool  `json:"billable"`
}

// Create books an appointment on a client's behalf.  With a slot_id it
// runs the same claim protocol as the public flow, so slot atomicity
// holds between the two; with date and time instead it records a
// slotless walk-in entry.
func (h *StaffHandler) Create(c echo.Context) error {
	var req staffCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.StylistID == 0 || req.ServiceID == 0 || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stylist_id, service_id and name required"})
	}
	if req.SlotID == 0 && (req.Date == "" || req.Time == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_id, or date and time, required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	var appt *model.Appointment
	var err error
	if req.SlotID != 0 {
		appt, err = h.Booking.Reserve(ctx, booking.ReserveRequest{
			StylistID:   req.StylistID,
			ServiceID:   req.ServiceID,
			SlotID:      req.SlotID,
			ClientName:  req.Name,
			ClientPhone: req.Phone,
			ClientEmail: req.Email,
			Notes:       req.Notes,
		})
	} else {
		date, perr := time.Parse("2006-01-02", req.Date)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		tod, perr := normalizeTime(req.Time)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM or HH:MM:SS"})
		}
		req.Time = tod
		billable := true
		if req.Billable != nil {
			billable = *req.Billable
		}
		appt, err = h.Booking.CreateManual(ctx, booking.ManualRequest{
			StylistID:   req.StylistID,
			ServiceID:   req.ServiceID,
			Date:        date,
			TimeOfDay:   req.Time,
			ClientName:  req.Name,
			ClientPhone: req.Phone,
			ClientEmail: req.Email,
			Notes:       req.Notes,
			Billable:    billable,
		})
	}
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, toStaffResp(appt))
	case errors.Is(err, booking.ErrSlotTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot already taken"})
	case errors.Is(err, booking.ErrSlotMismatch), errors.Is(err, booking.ErrNotBookable),
		errors.Is(err, model.ErrPastAppointment):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
	}
}

// Confirm moves the appointment to confirmado.
func (h *StaffHandler) Confirm(c echo.Context) error {
	return h.lifecycle(c, h.Booking.Confirm)
}

// Cancel cancels the appointment and frees its slot.
func (h *StaffHandler) Cancel(c echo.Context) error {
	return h.lifecycle(c, h.Booking.Cancel)
}

// Complete marks the appointment concluido.
func (h *StaffHandler) Complete(c echo.Context) error {
	return h.lifecycle(c, h.Booking.Complete)
}

func (h *StaffHandler) lifecycle(c echo.Context, op func(context.Context, uint64) (*model.Appointment, error)) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	appt, err := op(ctx, id)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, toStaffResp(appt))
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, model.ErrIllegalTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "status does not allow this change"})
	case errors.Is(err, model.ErrPastAppointment):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "appointment date is in the past"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// ClientHistory lists every appointment booked under an email address.
func (h *StaffHandler) ClientHistory(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	appts, err := h.Appts.HistoryByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"email": email, "appointments": toStaffList(appts)})
}
