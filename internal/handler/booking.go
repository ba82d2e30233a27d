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

// BookingHandler serves the public booking flow: browsing stylists,
// services and open slots, reserving, and token-based cancellation.
// No authentication; the cancellation token is the client's only
// credential.
type BookingHandler struct {
	Booking  *booking.Service
	Slots    *repository.SlotRepo
	Appts    *repository.AppointmentRepo
	Services *repository.ServiceRepo
	Stylists *repository.StylistRepo
}

func NewBookingHandler(b *booking.Service, sl *repository.SlotRepo, a *repository.AppointmentRepo,
	sv *repository.ServiceRepo, st *repository.StylistRepo) *BookingHandler {
	return &BookingHandler{Booking: b, Slots: sl, Appts: a, Services: sv, Stylists: st}
}

// ----- DTOs -----

type stylistResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type serviceResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description,omitempty"`
}

type slotResp struct {
	ID   uint64 `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

type reserveReq struct {
	StylistID uint64 `json:"stylist_id"`
	ServiceID uint64 `json:"service_id"`
	SlotID    uint64 `json:"slot_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Notes     string `json:"notes"`
}

type appointmentResp struct {
	ID            uint64 `json:"id"`
	StylistID     uint64 `json:"stylist_id"`
	ServiceName   string `json:"service_name"`
	Date          string `json:"date"`
	Time          string `json:"time,omitempty"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	TotalCents    int64  `json:"total_cents"`
	Token         string `json:"token,omitempty"`
}

func toAppointmentResp(a *model.Appointment, includeToken bool) appointmentResp {
	r := appointmentResp{
		ID:            a.ID,
		StylistID:     a.StylistID,
		ServiceName:   a.ServiceName,
		Date:          a.Date.Format("2006-01-02"),
		Time:          a.BackupTime,
		Status:        string(a.Status),
		PaymentStatus: string(a.PaymentStatus),
		TotalCents:    a.TotalCents,
	}
	if includeToken {
		r.Token = a.Token
	}
	return r
}

// ListStylists returns the active stylists.
func (h *BookingHandler) ListStylists(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stylists, err := h.Stylists.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]stylistResp, 0, len(stylists))
	for _, s := range stylists {
		out = append(out, stylistResp{ID: s.ID, Name: s.Name, Slug: s.Slug})
	}
	return c.JSON(http.StatusOK, echo.Map{"stylists": out})
}

// ListServices returns the active catalog in display order.
func (h *BookingHandler) ListServices(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	services, err := h.Services.List(ctx, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]serviceResp, 0, len(services))
	for _, s := range services {
		out = append(out, serviceResp{ID: s.ID, Name: s.Name, PriceCents: s.PriceCents, Description: s.Description})
	}
	return c.JSON(http.StatusOK, echo.Map{"services": out})
}

// AvailableDates lists upcoming days with at least one open slot for
// the stylist in the path.
func (h *BookingHandler) AvailableDates(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stylist, err := h.stylistBySlug(ctx, c.Param("slug"))
	if err != nil {
		return h.stylistErr(c, err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	dates, err := h.Slots.AvailableDates(ctx, stylist.ID, today)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	return c.JSON(http.StatusOK, echo.Map{"stylist": stylist.Slug, "dates": out})
}

// AvailableTimes lists the open slots of one stylist on the day given
// in the "date" query parameter (YYYY-MM-DD).
func (h *BookingHandler) AvailableTimes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stylist, err := h.stylistBySlug(ctx, c.Param("slug"))
	if err != nil {
		return h.stylistErr(c, err)
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	slots, err := h.Slots.AvailableTimes(ctx, stylist.ID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]slotResp, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResp{ID: s.ID, Date: s.Date.Format("2006-01-02"), Time: s.TimeOfDay})
	}
	return c.JSON(http.StatusOK, echo.Map{"stylist": stylist.Slug, "slots": out})
}

// Reserve books a slot.  A lost race on the slot returns 409 so the
// client can pick another time.
func (h *BookingHandler) Reserve(c echo.Context) error {
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.StylistID == 0 || req.ServiceID == 0 || req.SlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stylist_id, service_id and slot_id required"})
	}
	if req.Name == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and email required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	appt, err := h.Booking.Reserve(ctx, booking.ReserveRequest{
		StylistID:   req.StylistID,
		ServiceID:   req.ServiceID,
		SlotID:      req.SlotID,
		ClientName:  req.Name,
		ClientPhone: req.Phone,
		ClientEmail: req.Email,
		Notes:       req.Notes,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, toAppointmentResp(appt, true))
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

// Show returns one appointment to the client holding its token.
func (h *BookingHandler) Show(c echo.Context) error {
	id, token, err := idToken(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	appt, err := h.Appts.GetByToken(ctx, id, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toAppointmentResp(appt, false))
}

// Cancel cancels on behalf of the token holder.  A wrong token is a
// plain 404; a terminal appointment answers 403.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, token, err := idToken(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	appt, err := h.Booking.CancelByToken(ctx, id, token)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, toAppointmentResp(appt, false))
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, model.ErrIllegalTransition):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "appointment can no longer be cancelled"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
}

func (h *BookingHandler) stylistBySlug(ctx context.Context, slug string) (*model.Stylist, error) {
	stylist, err := h.Stylists.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !stylist.Active {
		return nil, repository.ErrNotFound
	}
	return stylist, nil
}

func (h *BookingHandler) stylistErr(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "stylist not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
}

func idToken(c echo.Context) (uint64, string, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, "", err
	}
	return id, c.Param("token"), nil
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
