package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rmstudio/salon-booking/internal/model"
	"github.com/rmstudio/salon-booking/internal/repository"
)

// ScheduleHandler manages schedule slots for administrators: single
// and bulk creation, day views and deletion.  Bulk deletion always
// detaches appointment references first, so booking history survives
// schedule maintenance.
type ScheduleHandler struct {
	Store    *repository.Store
	Slots    *repository.SlotRepo
	Stylists *repository.StylistRepo
}

func NewScheduleHandler(store *repository.Store, sl *repository.SlotRepo, st *repository.StylistRepo) *ScheduleHandler {
	return &ScheduleHandler{Store: store, Slots: sl, Stylists: st}
}

type createSlotReq struct {
	StylistID uint64 `json:"stylist_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"` // HH:MM or HH:MM:SS
}

type generateSlotsReq struct {
	StylistID uint64   `json:"stylist_id"`
	From      string   `json:"from"`     // YYYY-MM-DD
	To        string   `json:"to"`       // YYYY-MM-DD inclusive
	Weekdays  []int    `json:"weekdays"` // 0=Sunday .. 6=Saturday
	Times     []string `json:"times"`    // HH:MM:SS per selected day
}

// CreateSlot adds one slot to a stylist's schedule.
func (h *ScheduleHandler) CreateSlot(c echo.Context) error {
	var req createSlotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	tod, err := normalizeTime(req.Time)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM or HH:MM:SS"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Stylists.Get(ctx, req.StylistID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "stylist not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	slot := &model.Slot{StylistID: req.StylistID, Date: date, TimeOfDay: tod, Available: true}
	if err := h.Slots.Create(ctx, slot); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, slotResp{ID: slot.ID, Date: slot.Date.Format("2006-01-02"), Time: slot.TimeOfDay})
}

// GenerateSlots bulk-creates a weekly schedule between two dates.
// Re-running with the same parameters only fills the gaps.
func (h *ScheduleHandler) GenerateSlots(c echo.Context) error {
	var req generateSlotsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to before from"})
	}
	if len(req.Weekdays) == 0 || len(req.Times) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "weekdays and times required"})
	}
	weekdays := make(map[time.Weekday]bool, len(req.Weekdays))
	for _, d := range req.Weekdays {
		if d < 0 || d > 6 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "weekdays must be 0..6"})
		}
		weekdays[time.Weekday(d)] = true
	}
	times := make([]string, 0, len(req.Times))
	for _, t := range req.Times {
		tod, err := normalizeTime(t)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "times must be HH:MM or HH:MM:SS"})
		}
		times = append(times, tod)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Stylists.Get(ctx, req.StylistID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "stylist not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	created, err := h.Slots.GenerateRange(ctx, req.StylistID, from, to, weekdays, times)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": created})
}

// DaySchedule lists every slot of one stylist on one day, taken ones
// included.
func (h *ScheduleHandler) DaySchedule(c echo.Context) error {
	stylistID, err := strconv.ParseUint(c.Param("stylist_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stylist id"})
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	slots, err := h.Slots.ListForDay(ctx, stylistID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	type adminSlotResp struct {
		ID        uint64 `json:"id"`
		Time      string `json:"time"`
		Available bool   `json:"available"`
	}
	out := make([]adminSlotResp, 0, len(slots))
	for _, s := range slots {
		out = append(out, adminSlotResp{ID: s.ID, Time: s.TimeOfDay, Available: s.Available})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date.Format("2006-01-02"), "slots": out})
}

// DeleteSlot removes one slot; any appointment reference is cleared
// first.
func (h *ScheduleHandler) DeleteSlot(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Slots.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkDeleteSlots removes slots matching the query parameters in one
// transaction: stylist_id narrows to one stylist, scope=past removes
// everything before today, until=YYYY-MM-DD removes up to a date, and
// no scope at all wipes the whole schedule.
func (h *ScheduleHandler) BulkDeleteSlots(c echo.Context) error {
	var stylistID *uint64
	if v := c.QueryParam("stylist_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stylist_id"})
		}
		stylistID = &id
	}
	var before, until *time.Time
	switch {
	case c.QueryParam("scope") == "past":
		today := time.Now().UTC().Truncate(24 * time.Hour)
		before = &today
	case c.QueryParam("until") != "":
		d, err := time.Parse("2006-01-02", c.QueryParam("until"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "until must be YYYY-MM-DD"})
		}
		until = &d
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	deleted, err := h.Store.DeleteSlots(ctx, stylistID, before, until)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}

// normalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func normalizeTime(s string) (string, error) {
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t.Format("15:04:05"), nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", err
	}
	return t.Format("15:04:05"), nil
}
