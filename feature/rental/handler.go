package rental

import (
	"errors"
	"strconv"
	"time"

	"umbrella-station/core/channel"
	"umbrella-station/core/logger"
	"umbrella-station/core/middleware/auth"
	"umbrella-station/feature/rental/coordinator"
	"umbrella-station/feature/rental/ledger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for rentals.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the rental routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/rental")
	group.Post("/borrow/:unit", h.HandleBorrow)
	group.Post("/return", h.HandleReturn)
	group.Post("/return/:unit", h.HandleReturn)
	group.Get("/status", h.HandleStatus)
	group.Get("/history/:account", h.HandleHistory)
	group.Get("/active", h.HandleActive)
	group.Get("/events", h.HandleEvents)
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, coordinator.ErrAuthenticationRequired):
		return fiber.StatusUnauthorized
	case errors.Is(err, ledger.ErrAlreadyRented), errors.Is(err, ledger.ErrNotRented):
		return fiber.StatusConflict
	case errors.Is(err, ledger.ErrUnknownAccount):
		return fiber.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidUnit):
		return fiber.StatusBadRequest
	case errors.Is(err, channel.ErrCommandFailed), errors.Is(err, channel.ErrUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Info(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func unitParam(c *fiber.Ctx) (int, error) {
	raw := c.Params("unit")
	if raw == "" {
		return ledger.AnyUnit, nil
	}
	unit, err := strconv.Atoi(raw)
	if err != nil || unit < 1 {
		return 0, ledger.ErrInvalidUnit
	}
	return unit, nil
}

// HandleBorrow dispenses a unit.
// @Summary Borrow Unit
// @Description Unlocks the unit and records it as borrowed. The account comes from the bearer token, or from the pending RFID identity when no token is sent.
// @Tags rental
// @Produce json
// @Param unit path int true "Unit number"
// @Success 200 {object} models.Receipt "Receipt"
// @Failure 401 {object} map[string]string "Authentication Required"
// @Failure 409 {object} map[string]string "Already Rented"
// @Failure 502 {object} map[string]string "Hardware Command Failed"
// @Router /rental/borrow/{unit} [post]
func (h *Handler) HandleBorrow(c *fiber.Ctx) error {
	account := auth.Account(c)
	l := logger.WithAccount(logger.WithRayID(h.service.logger, c), account)

	unit, err := unitParam(c)
	if err != nil || unit == ledger.AnyUnit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid unit"})
	}

	receipt, err := h.service.Borrow(c.Context(), unit, account)
	if err != nil {
		return h.fail(c, l, "Borrow failed", err)
	}
	return c.JSON(receipt)
}

// HandleReturn accepts a unit back.
// @Summary Return Unit
// @Description Unlocks the slot and records the unit as returned. Without a unit number the account's oldest outstanding unit is returned.
// @Tags rental
// @Produce json
// @Param unit path int false "Unit number"
// @Success 200 {object} models.Receipt "Receipt"
// @Failure 401 {object} map[string]string "Authentication Required"
// @Failure 409 {object} map[string]string "Not Rented"
// @Failure 502 {object} map[string]string "Hardware Command Failed"
// @Router /rental/return/{unit} [post]
func (h *Handler) HandleReturn(c *fiber.Ctx) error {
	account := auth.Account(c)
	l := logger.WithAccount(logger.WithRayID(h.service.logger, c), account)

	unit, err := unitParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid unit"})
	}

	receipt, err := h.service.Return(c.Context(), unit, account)
	if err != nil {
		return h.fail(c, l, "Return failed", err)
	}
	return c.JSON(receipt)
}

// HandleStatus returns the cached occupancy snapshot.
// @Summary Occupancy Status
// @Tags rental
// @Produce json
// @Success 200 {object} models.OccupancyReport "Occupancy"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /rental/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	report, err := h.service.Status(c.Context())
	if err != nil {
		return h.fail(c, logger.WithRayID(h.service.logger, c), "Status failed", err)
	}
	return c.JSON(report)
}

// HandleHistory returns held units, overdue units and recent returns.
// @Summary Rental History
// @Tags rental
// @Produce json
// @Param account path string true "Account email"
// @Success 200 {object} models.RentalView "History"
// @Failure 404 {object} map[string]string "Unknown Account"
// @Router /rental/history/{account} [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	account := c.Params("account")
	view, err := h.service.History(c.Context(), account)
	if err != nil {
		return h.fail(c, logger.WithRayID(h.service.logger, c), "History failed", err)
	}
	return c.JSON(view)
}

// HandleActive lists all outstanding loans.
// @Summary Active Rentals
// @Tags rental
// @Produce json
// @Success 200 {array} models.ActiveRental "Active Rentals"
// @Router /rental/active [get]
func (h *Handler) HandleActive(c *fiber.Ctx) error {
	active, err := h.service.Active(c.Context())
	if err != nil {
		return h.fail(c, logger.WithRayID(h.service.logger, c), "Active rentals failed", err)
	}
	return c.JSON(active)
}

// HandleEvents lists the event journal for one day.
// @Summary Event Journal
// @Tags rental
// @Produce json
// @Param day query string false "Day (YYYY-MM-DD, UTC), defaults to today"
// @Success 200 {array} archive.Event "Events"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /rental/events [get]
func (h *Handler) HandleEvents(c *fiber.Ctx) error {
	day := time.Now().UTC()
	if raw := c.Query("day"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day must be YYYY-MM-DD"})
		}
		day = parsed
	}

	events, err := h.service.Events(c.Context(), day)
	if err != nil {
		return h.fail(c, logger.WithRayID(h.service.logger, c), "Event listing failed", err)
	}
	return c.JSON(events)
}
