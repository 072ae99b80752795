package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"circulation-desk/library"
)

type Handler struct {
	desk DeskService
	rps  rate.Limit
	log  *zap.Logger
}

func New(desk DeskService, rps float64, log *zap.Logger) *Handler {
	return &Handler{
		desk: desk,
		rps:  rate.Limit(rps),
		log:  log.Named("http"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = NewCustomValidator()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))

	e.GET("/manage/health", h.Health)

	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(requestLoggerConfig(h.log)),
		middleware.RequestID(),
	)
	if h.rps > 0 {
		api.Use(newRateLimiterMW(h.rps))
	}

	api.GET("/status", h.Status)
	api.GET("/history", h.History)
	api.POST("/checkout", h.CheckOut)
	api.POST("/return", h.Return)
	api.POST("/request", h.Request)
	api.POST("/pay", h.Pay)
	api.POST("/advance", h.Advance)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.desk.Status())
}

func (h *Handler) History(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	events, err := h.desk.History(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if events == nil {
		events = []library.Event{}
	}
	return c.JSON(http.StatusOK, events)
}

func (h *Handler) CheckOut(c echo.Context) error {
	var req CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authenticate(req.PatronID, req.PIN); err != nil {
		return err
	}
	out, err := h.desk.CheckOut(req.PatronID, req.ItemID)
	return respondOutcome(c, out, err)
}

func (h *Handler) Return(c echo.Context) error {
	var req ReturnRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out, err := h.desk.Return(req.ItemID)
	return respondOutcome(c, out, err)
}

func (h *Handler) Request(c echo.Context) error {
	var req CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authenticate(req.PatronID, req.PIN); err != nil {
		return err
	}
	out, err := h.desk.Request(req.PatronID, req.ItemID)
	return respondOutcome(c, out, err)
}

func (h *Handler) Pay(c echo.Context) error {
	var req PayRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	amount, err := library.ParseMoney(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.authenticate(req.PatronID, req.PIN); err != nil {
		return err
	}
	out, err := h.desk.PayFine(req.PatronID, amount)
	return respondOutcome(c, out, err)
}

func (h *Handler) Advance(c echo.Context) error {
	var req AdvanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	date, err := h.desk.AdvanceDate(req.Days)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AdvanceResponse{Date: date})
}

func (h *Handler) authenticate(patronID, pin string) error {
	err := h.desk.Authenticate(patronID, pin)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, library.ErrBadPIN):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func respondOutcome(c echo.Context, out library.Outcome, err error) error {
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(outcomeStatus(out), OutcomeResponse{Outcome: out, Success: out.Success()})
}

func outcomeStatus(out library.Outcome) int {
	switch out {
	case library.PatronNotFound, library.ItemNotFound:
		return http.StatusNotFound
	case library.HeldByOtherPatron, library.AlreadyCheckedOut, library.AlreadyInLibrary, library.AlreadyOnHold:
		return http.StatusConflict
	}
	return http.StatusOK
}
