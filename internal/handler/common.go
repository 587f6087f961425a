package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/auth"
)

// getPrincipal builds the authenticated principal from the claims the
// JWT middleware stored in the context.  Handlers pass the principal
// explicitly to every service call; nothing downstream reads identity
// out of ambient state.
func getPrincipal(c echo.Context) (auth.Principal, error) {
	id, err := getUserID(c)
	if err != nil {
		return auth.Principal{}, err
	}
	role, _ := c.Get("role").(string)
	return auth.Principal{UserID: id, Role: role}, nil
}

// getUserID extracts the user_id claim from echo.Context and converts
// it to uint64.  JWT claims decode numbers as float64 and the subject
// as a string, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter; zero is rejected along with
// anything non-numeric.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// serviceError translates the attendance sentinel errors into HTTP
// responses.  Unknown errors become opaque 500s so internal details
// never leak to clients.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, attendance.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, attendance.ErrRSVPNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "rsvp not found"})
	case errors.Is(err, attendance.ErrCancellationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cancellation record not found"})
	case errors.Is(err, attendance.ErrNotBlocked):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user is not blocked"})
	case errors.Is(err, attendance.ErrBlocked):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "blocked from this event"})
	case errors.Is(err, attendance.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, attendance.ErrAlreadyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already reserved"})
	case errors.Is(err, attendance.ErrEventFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "event is full"})
	case errors.Is(err, attendance.ErrAlreadyBlocked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "user is already blocked"})
	case errors.Is(err, attendance.ErrAlreadyRefunded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment already refunded"})
	case errors.Is(err, attendance.ErrNothingToRefund):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no payment to refund"})
	case errors.Is(err, attendance.ErrPaymentNotRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event does not require payment"})
	case errors.Is(err, attendance.ErrPaymentNotPending):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment is not pending"})
	}
	var gerr *attendance.GatewayError
	if errors.As(err, &gerr) {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway error"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
