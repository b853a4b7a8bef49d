package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-floor-reservation/internal/model"
)

// Requester performs one request/reply exchange with the dispatcher.
// *queue.Client satisfies it.
type Requester interface {
	Do(ctx context.Context, req model.Request) (string, error)
}

// GatewayHandler exposes the mailbox protocol over HTTP.  It is a client
// like any other: each call becomes one request on the server mailbox
// and the reply text is passed back unchanged.
type GatewayHandler struct {
	client  Requester
	timeout time.Duration
}

// NewGatewayHandler returns a handler that waits at most timeout for a
// reply.  Panics when client is nil.
func NewGatewayHandler(client Requester, timeout time.Duration) *GatewayHandler {
	if client == nil {
		panic("nil requester passed to NewGatewayHandler")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GatewayHandler{client: client, timeout: timeout}
}

// Submit handles POST /v1/requests.  The body is a JSON request record
// ({"action": "reserve", "floor": "2ndFloor", "room": 5}); room may be
// omitted.  The response is the plain-text reply: "success", "error"
// or a status line.  Overlong fields are rejected with 400 before they
// reach the mailbox.
func (h *GatewayHandler) Submit(c echo.Context) error {
	var req model.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	reply, status, err := h.exchange(c, req)
	if err != nil {
		return c.JSON(status, echo.Map{"error": err.Error()})
	}
	return c.String(http.StatusOK, reply)
}

// ShowFloor handles GET /v1/floors/:floor, a shortcut for a show
// request.  The floor parameter is a prefix, as with show.  A floor
// that matches nothing yields 404.
func (h *GatewayHandler) ShowFloor(c echo.Context) error {
	reply, status, err := h.exchange(c, model.Request{Action: model.ActionShow, Floor: c.Param("floor")})
	if err != nil {
		return c.JSON(status, echo.Map{"error": err.Error()})
	}
	if reply == model.ReplyError {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "floor not found"})
	}
	return c.String(http.StatusOK, reply)
}

func (h *GatewayHandler) exchange(c echo.Context, req model.Request) (string, int, error) {
	if err := req.Validate(); err != nil {
		return "", http.StatusBadRequest, err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	reply, err := h.client.Do(ctx, req)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "", http.StatusGatewayTimeout, errors.New("reservation server did not reply in time")
	case err != nil:
		c.Logger().Errorf("gateway exchange failed: %v", err)
		return "", http.StatusBadGateway, errors.New("reservation server unavailable")
	}
	return reply, http.StatusOK, nil
}
