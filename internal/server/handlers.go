package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rileyhilliard/serialmon/internal/logger"
	"github.com/rileyhilliard/serialmon/internal/serialport"
	"github.com/rileyhilliard/serialmon/internal/session"
	"github.com/rileyhilliard/serialmon/internal/widget"
)

// detailedLister is implemented by transports that can describe their ports.
type detailedLister interface {
	Details() ([]serialport.PortInfo, error)
}

// Handlers serves the HTTP API for one session.
type Handlers struct {
	session   *session.Session
	log       logger.Logger
	startedAt time.Time
}

// NewHandlers creates the API handlers.
func NewHandlers(s *session.Session, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.Noop()
	}
	return &Handlers{session: s, log: log, startedAt: time.Now()}
}

// ConnectRequest is the optional body of POST /api/connect.
type ConnectRequest struct {
	Port string `json:"port"`
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// HandleStatus returns the connection lifecycle summary.
func (h *Handlers) HandleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Status())
}

// HandleSnapshot returns logs, history, status and widgets as JSON.
func (h *Handlers) HandleSnapshot(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Snapshot())
}

// HandleSnapshotMsgpack is HandleSnapshot in MessagePack.
func (h *Handlers) HandleSnapshotMsgpack(c echo.Context) error {
	data, err := msgpack.Marshal(h.session.Snapshot())
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleConnect opens the device. A port in the body switches to it first.
func (h *Handlers) HandleConnect(c echo.Context) error {
	var req ConnectRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid connect request", err)
	}

	if err := h.session.ConnectPort(c.Request().Context(), req.Port); err != nil {
		h.log.Warn("connect via API failed: %v", err)
		return NewDeviceError(err)
	}
	return c.JSON(http.StatusOK, h.session.Status())
}

// HandleDisconnect closes the device. Disconnecting an idle session succeeds.
func (h *Handlers) HandleDisconnect(c echo.Context) error {
	if err := h.session.Disconnect(c.Request().Context()); err != nil {
		// The manager is already back to disconnected; report the close failure.
		h.log.Warn("disconnect via API: %v", err)
		return NewDeviceError(err)
	}
	return c.JSON(http.StatusOK, h.session.Status())
}

// HandleClear empties logs and history.
func (h *Handlers) HandleClear(c echo.Context) error {
	h.session.ClearAll()
	return c.NoContent(http.StatusNoContent)
}

// HandleListWidgets lists widgets in insertion order.
func (h *Handlers) HandleListWidgets(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Widgets())
}

// HandleAddWidget registers a widget from a widget.Spec body.
func (h *Handlers) HandleAddWidget(c echo.Context) error {
	var spec widget.Spec
	if err := c.Bind(&spec); err != nil {
		return NewBadRequestError("invalid widget", err)
	}

	w, err := h.session.AddWidget(spec)
	if err != nil {
		return NewBadRequestError("invalid widget", err)
	}
	return c.JSON(http.StatusCreated, w)
}

// HandleRemoveWidget drops a widget by id.
func (h *Handlers) HandleRemoveWidget(c echo.Context) error {
	id := c.Param("id")
	if !h.session.RemoveWidget(id) {
		return NewNotFoundError("widget", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleListPorts enumerates serial ports, with USB details when the
// transport can provide them.
func (h *Handlers) HandleListPorts(c echo.Context) error {
	tr := h.session.Transport()

	if d, ok := tr.(detailedLister); ok {
		ports, err := d.Details()
		if err == nil {
			return c.JSON(http.StatusOK, ports)
		}
		h.log.Debug("detailed port listing failed, falling back: %v", err)
	}

	names, err := tr.List()
	if err != nil {
		return NewDeviceError(err)
	}
	ports := make([]serialport.PortInfo, 0, len(names))
	for _, name := range names {
		ports = append(ports, serialport.PortInfo{Name: name})
	}
	return c.JSON(http.StatusOK, ports)
}
