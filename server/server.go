// Package server provides the pulse hub HTTP server. It turns accepted
// SSE requests into registry streams, exposes a publish endpoint for
// drivers that push events over HTTP, and serves a small demo page.
package server

import (
	"io"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/pulse/pkg/broadcast"
	"github.com/papercomputeco/pulse/pkg/sse"
)

// PublishRequest is the JSON body accepted by POST /events.
type PublishRequest struct {
	// Data is the event payload. Required; may span multiple lines.
	Data string `json:"data"`

	// ID is the optional event ID. Generated when empty.
	ID string `json:"id,omitempty"`

	// Event is the optional SSE event type.
	Event string `json:"event,omitempty"`
}

// StatsResponse reports the hub's current subscriber count. The count
// can overstate truly connected clients, since disconnects are only
// discovered on the next broadcast.
type StatsResponse struct {
	Clients int `json:"clients"`
}

// ErrorResponse is the JSON error body for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the pulse hub HTTP server.
type Server struct {
	config   Config
	registry *broadcast.Registry
	logger   *zap.Logger
	app      *fiber.App
}

// New creates a new hub server. The registry is injected so other
// drivers (heartbeat ticker, kafka source, interactive console) can
// share it with the HTTP layer.
func New(config Config, registry *broadcast.Registry, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		registry: registry,
		logger:   logger,
		app:      app,
	}

	app.Get("/", s.handleIndex)
	app.Get("/events", s.handleSubscribe)
	app.Post("/events", s.handlePublish)
	app.Get("/stats", s.handleStats)

	return s
}

// Run starts the hub server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting hub server",
		zap.String("listen", s.config.ListenAddr),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the hub server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting hub server",
		zap.String("listen", listener.Addr().String()),
	)

	return s.app.Listener(listener)
}

// Shutdown disconnects every subscriber and then stops the HTTP server.
// Streams are torn down first so their handlers' response bodies end
// and fiber can drain the connections.
func (s *Server) Shutdown() error {
	s.registry.DisconnectAll()
	return s.app.Shutdown()
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexHTML)
}

// handleSubscribe attaches the caller to the hub's event stream. The
// response never completes on its own: it ends when the client hangs up
// or the hub shuts down.
func (s *Server) handleSubscribe(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// io.Pipe rather than SetBodyStreamWriter: pw.Write blocks until
	// fasthttp's chunked writer has pushed the bytes to the socket, so a
	// dead connection surfaces as a write error on the next frame
	// instead of quietly filling an in-memory buffer. The registry owns
	// the write end from here on.
	pr, pw := io.Pipe()
	s.registry.Attach(newPipeStream(pw))

	// Unknown size (-1) triggers chunked transfer encoding.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// handlePublish encodes the posted event and fans it out to every
// subscriber, reporting how many remain attached afterwards.
func (s *Server) handlePublish(c *fiber.Ctx) error {
	var req PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid JSON body"})
	}

	if req.Data == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "data is required"})
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	frame, err := sse.Event{Type: req.Event, Data: req.Data, ID: req.ID}.Encode()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	clients := s.registry.Broadcast(frame)

	s.logger.Debug("event published",
		zap.String("id", req.ID),
		zap.String("event", req.Event),
		zap.Int("clients", clients),
	)

	return c.JSON(StatsResponse{Clients: clients})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(StatsResponse{Clients: s.registry.Count()})
}
