// Package server hosts the inbound SMS webhook, health, and metrics
// endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/closurewatch/closurewatch/internal/analytics"
	"github.com/closurewatch/closurewatch/internal/config"
	"github.com/closurewatch/closurewatch/internal/sms"
	"github.com/closurewatch/closurewatch/internal/store"
	"github.com/closurewatch/closurewatch/internal/subscription"
)

var registrations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "closurewatch_registration_events_total",
	Help: "Inbound webhook events by recorded action",
}, []string{"action"})

const malformedReply = "We could not read your message. Text any word to subscribe " +
	"to road closure alerts, or STOP to unsubscribe."

// Server handles Twilio's inbound webhook. Events against the roster are
// serialized: each contact is read, applied, persisted, and answered before
// the next one touches the file.
type Server struct {
	cfg    config.ServerConfig
	echo   *echo.Echo
	roster store.RosterStore
	sink   analytics.Sink
	log    *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

func New(cfg config.ServerConfig, roster store.RosterStore, sink analytics.Sink, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{cfg: cfg, echo: e, roster: roster, sink: sink, log: log, now: time.Now}

	e.POST("/register", s.handleRegister)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return s
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleRegister answers HTTP 200 with a TwiML document no matter what;
// business errors ride in the reply text.
func (s *Server) handleRegister(c echo.Context) error {
	from := c.FormValue("From")
	body := c.FormValue("Body")
	if from == "" || body == "" {
		s.log.Warn("malformed webhook payload",
			zap.Bool("hasFrom", from != ""), zap.Bool("hasBody", body != ""))
		return c.Blob(http.StatusOK, echo.MIMETextXML, []byte(sms.Reply(malformedReply)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roster, err := s.roster.Load()
	if err != nil {
		s.log.Error("roster load failed", zap.Error(err))
		return c.Blob(http.StatusOK, echo.MIMETextXML, []byte(sms.Reply(malformedReply)))
	}

	outcome := subscription.Apply(roster, from, body, s.now())
	if outcome.Changed {
		if err := s.roster.Save(outcome.Roster); err != nil {
			s.log.Error("roster save failed", zap.Error(err))
			return c.Blob(http.StatusOK, echo.MIMETextXML, []byte(sms.Reply(malformedReply)))
		}
	}

	registrations.WithLabelValues(string(outcome.Action)).Inc()
	s.recordAnalytics(from, outcome)
	s.log.Info("registration handled",
		zap.String("action", string(outcome.Action)),
		zap.Int("subscribers", outcome.Count))

	return c.Blob(http.StatusOK, echo.MIMETextXML, []byte(sms.Reply(outcome.Reply)))
}

func (s *Server) recordAnalytics(from string, outcome subscription.Outcome) {
	payload := map[string]any{"message": outcome.Reply}
	if outcome.Action == subscription.ActionSignup {
		payload["count"] = outcome.Count
	}
	s.sink.Record(from, string(outcome.Action), payload)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.cfg.Addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithClock overrides the handler clock, for tests.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}
