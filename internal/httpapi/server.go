// Package httpapi serves the Telegram webhook, the cron trigger for the
// draw sweep and a health probe.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/service"
)

const (
	WebhookPath = "/telegram/webhook"
	CronPath    = "/cron/check-lotteries"

	secretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// Sweeper ends overdue lotteries on demand.
type Sweeper interface {
	Sweep(ctx context.Context) (*service.SweepResult, error)
}

type Server struct {
	cfg     *config.Config
	sweeper Sweeper
	webhook http.Handler
	engine  *gin.Engine
}

// New builds the router. webhook may be nil when the bot long-polls.
func New(cfg *config.Config, sweeper Sweeper, webhook http.Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{cfg: cfg, sweeper: sweeper, webhook: webhook, engine: gin.New()}
	s.engine.Use(requestLog(), gin.Recovery())

	s.engine.GET("/healthz", s.health)
	s.engine.GET(CronPath, s.cronAuth(), s.checkLotteries)
	s.engine.POST(CronPath, s.cronAuth(), s.checkLotteries)
	if webhook != nil {
		s.engine.POST(WebhookPath, s.webhookAuth(), gin.WrapH(webhook))
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: config.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func secretMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// cronAuth requires "Authorization: Bearer <CRON_SECRET>" when a secret is
// configured.
func (s *Server) cronAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.CronSecret != "" && !secretMatches(c.GetHeader("Authorization"), "Bearer "+s.cfg.CronSecret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// webhookAuth checks the secret token Telegram echoes on every delivery.
func (s *Server) webhookAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.WebhookSecret != "" && !secretMatches(c.GetHeader(secretHeader), s.cfg.WebhookSecret) {
			slog.Warn("webhook call with bad secret", "remote", c.ClientIP())
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

type sweptLottery struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type sweepResponse struct {
	Success   bool           `json:"success"`
	Checked   time.Time      `json:"checked"`
	Expired   int            `json:"expired"`
	Lotteries []sweptLottery `json:"lotteries"`
}

func (s *Server) checkLotteries(c *gin.Context) {
	res, err := s.sweeper.Sweep(c.Request.Context())
	if err != nil {
		slog.Error("cron sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check lotteries"})
		return
	}

	resp := sweepResponse{
		Success:   true,
		Checked:   res.At.UTC(),
		Expired:   len(res.Ended),
		Lotteries: make([]sweptLottery, 0, len(res.Ended)),
	}
	for _, l := range res.Ended {
		resp.Lotteries = append(resp.Lotteries, sweptLottery{ID: l.ID, Title: l.Title})
	}
	c.JSON(http.StatusOK, resp)
}
