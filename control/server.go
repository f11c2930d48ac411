// Package control exposes the running agent over HTTP: health, live stats,
// background replacement and recurrent state reset.
package control

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khaledhikmat/vs-matte/service/background"
	"github.com/khaledhikmat/vs-matte/service/lgr"
)

// Matte is the part of the guarded filter the API drives.
type Matte interface {
	Name() string
	Reset()
}

// StatsSource returns the latest stats per pipeline stage.
type StatsSource interface {
	Snapshot() map[string]interface{}
}

type Server struct {
	srv       *http.Server
	stats     StatsSource
	backSvc   background.IService
	matte     Matte
	startedAt time.Time
}

type colorRequest struct {
	Color []int `json:"color" binding:"required,len=3,dive,min=0,max=255"`
}

func New(addr string, stats StatsSource, backSvc background.IService, matte Matte) *Server {
	s := &Server{
		stats:     stats,
		backSvc:   backSvc,
		matte:     matte,
		startedAt: time.Now(),
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), logRequests())

	r.GET("/healthz", s.health)
	r.GET("/stats", s.snapshot)
	r.PUT("/background", s.replaceBackground)
	r.POST("/reset", s.reset)
	return r
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	lgr.Logger.Info("control server listening", slog.String("addr", s.srv.Addr))

	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"filter":            s.matte.Name(),
		"uptime":            int64(time.Since(s.startedAt).Seconds()),
		"backgroundVersion": s.backSvc.Version(),
	})
}

func (s *Server) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats.Snapshot())
}

// replaceBackground accepts a JSON color, a multipart "image" upload or a raw image body.
func (s *Server) replaceBackground(c *gin.Context) {
	contentType := c.ContentType()

	switch {
	case contentType == gin.MIMEJSON:
		var req colorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.backSvc.ReplaceColor(color.RGBA{R: uint8(req.Color[0]), G: uint8(req.Color[1]), B: uint8(req.Color[2]), A: 255})

	case contentType == gin.MIMEMultipartPOSTForm:
		fh, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		if err := s.backSvc.ReplaceReader(f); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

	case strings.HasPrefix(contentType, "image/"):
		if err := s.backSvc.ReplaceReader(c.Request.Body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

	default:
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("unsupported content type %q", contentType)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"backgroundVersion": s.backSvc.Version()})
}

func (s *Server) reset(c *gin.Context) {
	s.matte.Reset()
	lgr.Logger.Info("recurrent state reset", slog.String("filter", s.matte.Name()))
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		lgr.Logger.Debug("control request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
