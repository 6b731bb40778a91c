package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agenthands/plantcare/internal/config"
	"github.com/agenthands/plantcare/internal/core"
	"github.com/agenthands/plantcare/internal/core/model"
)

// MaxImageBytes bounds uploaded photos.
const MaxImageBytes = 20 << 20

type Server struct {
	Pipeline *core.Pipeline
	Settings config.SettingsStore
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer
}

func NewServer(p *core.Pipeline, settings config.SettingsStore, logger *zap.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Pipeline: p,
		Settings: settings,
		Logger:   logger,
		Gatherer: gatherer,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}

	r.POST("/identifications", s.Identify)
	r.POST("/plants", s.AddPlant)
	r.GET("/plants", s.ListPlants)

	r.GET("/settings", s.GetSettings)
	r.PUT("/settings/identification", s.SaveIdentificationSettings)
	r.PUT("/settings/generative", s.SaveGenerativeSettings)
	r.PUT("/settings/locale", s.SaveLocale)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.Logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()))
	}
}

// Identify runs the pipeline on the uploaded "image" form file.
func (s *Server) Identify(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image"})
		return
	}
	if fh.Size > MaxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable image"})
		return
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, MaxImageBytes))
	if err != nil || len(image) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable image"})
		return
	}

	result, err := s.Pipeline.Run(c.Request.Context(), image)
	if err != nil {
		s.Logger.Error("Identification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identification failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// AddPlant commits a pipeline result to the plant list.
func (s *Server) AddPlant(c *gin.Context) {
	var req model.PipelineResult
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	record, err := s.Pipeline.Commit(c.Request.Context(), req)
	if errors.Is(err, core.ErrInvalidResult) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.Logger.Error("Failed to add plant", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add plant"})
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) ListPlants(c *gin.Context) {
	plants, err := s.Pipeline.ListPlants(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list plants", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list plants"})
		return
	}
	if plants == nil {
		plants = []model.PlantRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"plants": plants})
}

func (s *Server) GetSettings(c *gin.Context) {
	settings, err := s.Settings.Current(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to read settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read settings"})
		return
	}
	c.JSON(http.StatusOK, settings.Masked())
}

func (s *Server) SaveIdentificationSettings(c *gin.Context) {
	var req config.IdentificationSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := s.Settings.SaveIdentification(c.Request.Context(), req); err != nil {
		s.Logger.Error("Failed to save identification settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (s *Server) SaveGenerativeSettings(c *gin.Context) {
	var req config.GenerativeSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := s.Settings.SaveGenerative(c.Request.Context(), req); err != nil {
		s.Logger.Error("Failed to save generative settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

type LocaleRequest struct {
	Locale string `json:"locale" binding:"required"`
}

func (s *Server) SaveLocale(c *gin.Context) {
	var req LocaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	err := s.Settings.SaveLocale(c.Request.Context(), req.Locale)
	if errors.Is(err, config.ErrUnknownLocale) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "supported": config.Locales()})
		return
	}
	if err != nil {
		s.Logger.Error("Failed to save locale", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
