package server

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mlsync/internal"
	"mlsync/internal/config"
	"mlsync/internal/pipeline"
	"mlsync/internal/storage"
	"mlsync/internal/util"
)

type Server struct {
	router *gin.Engine
	db     *storage.DB
	cfg    config.Config
}

func New(db *storage.DB, cfg config.Config) *Server {
	s := &Server{router: gin.Default(), db: db, cfg: cfg}
	s.setupRoutes()
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/weights", s.listWeights)
		api.POST("/weights/bulk", s.replaceWeights)
		api.DELETE("/weights/:sku", s.deleteWeight)
		api.GET("/rates", s.listRates)
		api.PUT("/rates", s.replaceRates)
		api.POST("/reconcile", s.reconcile)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listWeights(c *gin.Context) {
	weights, err := s.db.ListWeights()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if weights == nil {
		weights = []internal.WeightEntry{}
	}
	c.JSON(http.StatusOK, weights)
}

type weightsPayload struct {
	Weights []internal.WeightEntry `json:"weights"`
}

func (s *Server) replaceWeights(c *gin.Context) {
	var payload weightsPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Weights == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must include a \"weights\" array"})
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	sanitized := make([]internal.WeightEntry, 0, len(payload.Weights))
	for _, w := range payload.Weights {
		w.SKU = strings.TrimSpace(w.SKU)
		if w.SKU == "" {
			continue
		}
		if w.UpdatedAt == "" {
			w.UpdatedAt = now
		}
		sanitized = append(sanitized, w)
	}

	if err := s.db.ReplaceWeights(sanitized); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": len(sanitized)})
}

func (s *Server) deleteWeight(c *gin.Context) {
	sku := c.Param("sku")
	if err := s.db.DeleteWeight(sku); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": sku})
}

func (s *Server) listRates(c *gin.Context) {
	rates, err := s.db.ListRates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rates == nil {
		rates = []internal.ShippingRate{}
	}
	c.JSON(http.StatusOK, rates)
}

type ratesPayload struct {
	Rates []internal.ShippingRate `json:"rates"`
}

func (s *Server) replaceRates(c *gin.Context) {
	var payload ratesPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Rates == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must include a \"rates\" array"})
		return
	}

	sanitized := make([]internal.ShippingRate, 0, len(payload.Rates))
	for _, r := range payload.Rates {
		if r.MaxWeightKg <= 0 {
			continue
		}
		sanitized = append(sanitized, r)
	}

	if err := s.db.ReplaceRates(sanitized); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": len(sanitized)})
}

// reconcile accepts both report files as a multipart upload and returns the
// annotated rows plus the dashboard summary. Config form fields override the
// environment defaults.
func (s *Server) reconcile(c *gin.Context) {
	mlFile, err := c.FormFile("ml")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing \"ml\" file"})
		return
	}
	odooFile, err := c.FormFile("odoo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing \"odoo\" file"})
		return
	}

	mlSheets, err := parseUpload(mlFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	odooSheets, err := parseUpload(odooFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := s.cfg.CalcConfig()
	if v := c.PostForm("stockPercent"); v != "" {
		cfg.StockPercent = util.ParseNumber(v)
	}
	if v := c.PostForm("retentionPercent"); v != "" {
		cfg.RetentionPercent = util.ParseNumber(v)
	}
	if v := c.PostForm("includeTaxes"); v != "" {
		cfg.IncludeTaxes = v == "true" || v == "1"
	}
	if v := c.PostForm("surchargeAmount"); v != "" {
		cfg.SurchargeAmount = util.ParseNumber(v)
	}
	if v := c.PostForm("surchargeKind"); v != "" {
		cfg.SurchargeKind = internal.SurchargeKind(v)
	}
	if v := c.PostForm("useWeightTable"); v != "" {
		cfg.UseWeightTable = v == "true" || v == "1"
	}

	svc := pipeline.NewSyncService(s.db)
	result, err := svc.RunSheets(mlSheets, odooSheets, cfg)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"traceId": result.TraceID,
		"summary": result.Summary,
		"rows":    result.Rows,
	})
}

func parseUpload(file *multipart.FileHeader) ([]internal.Sheet, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pipeline.ParseWorkbook(f)
}
