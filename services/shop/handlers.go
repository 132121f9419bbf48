package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AdminHandler exposes read-only views of the shop over HTTP. Snapshots go
// through the mailbox, so they are consistent with in-flight purchases.
type AdminHandler struct {
	uc *ShopUseCase
}

func NewAdminHandler(uc *ShopUseCase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

func (h *AdminHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shop-service",
	})
}

func (h *AdminHandler) GetStock(c *gin.Context) {
	stock, err := h.uc.StockSnapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

func (h *AdminHandler) GetMovements(c *gin.Context) {
	movements, err := h.uc.MovementLog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements})
}

func NewRouter(uc *ShopUseCase, cfg *Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := NewAdminHandler(uc)

	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(cfg.ServiceName))

	r.GET("/health", handler.HealthCheck)
	r.GET("/api/stock", handler.GetStock)
	r.GET("/api/movements", handler.GetMovements)

	return r
}
