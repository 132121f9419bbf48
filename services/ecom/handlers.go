package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AdminHandler exposes the router's state over HTTP and lets an operator
// drive the stop/reconnect commands remotely.
type AdminHandler struct {
	uc *EcomUseCase
}

func NewAdminHandler(uc *EcomUseCase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

func (h *AdminHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ecom-service",
	})
}

func (h *AdminHandler) GetPendingOrders(c *gin.Context) {
	orders, err := h.uc.PendingSnapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending_orders": orders})
}

func (h *AdminHandler) GetShops(c *gin.Context) {
	shops, err := h.uc.ShopsSnapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shops": shops})
}

func (h *AdminHandler) StopShop(c *gin.Context) {
	zone, ok := parseZoneParam(c)
	if !ok {
		return
	}

	h.uc.RequestStop(zone)
	c.JSON(http.StatusAccepted, gin.H{"zone_id": zone, "command": "stop"})
}

func (h *AdminHandler) ReconnectShop(c *gin.Context) {
	zone, ok := parseZoneParam(c)
	if !ok {
		return
	}

	h.uc.RequestReconnect(zone)
	c.JSON(http.StatusAccepted, gin.H{"zone_id": zone, "command": "reconnect"})
}

func parseZoneParam(c *gin.Context) (int32, bool) {
	zone, err := strconv.ParseInt(c.Param("zone"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid zone id"})
		return 0, false
	}
	return int32(zone), true
}

func NewRouter(uc *EcomUseCase, cfg *Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := NewAdminHandler(uc)

	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(cfg.ServiceName))

	r.GET("/health", handler.HealthCheck)
	r.GET("/api/orders/pending", handler.GetPendingOrders)
	r.GET("/api/shops", handler.GetShops)
	r.POST("/api/shops/:zone/stop", handler.StopShop)
	r.POST("/api/shops/:zone/reconnect", handler.ReconnectShop)

	return r
}
