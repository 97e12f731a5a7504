package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/api/middleware"
	"github.com/Urdemonlord/atlasproject/internal/services"
)

// RestDashboardHandler serves the owner dashboard.
type RestDashboardHandler struct {
	dashboardService services.IDashboardService
	propertyService  services.IPropertyService
	bookingService   services.IBookingService
	log              logrus.FieldLogger
}

func NewRestDashboardHandler(dashboardService services.IDashboardService, propertyService services.IPropertyService, bookingService services.IBookingService, log logrus.FieldLogger) *RestDashboardHandler {
	return &RestDashboardHandler{
		dashboardService: dashboardService,
		propertyService:  propertyService,
		bookingService:   bookingService,
		log:              log,
	}
}

// GetDashboard handles GET /v1/dashboard: the caller's stats, listings and
// the bookings made against them.
func (h *RestDashboardHandler) GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.ActorFromContext(c).UserID

	stats, err := h.dashboardService.OwnerStats(ctx, ownerID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	props, err := h.propertyService.ListOwnerProperties(ctx, ownerID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	bookings, err := h.bookingService.ListOwnerBookings(ctx, ownerID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":      stats,
		"properties": props,
		"bookings":   bookings,
	})
}
