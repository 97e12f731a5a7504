package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/api/middleware"
	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/services"
)

// RestBookingHandler handles the authenticated booking endpoints.
type RestBookingHandler struct {
	bookingService services.IBookingService
	log            logrus.FieldLogger
}

func NewRestBookingHandler(bookingService services.IBookingService, log logrus.FieldLogger) *RestBookingHandler {
	return &RestBookingHandler{bookingService: bookingService, log: log}
}

// CreateBookingBody is the POST /v1/bookings request body.
type CreateBookingBody struct {
	RoomID      string `json:"room_id" binding:"required"`
	StartDate   string `json:"start_date" binding:"required,kosdate"`
	EndDate     string `json:"end_date" binding:"required,kosdate,afterdate=StartDate"`
	MonthlyRent int64  `json:"monthly_rent" binding:"gte=0"`
	Deposit     int64  `json:"deposit" binding:"gte=0"`
	Notes       string `json:"booking_notes" binding:"max=1000"`
}

func (b CreateBookingBody) request() (models.BookingRequest, error) {
	start, err := models.ParseDate(b.StartDate)
	if err != nil {
		return models.BookingRequest{}, models.Validation("%v", err)
	}
	end, err := models.ParseDate(b.EndDate)
	if err != nil {
		return models.BookingRequest{}, models.Validation("%v", err)
	}
	return models.BookingRequest{
		RoomID:      b.RoomID,
		StartDate:   start,
		EndDate:     end,
		MonthlyRent: b.MonthlyRent,
		Deposit:     b.Deposit,
		Notes:       b.Notes,
	}, nil
}

// UpdateBookingStatusBody is the PATCH /v1/bookings/:id/status request body.
type UpdateBookingStatusBody struct {
	Status models.BookingStatus `json:"status" binding:"required,oneof=confirmed rejected cancelled"`
}

// ListBookings handles GET /v1/bookings. Owners get the bookings made
// against their properties with ?as=owner.
func (h *RestBookingHandler) ListBookings(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	var (
		list []models.Booking
		err  error
	)
	if c.Query("as") == "owner" {
		list, err = h.bookingService.ListOwnerBookings(c.Request.Context(), actor.UserID)
	} else {
		list, err = h.bookingService.FetchBookings(c.Request.Context(), actor.UserID)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "count": len(list)})
}

// CreateBooking handles POST /v1/bookings
func (h *RestBookingHandler) CreateBooking(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	req, err := body.request()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	b, err := h.bookingService.CreateBooking(c.Request.Context(), middleware.ActorFromContext(c).UserID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// UpdateBookingStatus handles PATCH /v1/bookings/:id/status
func (h *RestBookingHandler) UpdateBookingStatus(c *gin.Context) {
	var body UpdateBookingStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	b, err := h.bookingService.UpdateBookingStatus(c.Request.Context(), middleware.ActorFromContext(c), idParam(c), body.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
