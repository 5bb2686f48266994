package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stayhive/service-rental/internal/application"
	bookingDomain "github.com/stayhive/service-rental/internal/domain/booking"
	"github.com/stayhive/service-rental/internal/platform/auth"
	"github.com/stayhive/service-rental/internal/platform/middleware"
	"github.com/stayhive/service-rental/internal/platform/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
	}

	me := r.Group("/api/v1/users/me")
	me.Use(authMW)
	{
		me.GET("/trips", h.ListTrips)
		me.GET("/reservations", h.ListReservations)
	}

	// Availability is public: anyone browsing a listing needs to see which
	// dates are taken.
	r.GET("/api/v1/listings/:id/occupied", h.ListOccupiedWindows)
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": bookingID})
}

// ListTrips handles GET /api/v1/users/me/trips (bookings made by the caller).
func (h *BookingHandler) ListTrips(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetCustomerBookings(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListReservations handles GET /api/v1/users/me/reservations (bookings on the
// caller's listings, ordered by check-in).
func (h *BookingHandler) ListReservations(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetHostBookings(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListOccupiedWindows handles GET /api/v1/listings/:id/occupied. An optional
// from query parameter (YYYY-MM-DD) moves the horizon; the default is today.
func (h *BookingHandler) ListOccupiedWindows(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	var from time.Time
	if raw := c.Query("from"); raw != "" {
		from, err = time.Parse(bookingDomain.DateLayout, raw)
		if err != nil {
			response.BadRequest(c, "from must be a date in YYYY-MM-DD format")
			return
		}
	}

	windows, err := h.service.GetOccupiedWindows(c.Request.Context(), listingID, from)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, windows)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
