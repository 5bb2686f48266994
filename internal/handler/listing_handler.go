package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stayhive/service-rental/internal/application"
	"github.com/stayhive/service-rental/internal/platform/auth"
	"github.com/stayhive/service-rental/internal/platform/middleware"
	"github.com/stayhive/service-rental/internal/platform/response"
)

// ListingHandler handles HTTP requests for listing operations.
type ListingHandler struct {
	service *application.ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(service *application.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// RegisterRoutes registers all listing routes on the given router group.
func (h *ListingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	listings := r.Group("/api/v1/listings")
	{
		listings.GET("", h.ListListings)
		listings.GET("/:id", h.GetListing)
		listings.POST("", authMW, h.CreateListing)
		listings.DELETE("/:id", authMW, h.DeleteListing)
	}
}

// CreateListing handles POST /api/v1/listings.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateListing(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetListing handles GET /api/v1/listings/:id.
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	result, err := h.service.GetListing(c.Request.Context(), listingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListListings handles GET /api/v1/listings with optional category, search
// and host filters.
func (h *ListingHandler) ListListings(c *gin.Context) {
	q := application.ListListingsQuery{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("host_id"); raw != "" {
		hostID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid host ID")
			return
		}
		q.HostID = hostID
	}

	page, limit := parsePagination(c)

	result, err := h.service.ListListings(c.Request.Context(), q, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// DeleteListing handles DELETE /api/v1/listings/:id. The listing's bookings
// are removed in the same operation.
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.DeleteListing(c.Request.Context(), listingID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": listingID})
}
