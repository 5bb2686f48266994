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

// WishlistHandler handles HTTP requests for the caller's wishlist.
type WishlistHandler struct {
	service *application.WishlistService
}

// NewWishlistHandler creates a new WishlistHandler.
func NewWishlistHandler(service *application.WishlistService) *WishlistHandler {
	return &WishlistHandler{service: service}
}

// RegisterRoutes registers all wishlist routes on the given router group.
func (h *WishlistHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	wishlist := r.Group("/api/v1/users/me/wishlist")
	wishlist.Use(middleware.AuthMiddleware(jwtManager))
	{
		wishlist.GET("", h.ListWishlist)
		wishlist.POST("/:listingId", h.ToggleWishlist)
	}
}

// ListWishlist handles GET /api/v1/users/me/wishlist.
func (h *WishlistHandler) ListWishlist(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ToggleWishlist handles POST /api/v1/users/me/wishlist/:listingId. It adds
// the listing if absent and removes it if present.
func (h *WishlistHandler) ToggleWishlist(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listingID, err := uuid.Parse(c.Param("listingId"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	result, err := h.service.Toggle(c.Request.Context(), userID, listingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
