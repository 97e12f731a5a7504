package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/services"
)

// RestUserHandler handles REST requests related to users.
type RestUserHandler struct {
	userService     services.IUserService
	propertyService services.IPropertyService
	log             logrus.FieldLogger
}

func NewRestUserHandler(userService services.IUserService, propertyService services.IPropertyService, log logrus.FieldLogger) *RestUserHandler {
	return &RestUserHandler{userService: userService, propertyService: propertyService, log: log}
}

// PublicUser represents the data returned for a user profile.
type PublicUser struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Role             models.Role `json:"role"`
	Photo            string      `json:"photo,omitempty"`
	IdentityVerified bool        `json:"identity_verified"`
	DateJoined       string      `json:"date_joined"`
	ListingCount     int         `json:"listing_count"`
}

// GetUserByID handles GET /v1/users/:id
func (h *RestUserHandler) GetUserByID(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.userService.FindByID(ctx, idParam(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	listingCount := 0
	if user.Role == models.RoleOwner {
		props, err := h.propertyService.ListOwnerProperties(ctx, user.ID)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		for _, p := range props {
			if p.Status == models.PropertyStatusActive {
				listingCount++
			}
		}
	}

	c.JSON(http.StatusOK, PublicUser{
		ID:               user.ID,
		Name:             user.Profile.Name,
		Role:             user.Role,
		Photo:            user.Profile.Photo,
		IdentityVerified: user.Profile.IdentityVerified,
		DateJoined:       user.CreatedAt.Format(models.DateLayout),
		ListingCount:     listingCount,
	})
}
