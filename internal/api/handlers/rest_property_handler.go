package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/api/middleware"
	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/search"
	"github.com/Urdemonlord/atlasproject/internal/services"
	"github.com/Urdemonlord/atlasproject/internal/utils"
)

// RestPropertyHandler handles REST requests for properties.
type RestPropertyHandler struct {
	propertyService services.IPropertyService
	log             logrus.FieldLogger
}

func NewRestPropertyHandler(propertyService services.IPropertyService, log logrus.FieldLogger) *RestPropertyHandler {
	return &RestPropertyHandler{propertyService: propertyService, log: log}
}

// ParseSearchQuery reads search filters from the query string. q is a free
// text match on title, district and city applied after the pipeline, as is
// location.
func ParseSearchQuery(c *gin.Context) (*models.SearchFilters, string, error) {
	f := &models.SearchFilters{}
	if loc := strings.TrimSpace(c.Query("location")); loc != "" {
		f.Location = &loc
	}
	if t := c.Query("type"); t != "" {
		pt := models.PropertyType(t)
		f.PropertyType = &pt
	}
	var err error
	if f.MinPrice, err = optionalInt(c, "min_price"); err != nil {
		return nil, "", err
	}
	if f.MaxPrice, err = optionalInt(c, "max_price"); err != nil {
		return nil, "", err
	}
	if raw := c.Query("facilities"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				f.Facilities = append(f.Facilities, trimmed)
			}
		}
	}
	f.SortBy = models.SortOption(c.Query("sort"))

	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr != "" || lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			return nil, "", models.Validation("lat and lng must both be decimal degrees")
		}
		f.Origin = &models.Coordinates{Lat: lat, Lng: lng}
	}
	return f, strings.TrimSpace(c.Query("q")), nil
}

func optionalInt(c *gin.Context, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, models.Validation("%s must be a whole number of rupiah", key)
	}
	return &v, nil
}

// idParam reads the :id path parameter in canonical form.
func idParam(c *gin.Context) string {
	return utils.CanonicalID(c.Param("id"))
}

// SearchProperties handles GET /v1/properties
func (h *RestPropertyHandler) SearchProperties(c *gin.Context) {
	filters, query, err := ParseSearchQuery(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	props, err := h.propertyService.FetchProperties(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	props = search.Narrow(props, filters, query)
	c.JSON(http.StatusOK, gin.H{"data": props, "count": len(props)})
}

// GetPropertyByID handles GET /v1/properties/:id
func (h *RestPropertyHandler) GetPropertyByID(c *gin.Context) {
	p, err := h.propertyService.FetchProperty(c.Request.Context(), idParam(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListUserProperties handles GET /v1/users/:id/properties. Only active
// listings are shown unless the caller is the owner or an admin.
func (h *RestPropertyHandler) ListUserProperties(c *gin.Context) {
	ownerID := idParam(c)
	props, err := h.propertyService.ListOwnerProperties(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	actor := middleware.ActorFromContext(c)
	if actor.UserID != ownerID && !actor.IsAdmin() {
		active := props[:0]
		for _, p := range props {
			if p.Status == models.PropertyStatusActive {
				active = append(active, p)
			}
		}
		props = active
	}
	c.JSON(http.StatusOK, gin.H{"data": props, "count": len(props)})
}
