package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/session"
)

const msgUnavailable = "Service temporarily unavailable, try again later"

// Error codes returned alongside JSON API errors.
const (
	CodeNotFound        = "not_found"
	CodeValidation      = "validation"
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeUnavailable     = "unavailable"
	CodeStale           = "stale"
	CodeInternal        = "internal"
)

// classify maps an error to its HTTP status, JSON API code and the message
// safe to show a client. Unauthenticated is checked before Validation since
// it is a subcategory of it.
func classify(err error) (int, string, string) {
	var domainErr *models.Error
	msg := err.Error()
	if errors.As(err, &domainErr) {
		msg = domainErr.Message
	}
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, msg
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated, msg
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, CodeValidation, msg
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, CodeForbidden, msg
	case errors.Is(err, models.ErrTransient):
		return http.StatusServiceUnavailable, CodeUnavailable, msgUnavailable
	case errors.Is(err, session.ErrStale):
		return http.StatusConflict, CodeStale, msg
	}
	return http.StatusInternalServerError, CodeInternal, "Internal error"
}

// respondError writes {"error": ...} with the status for err and logs
// server-side failures.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	status, _, msg := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}

// bindingMessage describes a gin binding failure without leaking Go type names.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
