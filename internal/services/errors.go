package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Urdemonlord/atlasproject/internal/models"
)

var validate = validator.New()

// storeErr passes categorised errors through and marks anything else from
// a repository as transient.
func storeErr(err error, what string) error {
	if errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrForbidden) ||
		errors.Is(err, models.ErrTransient) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", what, models.ErrTransient, err)
}

// validateStruct runs the validate tags on v and reports the first
// offending fields as a validation error.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.Validation("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return models.Validation("%s", strings.Join(msgs, "; "))
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
