package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Urdemonlord/atlasproject/internal/models"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags:
//
//	kosdate          the string is a YYYY-MM-DD date
//	afterdate=Field  the date is strictly after the date in Field
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("kosdate", kosDate)
			_ = v.RegisterValidation("afterdate", afterDate)
		}
	})
}

var kosDate validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := models.ParseDate(s)
	return err == nil
}

var afterDate validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	date, err := models.ParseDate(s)
	if err != nil {
		return false
	}
	other, ok := fl.Parent().FieldByName(fl.Param()).Interface().(string)
	if !ok {
		return false
	}
	otherDate, err := models.ParseDate(other)
	if err != nil {
		return false
	}
	return otherDate.Before(date)
}
