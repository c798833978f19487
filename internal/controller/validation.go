package controller

import (
	"wellbeing_dashboard/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations adds the dashboard's binding rules to gin's validator.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("filterkey", func(fl validator.FieldLevel) bool {
		_, err := model.ParseFilterKey(fl.Field().String())
		return err == nil
	})
}
