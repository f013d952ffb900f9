package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("generation", func(fl validator.FieldLevel) bool {
		return IsGeneration(fl.Field().String())
	})
	_ = v.RegisterValidation("member_role", func(fl validator.FieldLevel) bool {
		return IsRole(fl.Field().String())
	})
	return v
}
