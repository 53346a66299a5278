package auth

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// eduEmailPattern accepts addresses under any .edu domain.
var eduEmailPattern = regexp.MustCompile(`^[\w.+-]+@[\w.-]+\.edu$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("eduemail", func(fl validator.FieldLevel) bool {
		return eduEmailPattern.MatchString(fl.Field().String())
	})
	return v
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,eduemail"`
	Password string `json:"password" validate:"required,min=6"`
}

// validateRegistration returns the user-facing message for the first failed
// rule, or "" when the request is acceptable. Messages match the public API
// contract, so they never change with validator internals.
func validateRegistration(req RegisterRequest) string {
	err := validate.Struct(req)
	if err == nil {
		return ""
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "Invalid registration data"
	}
	switch errs[0].Field() {
	case "Username":
		return "Username must be at least 3 characters long"
	case "Email":
		return "Please provide a valid .edu email address"
	case "Password":
		return "Password must be at least 6 characters long"
	}
	return "Invalid registration data"
}
