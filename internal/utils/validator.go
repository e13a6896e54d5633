package utils

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/labs/fleamarket/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("pickup_location", validatePickupLocation)
	validate.RegisterValidation("public_url", validatePublicURL)
	validate.RegisterValidation("cents", validateCents)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validatePickupLocation(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || lo.Contains(models.PickupLocations, value)
}

func validateCents(fl validator.FieldLevel) bool {
	return models.IsCentAmount(fl.Field().Float())
}

func validatePublicURL(fl validator.FieldLevel) bool {
	return IsPublicURL(fl.Field().String())
}

// IsPublicURL accepts http(s) URLs only. Handles that point into a device
// (content://, file://) are not reachable by other users.
func IsPublicURL(raw string) bool {
	if strings.HasPrefix(raw, "content://") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   lowerFirst(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of " + e.Param()
	case "lt":
		return e.Field() + " must be less than " + e.Param()
	case "cents":
		return e.Field() + " must have at most two decimal places"
	case "pickup_location":
		return "Pickup location must be one of " + strings.Join(models.PickupLocations, ", ")
	case "public_url":
		return "Images must be uploaded first; local device paths are not accepted"
	default:
		return e.Field() + " is invalid"
	}
}
