// internal/utils/validator.go
package utils

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/media-ledger/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("account", validateAccount)
	validate.RegisterValidation("license_type", validateLicenseType)
	validate.RegisterValidation("territory", validateTerritory)
	validate.RegisterValidation("title", validateTitle)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateAccount accepts opaque account ids: printable, no whitespace,
// at most 128 bytes.
func validateAccount(fl validator.FieldLevel) bool {
	account := fl.Field().String()

	if account == "" || len(account) > 128 {
		return false
	}

	for _, char := range account {
		if unicode.IsSpace(char) || !unicode.IsPrint(char) {
			return false
		}
	}
	return true
}

func validateLicenseType(fl validator.FieldLevel) bool {
	return models.LicenseType(fl.Field().String()).Valid()
}

func validateTerritory(fl validator.FieldLevel) bool {
	return models.Territory(fl.Field().String()).Valid()
}

// validateTitle rejects blank titles. The content is otherwise opaque.
func validateTitle(fl validator.FieldLevel) bool {
	title := fl.Field().String()
	return strings.TrimSpace(title) != "" && len(title) <= 512
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
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "account":
		return e.Field() + " must be a non-empty account id without whitespace"
	case "license_type":
		return "License type must be one of non_exclusive, exclusive or streaming"
	case "territory":
		return "Unknown territory"
	case "title":
		return "Title must not be blank"
	default:
		return e.Field() + " is invalid"
	}
}
