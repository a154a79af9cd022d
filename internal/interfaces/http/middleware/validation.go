package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/kvikk/backend/internal/domain/shipping"
	"github.com/kvikk/backend/internal/interfaces/http/dto"
)

// Custom validation tags used by the request DTOs
const (
	TagServiceType = "servicetype"
	TagCountryCode = "countrycode"
)

var setupValidatorOnce sync.Once

// SetupValidator registers the custom tags on gin's validator and names
// fields after their json tag, or their form tag for admin forms. Safe to
// call more than once.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation(TagServiceType, validateServiceType)
		_ = v.RegisterValidation(TagCountryCode, validateCountryCode)
	})
}

func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

// validateServiceType accepts the carrier's service types
func validateServiceType(fl validator.FieldLevel) bool {
	return shipping.ServiceType(fl.Field().String()).IsValid()
}

// validateCountryCode accepts ISO 3166-1 alpha-2 country codes in either case
func validateCountryCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 2 {
		return false
	}
	region, err := language.ParseRegion(code)
	return err == nil && region.IsCountry()
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, getRequestID(c)))
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	case TagServiceType:
		return "Must be one of: standard express economy"
	case TagCountryCode:
		return "Must be a two-letter ISO country code"
	case "url":
		return "Invalid URL format"
	default:
		return "Invalid value"
	}
}
