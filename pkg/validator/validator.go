package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// Report fields by their JSON name so messages match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "body", Tag: "invalid"}}
		}
		for _, err := range validationErrors {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Message renders the first failure as a sentence suitable for an API
// response, e.g. "password must be at least 6 characters".
func Message(errs []*ErrorResponse) string {
	if len(errs) == 0 {
		return ""
	}
	e := errs[0]
	switch e.Tag {
	case "required", "uuid_required":
		return fmt.Sprintf("%s is required", e.FailedField)
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.FailedField)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.FailedField, e.Value)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.FailedField, e.Value)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", e.FailedField, e.Value)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.FailedField, e.Value)
	default:
		return fmt.Sprintf("%s is invalid", e.FailedField)
	}
}
