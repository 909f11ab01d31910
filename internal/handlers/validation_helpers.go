package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"deliverus/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// newValidator builds a validator that reports failures under the request's
// json field names, so field errors and gate failures share one vocabulary.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldValidationResponse turns validator errors into the aggregated
// {errors: [{param, msg}]} payload shared with the predicate gate.
func fieldValidationResponse(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	failures := make([]validation.Failure, 0, len(validationErrors))
	for _, e := range validationErrors {
		failures = append(failures, validation.Failure{
			Param: e.Field(),
			Msg:   fmt.Sprintf("Field validation failed on the '%s' tag", e.Tag()),
		})
	}
	return gateFailureResponse(c, failures)
}

// gateFailureResponse writes the aggregated gate failure payload.
func gateFailureResponse(c *fiber.Ctx, failures []validation.Failure) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"errors": failures,
	})
}
