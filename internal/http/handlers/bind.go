package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON binds and validates a JSON body. Malformed JSON is a plain 400;
// validation failures come back as a 404 listing the concatenated field
// messages, matching the persisted error contract for invalid input data.
func (r *Responder) BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err == nil {
		return true
	}

	var validatorErrs validator.ValidationErrors

	if errors.As(err, &validatorErrs) {
		messages := make([]string, 0, len(validatorErrs))

		for _, fieldErr := range validatorErrs {
			field := jsonFieldName(out, fieldErr.StructField())
			messages = append(messages, field+" "+validationMessage(fieldErr.Tag(), fieldErr.Param()))
		}

		r.Fail(ctx, http.StatusNotFound, "Invalid input data. "+strings.Join(messages, ". "))
		return false
	}

	r.Fail(ctx, http.StatusBadRequest, "Invalid request body")
	return false
}

// jsonFieldName resolves a struct field to its json tag name. Our request
// types are flat, so a single lookup on the root struct is enough.
func jsonFieldName(out interface{}, structField string) string {
	t := reflect.TypeOf(out)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return structField
	}

	sf, ok := t.FieldByName(structField)

	if !ok {
		return structField
	}

	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")

	if name == "" || name == "-" {
		return structField
	}

	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be at least " + param
	case "lte":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return "failed " + rule + " validation (" + param + ")"
		}
		return "failed " + rule + " validation"
	}
}
