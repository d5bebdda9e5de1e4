package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by their wire name (json, then query, then
// path param) so errors match what the client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})
	return v
}

// ReadAndValidateRequest binds path, query and body into req, fills unset
// fields from `default` tags and validates the result. It returns nil or a
// []ValidationError ready to send back.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationError, len(verrs))
		for i, fe := range verrs {
			out[i] = ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: describe(fe),
				Params:  paramsOf(fe),
			}
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_BIND", Message: msg}}
}

var ruleText = map[string]string{
	"required": "is required",
	"oneof":    "must be one of",
	"gt":       "must be greater than",
	"gte":      "must be at least",
	"lt":       "must be less than",
	"lte":      "must be at most",
	"min":      "must be at least",
	"max":      "must be at most",
}

func describe(fe validator.FieldError) string {
	text, ok := ruleText[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
	switch {
	case fe.Param() == "":
		return fe.Field() + " " + text
	case fe.Tag() == "oneof":
		return fmt.Sprintf("%s %s %s", fe.Field(), text, strings.ReplaceAll(fe.Param(), " ", ", "))
	case fe.Kind() == reflect.String && (fe.Tag() == "min" || fe.Tag() == "max"):
		return fmt.Sprintf("%s %s %s characters", fe.Field(), text, fe.Param())
	default:
		return fmt.Sprintf("%s %s %s", fe.Field(), text, fe.Param())
	}
}

func paramsOf(fe validator.FieldError) map[string]interface{} {
	if fe.Param() == "" {
		return nil
	}
	if fe.Tag() == "oneof" {
		return map[string]interface{}{"options": strings.Fields(fe.Param())}
	}
	return map[string]interface{}{"limit": fe.Param()}
}
