package validate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns the validator used by domain services. Field names in
// validation errors come from json tags, so clients see the names they sent.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors maps payload field names to rejection reasons. It satisfies
// error so services can return it directly and let the response layer turn
// it into a structured 422.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid fields: " + strings.Join(keys, ", ")
}

// VarReason validates a single value against a rule and returns the reason
// it failed, or "" when it passes. Used by allow-listed field updates where
// struct tags cannot apply.
func VarReason(v *validator.Validate, value any, rule string) string {
	if rule == "" {
		return ""
	}
	err := v.Var(value, rule)
	if err == nil {
		return ""
	}
	if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
		return Reason(ves[0])
	}
	return "invalid value"
}

// Reason maps a failed rule to a short human-readable description.
func Reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gtfield":
		return fmt.Sprintf("must be after %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
