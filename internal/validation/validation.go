// Package validation checks write payloads and reports failures keyed by the
// dotted JSON path of the offending field, e.g.
// flowDataRounds.0.flowDataDevices.0.deviceName.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/store"

	"github.com/go-playground/validator/v10"
)

// Errors maps a field path to its failure messages.
type Errors map[string][]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strings.Join(e[k], " "))
	}
	return strings.Join(parts, " ")
}

func (e Errors) Fields() map[string][]string { return e }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return store.IsObjectID(fl.Field().String())
	})
	return v
}

// Struct validates payload against its validate tags. Failures come back as
// an invalid-request error carrying Errors.
func Struct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Internal("payload validation failed", err)
	}
	out := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		out[path] = append(out[path], message(fe.Tag(), path))
	}
	return &apperr.Error{Kind: apperr.KindInvalidRequest, Message: envelope.MsgInvalidRequest, Err: out}
}

// fieldPath turns "payload.rounds[0].name" into "rounds.0.name".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}
	return strings.NewReplacer("[", ".", "]", "").Replace(namespace)
}

func message(tag, path string) string {
	switch tag {
	case "required", "min":
		return fmt.Sprintf("The %s field is required.", path)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", path)
	case "objectid":
		return fmt.Sprintf("The %s format is invalid.", path)
	default:
		return fmt.Sprintf("The %s field is invalid.", path)
	}
}
