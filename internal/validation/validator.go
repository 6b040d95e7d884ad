// Package validation wraps go-playground/validator with the rules used by
// the public forms: Ecuadorian plates and identity numbers, vehicle years
// and the cross-field rules of the vehicle sale contract.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/go-playground/validator/v10"
)

var (
	rePlaca  = regexp.MustCompile(`^[A-Z]{3}-\d{3,4}$`)
	reCedula = regexp.MustCompile(`^\d{10}$`)
	reRUC    = regexp.MustCompile(`^\d{13}$`)
)

// MinAnio is the oldest model year accepted for a vehicle contract
const MinAnio = 1990

// FieldError is one failed rule, addressed by its JSON path
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned when a payload fails validation
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator validates request payloads. It satisfies echo.Validator.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New builds a validator with the custom rules registered
func New() *Validator {
	v := &Validator{validate: validator.New(), now: time.Now}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs
	_ = v.validate.RegisterValidation("placa", func(fl validator.FieldLevel) bool {
		return rePlaca.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("cedula", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return reCedula.MatchString(s) || reRUC.MatchString(s)
	})
	_ = v.validate.RegisterValidation("anio", func(fl validator.FieldLevel) bool {
		y := int(fl.Field().Int())
		return y >= MinAnio && y <= v.now().Year()+1
	})

	v.validate.RegisterStructValidation(personaRules, model.Persona{})
	v.validate.RegisterStructValidation(contratoRules, model.ContratoVehicular{})
	return v
}

// Validate checks i against its struct tags and registered rules
func (v *Validator) Validate(i interface{}) error {
	if i == nil {
		return Errors{{Field: "body", Message: "Datos requeridos"}}
	}
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validation error: %w", err)
	}

	out := make(Errors, 0, len(validationErrors))
	for _, fe := range validationErrors {
		out = append(out, FieldError{Field: fieldPath(fe.Namespace()), Message: message(fe)})
	}
	return out
}

// fieldPath drops the root struct name from a namespace
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo requerido"
	case "email":
		return "Email invalido"
	case "placa":
		return "Formato: ABC-1234"
	case "cedula":
		return "Cedula debe tener 10 digitos"
	case "anio":
		return fmt.Sprintf("Año debe estar entre %d y el próximo año", MinAnio)
	case "gt":
		return "Debe ser mayor a 0"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Debe tener al menos %s caracteres", fe.Param())
		}
		return fmt.Sprintf("Debe ser al menos %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Debe tener máximo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("Debe ser máximo %s", fe.Param())
	case "len":
		return fmt.Sprintf("Debe tener %s caracteres", fe.Param())
	case "oneof":
		return "Valor no permitido: " + fe.Param()
	case "eqfield":
		return "Los valores no coinciden"
	case "custom":
		return fe.Param()
	default:
		return "Valor invalido"
	}
}
