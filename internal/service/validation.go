package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"papaya-users/internal/domain"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 20
)

// Validator valida comandos y queries; los errores usan los nombres JSON de los campos.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// RegisterValidation solo falla con tags vacios o reservados.
	_ = v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct devuelve *domain.ValidationError cuando algun campo es invalido.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", s, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = formatFieldError(fe)
	}
	return domain.NewValidationError(fields)
}

// StrongPassword: 8 a 20 caracteres, una mayuscula, una minuscula y un digito o simbolo.
func StrongPassword(pw string) bool {
	n := utf8.RuneCountInString(pw)
	if n < passwordMinLength || n > passwordMaxLength {
		return false
	}
	var upper, lower, digitOrSymbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r), r != '_' && !unicode.IsLetter(r):
			digitOrSymbol = true
		}
	}
	return upper && lower && digitOrSymbol
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "strongpwd":
		return fmt.Sprintf("must be %d-%d characters with uppercase, lowercase and a number or symbol", passwordMinLength, passwordMaxLength)
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + param + " characters long"
		}
		return "must be at least " + param
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + param + " characters long"
		}
		return "must be at most " + param
	default:
		return fmt.Sprintf("validation failed for '%s'", fe.Tag())
	}
}
