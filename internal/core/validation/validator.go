// Package validation checks login and registration forms before they are sent.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/editais-pncp/portal-client/internal/core/domain"
)

const tagPasswordPolicy = "password_policy"

// Validator wraps go-playground/validator with the portal's password policy.
// It also satisfies echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom rules registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation(tagPasswordPolicy, passwordPolicy)
	return &Validator{v: v}
}

// Validate returns nil or an error wrapping domain.ErrInvalidPayload whose
// message lists every failing field.
func (pv *Validator) Validate(i any) error {
	if err := pv.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidPayload, strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// passwordPolicy requires an upper case letter, a lower case letter, a digit
// and any other character. Spaces count as the latter, as on the backend.
func passwordPolicy(fl validator.FieldLevel) bool {
	var upper, lower, digit, special bool
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}

// fieldLabels names form fields the way the portal shows them.
var fieldLabels = map[string]string{
	"Name":            "nome",
	"Username":        "usuário",
	"Email":           "e-mail",
	"Password":        "senha",
	"ConfirmPassword": "confirmação da senha",
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return toSnake(field)
}

// fieldError converts a single FieldError into a message for the operator.
func fieldError(fe validator.FieldError) string {
	field := label(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("o campo %s é obrigatório", field)
	case "email":
		return fmt.Sprintf("o campo %s deve conter um e-mail válido", field)
	case "min":
		return fmt.Sprintf("o campo %s deve ter ao menos %s caracteres", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("o campo %s deve ser igual ao campo %s", field, label(fe.Param()))
	case tagPasswordPolicy:
		return fmt.Sprintf("o campo %s deve conter letra maiúscula, letra minúscula, número e caractere especial", field)
	default:
		return fmt.Sprintf("o campo %s é inválido (%s)", field, fe.Tag())
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
