package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/editais-pncp/portal-client/internal/core/domain"
)

func validRegistration() domain.Registration {
	return domain.Registration{
		Name:            "Maria Silva",
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "Senha@123",
		ConfirmPassword: "Senha@123",
	}
}

func TestValidate_Credentials(t *testing.T) {
	v := New()
	if err := v.Validate(domain.Credentials{Username: "maria", Password: "x"}); err != nil {
		t.Fatalf("expected valid credentials, got %v", err)
	}
	err := v.Validate(domain.Credentials{})
	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if !strings.Contains(err.Error(), "o campo usuário é obrigatório") || !strings.Contains(err.Error(), "o campo senha é obrigatório") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidate_Registration(t *testing.T) {
	v := New()
	if err := v.Validate(validRegistration()); err != nil {
		t.Fatalf("expected valid registration, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *domain.Registration)
		want   string
	}{
		{"bad email", func(r *domain.Registration) { r.Email = "not-an-email" }, "o campo e-mail deve conter um e-mail válido"},
		{"short password", func(r *domain.Registration) { r.Password, r.ConfirmPassword = "Ab1!", "Ab1!" }, "o campo senha deve ter ao menos 6 caracteres"},
		{"no special", func(r *domain.Registration) { r.Password, r.ConfirmPassword = "Senha123", "Senha123" }, "o campo senha deve conter letra maiúscula"},
		{"no upper", func(r *domain.Registration) { r.Password, r.ConfirmPassword = "senha@123", "senha@123" }, "o campo senha deve conter letra maiúscula"},
		{"mismatch", func(r *domain.Registration) { r.ConfirmPassword = "Outra@123" }, "o campo confirmação da senha deve ser igual ao campo senha"},
		{"missing name", func(r *domain.Registration) { r.Name = "" }, "o campo nome é obrigatório"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.mutate(&reg)
			err := v.Validate(reg)
			if !errors.Is(err, domain.ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestValidate_PasswordPolicy(t *testing.T) {
	v := New()
	tests := []struct {
		password string
		valid    bool
	}{
		{"Senha@123", true},
		{"Abc12 x", true},
		{"Senha_123", true},
		{"Senhaç123", true},
		{"Senha123", false},
		{"SENHA@123", false},
		{"senha@123", false},
		{"Senha@abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			reg := validRegistration()
			reg.Password, reg.ConfirmPassword = tt.password, tt.password
			err := v.Validate(reg)
			if tt.valid && err != nil {
				t.Fatalf("expected %q to be accepted, got %v", tt.password, err)
			}
			if !tt.valid && err == nil {
				t.Fatalf("expected %q to be rejected", tt.password)
			}
		})
	}
}
