package util

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var crmPattern = regexp.MustCompile(`^\d{4,6}-[A-Z]{2}$`)

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email inválido")
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("senha deve ter pelo menos 8 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}

// NormalizeCPF remove pontuação e valida o formato de 11 dígitos.
func NormalizeCPF(cpf string) (string, error) {
	var digits strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	normalized := digits.String()
	if len(normalized) != 11 {
		return "", errors.New("CPF deve ter 11 dígitos")
	}
	return normalized, nil
}

// ValidateCRM valida o formato NNNN[NN]-UF do registro profissional.
func ValidateCRM(crm string) error {
	if !crmPattern.MatchString(strings.TrimSpace(crm)) {
		return errors.New("CRM inválido (formato esperado: 12345-UF)")
	}
	return nil
}
