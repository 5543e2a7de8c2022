package apperr

import (
	"errors"
	"net/http"
)

// Error é o erro de negócio padrão da API: carrega status HTTP, código
// estável e mensagem curta exibível ao usuário final. Texto de erro da
// camada de armazenamento nunca entra na mensagem.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation indica entrada malformada ou semanticamente inválida.
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "VALIDATION", Message: message}
}

// NotFound indica entidade inexistente (ou inativa quando atividade é exigida)
// dentro do tenant do chamador.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: message}
}

// Conflict indica violação de invariante de estado (ex.: ponto já aberto).
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: "CONFLICT", Message: message}
}

// Unauthorized indica sessão ausente, expirada ou credenciais recusadas.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

// Forbidden indica falta de papel ou de vínculo exigido pela operação.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: message}
}

// Internal encobre falhas inesperadas com mensagem neutra.
func Internal(message string) *Error {
	if message == "" {
		message = "erro interno"
	}
	return &Error{Status: http.StatusInternalServerError, Code: "INTERNAL", Message: message}
}

// From extrai *Error de uma cadeia; devolve Internal genérico caso contrário.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("")
}

// Is* helpers para os switches das camadas HTTP e de serviço.

func IsNotFound(err error) bool  { return hasCode(err, "NOT_FOUND") }
func IsConflict(err error) bool  { return hasCode(err, "CONFLICT") }
func IsForbidden(err error) bool { return hasCode(err, "FORBIDDEN") }

func hasCode(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
