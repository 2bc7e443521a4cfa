// Package apperr define os erros de aplicação do serviço e o que deles pode
// chegar ao cliente.
//
// Só a mensagem pública (Public) é escrita no corpo da resposta. O erro
// interno (Err) pode conter texto do SDK do Cosmos, fragmentos da connection
// string ou detalhes do catálogo, e por isso só vai para o log.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifica o erro.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindStore         Kind = "store"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Mensagens públicas fixas.
const (
	MsgConfiguration = "Database connection is not configured."
	MsgStore         = "Failed to fetch data."
	MsgInvalidJSON   = "Invalid JSON"
	MsgNotFound      = "Not found."
	MsgInternal      = "Internal server error."
)

// Error é o erro de aplicação.
type Error struct {
	Kind   Kind
	Status int
	Public string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Public, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Public)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration indica segredo ausente ou que não pôde ser resolvido.
func Configuration(err error) *Error {
	return &Error{Kind: KindConfiguration, Status: http.StatusInternalServerError, Public: MsgConfiguration, Err: err}
}

// Store indica falha ao abrir o cliente ou executar a consulta.
func Store(err error) *Error {
	return &Error{Kind: KindStore, Status: http.StatusInternalServerError, Public: MsgStore, Err: err}
}

// Validation indica entrada rejeitada. public deve ser um texto fixo.
func Validation(status int, public string, err error) *Error {
	if status < 400 || status > 499 {
		status = http.StatusBadRequest
	}
	return &Error{Kind: KindValidation, Status: status, Public: public, Err: err}
}

// NotFound indica rota desconhecida.
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Public: MsgNotFound}
}

// Internal embrulha qualquer erro não classificado.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Public: MsgInternal, Err: err}
}

// From converte qualquer erro em *Error, classificando como interno o que
// não for um erro de aplicação.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
