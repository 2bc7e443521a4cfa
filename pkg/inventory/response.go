package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raywall/car-listing-service/pkg/apperr"
	"github.com/raywall/car-listing-service/pkg/listing"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"

	msgInvalidQuery = "Invalid query."
)

// Response é o resultado de uma operação, independente do transporte.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// JSON monta uma resposta com corpo JSON já serializado.
func JSON(status int, body []byte) Response {
	return Response{
		StatusCode: status,
		Body:       body,
		Headers:    map[string]string{"Content-Type": contentTypeJSON},
	}
}

// Error monta a resposta de erro em texto puro. Só a mensagem pública vai
// para o corpo.
func Error(e *apperr.Error) Response {
	return Response{
		StatusCode: e.Status,
		Body:       []byte(e.Public),
		Headers:    map[string]string{"Content-Type": contentTypeText},
	}
}

// documents serializa os documentos como array JSON sem reescrevê-los.
func documents(items []json.RawMessage) Response {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(item)
	}
	buf.WriteByte(']')
	return JSON(200, buf.Bytes())
}

// validationError traduz erros de parse em mensagens públicas fixas.
func validationError(err error) *apperr.Error {
	if errors.Is(err, listing.ErrInvalidJSON) {
		return apperr.Validation(400, apperr.MsgInvalidJSON, err)
	}

	var pe *listing.ParamError
	if errors.As(err, &pe) {
		return apperr.Validation(400, fmt.Sprintf("Invalid value for parameter %s.", pe.Param), err)
	}
	return apperr.Validation(400, msgInvalidQuery, err)
}
