// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package envloader

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// ErrInvalidDuration substitui o erro de time.ParseDuration, que inclui a
// entrada no texto.
var ErrInvalidDuration = errors.New("invalid duration")

// InvalidConfigError é retornado quando Load recebe algo que não é um
// ponteiro para struct.
type InvalidConfigError struct {
	Value reflect.Type
}

func (e *InvalidConfigError) Error() string {
	if e.Value == nil {
		return "envloader: config must be a pointer to struct, got nil"
	}
	if e.Value.Kind() != reflect.Ptr {
		return fmt.Sprintf("envloader: config must be a pointer to struct, got %s", e.Value.Kind())
	}
	return fmt.Sprintf("envloader: config must be a pointer to struct, got pointer to %s", e.Value.Elem().Kind())
}

// FieldError indica que o valor de uma variável não pôde ser convertido
// para o tipo do campo.
//
// O valor bruto não entra na mensagem: variáveis como COSMOS_DB_CONNECTION
// carregam credenciais e esta mensagem acaba em log.
type FieldError struct {
	// FieldName é o nome do campo da struct (ex: "Port").
	FieldName string
	// EnvVar é o nome da variável de ambiente (ex: "PORT").
	EnvVar string
	// Err é o erro de conversão original (ex: *strconv.NumError).
	Err error
}

func (e *FieldError) Error() string {
	cause := e.Err
	var numErr *strconv.NumError
	if errors.As(e.Err, &numErr) {
		// NumError.Error() repete a entrada
		cause = fmt.Errorf("%s: %w", numErr.Func, numErr.Err)
	}
	return fmt.Sprintf("envloader: error setting field %s from env %s: %v", e.FieldName, e.EnvVar, cause)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// UnsupportedTypeError é retornado para tipos sem conversão (map, interface...).
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("envloader: unsupported type %s", e.Type)
}
