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
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc tem a mesma assinatura de os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Loader preenche structs a partir de uma fonte de variáveis.
type Loader struct {
	lookup LookupFunc
}

// Option configura um Loader.
type Option func(*Loader)

// WithLookup troca a fonte das variáveis (padrão: os.LookupEnv).
func WithLookup(fn LookupFunc) Option {
	return func(l *Loader) {
		if fn != nil {
			l.lookup = fn
		}
	}
}

// FromMap é um LookupFunc sobre um mapa em memória, útil em testes.
func FromMap(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// New cria um Loader. Sem opções ele lê o ambiente do processo.
func New(opts ...Option) *Loader {
	l := &Loader{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lookup devolve a fonte de variáveis usada pelo Loader.
func (l *Loader) Lookup() LookupFunc {
	return l.lookup
}

var durationType = reflect.TypeOf(time.Duration(0))

// Load preenche uma struct com valores de variáveis de ambiente
// baseado nas tags "env" e "envDefault".
//
// Erros:
//   - InvalidConfigError: se 'config' não for um ponteiro para struct.
//   - FieldError: se a conversão de uma variável para o tipo do campo falhar.
func (l *Loader) Load(config interface{}) error {
	val := reflect.ValueOf(config)
	if !val.IsValid() || val.Kind() != reflect.Ptr || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		var typ reflect.Type
		if val.IsValid() {
			typ = val.Type()
		}
		return &InvalidConfigError{Value: typ}
	}

	return l.loadStruct(val.Elem())
}

// loadStruct processa recursivamente uma struct
func (l *Loader) loadStruct(val reflect.Value) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		// Structs aninhadas são processadas recursivamente
		if field.Kind() == reflect.Struct {
			if err := l.loadStruct(field); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			if err := l.loadStruct(field.Elem()); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		// Variável definida porém vazia conta como ausente
		envValue, _ := l.lookup(envTag)
		if envValue == "" {
			envValue = fieldType.Tag.Get("envDefault")
		}
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return &FieldError{
				FieldName: fieldType.Name,
				EnvVar:    envTag,
				Err:       err,
			}
		}
	}

	return nil
}

// setFieldValue converte a string para o tipo nativo do campo.
func setFieldValue(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return ErrInvalidDuration
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(intValue)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintValue, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(uintValue)

	case reflect.Bool:
		boolValue, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return err
		}
		field.SetBool(boolValue)

	case reflect.Float32, reflect.Float64:
		floatValue, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return &UnsupportedTypeError{Type: field.Type()}
		}
		parts := strings.Split(value, ",")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items).Convert(field.Type()))

	default:
		return &UnsupportedTypeError{Type: field.Type()}
	}

	return nil
}

// Load usa um Loader padrão sobre o ambiente do processo.
func Load(config interface{}) error {
	return New().Load(config)
}

// MustLoad é similar ao Load, mas panic em caso de erro
func MustLoad(config interface{}) {
	if err := Load(config); err != nil {
		panic(err)
	}
}
