package listing

import (
	"errors"
	"fmt"
)

// ErrInvalidJSON indica um corpo que não é um objeto JSON.
var ErrInvalidJSON = errors.New("listing: invalid JSON body")

// ParamError indica um parâmetro conhecido com valor inválido. Param vem
// sempre do catálogo ou dos parâmetros de controle, nunca da entrada.
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("listing: invalid value for parameter %s: %v", e.Param, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

var (
	errNotNumber   = errors.New("not a finite number")
	errNotString   = errors.New("not a string")
	errNotPositive = errors.New("must be greater than zero")
	errNegative    = errors.New("must not be negative")
)
