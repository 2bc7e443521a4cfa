package query

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidField    = errors.New("query: invalid field name")
	ErrInvalidOperator = errors.New("query: invalid operator")
	ErrInvalidValue    = errors.New("query: invalid clause value")
	ErrSortNotAllowed  = errors.New("query: sort field not allowed")
	ErrInvalidPage     = errors.New("query: invalid offset or limit")
)

// ClauseError identifica qual cláusula falhou na validação.
type ClauseError struct {
	Field string
	Err   error
}

func (e *ClauseError) Error() string {
	return fmt.Sprintf("%v (field %q)", e.Err, e.Field)
}

func (e *ClauseError) Unwrap() error {
	return e.Err
}
