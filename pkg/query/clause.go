package query

import (
	"math"
	"regexp"
	"strings"
)

// Operator é um operador de comparação suportado.
type Operator string

const (
	OpEqual          Operator = "="
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
	OpIn             Operator = "IN"
)

// Valid informa se o operador é conhecido.
func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpGreaterOrEqual, OpLessOrEqual, OpIn:
		return true
	}
	return false
}

// Direction é a direção do ORDER BY.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection aceita "desc" em qualquer caixa; qualquer outro valor é ASC.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// Clause é uma condição do WHERE. Todas as cláusulas são combinadas com AND.
type Clause struct {
	Field  string
	Op     Operator
	Values []any
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidField informa se o nome pode ser usado como segmento de caminho.
func ValidField(name string) bool {
	return identifierRegex.MatchString(name)
}

func (c Clause) validate() error {
	if !ValidField(c.Field) {
		return &ClauseError{Field: c.Field, Err: ErrInvalidField}
	}
	if !c.Op.Valid() {
		return &ClauseError{Field: c.Field, Err: ErrInvalidOperator}
	}
	if len(c.Values) == 0 || (c.Op != OpIn && len(c.Values) != 1) {
		return &ClauseError{Field: c.Field, Err: ErrInvalidValue}
	}
	for _, v := range c.Values {
		if !finite(v) {
			return &ClauseError{Field: c.Field, Err: ErrInvalidValue}
		}
	}
	return nil
}

func finite(v any) bool {
	switch n := v.(type) {
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		f := float64(n)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	case nil:
		return false
	}
	return true
}
