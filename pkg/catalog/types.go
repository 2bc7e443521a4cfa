package catalog

import (
	"github.com/raywall/car-listing-service/pkg/query"
)

// Kind é o tipo do valor aceito por um filtro.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
)

// Catalog descreve quais parâmetros de entrada viram cláusulas e como.
type Catalog struct {
	Version     string   `yaml:"version" validate:"required"`
	Prefix      string   `yaml:"prefix" validate:"required"`
	SortFields  []string `yaml:"sort_fields" validate:"required,dive,required"`
	Query       []Filter `yaml:"query" validate:"required,dive"`
	Body        []Filter `yaml:"body" validate:"dive"`
	Validations []Rule   `yaml:"validations" validate:"dive"`
}

// Filter liga um parâmetro de entrada a um campo do documento.
type Filter struct {
	Param string         `yaml:"param" validate:"required"`
	Field string         `yaml:"field" validate:"required"`
	Op    query.Operator `yaml:"op" validate:"required"`
	Kind  Kind           `yaml:"kind" validate:"required,oneof=string number"`
}

// Rule é uma validação CEL avaliada sobre os filtros já parseados.
type Rule struct {
	ID     string   `yaml:"id" validate:"required"`
	Routes []string `yaml:"routes" validate:"required,dive,required"`
	Expr   string   `yaml:"expr" validate:"required"`
	OnFail Failure  `yaml:"on_fail" validate:"required"`
}

// Failure é a resposta pública de uma regra violada.
type Failure struct {
	Code int    `yaml:"code" validate:"gte=400,lt=500"`
	Msg  string `yaml:"msg" validate:"required"`
}

// SortAllowed informa se o campo pode ser usado no ORDER BY.
func (c *Catalog) SortAllowed(field string) bool {
	for _, f := range c.SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// RulesFor devolve as regras aplicáveis a uma rota.
func (c *Catalog) RulesFor(route string) []Rule {
	var out []Rule
	for _, r := range c.Validations {
		for _, rt := range r.Routes {
			if rt == route {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// NewBuilder cria um query.Builder já configurado com o prefixo e a
// allow-list deste catálogo.
func (c *Catalog) NewBuilder() *query.Builder {
	return query.New(
		query.WithPrefix(c.Prefix),
		query.WithSortAllowList(c.SortFields...),
	)
}
