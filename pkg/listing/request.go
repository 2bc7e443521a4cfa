// Package listing transforma a entrada de uma requisição (query string ou
// corpo JSON) em um Request tipado e validado, sem nenhum I/O.
//
// O Request é a fronteira entre o transporte e o banco: tudo o que chega ao
// query.Builder passou por aqui e foi convertido para string ou float64
// conforme o catálogo.
package listing

import (
	"github.com/raywall/car-listing-service/pkg/catalog"
	"github.com/raywall/car-listing-service/pkg/query"
)

// Condition é um filtro presente na requisição com seus valores já tipados.
type Condition struct {
	Filter catalog.Filter
	Values []any
}

// Sort é a ordenação pedida. Só existe quando o campo está na allow-list.
type Sort struct {
	Field     string
	Direction query.Direction
}

// Request é o modelo parseado de uma consulta de listagem.
type Request struct {
	Conditions []Condition
	Sort       *Sort
	Offset     int
	Limit      int
}

func newRequest() *Request {
	return &Request{
		Offset: query.DefaultOffset,
		Limit:  query.DefaultLimit,
	}
}

// Values expõe os filtros presentes por nome de parâmetro, no formato
// consumido pelas regras CEL. Filtros com um único valor viram escalares.
func (r *Request) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Conditions))
	for _, c := range r.Conditions {
		if len(c.Values) == 1 && c.Filter.Op != query.OpIn {
			out[c.Filter.Param] = c.Values[0]
			continue
		}
		out[c.Filter.Param] = c.Values
	}
	return out
}

// Statement serializa o Request com as configurações do catálogo.
func (r *Request) Statement(cat *catalog.Catalog) (query.Statement, error) {
	b := cat.NewBuilder()

	for _, c := range r.Conditions {
		op := c.Filter.Op
		if len(c.Values) > 1 {
			op = query.OpIn
		}
		b.Where(query.Clause{Field: c.Filter.Field, Op: op, Values: c.Values})
	}

	if r.Sort != nil {
		b.OrderBy(r.Sort.Field, r.Sort.Direction)
	}

	return b.Page(r.Offset, r.Limit).Build()
}
