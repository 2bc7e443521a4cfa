package listing

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/raywall/car-listing-service/pkg/catalog"
	"github.com/raywall/car-listing-service/pkg/query"
)

// Parâmetros de controle comuns a GET e POST.
const (
	ParamSortBy  = "sortBy"
	ParamSortDir = "sortDir"
	ParamLimit   = "limit"
	ParamOffset  = "offset"
)

// ParseQuery lê os filtros do catálogo (seção query) a partir da query string.
//
// Parâmetros vazios são ignorados. Um parâmetro de igualdade repetido vira
// IN; nos de faixa (>=, <=) só o primeiro valor conta. sortBy fora da
// allow-list é ignorado em silêncio. maxLimit > 0 limita o LIMIT.
func ParseQuery(values url.Values, cat *catalog.Catalog, maxLimit int) (*Request, error) {
	req := newRequest()

	for _, f := range cat.Query {
		raw := nonEmpty(values[f.Param])
		if len(raw) == 0 {
			continue
		}

		if len(raw) > 1 && !multiValue(f.Op) {
			raw = raw[:1]
		}

		cond := Condition{Filter: f}
		for _, v := range raw {
			if f.Kind != catalog.KindNumber {
				cond.Values = append(cond.Values, v)
				continue
			}
			n, err := parseNumber(v)
			if err != nil {
				return nil, &ParamError{Param: f.Param, Err: err}
			}
			cond.Values = append(cond.Values, n)
		}
		req.Conditions = append(req.Conditions, cond)
	}

	if field := values.Get(ParamSortBy); field != "" && cat.SortAllowed(field) {
		req.Sort = &Sort{Field: field, Direction: query.ParseDirection(values.Get(ParamSortDir))}
	}

	if v := values.Get(ParamLimit); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, &ParamError{Param: ParamLimit, Err: errNotNumber}
		}
		req.Limit = n
	}
	if v := values.Get(ParamOffset); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, &ParamError{Param: ParamOffset, Err: errNotNumber}
		}
		req.Offset = n
	}

	if err := req.checkPage(maxLimit); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseBody lê os filtros do catálogo (seção body) a partir de um objeto
// JSON. Cada filtro aceita um valor ou uma lista; null, "" e [] contam como
// ausentes.
func ParseBody(body []byte, cat *catalog.Catalog, maxLimit int) (*Request, error) {
	var doc map[string]interface{}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return nil, ErrInvalidJSON
	}

	req := newRequest()

	for _, f := range cat.Body {
		items := asList(doc[f.Param])
		if len(items) == 0 {
			continue
		}

		cond := Condition{Filter: f}
		for _, item := range items {
			switch f.Kind {
			case catalog.KindNumber:
				n, err := jsonNumber(item)
				if err != nil {
					return nil, &ParamError{Param: f.Param, Err: err}
				}
				cond.Values = append(cond.Values, n)
			default:
				s, err := jsonString(item)
				if err != nil {
					return nil, &ParamError{Param: f.Param, Err: err}
				}
				cond.Values = append(cond.Values, s)
			}
		}
		if len(cond.Values) > 1 && !multiValue(f.Op) {
			cond.Values = cond.Values[:1]
		}
		req.Conditions = append(req.Conditions, cond)
	}

	if field, ok := doc[ParamSortBy].(string); ok && cat.SortAllowed(field) {
		dir, _ := doc[ParamSortDir].(string)
		req.Sort = &Sort{Field: field, Direction: query.ParseDirection(dir)}
	}

	paging := []struct {
		param  string
		target *int
	}{
		{ParamLimit, &req.Limit},
		{ParamOffset, &req.Offset},
	}
	for _, p := range paging {
		v, ok := doc[p.param]
		if !ok || v == nil {
			continue
		}
		n, err := jsonInt(v)
		if err != nil {
			return nil, &ParamError{Param: p.param, Err: err}
		}
		*p.target = n
	}

	if err := req.checkPage(maxLimit); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *Request) checkPage(maxLimit int) error {
	if r.Limit <= 0 {
		return &ParamError{Param: ParamLimit, Err: errNotPositive}
	}
	if r.Offset < 0 {
		return &ParamError{Param: ParamOffset, Err: errNegative}
	}
	if maxLimit > 0 && r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	return nil
}

// multiValue informa se o operador aceita virar IN com vários valores.
func multiValue(op query.Operator) bool {
	return op == query.OpEqual || op == query.OpIn
}

func nonEmpty(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseNumber(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errNotNumber
	}
	return n, nil
}

func asList(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]interface{}, 0, len(t))
		for _, item := range t {
			if item != nil && item != "" {
				out = append(out, item)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
	}
	return []interface{}{v}
}

func jsonNumber(v interface{}) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return parseNumber(t.String())
	case string:
		return parseNumber(t)
	}
	return 0, errNotNumber
}

func jsonString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	}
	return "", errNotString
}

func jsonInt(v interface{}) (int, error) {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = t
	default:
		return 0, errNotNumber
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	// JSON não distingue 10 de 10.0
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, errNotNumber
	}
	return int(f), nil
}
