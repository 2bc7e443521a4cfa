package query

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultLimit  = 20
	DefaultOffset = 0

	// Alias do container usado no FROM.
	Alias = "c"
)

// DefaultSortFields é a allow-list padrão de campos ordenáveis.
var DefaultSortFields = []string{"price", "mileage", "pk", "year", "registration"}

// Parameter é um parâmetro vinculado no formato do Cosmos DB.
type Parameter struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Statement é a consulta serializada, pronta para o SDK.
type Statement struct {
	Text       string      `json:"query"`
	Parameters []Parameter `json:"parameters"`
}

// SelectAll devolve a consulta sem filtros usada na leitura completa.
func SelectAll() Statement {
	return Statement{Text: "SELECT * FROM " + Alias}
}

type sortSpec struct {
	field string
	dir   Direction
}

// Builder acumula cláusulas tipadas e as serializa em um Statement.
// Não é seguro para uso concorrente; crie um por requisição.
type Builder struct {
	prefix  string
	allowed map[string]struct{}
	clauses []Clause
	sort    *sortSpec
	offset  int
	limit   int
}

// Option configura o Builder.
type Option func(*Builder)

// WithPrefix define o objeto aninhado onde os campos vivem (ex: "car_overview").
func WithPrefix(prefix string) Option {
	return func(b *Builder) {
		b.prefix = prefix
	}
}

// WithSortAllowList substitui a allow-list de ORDER BY.
func WithSortAllowList(fields ...string) Option {
	return func(b *Builder) {
		b.allowed = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			b.allowed[f] = struct{}{}
		}
	}
}

// New cria um Builder com OFFSET 0 LIMIT 20 e a allow-list padrão.
func New(opts ...Option) *Builder {
	b := &Builder{
		offset: DefaultOffset,
		limit:  DefaultLimit,
	}
	WithSortAllowList(DefaultSortFields...)(b)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// === MÉTODOS FLUENTES ===

func (b *Builder) Where(c Clause) *Builder {
	b.clauses = append(b.clauses, c)
	return b
}

func (b *Builder) Equal(field string, value any) *Builder {
	return b.Where(Clause{Field: field, Op: OpEqual, Values: []any{value}})
}

func (b *Builder) GreaterOrEqual(field string, value any) *Builder {
	return b.Where(Clause{Field: field, Op: OpGreaterOrEqual, Values: []any{value}})
}

func (b *Builder) LessOrEqual(field string, value any) *Builder {
	return b.Where(Clause{Field: field, Op: OpLessOrEqual, Values: []any{value}})
}

func (b *Builder) In(field string, values ...any) *Builder {
	return b.Where(Clause{Field: field, Op: OpIn, Values: values})
}

func (b *Builder) OrderBy(field string, dir Direction) *Builder {
	b.sort = &sortSpec{field: field, dir: dir}
	return b
}

func (b *Builder) Page(offset, limit int) *Builder {
	b.offset = offset
	b.limit = limit
	return b
}

// SortAllowed informa se o campo está na allow-list deste Builder.
func (b *Builder) SortAllowed(field string) bool {
	_, ok := b.allowed[field]
	return ok
}

// Clauses devolve uma cópia das cláusulas acumuladas.
func (b *Builder) Clauses() []Clause {
	out := make([]Clause, len(b.clauses))
	copy(out, b.clauses)
	return out
}

// Build valida e serializa a consulta.
func (b *Builder) Build() (Statement, error) {
	if b.offset < 0 || b.limit <= 0 {
		return Statement{}, fmt.Errorf("%w: offset=%d limit=%d", ErrInvalidPage, b.offset, b.limit)
	}

	var sb strings.Builder
	params := make([]Parameter, 0, len(b.clauses))

	sb.WriteString("SELECT * FROM ")
	sb.WriteString(Alias)
	sb.WriteString(" WHERE 1=1")

	for i, c := range b.clauses {
		if err := c.validate(); err != nil {
			return Statement{}, err
		}

		sb.WriteString(" AND ")
		sb.WriteString(b.path(c.Field))
		sb.WriteByte(' ')
		sb.WriteString(string(c.Op))
		sb.WriteByte(' ')

		base := "@" + c.Field + "_" + strconv.Itoa(i)
		if c.Op == OpIn {
			names := make([]string, len(c.Values))
			for j, v := range c.Values {
				names[j] = base + "_" + strconv.Itoa(j)
				params = append(params, Parameter{Name: names[j], Value: v})
			}
			sb.WriteString("(" + strings.Join(names, ", ") + ")")
			continue
		}

		sb.WriteString(base)
		params = append(params, Parameter{Name: base, Value: c.Values[0]})
	}

	if b.sort != nil {
		if !ValidField(b.sort.field) || !b.SortAllowed(b.sort.field) {
			return Statement{}, fmt.Errorf("%w: %q", ErrSortNotAllowed, b.sort.field)
		}
		dir := b.sort.dir
		if dir != Desc {
			dir = Asc
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.path(b.sort.field))
		sb.WriteByte(' ')
		sb.WriteString(string(dir))
	}

	sb.WriteString(" OFFSET ")
	sb.WriteString(strconv.Itoa(b.offset))
	sb.WriteString(" LIMIT ")
	sb.WriteString(strconv.Itoa(b.limit))

	return Statement{Text: sb.String(), Parameters: params}, nil
}

func (b *Builder) path(field string) string {
	if b.prefix == "" {
		return Alias + "." + field
	}
	return Alias + "." + b.prefix + "." + field
}
