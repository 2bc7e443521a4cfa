package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"github.com/raywall/car-listing-service/pkg/catalog"
)

// RuleManager gerencia a compilação e avaliação das validações CEL do catálogo.
type RuleManager struct {
	env *cel.Env
}

// NewRuleManager inicializa o ambiente CEL com as variáveis expostas às regras.
func NewRuleManager() (*RuleManager, error) {
	env, err := cel.NewEnv(
		cel.StdLib(),
		cel.Declarations(
			decls.NewVar("filter", decls.NewMapType(decls.String, decls.Dyn)), // Filtros já parseados
			decls.NewVar("route", decls.String),                               // Rota em execução
		),
	)
	if err != nil {
		return nil, fmt.Errorf("erro fatal CEL init: %w", err)
	}

	return &RuleManager{env: env}, nil
}

// CompileProgram compila uma expressão em um programa reutilizável.
func (rm *RuleManager) CompileProgram(expr string) (cel.Program, error) {
	ast, issues := rm.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("erro de compilação CEL '%s': %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expressão CEL '%s' não retorna bool", expr)
	}
	prg, err := rm.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar programa CEL: %w", err)
	}
	return prg, nil
}

// Violation descreve a primeira regra que reprovou a requisição.
type Violation struct {
	RuleID string
	Code   int
	Msg    string
}

type compiledRule struct {
	rule    catalog.Rule
	program cel.Program
}

// RuleSet guarda as regras do catálogo já compiladas, agrupadas por rota.
// É imutável depois de criado e pode ser compartilhado entre requisições.
type RuleSet struct {
	byRoute map[string][]compiledRule
}

// Compile compila todas as validações do catálogo no boot, falhando cedo
// para expressões inválidas.
func (rm *RuleManager) Compile(rules []catalog.Rule) (*RuleSet, error) {
	set := &RuleSet{byRoute: make(map[string][]compiledRule)}
	for _, r := range rules {
		prg, err := rm.CompileProgram(r.Expr)
		if err != nil {
			return nil, fmt.Errorf("regra %s: %w", r.ID, err)
		}
		for _, route := range r.Routes {
			set.byRoute[route] = append(set.byRoute[route], compiledRule{rule: r, program: prg})
		}
	}
	return set, nil
}

// Check avalia as regras da rota na ordem do catálogo. Retorna nil quando
// todas aprovam.
func (s *RuleSet) Check(route string, filter map[string]interface{}) (*Violation, error) {
	if s == nil {
		return nil, nil
	}

	vars := map[string]interface{}{
		"filter": filter,
		"route":  route,
	}

	for _, cr := range s.byRoute[route] {
		out, _, err := cr.program.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("erro execução CEL (%s): %w", cr.rule.ID, err)
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return nil, fmt.Errorf("resultado da regra %s não é booleano", cr.rule.ID)
		}
		if !ok {
			return &Violation{RuleID: cr.rule.ID, Code: cr.rule.OnFail.Code, Msg: cr.rule.OnFail.Msg}, nil
		}
	}
	return nil, nil
}
