package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/raywall/car-listing-service/pkg/catalog"
	"github.com/raywall/car-listing-service/pkg/inventory"
	"github.com/raywall/car-listing-service/pkg/listing"
	"github.com/raywall/car-listing-service/pkg/query"
	"github.com/raywall/car-listing-service/pkg/rules"
)

// ValidationReport contém o resultado da análise de um catálogo.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Version  string   `json:"version,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Explanation é a consulta que o serviço geraria para uma entrada.
type Explanation struct {
	Route      string            `json:"route"`
	Query      string            `json:"query"`
	Parameters []query.Parameter `json:"parameters"`
}

func main() {
	os.Exit(runCommand(os.Args[1:], os.Stdout))
}

func runCommand(args []string, out io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(out, "Comandos esperados: validate | explain")
		return 1
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(out)
		file := fs.String("file", "", "Caminho do catálogo YAML ou URI s3://")
		format := fs.String("format", "text", "Formato de saída: text | json")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		if *file == "" {
			fmt.Fprintln(out, "Erro: flag -file é obrigatória")
			return 1
		}
		return runValidate(context.Background(), *file, *format, out)

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(out)
		file := fs.String("file", "", "Catálogo (vazio usa o embutido)")
		raw := fs.String("query", "", "Query string de GET /fetch-items (ex: brand=Toyota&limit=5)")
		body := fs.String("body", "", "Corpo JSON de POST /filter-cars")
		maxLimit := fs.Int("max-page-size", 100, "Limite máximo de LIMIT")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		return runExplain(context.Background(), *file, *raw, *body, *maxLimit, out)

	default:
		fmt.Fprintf(out, "Comando desconhecido: %s\n", args[0])
		return 1
	}
}

func runValidate(ctx context.Context, path, format string, out io.Writer) int {
	report := analyze(ctx, path)

	if format == "json" {
		data, _ := json.Marshal(report)
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "Analisando catálogo: %s ...\n", path)
		for _, w := range report.Warnings {
			fmt.Fprintf(out, " ! %s\n", w)
		}
		if report.Valid {
			fmt.Fprintln(out, "Catálogo válido e pronto para deploy!")
		} else {
			fmt.Fprintln(out, "O catálogo contém erros:")
			for _, e := range report.Errors {
				fmt.Fprintf(out, " - %s\n", e)
			}
		}
	}

	if !report.Valid {
		return 1 // Falha no CI
	}
	return 0
}

// analyze carrega o catálogo e compila cada regra CEL isoladamente, para
// reportar todos os erros de uma vez.
func analyze(ctx context.Context, path string) *ValidationReport {
	report := &ValidationReport{Valid: true}

	cat, err := catalog.NewLoader("").Load(ctx, path)
	if err != nil {
		report.Valid = false
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	report.Version = cat.Version

	rm, err := rules.NewRuleManager()
	if err != nil {
		report.Valid = false
		report.Errors = append(report.Errors, fmt.Sprintf("falha interna ao iniciar analisador de regras: %v", err))
		return report
	}

	known := map[string]bool{
		inventory.RouteFetchItems: true,
		inventory.RouteFilterCars: true,
	}
	for _, r := range cat.Validations {
		if _, err := rm.CompileProgram(r.Expr); err != nil {
			report.Valid = false
			report.Errors = append(report.Errors, fmt.Sprintf("Validation[%s]: Erro de sintaxe CEL: %v", r.ID, err))
		}
		for _, route := range r.Routes {
			if !known[route] {
				report.Warnings = append(report.Warnings, fmt.Sprintf("Validation[%s]: rota '%s' não possui filtros", r.ID, route))
			}
		}
	}

	for _, f := range cat.SortFields {
		if !hasField(cat.Query, f) && !hasField(cat.Body, f) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("sort_fields: '%s' não é filtrável", f))
		}
	}

	return report
}

func hasField(filters []catalog.Filter, field string) bool {
	for _, f := range filters {
		if f.Field == field {
			return true
		}
	}
	return false
}

func runExplain(ctx context.Context, path, raw, body string, maxLimit int, out io.Writer) int {
	cat, err := catalog.NewLoader("").Load(ctx, path)
	if err != nil {
		fmt.Fprintf(out, "Erro ao carregar catálogo: %v\n", err)
		return 1
	}

	rm, err := rules.NewRuleManager()
	if err != nil {
		fmt.Fprintf(out, "Erro interno: %v\n", err)
		return 1
	}
	rs, err := rm.Compile(cat.Validations)
	if err != nil {
		fmt.Fprintf(out, "Erro nas regras do catálogo: %v\n", err)
		return 1
	}

	var (
		route string
		req   *listing.Request
	)
	if body != "" {
		route = inventory.RouteFilterCars
		req, err = listing.ParseBody([]byte(body), cat, maxLimit)
	} else {
		route = inventory.RouteFetchItems
		var values url.Values
		if values, err = url.ParseQuery(strings.TrimPrefix(raw, "?")); err == nil {
			req, err = listing.ParseQuery(values, cat, maxLimit)
		}
	}
	if err != nil {
		fmt.Fprintf(out, "Entrada inválida: %v\n", err)
		return 1
	}

	violation, err := rs.Check(route, req.Values())
	if err != nil {
		fmt.Fprintf(out, "Erro ao avaliar regras: %v\n", err)
		return 1
	}
	if violation != nil {
		fmt.Fprintf(out, "Rejeitado pela regra %s (%d): %s\n", violation.RuleID, violation.Code, violation.Msg)
		return 1
	}

	stmt, err := req.Statement(cat)
	if err != nil {
		fmt.Fprintf(out, "Erro ao montar consulta: %v\n", err)
		return 1
	}

	data, _ := json.MarshalIndent(Explanation{Route: route, Query: stmt.Text, Parameters: stmt.Parameters}, "", "  ")
	fmt.Fprintln(out, string(data))
	return 0
}
