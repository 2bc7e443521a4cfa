package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidate_File(t *testing.T) {
	var out bytes.Buffer
	path := writeCatalog(t, `
version: "1.0"
prefix: car_overview
sort_fields: [price]
query:
  - {param: minPrice, field: price, op: ">=", kind: number}
`)

	code := runCommand([]string{"validate", "-file", path}, &out)
	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Catálogo válido")
}

func TestValidate_JSONReport(t *testing.T) {
	path := writeCatalog(t, `
version: "1.0"
prefix: car_overview
sort_fields: [price, color]
query:
  - {param: minPrice, field: price, op: ">=", kind: number}
validations:
  - id: broken
    routes: [fetch_items]
    expr: "filter.("
    on_fail: {code: 400, msg: "x"}
  - id: orphan
    routes: [fetch_all_items]
    expr: "true"
    on_fail: {code: 400, msg: "y"}
`)

	var out bytes.Buffer
	code := runCommand([]string{"validate", "-file", path, "-format", "json"}, &out)
	assert.Equal(t, 1, code)

	var report ValidationReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.False(t, report.Valid)
	assert.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "broken")
	assert.Len(t, report.Warnings, 2)
}

func TestValidate_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, runCommand([]string{"validate"}, &out))
	assert.Contains(t, out.String(), "-file")

	out.Reset()
	path := writeCatalog(t, "version: 1\nunknown: true\n")
	assert.Equal(t, 1, runCommand([]string{"validate", "-file", path}, &out))
	assert.Contains(t, out.String(), "erros")

	out.Reset()
	assert.Equal(t, 1, runCommand([]string{"deploy"}, &out))
	assert.Equal(t, 1, runCommand(nil, &out))
}

func TestExplain_Query(t *testing.T) {
	var out bytes.Buffer
	code := runCommand([]string{"explain", "-query", "?brand=Toyota&minPrice=10000&sortBy=price&sortDir=desc&limit=5&offset=10"}, &out)
	require.Equal(t, 0, code, out.String())

	var exp Explanation
	require.NoError(t, json.Unmarshal(out.Bytes(), &exp))
	assert.Equal(t, "fetch_items", exp.Route)
	assert.Equal(t,
		"SELECT * FROM c WHERE 1=1 AND c.car_overview.brand = @brand_0 AND c.car_overview.price >= @price_1 ORDER BY c.car_overview.price DESC OFFSET 10 LIMIT 5",
		exp.Query)
	require.Len(t, exp.Parameters, 2)
	assert.Equal(t, "@brand_0", exp.Parameters[0].Name)
	assert.Equal(t, "Toyota", exp.Parameters[0].Value)
	assert.Equal(t, 10000.0, exp.Parameters[1].Value)
}

func TestExplain_Body(t *testing.T) {
	var out bytes.Buffer
	code := runCommand([]string{"explain", "-body", `{"brand":["Audi"],"model":["A4"]}`}, &out)
	require.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "filter_cars")

	out.Reset()
	code = runCommand([]string{"explain", "-body", `{"model":["A4"]}`}, &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "model_requires_brand")
}

func TestExplain_InvalidInput(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, runCommand([]string{"explain", "-query", "limit=-3"}, &out))
	assert.Contains(t, out.String(), "Entrada inválida")
}
