package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/raywall/car-listing-service/pkg/catalog"
	"github.com/raywall/car-listing-service/pkg/config"
	"github.com/raywall/car-listing-service/pkg/query"
	"github.com/raywall/car-listing-service/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConnection = "AccountEndpoint=https://cars.documents.azure.com:443/;AccountKey=c2VjcmV0;"

// fakeOpener registra as chamadas e devolve o MockStore configurado.
type fakeOpener struct {
	calls   int
	conn    string
	store   *store.MockStore
	openErr error
}

func (f *fakeOpener) Open(_ context.Context, connection string) (store.Store, error) {
	f.calls++
	f.conn = connection
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.store, nil
}

type stubResolver struct {
	value string
	err   error
}

func (r stubResolver) Resolve(context.Context, string) (string, error) {
	return r.value, r.err
}

func testConfig(connection string) *config.Config {
	return &config.Config{
		Service: config.ServiceConf{Name: "car-listing-service", MaxPageSize: 100},
		Cosmos:  config.CosmosConf{Connection: connection, Database: "avs-db", Container: "avs-cs"},
	}
}

// capture devolve um opener cujo Query guarda o statement recebido.
func capture(docs ...string) (*fakeOpener, *query.Statement) {
	var got query.Statement
	items := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		items = append(items, json.RawMessage(d))
	}
	op := &fakeOpener{store: &store.MockStore{
		QueryFn: func(_ context.Context, stmt query.Statement) ([]json.RawMessage, error) {
			got = stmt
			return items, nil
		},
		ReadAllFn: func(context.Context) ([]json.RawMessage, error) {
			return items, nil
		},
	}}
	return op, &got
}

func newTestService(t *testing.T, connection string, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(testConfig(connection), nil, opts...)
	require.NoError(t, err)
	return svc
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestFetchItems_ReferenceExample(t *testing.T) {
	op, got := capture(`{"id":"1","car_overview":{"brand":"Toyota"}}`)
	svc := newTestService(t, testConnection, WithOpener(op))

	resp := svc.FetchItems(context.Background(),
		mustQuery(t, "brand=Toyota&minPrice=10000&sortBy=price&sortDir=desc&limit=5&offset=10"))

	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `[{"id":"1","car_overview":{"brand":"Toyota"}}]`, string(resp.Body))

	assert.Equal(t,
		"SELECT * FROM c WHERE 1=1 AND c.car_overview.brand = @brand_0 AND c.car_overview.price >= @price_1 ORDER BY c.car_overview.price DESC OFFSET 10 LIMIT 5",
		got.Text)
	assert.Equal(t, []query.Parameter{
		{Name: "@brand_0", Value: "Toyota"},
		{Name: "@price_1", Value: 10000.0},
	}, got.Parameters)
	assert.Equal(t, testConnection, op.conn)
}

func TestFetchItems_Defaults(t *testing.T) {
	op, got := capture()
	svc := newTestService(t, testConnection, WithOpener(op))

	resp := svc.FetchItems(context.Background(), url.Values{})

	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "[]", string(resp.Body))
	assert.Equal(t, "SELECT * FROM c WHERE 1=1 OFFSET 0 LIMIT 20", got.Text)
	assert.Empty(t, got.Parameters)
}

func TestFetchItems_OneClausePerParameter(t *testing.T) {
	params := []string{"brand=A", "model=B", "variant=C", "fuel=D", "minPrice=1", "maxPrice=2", "minMileage=3", "maxMileage=4"}

	// todas as combinações dos parâmetros
	for mask := 0; mask < 1<<len(params); mask++ {
		var present []string
		for i, p := range params {
			if mask&(1<<i) != 0 {
				present = append(present, p)
			}
		}

		op, got := capture()
		svc := newTestService(t, testConnection, WithOpener(op))
		resp := svc.FetchItems(context.Background(), mustQuery(t, strings.Join(present, "&")))
		require.Equal(t, 200, resp.StatusCode)

		assert.Equal(t, len(present), strings.Count(got.Text, " AND "), got.Text)
		names := map[string]bool{}
		for _, p := range got.Parameters {
			names[p.Name] = true
		}
		assert.Len(t, names, len(present))
	}
}

func TestFetchItems_SortAllowList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"Fora da lista", "sortBy=color", ""},
		{"Injeção", "sortBy=price%20DESC%3BDROP", ""},
		{"ASC padrão", "sortBy=mileage", " ORDER BY c.car_overview.mileage ASC"},
		{"DESC case-insensitive", "sortBy=year&sortDir=dEsC", " ORDER BY c.car_overview.year DESC"},
		{"Direção inválida vira ASC", "sortBy=pk&sortDir=sideways", " ORDER BY c.car_overview.pk ASC"},
		{"registration", "sortBy=registration&sortDir=DESC", " ORDER BY c.car_overview.registration DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, got := capture()
			svc := newTestService(t, testConnection, WithOpener(op))
			resp := svc.FetchItems(context.Background(), mustQuery(t, tt.raw))
			require.Equal(t, 200, resp.StatusCode)

			if tt.want == "" {
				assert.NotContains(t, got.Text, "ORDER BY")
				return
			}
			assert.Contains(t, got.Text, tt.want+" OFFSET")
		})
	}
}

func TestFetchItems_RepeatedParameterBecomesIn(t *testing.T) {
	op, got := capture()
	svc := newTestService(t, testConnection, WithOpener(op))

	resp := svc.FetchItems(context.Background(), mustQuery(t, "brand=Audi&brand=BMW"))
	require.Equal(t, 200, resp.StatusCode)

	assert.Equal(t, "SELECT * FROM c WHERE 1=1 AND c.car_overview.brand IN (@brand_0_0, @brand_0_1) OFFSET 0 LIMIT 20", got.Text)
	assert.Equal(t, 1, strings.Count(got.Text, " AND "))
}

func TestFetchItems_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		body string
	}{
		{"limit não numérico", "limit=abc", "Invalid value for parameter limit."},
		{"limit zero", "limit=0", "Invalid value for parameter limit."},
		{"offset negativo", "offset=-1", "Invalid value for parameter offset."},
		{"preço não finito", "minPrice=NaN", "Invalid value for parameter minPrice."},
		{"preço texto", "maxPrice=cheap", "Invalid value for parameter maxPrice."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, _ := capture()
			svc := newTestService(t, testConnection, WithOpener(op))

			resp := svc.FetchItems(context.Background(), mustQuery(t, tt.raw))
			assert.Equal(t, 400, resp.StatusCode)
			assert.Equal(t, tt.body, string(resp.Body))
			assert.Zero(t, op.calls, "nenhuma chamada ao banco")
		})
	}
}

func TestFetchItems_LimitClamped(t *testing.T) {
	op, got := capture()
	svc := newTestService(t, testConnection, WithOpener(op))

	resp := svc.FetchItems(context.Background(), mustQuery(t, "limit=5000"))
	require.Equal(t, 200, resp.StatusCode)
	assert.True(t, strings.HasSuffix(got.Text, "LIMIT 100"), got.Text)
}

func TestMissingConnection(t *testing.T) {
	op, _ := capture()
	svc := newTestService(t, "", WithOpener(op))

	for name, resp := range map[string]Response{
		"fetch-items":     svc.FetchItems(context.Background(), mustQuery(t, "brand=Toyota")),
		"fetch-all-items": svc.FetchAllItems(context.Background()),
		"filter-cars":     svc.FilterCars(context.Background(), []byte(`{"brand":["Toyota"]}`)),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 500, resp.StatusCode)
			assert.Equal(t, "Database connection is not configured.", string(resp.Body))
			assert.Equal(t, "text/plain; charset=utf-8", resp.Headers["Content-Type"])
		})
	}
	assert.Zero(t, op.calls)
}

func TestStoreFailure_DoesNotLeak(t *testing.T) {
	secret := "Unauthorized: AccountKey=c2VjcmV0 is invalid"
	op := &fakeOpener{store: &store.MockStore{
		QueryFn: func(context.Context, query.Statement) ([]json.RawMessage, error) {
			return nil, errors.New(secret)
		},
		ReadAllFn: func(context.Context) ([]json.RawMessage, error) {
			return nil, errors.New(secret)
		},
	}}
	svc := newTestService(t, testConnection, WithOpener(op))

	for _, resp := range []Response{
		svc.FetchItems(context.Background(), url.Values{}),
		svc.FetchAllItems(context.Background()),
		svc.FilterCars(context.Background(), []byte(`{}`)),
	} {
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, "Failed to fetch data.", string(resp.Body))
		assert.NotContains(t, string(resp.Body), "AccountKey")
	}
}

func TestOpenFailure(t *testing.T) {
	t.Run("Erro do cliente", func(t *testing.T) {
		op := &fakeOpener{openErr: errors.New("malformed connection string AccountKey=x")}
		svc := newTestService(t, testConnection, WithOpener(op))

		resp := svc.FetchAllItems(context.Background())
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, "Failed to fetch data.", string(resp.Body))
	})

	t.Run("Segredo não resolvido", func(t *testing.T) {
		op, _ := capture()
		svc := newTestService(t, "${ssm./listing/cosmos}",
			WithOpener(op), WithResolver(stubResolver{err: errors.New("ParameterNotFound")}))

		resp := svc.FetchItems(context.Background(), url.Values{})
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, "Database connection is not configured.", string(resp.Body))
		assert.Zero(t, op.calls)
	})

	t.Run("Segredo resolvido", func(t *testing.T) {
		op, _ := capture()
		svc := newTestService(t, "${ssm./listing/cosmos}",
			WithOpener(op), WithResolver(stubResolver{value: testConnection}))

		resp := svc.FetchItems(context.Background(), url.Values{})
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, testConnection, op.conn)
	})
}

func TestFetchAllItems(t *testing.T) {
	op, _ := capture(`{"id":"1"}`, `{"id": "2",  "spaced": true}`)
	svc := newTestService(t, testConnection, WithOpener(op))

	resp := svc.FetchAllItems(context.Background())
	require.Equal(t, 200, resp.StatusCode)
	// documentos preservados byte a byte
	assert.Equal(t, `[{"id":"1"},{"id": "2",  "spaced": true}]`, string(resp.Body))
}

func TestFilterCars(t *testing.T) {
	t.Run("Hierarquia válida", func(t *testing.T) {
		op, got := capture()
		svc := newTestService(t, testConnection, WithOpener(op))

		resp := svc.FilterCars(context.Background(),
			[]byte(`{"brand":["Audi","BMW"],"model":["A3"],"price_max":30000,"sortBy":"price","sortDir":"DESC","limit":10}`))
		require.Equal(t, 200, resp.StatusCode)

		assert.Equal(t,
			"SELECT * FROM c WHERE 1=1 AND c.car_overview.brand IN (@brand_0_0, @brand_0_1) AND c.car_overview.model IN (@model_1_0) AND c.car_overview.price <= @price_2 ORDER BY c.car_overview.price DESC OFFSET 0 LIMIT 10",
			got.Text)
	})

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"JSON inválido", `{"brand":`, 400, "Invalid JSON"},
		{"Model sem brand", `{"model":["A3"]}`, 400, "Model given without brand."},
		{"Variant sem model", `{"brand":["Audi"],"variant":["Sportback"]}`, 400, "Variant given without model."},
		{"Tipo errado", `{"price_max":"cheap"}`, 400, "Invalid value for parameter price_max."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, _ := capture()
			svc := newTestService(t, testConnection, WithOpener(op))

			resp := svc.FilterCars(context.Background(), []byte(tt.body))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.msg, string(resp.Body))
			assert.Zero(t, op.calls)
		})
	}
}

func TestHealth(t *testing.T) {
	svc := newTestService(t, "")
	resp := svc.Health(context.Background())
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(resp.Body))
}

func TestNewService_RequiresConfig(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.Error(t, err)
}

type fakeLoader struct {
	cat *catalog.Catalog
	err error
}

func (f fakeLoader) Load(context.Context, string) (*catalog.Catalog, error) {
	return f.cat, f.err
}

func TestReload(t *testing.T) {
	base, err := catalog.Default()
	require.NoError(t, err)
	next := *base
	next.Version = "2"
	next.Prefix = "listing"

	t.Run("Troca o catálogo", func(t *testing.T) {
		op, got := capture()
		svc := newTestService(t, testConnection, WithOpener(op), WithCatalogLoader(fakeLoader{cat: &next}))

		require.NoError(t, svc.Reload(context.Background()))
		assert.Equal(t, "2", svc.Catalog().Version)

		resp := svc.FetchItems(context.Background(), mustQuery(t, "brand=Audi"))
		require.Equal(t, 200, resp.StatusCode)
		assert.Contains(t, got.Text, "c.listing.brand = @brand_0")
	})

	t.Run("Erro mantém o anterior", func(t *testing.T) {
		svc := newTestService(t, testConnection, WithCatalogLoader(fakeLoader{err: errors.New("NoSuchKey")}))

		assert.Error(t, svc.Reload(context.Background()))
		assert.Equal(t, base.Version, svc.Catalog().Version)
	})

	t.Run("Regra inválida mantém o anterior", func(t *testing.T) {
		broken := *base
		broken.Validations = []catalog.Rule{{ID: "bad", Routes: []string{RouteFilterCars}, Expr: "filter.(", OnFail: catalog.Failure{Code: 400, Msg: "x"}}}
		svc := newTestService(t, testConnection, WithCatalogLoader(fakeLoader{cat: &broken}))

		assert.Error(t, svc.Reload(context.Background()))
		assert.Equal(t, base.Prefix, svc.Catalog().Prefix)
	})
}
