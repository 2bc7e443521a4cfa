package transport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/raywall/car-listing-service/pkg/config"
	"github.com/raywall/car-listing-service/pkg/inventory"
	"github.com/raywall/car-listing-service/pkg/query"
	"github.com/raywall/car-listing-service/pkg/store"
	"github.com/stretchr/testify/require"
)

// recorder guarda o último statement e quantas vezes o banco foi aberto.
type recorder struct {
	opens int
	stmt  query.Statement
	fail  bool
}

func (r *recorder) opener() store.Opener {
	return store.OpenerFunc(func(context.Context, string) (store.Store, error) {
		r.opens++
		return &store.MockStore{
			QueryFn: func(_ context.Context, stmt query.Statement) ([]json.RawMessage, error) {
				r.stmt = stmt
				if r.fail {
					return nil, errors.New("Request rate is large. AccountKey=leaked")
				}
				return []json.RawMessage{json.RawMessage(`{"id":"car-1"}`)}, nil
			},
			ReadAllFn: func(context.Context) ([]json.RawMessage, error) {
				return []json.RawMessage{json.RawMessage(`{"id":"car-1"}`), json.RawMessage(`{"id":"car-2"}`)}, nil
			},
		}, nil
	})
}

func newService(t *testing.T, prefix, connection string) (*inventory.Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	cfg := &config.Config{
		Service: config.ServiceConf{Name: "car-listing-service", RoutePrefix: prefix, MaxPageSize: 100},
		Cosmos:  config.CosmosConf{Connection: connection, Database: "avs-db", Container: "avs-cs"},
	}
	svc, err := inventory.NewService(cfg, nil, inventory.WithOpener(rec.opener()))
	require.NoError(t, err)
	return svc, rec
}
