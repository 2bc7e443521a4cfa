package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/raywall/car-listing-service/pkg/query"
)

// ContainerClient é o subconjunto de *azcosmos.ContainerClient usado aqui.
type ContainerClient interface {
	NewQueryItemsPager(query string, partitionKey azcosmos.PartitionKey, o *azcosmos.QueryOptions) *runtime.Pager[azcosmos.QueryItemsResponse]
}

// Target identifica o banco e o container.
type Target struct {
	Database  string
	Container string
}

// CosmosOpener abre um cliente do Cosmos DB por chamada.
type CosmosOpener struct {
	Target  Target
	Options *azcosmos.ClientOptions
}

// NewCosmosOpener cria o Opener real.
func NewCosmosOpener(target Target, opts *azcosmos.ClientOptions) *CosmosOpener {
	return &CosmosOpener{Target: target, Options: opts}
}

// Open cria o cliente a partir da connection string. Erros do SDK podem
// conter partes da connection string e não devem chegar ao cliente HTTP.
func (o *CosmosOpener) Open(_ context.Context, connection string) (Store, error) {
	if connection == "" {
		return nil, ErrMissingConnection
	}

	client, err := azcosmos.NewClientFromConnectionString(connection, o.Options)
	if err != nil {
		return nil, fmt.Errorf("store: open client: %w", err)
	}

	container, err := client.NewContainer(o.Target.Database, o.Target.Container)
	if err != nil {
		return nil, fmt.Errorf("store: open container %s/%s: %w", o.Target.Database, o.Target.Container, err)
	}

	return NewCosmosStore(container), nil
}

type cosmosStore struct {
	container ContainerClient
}

// NewCosmosStore cria um Store sobre um container já aberto.
func NewCosmosStore(container ContainerClient) Store {
	return &cosmosStore{container: container}
}

// Query executa a consulta em todas as partições e consome todas as páginas.
func (s *cosmosStore) Query(ctx context.Context, stmt query.Statement) ([]json.RawMessage, error) {
	opts := &azcosmos.QueryOptions{}
	if len(stmt.Parameters) > 0 {
		opts.QueryParameters = make([]azcosmos.QueryParameter, 0, len(stmt.Parameters))
		for _, p := range stmt.Parameters {
			opts.QueryParameters = append(opts.QueryParameters, azcosmos.QueryParameter{Name: p.Name, Value: p.Value})
		}
	}

	// Partition key vazia: consulta cross-partition
	pager := s.container.NewQueryItemsPager(stmt.Text, azcosmos.NewPartitionKey(), opts)

	items := make([]json.RawMessage, 0)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: query failed: %w", err)
		}
		for _, item := range page.Items {
			items = append(items, json.RawMessage(item))
		}
	}
	return items, nil
}

// ReadAll lê todos os documentos do container.
func (s *cosmosStore) ReadAll(ctx context.Context) ([]json.RawMessage, error) {
	return s.Query(ctx, query.SelectAll())
}
