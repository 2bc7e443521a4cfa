// Package store isola o acesso ao container de documentos.
//
// O serviço não mantém conexões entre invocações: cada requisição chama
// Opener.Open com a connection string resolvida e descarta o Store ao final.
// Os documentos são devolvidos como json.RawMessage, exatamente como o banco
// os entregou.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/raywall/car-listing-service/pkg/query"
)

// ErrMissingConnection é retornado por Open quando a connection string está vazia.
var ErrMissingConnection = errors.New("store: missing connection string")

// Store executa leituras em um container.
type Store interface {
	Query(ctx context.Context, stmt query.Statement) ([]json.RawMessage, error)
	ReadAll(ctx context.Context) ([]json.RawMessage, error)
}

// Opener cria um Store a partir da connection string.
type Opener interface {
	Open(ctx context.Context, connection string) (Store, error)
}

// OpenerFunc adapta uma função para Opener.
type OpenerFunc func(ctx context.Context, connection string) (Store, error)

func (f OpenerFunc) Open(ctx context.Context, connection string) (Store, error) {
	return f(ctx, connection)
}

// MockStore é um Store configurável por funções, para testes.
type MockStore struct {
	QueryFn   func(ctx context.Context, stmt query.Statement) ([]json.RawMessage, error)
	ReadAllFn func(ctx context.Context) ([]json.RawMessage, error)
}

func (m *MockStore) Query(ctx context.Context, stmt query.Statement) ([]json.RawMessage, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, stmt)
	}
	return nil, nil
}

func (m *MockStore) ReadAll(ctx context.Context) ([]json.RawMessage, error) {
	if m.ReadAllFn != nil {
		return m.ReadAllFn(ctx)
	}
	return nil, nil
}
