// Package carlisting é o serviço de consulta da listagem de carros.
//
// Visão Geral:
// O serviço recebe filtros pela query string (GET /fetch-items) ou por um
// corpo JSON (POST /filter-cars), monta uma consulta SQL parametrizada do
// Cosmos DB e devolve os documentos do container como um array JSON.
// GET /fetch-all-items devolve o container inteiro.
//
// Sub-Pacotes Principais:
//
// 1. pkg/query:
//   - Builder de cláusulas tipadas que serializa para o SQL do Cosmos DB.
//   - Todo valor vira parâmetro nomeado; ORDER BY só aceita a allow-list.
//
// 2. pkg/catalog e pkg/rules:
//   - Catálogo YAML que liga parâmetros a campos do documento.
//   - Regras CEL avaliadas sobre os filtros (ex.: model exige brand).
//
// 3. pkg/listing:
//   - Parse puro da entrada em um Request tipado.
//
// 4. pkg/inventory e pkg/transport:
//   - Operações independentes de transporte.
//   - Servidor HTTP (local e custom handler do Azure Functions) e adaptador
//     AWS Lambda sobre a mesma tabela de rotas.
//
// 5. pkg/config e envloader:
//   - Configuração lida uma vez do ambiente e validada.
//   - A connection string pode referenciar SSM, Secrets Manager ou outra
//     variável e é resolvida a cada invocação.
//
// Exemplo de Uso:
//
//	RUNTIME=local COSMOS_DB_CONNECTION='AccountEndpoint=...;AccountKey=...;' go run ./cmd/server
//	curl 'localhost:8080/fetch-items?brand=Toyota&minPrice=10000&sortBy=price&sortDir=desc'
package carlisting
