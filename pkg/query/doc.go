// Package query monta consultas SQL parametrizadas do Cosmos DB a partir de
// cláusulas tipadas.
//
// Visão Geral:
// Em vez de concatenar filtros vindos da query string, o `Builder` acumula
// objetos `Clause` (campo, operador, valores) e só no `Build` serializa tudo
// para o formato do Cosmos: texto com parâmetros nomeados (`@brand_0`) e a
// lista de valores vinculados. Nenhum valor do usuário entra no texto; os
// únicos literais interpolados são OFFSET e LIMIT, validados como inteiros
// não negativos antes disso.
//
// Exemplo:
//
//	stmt, err := query.New(query.WithPrefix("car_overview")).
//		Equal("brand", "Toyota").
//		GreaterOrEqual("price", 10000).
//		OrderBy("price", query.Desc).
//		Page(10, 5).
//		Build()
//
//	// stmt.Text:
//	// SELECT * FROM c WHERE 1=1 AND c.car_overview.brand = @brand_0
//	//   AND c.car_overview.price >= @price_1
//	//   ORDER BY c.car_overview.price DESC OFFSET 10 LIMIT 5
//
// Regras:
//   - Cada cláusula vira exatamente um `AND`, na ordem de inserção.
//   - O índice do parâmetro é a posição da cláusula, portanto nomes nunca colidem.
//   - ORDER BY só aceita campos da allow-list (ErrSortNotAllowed).
package query
