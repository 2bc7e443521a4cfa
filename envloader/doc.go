// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package envloader carrega variáveis de ambiente diretamente para os campos
// de uma struct de configuração, usando as tags `env` e `envDefault`.
//
// Visão Geral:
// O serviço de listagem lê toda a sua configuração (conexão com o Cosmos DB,
// runtime, logging, métricas) uma única vez na fronteira do processo. O
// `envloader` faz esse mapeamento via reflection e devolve erros tipados
// quando um valor não pode ser convertido.
//
// Tipos Suportados:
//   - string, int*, uint*, bool, float*
//   - time.Duration (formato "500ms", "2s")
//   - []string (valores separados por vírgula)
//   - structs aninhadas e ponteiros para structs
//
// Exemplo:
//
//	type Config struct {
//		Database string        `env:"COSMOS_DATABASE" envDefault:"avs-db"`
//		Timeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg Config
//	if err := envloader.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Para testes, `New(WithLookup(...))` permite substituir o `os.LookupEnv`
// por um mapa em memória, sem tocar no ambiente do processo.
package envloader
