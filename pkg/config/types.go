package config

import "time"

// Runtimes suportados.
const (
	RuntimeLocal          = "local"
	RuntimeAzureFunctions = "azure-functions"
	RuntimeLambda         = "lambda"
)

// Config é a configuração do processo, carregada uma vez na inicialização e
// passada explicitamente para o serviço.
type Config struct {
	Service ServiceConf
	Cosmos  CosmosConf
	Catalog CatalogConf
	Logging LoggingConf
	Metrics MetricsConf
	AWS     AWSConf
}

// ServiceConf contém os metadados e configurações de runtime do serviço.
type ServiceConf struct {
	Name        string        `env:"SERVICE_NAME" envDefault:"car-listing-service" validate:"required"`
	Runtime     string        `env:"RUNTIME" envDefault:"local" validate:"required,oneof=local azure-functions lambda"`
	Port        int           `env:"PORT" envDefault:"8080" validate:"gt=0,lt=65536"`
	HandlerPort int           `env:"FUNCTIONS_CUSTOMHANDLER_PORT" validate:"gte=0,lt=65536"`
	RoutePrefix string        `env:"ROUTE_PREFIX" validate:"omitempty,startswith=/"`
	Timeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	MaxPageSize int           `env:"MAX_PAGE_SIZE" envDefault:"100" validate:"gte=0"`
}

// ListenPort devolve a porta HTTP. No Azure Functions o host informa a
// porta do custom handler em FUNCTIONS_CUSTOMHANDLER_PORT.
func (s ServiceConf) ListenPort() int {
	if s.Runtime == RuntimeAzureFunctions && s.HandlerPort > 0 {
		return s.HandlerPort
	}
	return s.Port
}

// CosmosConf identifica o container consultado. Connection pode ser o valor
// literal ou uma referência ${ssm...}/${secret...}/${env...}; ausência só é
// tratada por requisição.
type CosmosConf struct {
	Connection string `env:"COSMOS_DB_CONNECTION"`
	Database   string `env:"COSMOS_DATABASE" envDefault:"avs-db" validate:"required"`
	Container  string `env:"COSMOS_CONTAINER" envDefault:"avs-cs" validate:"required"`
}

// CatalogConf aponta para o catálogo de filtros (arquivo, s3:// ou vazio
// para o embutido). Com ReloadQueue, mensagens na fila SQS disparam a
// releitura do catálogo.
type CatalogConf struct {
	Source      string `env:"CATALOG_SOURCE"`
	ReloadQueue string `env:"CATALOG_RELOAD_QUEUE" validate:"omitempty,url"`
}

type LoggingConf struct {
	Enabled bool   `env:"LOG_ENABLED" envDefault:"true"`
	Level   string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format  string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf
}

type DatadogConf struct {
	Enabled   bool     `env:"DD_ENABLED"`
	Addr      string   `env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string   `env:"DD_NAMESPACE" envDefault:"car_listing."`
	Tags      []string `env:"DD_TAGS"`
}

type AWSConf struct {
	Region string `env:"AWS_REGION"`
}
