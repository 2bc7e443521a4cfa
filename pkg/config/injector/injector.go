package injector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/raywall/car-listing-service/envloader"
	"github.com/raywall/car-listing-service/pkg/awsconfig"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.COSMOS_CONN}, ${ssm./listing/cosmos}, ${secret.cosmos#connection}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// Interfaces para abstrair o SDK da AWS (permite mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Injector resolve referências a segredos dentro de valores de configuração.
type Injector struct {
	region  string
	lookup  envloader.LookupFunc
	ssm     SSMClient
	secrets SecretsClient
}

// Option configura o Injector.
type Option func(*Injector)

func WithRegion(region string) Option {
	return func(i *Injector) { i.region = region }
}

func WithLookup(fn envloader.LookupFunc) Option {
	return func(i *Injector) {
		if fn != nil {
			i.lookup = fn
		}
	}
}

func WithSSMClient(c SSMClient) Option {
	return func(i *Injector) { i.ssm = c }
}

func WithSecretsClient(c SecretsClient) Option {
	return func(i *Injector) { i.secrets = c }
}

// New cria um Injector. Clientes AWS reais são criados sob demanda, só
// quando uma referência ssm/secret aparece.
func New(opts ...Option) *Injector {
	i := &Injector{lookup: envloader.New().Lookup()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Resolve substitui todas as referências ${...} em input. Strings sem
// referência voltam inalteradas, sem nenhuma chamada externa.
func (i *Injector) Resolve(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		// match é algo como "${ssm./app/cosmos}"
		content := match[2 : len(match)-1]
		parts := strings.SplitN(content, ".", 2)

		val, resolveErr := i.fetchValue(ctx, parts[0], parts[1])
		if resolveErr != nil {
			err = resolveErr
			return match
		}
		return val
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	switch sourceType {
	case "env":
		val, _ := i.lookup(key)
		if val == "" {
			return "", fmt.Errorf("injector: variável de ambiente %s não definida", key)
		}
		return val, nil
	case "ssm":
		client, err := i.ssmClient(ctx)
		if err != nil {
			return "", err
		}
		return getParameter(ctx, client, key)
	case "secret":
		client, err := i.secretsClient(ctx)
		if err != nil {
			return "", err
		}
		id, field, _ := strings.Cut(key, "#")
		return getSecret(ctx, client, id, field)
	}
	return "", fmt.Errorf("injector: fonte desconhecida %s", sourceType)
}

func (i *Injector) ssmClient(ctx context.Context) (SSMClient, error) {
	if i.ssm != nil {
		return i.ssm, nil
	}
	cfg, err := awsconfig.Load(ctx, i.region)
	if err != nil {
		return nil, fmt.Errorf("injector: aws config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

func (i *Injector) secretsClient(ctx context.Context) (SecretsClient, error) {
	if i.secrets != nil {
		return i.secrets, nil
	}
	cfg, err := awsconfig.Load(ctx, i.region)
	if err != nil {
		return nil, fmt.Errorf("injector: aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

func getParameter(ctx context.Context, client SSMClient, path string) (string, error) {
	decrypt := true
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &path,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SSM GetParameter (%s): %w", path, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parâmetro SSM %s sem valor", path)
	}
	return *out.Parameter.Value, nil
}

// getSecret lê o segredo. Com field, o segredo deve ser um objeto JSON e o
// valor daquela chave é devolvido.
func getSecret(ctx context.Context, client SecretsClient, id, field string) (string, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &id,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SecretsManager (%s): %w", id, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("segredo %s sem SecretString", id)
	}

	val := *out.SecretString
	if field == "" {
		return val, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return "", fmt.Errorf("segredo %s não é um objeto JSON", id)
	}
	v, ok := data[field].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("segredo %s sem a chave %s", id, field)
	}
	return v, nil
}
