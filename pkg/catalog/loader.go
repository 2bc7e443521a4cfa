package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/raywall/car-listing-service/pkg/awsconfig"
	"github.com/raywall/car-listing-service/pkg/query"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// S3Downloader abstrai o cliente S3 (permite mocking).
type S3Downloader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader lê o catálogo de um arquivo local, de um objeto S3 ou do
// catálogo embutido.
type Loader struct {
	region   string
	s3Client S3Downloader
	validate *validator.Validate
}

// NewLoader cria um Loader. O cliente S3 real só é criado se uma fonte
// s3:// for usada.
func NewLoader(region string) *Loader {
	return &Loader{
		region:   region,
		validate: validator.New(),
	}
}

// WithS3Client injeta o cliente S3 (testes).
func (l *Loader) WithS3Client(client S3Downloader) *Loader {
	l.s3Client = client
	return l
}

// Default devolve o catálogo embutido no binário.
func Default() (*Catalog, error) {
	return NewLoader("").Parse(defaultCatalog)
}

// Load detecta o esquema da fonte e carrega o catálogo. Fonte vazia usa o
// catálogo embutido.
func (l *Loader) Load(ctx context.Context, source string) (*Catalog, error) {
	var (
		raw []byte
		err error
	)

	switch {
	case source == "":
		raw = defaultCatalog
	case strings.HasPrefix(source, "s3://"):
		raw, err = l.loadFromS3(ctx, source)
	default:
		raw, err = os.ReadFile(strings.TrimPrefix(source, "file://"))
	}
	if err != nil {
		return nil, fmt.Errorf("falha leitura catálogo (%s): %w", source, err)
	}

	return l.Parse(raw)
}

func (l *Loader) loadFromS3(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL S3 inválida: %w", err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("URL S3 incompleta: %s", uri)
	}

	client := l.s3Client
	if client == nil {
		cfg, err := awsconfig.Load(ctx, l.region)
		if err != nil {
			return nil, err
		}
		client = s3.NewFromConfig(cfg)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// Parse decodifica e valida um catálogo YAML. Campos desconhecidos são erro.
func (l *Loader) Parse(data []byte) (*Catalog, error) {
	var cat Catalog

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("YAML malformado: %w", err)
	}

	if err := l.validate.Struct(&cat); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var msgs []string
			for _, e := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return nil, fmt.Errorf("catálogo inválido:\n- %s", strings.Join(msgs, "\n- "))
		}
		return nil, fmt.Errorf("catálogo inválido: %w", err)
	}

	if err := validateSemantics(&cat); err != nil {
		return nil, fmt.Errorf("catálogo inválido: %w", err)
	}

	return &cat, nil
}

func validateSemantics(cat *Catalog) error {
	if !query.ValidField(cat.Prefix) {
		return fmt.Errorf("prefixo inválido: %q", cat.Prefix)
	}

	for _, f := range cat.SortFields {
		if !query.ValidField(f) {
			return fmt.Errorf("campo de ordenação inválido: %q", f)
		}
	}

	groups := map[string][]Filter{"query": cat.Query, "body": cat.Body}
	for name, filters := range groups {
		seen := make(map[string]bool)
		for _, f := range filters {
			if seen[f.Param] {
				return fmt.Errorf("parâmetro duplicado em %s: '%s'", name, f.Param)
			}
			seen[f.Param] = true

			if !query.ValidField(f.Field) {
				return fmt.Errorf("campo inválido em %s.%s: %q", name, f.Param, f.Field)
			}
			if !f.Op.Valid() {
				return fmt.Errorf("operador inválido em %s.%s: %q", name, f.Param, f.Op)
			}
		}
	}

	ids := make(map[string]bool)
	for _, r := range cat.Validations {
		if ids[r.ID] {
			return fmt.Errorf("regra duplicada: '%s'", r.ID)
		}
		ids[r.ID] = true
	}

	return nil
}
