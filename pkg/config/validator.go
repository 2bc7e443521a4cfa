package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/car-listing-service/envloader"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza as validações estruturais (tags required, oneof, etc).
func (cv *ConfigValidator) Validate(cfg *Config) error {
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação da configuração:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação da configuração: %w", err)
	}
	return nil
}

// Load lê a configuração do ambiente e a valida. As opções permitem trocar
// a fonte das variáveis nos testes.
func Load(opts ...envloader.Option) (*Config, error) {
	var cfg Config
	if err := envloader.New(opts...).Load(&cfg); err != nil {
		return nil, fmt.Errorf("falha ao carregar configuração: %w", err)
	}
	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
