package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/raywall/car-listing-service/pkg/config"
	"github.com/rs/zerolog"
)

// Configure inicializa o nível global e devolve o logger base do serviço,
// já com o nome do serviço como campo fixo.
func Configure(cfg config.LoggingConf, service string) zerolog.Logger {
	return New(cfg, service, os.Stdout)
}

// New é Configure com o destino explícito.
func New(cfg config.LoggingConf, service string, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// JSON em produção; console legível apenas quando pedido
	output := out
	if !cfg.Enabled {
		output = io.Discard
	} else if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	return ctx.Logger()
}
