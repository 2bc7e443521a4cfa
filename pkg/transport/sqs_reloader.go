package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/car-listing-service/pkg/awsconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SQSClient define a interface necessária para o reloader (permite Mocking)
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Reloader recarrega o catálogo de filtros. *inventory.Service implementa.
type Reloader interface {
	Reload(ctx context.Context) error
}

// SQSReloader escuta uma fila de notificações (ex.: evento do S3 quando o
// catálogo muda) e dispara o Reload.
type SQSReloader struct {
	client     SQSClient
	queueURL   string
	reloader   Reloader
	logger     zerolog.Logger
	retryDelay time.Duration
}

// NewSQSClient cria o cliente real com a configuração AWS compartilhada.
func NewSQSClient(ctx context.Context, region string) (SQSClient, error) {
	cfg, err := awsconfig.Load(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("sqs: aws config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

// NewSQSReloader cria uma nova instância do reloader
func NewSQSReloader(client SQSClient, queueURL string, reloader Reloader) *SQSReloader {
	return &SQSReloader{
		client:     client,
		queueURL:   queueURL,
		reloader:   reloader,
		logger:     log.With().Str("component", "catalog_reloader").Logger(),
		retryDelay: 5 * time.Second,
	}
}

// Start inicia o monitoramento (bloqueante)
func (s *SQSReloader) Start(ctx context.Context) {
	if s.queueURL == "" {
		s.logger.Warn().Msg("URL da fila SQS não configurada. Reload do catálogo desativado.")
		return
	}

	s.logger.Info().Str("queue", s.queueURL).Msg("Monitorando fila SQS para reload do catálogo")

	for {
		if ctx.Err() != nil {
			s.logger.Info().Msg("Parando monitoramento SQS")
			return
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20, // Long polling
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Dur("retry_in", s.retryDelay).Msg("Erro no SQS")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryDelay):
			}
			continue
		}

		if len(out.Messages) == 0 {
			continue
		}

		// Um lote de notificações gera um único reload
		s.logger.Info().Int("messages", len(out.Messages)).Msg("Alteração de catálogo recebida")
		if err := s.reloader.Reload(s.logger.WithContext(ctx)); err != nil {
			s.logger.Error().Err(err).Msg("Falha no reload; catálogo anterior mantido")
		}

		for _, msg := range out.Messages {
			_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(s.queueURL),
				ReceiptHandle: msg.ReceiptHandle,
			})
			if err != nil {
				s.logger.Warn().Err(err).Msg("Falha ao remover mensagem da fila")
			}
		}
	}
}
