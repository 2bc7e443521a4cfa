package injector

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/raywall/car-listing-service/envloader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockSSM struct {
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func (m *MockSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return m.GetParameterFunc(ctx, params, optFns...)
}

type MockSecrets struct {
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func (m *MockSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return m.GetSecretValueFunc(ctx, params, optFns...)
}

func strPtr(s string) *string { return &s }

// --- Testes ---

func TestResolve_Literal(t *testing.T) {
	inj := New(WithSSMClient(&MockSSM{}), WithSecretsClient(&MockSecrets{}))

	out, err := inj.Resolve(context.Background(), "AccountEndpoint=https://x/;AccountKey=k;")
	require.NoError(t, err)
	assert.Equal(t, "AccountEndpoint=https://x/;AccountKey=k;", out)
}

func TestResolve_Env(t *testing.T) {
	inj := New(WithLookup(envloader.FromMap(map[string]string{"COSMOS_KEY": "abc=="})))

	out, err := inj.Resolve(context.Background(), "AccountEndpoint=https://x/;AccountKey=${env.COSMOS_KEY};")
	require.NoError(t, err)
	assert.Equal(t, "AccountEndpoint=https://x/;AccountKey=abc==;", out)

	_, err = inj.Resolve(context.Background(), "${env.MISSING}")
	assert.Error(t, err)
}

func TestResolve_SSM(t *testing.T) {
	t.Run("Sucesso", func(t *testing.T) {
		client := &MockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				assert.Equal(t, "/listing/cosmos", *params.Name)
				assert.True(t, *params.WithDecryption)
				return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: strPtr("conn-from-ssm")}}, nil
			},
		}

		out, err := New(WithSSMClient(client)).Resolve(context.Background(), "${ssm./listing/cosmos}")
		require.NoError(t, err)
		assert.Equal(t, "conn-from-ssm", out)
	})

	t.Run("Erro na AWS", func(t *testing.T) {
		client := &MockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return nil, errors.New("AWS down")
			},
		}

		_, err := New(WithSSMClient(client)).Resolve(context.Background(), "${ssm./listing/cosmos}")
		assert.ErrorContains(t, err, "AWS down")
	})

	t.Run("Sem valor", func(t *testing.T) {
		client := &MockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return &ssm.GetParameterOutput{}, nil
			},
		}

		_, err := New(WithSSMClient(client)).Resolve(context.Background(), "${ssm./listing/cosmos}")
		assert.Error(t, err)
	})
}

func TestResolve_Secret(t *testing.T) {
	secretJSON := `{"connection": "AccountEndpoint=https://y/;AccountKey=z;", "other": 1}`
	client := &MockSecrets{
		GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			switch *params.SecretId {
			case "cosmos":
				return &secretsmanager.GetSecretValueOutput{SecretString: &secretJSON}, nil
			case "plain":
				return &secretsmanager.GetSecretValueOutput{SecretString: strPtr("raw-conn")}, nil
			}
			return nil, errors.New("ResourceNotFoundException")
		},
	}
	inj := New(WithSecretsClient(client))

	out, err := inj.Resolve(context.Background(), "${secret.cosmos#connection}")
	require.NoError(t, err)
	assert.Equal(t, "AccountEndpoint=https://y/;AccountKey=z;", out)

	out, err = inj.Resolve(context.Background(), "${secret.plain}")
	require.NoError(t, err)
	assert.Equal(t, "raw-conn", out)

	_, err = inj.Resolve(context.Background(), "${secret.cosmos#other}")
	assert.Error(t, err)

	_, err = inj.Resolve(context.Background(), "${secret.plain#connection}")
	assert.Error(t, err)

	_, err = inj.Resolve(context.Background(), "${secret.missing}")
	assert.ErrorContains(t, err, "ResourceNotFoundException")
}
