package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	values map[string]string
	calls  int
}

func (f *fakeFetcher) GetSecret(_ context.Context, name string, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.calls++
	v, ok := f.values[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, errors.New("not found")
	}
	var resp azsecrets.GetSecretResponse
	resp.Value = &v
	return resp, nil
}

func TestResolveSource(t *testing.T) {
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, ""))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "production"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceEnvironment, "production"))
}

func TestProvider_EnvironmentSource(t *testing.T) {
	t.Setenv("FINANCE_TEST_SECRET", "s3cret")
	p, err := NewProvider(&ProviderConfig{Source: SourceEnvironment}, zap.NewNop())
	require.NoError(t, err)

	v, err := p.GetSecret(context.Background(), "FINANCE_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	_, err = p.GetSecret(context.Background(), "FINANCE_TEST_MISSING")
	assert.Error(t, err)
	assert.False(t, p.IsVaultEnabled())
}

func TestProvider_GetSecretOrEnvPrefersEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	fetcher := &fakeFetcher{values: map[string]string{"jwt-secret": "from-vault"}}
	p := &Provider{
		source: SourceVault,
		vault:  newVaultClient(fetcher, &VaultConfig{}, zap.NewNop()),
		logger: zap.NewNop(),
	}

	v, err := p.GetSecretOrEnv(context.Background(), "jwt-secret", "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
	assert.Zero(t, fetcher.calls)
}

func TestVaultClient_Caches(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"admin-api-key": "k"}}
	client := newVaultClient(fetcher, &VaultConfig{CacheEnabled: true}, zap.NewNop())

	for i := 0; i < 3; i++ {
		v, err := client.GetSecret(context.Background(), "admin-api-key")
		require.NoError(t, err)
		assert.Equal(t, "k", v)
	}
	assert.Equal(t, 1, fetcher.calls)

	_, err := client.GetSecret(context.Background(), "missing")
	assert.Error(t, err)
}
