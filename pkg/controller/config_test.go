package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCreateSecretSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "s3 with credential chain",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "credential_chain",
				Region:   "us-west-2",
			},
			want: `CREATE OR REPLACE SECRET (
    TYPE s3,
    PROVIDER credential_chain,
    REGION 'us-west-2'
)`,
		},
		{
			name: "s3 type only",
			cfg: SecretConfig{
				Type: "s3",
			},
			want: `CREATE OR REPLACE SECRET (
    TYPE s3
)`,
		},
		{
			name: "named secret",
			cfg: SecretConfig{
				Name: "prod_s3",
				Type: "s3",
			},
			want: `CREATE OR REPLACE SECRET "prod_s3" (
    TYPE s3
)`,
		},
		{
			name: "s3 with single scope string",
			cfg: SecretConfig{
				Type:   "s3",
				Region: "eu-central-1",
				Scope:  "s3://my-bucket",
			},
			want: `CREATE OR REPLACE SECRET (
    TYPE s3,
    REGION 'eu-central-1',
    SCOPE 's3://my-bucket'
)`,
		},
		{
			name: "s3 with multiple scopes as []any",
			cfg: SecretConfig{
				Type:   "s3",
				Region: "eu-central-1",
				Scope:  []any{"s3://bucket1", "s3://bucket2"},
			},
			want: `CREATE OR REPLACE SECRET (
    TYPE s3,
    REGION 'eu-central-1',
    SCOPE ('s3://bucket1', 's3://bucket2')
)`,
		},
		{
			name: "s3 compatible with endpoint and path style",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "config",
				KeyID:    "minioadmin",
				Secret:   "minioadmin",
				Endpoint: "localhost:9000",
				URLStyle: "path",
				UseSSL:   boolPtr(false),
			},
			want: `CREATE OR REPLACE SECRET (
    TYPE s3,
    PROVIDER config,
    KEY_ID 'minioadmin',
    SECRET 'minioadmin',
    ENDPOINT 'localhost:9000',
    URL_STYLE 'path',
    USE_SSL false
)`,
		},
		{
			name: "gcs with service account",
			cfg: SecretConfig{
				Type:     "gcs",
				Provider: "service_account",
				KeyID:    "my-service-account@project.iam.gserviceaccount.com",
			},
			want: `CREATE OR REPLACE SECRET (
    TYPE gcs,
    PROVIDER service_account,
    KEY_ID 'my-service-account@project.iam.gserviceaccount.com'
)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildCreateSecretSQL(tt.cfg)
			assert.Equal(t, tt.want, got)
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(map[string]any{
		"path":      "data/app.duckdb",
		"read_only": true,
		"extensions": []any{
			"httpfs", "json",
		},
		"settings": map[string]any{
			"threads": "4",
		},
		"secrets": []any{
			map[string]any{
				"type":     "s3",
				"provider": "credential_chain",
				"region":   "us-east-1",
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "data/app.duckdb", cfg.Path)
	assert.True(t, cfg.ReadOnly)
	assert.Equal(t, []string{"httpfs", "json"}, cfg.Extensions)
	assert.Equal(t, map[string]string{"threads": "4"}, cfg.Settings)
	require.Len(t, cfg.Secrets, 1)
	assert.Equal(t, "s3", cfg.Secrets[0].Type)
	assert.Equal(t, "credential_chain", cfg.Secrets[0].Provider)
}

func TestDecodeSecrets(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		secrets, err := DecodeSecrets(nil)
		require.NoError(t, err)
		assert.Nil(t, secrets)
	})

	t.Run("decodes fields", func(t *testing.T) {
		secrets, err := DecodeSecrets([]map[string]any{
			{
				"name":      "minio",
				"type":      "s3",
				"provider":  "config",
				"key_id":    "minioadmin",
				"secret":    "minioadmin",
				"endpoint":  "localhost:9000",
				"url_style": "path",
				"use_ssl":   false,
			},
		})
		require.NoError(t, err)
		require.Len(t, secrets, 1)
		assert.Equal(t, "minio", secrets[0].Name)
		assert.Equal(t, "path", secrets[0].URLStyle)
		require.NotNil(t, secrets[0].UseSSL)
		assert.False(t, *secrets[0].UseSSL)
	})
}

func TestBootQueries(t *testing.T) {
	ctrl := New(Config{
		Extensions: []string{"json"},
		Settings:   map[string]string{"threads": "2", "memory_limit": "1GB"},
		Secrets:    []SecretConfig{{Type: "s3"}},
	}, nil)

	queries := ctrl.bootQueries()
	require.Len(t, queries, 5)
	assert.Equal(t, "INSTALL json", queries[0])
	assert.Equal(t, "LOAD json", queries[1])
	// Settings in sorted key order
	assert.Equal(t, "SET memory_limit = '1GB'", queries[2])
	assert.Equal(t, "SET threads = '2'", queries[3])
	assert.Contains(t, queries[4], "CREATE OR REPLACE SECRET")
}
