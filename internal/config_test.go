package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gigwell_test")
	t.Setenv("ENV", "development")
	t.Setenv("ADMIN_EMAILS", " Ops@Gigwell.app, ,founder@gigwell.app")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "local", cfg.StorageProvider)
	assert.Equal(t, 5*time.Second, cfg.WorkerPollInterval)
	assert.Equal(t, "usd", cfg.StripeCurrency)
	assert.Equal(t, "India", cfg.BillingDefaultLocation)
	assert.Equal(t, []string{"ops@gigwell.app", "founder@gigwell.app"}, cfg.AdminEmails)
	assert.NotEmpty(t, cfg.JWTSecret, "development falls back to a local secret")
	assert.False(t, cfg.BillingEnabled())
}

func TestNewConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "database url required",
			env:  map[string]string{"DATABASE_URL": ""},
			want: "DATABASE_URL",
		},
		{
			name: "r2 needs keys",
			env:  map[string]string{"STORAGE_PROVIDER": "r2", "R2_ACCOUNT_ID": "acct"},
			want: "R2_ACCESS_KEY_ID is required",
		},
		{
			name: "unknown storage provider",
			env:  map[string]string{"STORAGE_PROVIDER": "ftp"},
			want: "STORAGE_PROVIDER must be",
		},
		{
			name: "production requires jwt secret",
			env:  map[string]string{"ENV": "production", "JWT_SECRET": ""},
			want: "JWT_SECRET is required",
		},
		{
			name: "stripe needs webhook secret",
			env:  map[string]string{"STRIPE_SECRET_KEY": "sk_test_123", "STRIPE_WEBHOOK_SECRET": ""},
			want: "STRIPE_WEBHOOK_SECRET is required",
		},
		{
			name: "bad duration",
			env:  map[string]string{"WORKER_POLL_INTERVAL": "soon"},
			want: "WORKER_POLL_INTERVAL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/gigwell_test")
			t.Setenv("ENV", "development")
			t.Setenv("STORAGE_PROVIDER", "local")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
