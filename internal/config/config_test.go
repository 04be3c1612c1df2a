package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8000", cfg.Server.Addr)
	require.Equal(t, "/api", cfg.Server.APIPrefix)
	require.Equal(t, "data/vocab.db", cfg.Database.Path)
	require.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
	require.Equal(t, 10, cfg.Auth.BcryptCost)
	require.Equal(t, "vocab-exports", cfg.Storage.KeyPrefix)
	require.Equal(t, 15, cfg.Storage.URLExpiryMinutes)
	require.Empty(t, cfg.Storage.Bucket)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VOCAB_AUTH_JWTSECRET", "s3cr3t")
	t.Setenv("VOCAB_AUTH_TOKENTTLMINUTES", "5")
	t.Setenv("VOCAB_DATABASE_PATH", "/tmp/vocab-test.db")
	t.Setenv("VOCAB_STORAGE_BUCKET", "exports")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	require.Equal(t, 5, cfg.Auth.TokenTTLMinutes)
	require.Equal(t, "/tmp/vocab-test.db", cfg.Database.Path)
	require.Equal(t, "exports", cfg.Storage.Bucket)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Auth.JWTSecret = "secret"
		c.Auth.TokenTTLMinutes = 60
		c.Database.Path = "vocab.db"
		return c
	}

	require.NoError(t, valid().Validate())

	noSecret := valid()
	noSecret.Auth.JWTSecret = "  "
	require.Error(t, noSecret.Validate())

	badTTL := valid()
	badTTL.Auth.TokenTTLMinutes = 0
	require.Error(t, badTTL.Validate())

	noPath := valid()
	noPath.Database.Path = ""
	require.Error(t, noPath.Validate())

	halfAdmin := valid()
	halfAdmin.Auth.AdminUsername = "root"
	require.Error(t, halfAdmin.Validate())

	fullAdmin := valid()
	fullAdmin.Auth.AdminUsername = "root"
	fullAdmin.Auth.AdminPassword = "pw"
	require.NoError(t, fullAdmin.Validate())
}
