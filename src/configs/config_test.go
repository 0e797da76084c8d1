package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, "backend", c.Backend.Service)
	assert.Equal(t, "/app/app/alembic/versions", c.Migrations.ContainerVersionsDir)
	assert.Equal(t, 2*time.Minute, c.Database.WaitTimeout)
	assert.NoError(t, c.Verify())
}

func TestNewConfigWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yaml := `
debug: true
backend:
  service: api
  work_dir: /srv
database:
  host: db
  wait_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	c, err := NewConfigWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.File)
	assert.True(t, c.Debug)
	assert.Equal(t, "api", c.Backend.Service)
	assert.Equal(t, "db", c.Database.Host)
	assert.Equal(t, 30*time.Second, c.Database.WaitTimeout)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, defaultMigrations.HostVersionsDir, c.Migrations.HostVersionsDir)
}

func TestNewConfigWithFile_Missing(t *testing.T) {
	_, err := NewConfigWithFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestConfig_Verify(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Verify())

	cfg = NewConfig()
	assert.NoError(t, cfg.Verify())

	cfg.Backend.Service = ""
	assert.Error(t, cfg.Verify())
	cfg.Backend.Service = "backend"

	cfg.Database.WaitInterval = 0
	assert.Error(t, cfg.Verify())
	cfg.Database.WaitInterval = time.Second

	cfg.Log.OutPutFolder = filepath.Join(os.TempDir(), "does-not-exist-xyz")
	assert.Error(t, cfg.Verify())
	cfg.Log.OutPutFolder = os.TempDir()
	assert.NoError(t, cfg.Verify())
}

func TestEmail_Verify(t *testing.T) {
	var e *Email
	assert.NoError(t, e.verify())

	e = &Email{Enable: true}
	assert.Error(t, e.verify())

	e.SMTPHost = "localhost"
	e.SMTPPort = 1025
	assert.Error(t, e.verify())

	e.SenderEmail = "ops@example.com"
	e.RecipientEmail = "team@example.com"
	assert.NoError(t, e.verify())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	env := `POSTGRES_SERVER=db.internal
POSTGRES_PORT=5433
POSTGRES_USER=sashakt
POSTGRES_PASSWORD=secret
POSTGRES_DB=sashaktdb
`
	require.NoError(t, os.WriteFile(envPath, []byte(env), 0600))

	c := NewConfig()
	require.NoError(t, c.LoadEnv(envPath))
	assert.Equal(t, "db.internal", c.Database.Host)
	assert.Equal(t, 5433, c.Database.Port)
	assert.Equal(t, "sashakt", c.Database.User)
	assert.Equal(t, "secret", c.Database.Password)
	assert.Equal(t, "sashaktdb", c.Database.Name)
	assert.Contains(t, c.Database.DSN(), "dbname=sashaktdb")
}

func TestLoadEnv_ExplicitConfigWins(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("POSTGRES_SERVER=db.internal\nPOSTGRES_USER=envuser\n"), 0600))

	c := NewConfig()
	c.Database.Host = "explicit-host"
	c.Database.User = "cfguser"
	require.NoError(t, c.LoadEnv(envPath))
	assert.Equal(t, "explicit-host", c.Database.Host)
	assert.Equal(t, "cfguser", c.Database.User)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	c := NewConfig()
	assert.NoError(t, c.LoadEnv(filepath.Join(t.TempDir(), ".env")))
}
