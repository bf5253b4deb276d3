package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdudkov/geogate/internal/config"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()

	usersFile := filepath.Join(dir, "users.yml")
	require.NoError(t, os.WriteFile(usersFile, []byte("- id: \"100\"\n  display_name: Alice\n- id: \"200\"\n"), 0o600))

	cfg := config.NewAppConfig()
	cfg.Set("db", ":memory:")
	cfg.Set("users_file", usersFile)
	cfg.Set("clients_file", filepath.Join(dir, "clients.yml"))

	app := NewApp(cfg)
	require.NoError(t, app.Init(false))

	n, err := app.dbm.UserQuery().Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	u, err := app.dbm.GetUser("100")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.DisplayName)

	require.NotNil(t, app.clients)
	assert.Equal(t, 0, app.clients.Count())
}

func TestInitOpenAPI(t *testing.T) {
	cfg := config.NewAppConfig()
	cfg.Set("db", ":memory:")
	cfg.Set("users_file", filepath.Join(t.TempDir(), "missing.yml"))
	cfg.Set("clients_file", "")

	app := NewApp(cfg)
	require.NoError(t, app.Init(false))

	assert.Nil(t, app.clients)
	assert.NotNil(t, app.api)
}
