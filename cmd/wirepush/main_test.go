package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirepush/internal/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath = ""
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSignPresence(t *testing.T) {
	out, err := execute(t, "sign",
		"--secret", "s3cr3t",
		"--conn", "abc123",
		"--channel", "presence-room1",
		"--data", `{"userId":"42","name":"Ann"}`)
	require.NoError(t, err)
	assert.Equal(t, "21835778e5e0ea7a1e8ac592d5018b1f1d4a26df9b4aed5d2db96ca7af34fb8c\n", out)
}

func TestSignRejectsPublicChannel(t *testing.T) {
	_, err := execute(t, "sign", "--secret", "s", "--conn", "c", "--channel", "news")
	assert.Error(t, err)
}

func TestTokenValidates(t *testing.T) {
	out, err := execute(t, "token", "--app", "app1", "--secret", "s", "--ttl", time.Minute.String())
	require.NoError(t, err)

	claims, err := auth.ValidateToken("app1", "s", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "app1", claims.Issuer)
}

func TestAppsLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "apps.db")

	out, err := execute(t, "apps", "add", "shop", "--db", db, "--secret", "fixed")
	require.NoError(t, err)
	assert.Contains(t, out, "secret: fixed")

	_, err = execute(t, "apps", "add", "shop", "--db", db)
	assert.Error(t, err)

	out, err = execute(t, "apps", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "shop")

	_, err = execute(t, "apps", "remove", "shop", "--db", db)
	require.NoError(t, err)

	out, err = execute(t, "apps", "list", "--db", db)
	require.NoError(t, err)
	assert.NotContains(t, out, "shop")
}

func TestGenerateSecret(t *testing.T) {
	a, err := generateSecret()
	require.NoError(t, err)
	b, err := generateSecret()
	require.NoError(t, err)
	assert.Len(t, a, 2*secretBytes)
	assert.NotEqual(t, a, b)
}
