package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-spm/internal/domain"
)

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SESSION_STORE", "file")
	t.Setenv("SESSION_FILE", filepath.Join(dir, "session.json"))
	t.Setenv("AUTH_BACKEND", "mock")
	t.Setenv("VIEW_POLICY_FILE", "")
	t.Setenv("LOGIN_DELAY_MS", "0")
	t.Setenv("LOGOUT_DELAY_MS", "0")
	t.Setenv("REGISTER_DELAY_MS", "0")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts := &rootOptions{}
	cmd := newRootCmd(opts)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	opts.shutdown()
	return out.String(), err
}

func TestSessionctl_LoginPersistsAcrossInvocations(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")

	out, err = run(t, "login", "--email", "admin@ai-spm.com", "--password", "admin123")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome back!")

	out, err = run(t, "whoami")
	require.NoError(t, err)
	var user domain.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "1", user.ID)
	assert.Equal(t, domain.RoleCISO, user.Role)

	out, err = run(t, "views")
	require.NoError(t, err)
	assert.Contains(t, out, "/compliance")

	out, err = run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")
}

func TestSessionctl_LoginFailureReportsNotification(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "login", "--email", "admin@ai-spm.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, out, "! Authentication failed")
}

func TestSessionctl_RegisterAnalystHidesCompliance(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "register", "--email", "a@ai-spm.com", "--password", "pw", "--name", "Ana", "--role", "root")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownRole)

	out, err := run(t, "register", "--email", "a@ai-spm.com", "--password", "pw", "--name", "Ana", "--role", "analyst")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created!")

	out, err = run(t, "views")
	require.NoError(t, err)
	assert.NotContains(t, out, "/compliance")
	assert.True(t, strings.Contains(out, "/monitoring"))

	out, err = run(t, "views", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "ciso,compliance_officer")
}

func TestSessionctl_ViewsRequiresSession(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "views")
	require.Error(t, err)
}

func TestSessionctl_TimedOutLoginStillPersists(t *testing.T) {
	setupEnv(t)
	t.Setenv("LOGIN_DELAY_MS", "150")

	out, err := run(t, "--timeout", "20ms", "login", "--email", "admin@ai-spm.com", "--password", "admin123")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, out, "still being applied")
	assert.Contains(t, out, "Welcome back!")

	out, err = run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "1"`)
}
