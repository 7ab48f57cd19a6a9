package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		// A named file that does not exist is an error; the search-path
		// variant falls back to defaults.
		cfg, err = LoadConfig("")
	}
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1300, cfg.Browser.WindowWidth)
	assert.Equal(t, 768, cfg.Browser.WindowHeight)
	assert.Equal(t, 15*time.Second, cfg.Browser.WaitTimeout)
	assert.Equal(t, 4, cfg.Browser.MaxSessions)
	assert.Equal(t, "https://tutor-qa.openstax.org", cfg.Tutor.ServerURL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
server:
  port: 9090
browser:
  headless: false
  maxSessions: 2
tutor:
  serverUrl: https://tutor-staging.openstax.org
  teacher:
    username: teach01
    password: staxly16
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 2, cfg.Browser.MaxSessions)
	assert.Equal(t, "https://tutor-staging.openstax.org", cfg.Tutor.ServerURL)
	assert.Equal(t, "teach01", cfg.Tutor.Teacher.Username)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_URL", "https://tutor-dev.openstax.org")
	t.Setenv("TEACHER_USER", "teacher-env")
	t.Setenv("TEACHER_PASSWORD", "secret-env")
	t.Setenv("STUDENT_USER", "student-env")
	t.Setenv("TEST_EMAIL_ACCOUNT", "qa@example.com")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://tutor-dev.openstax.org", cfg.Tutor.ServerURL)
	assert.Equal(t, "teacher-env", cfg.Tutor.Teacher.Username)
	assert.Equal(t, "secret-env", cfg.Tutor.Teacher.Password)
	assert.Equal(t, "student-env", cfg.Tutor.Student.Username)
	assert.Equal(t, "qa@example.com", cfg.Tutor.Email.Account)
}

func TestParseRole(t *testing.T) {
	for input, want := range map[string]string{
		"teacher":    RoleTeacher,
		"Teacher":    RoleTeacher,
		"STUDENT":    RoleStudent,
		"admin":      RoleAdmin,
		"content":    RoleContent,
		"content-qa": RoleContent,
		"ContentQA":  RoleContent,
	} {
		got, err := ParseRole(input)
		assert.NoError(t, err, "role %q", input)
		assert.Equal(t, want, got, "role %q", input)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
}

func TestForRole(t *testing.T) {
	tutor := TutorConfig{
		Teacher: Credentials{Username: "t"},
		Student: Credentials{Username: "s"},
		Admin:   Credentials{Username: "a"},
		Content: Credentials{Username: "c"},
	}

	creds, err := tutor.ForRole("teacher")
	require.NoError(t, err)
	assert.Equal(t, "t", creds.Username)

	creds, err = tutor.ForRole("content-qa")
	require.NoError(t, err)
	assert.Equal(t, "c", creds.Username)

	_, err = tutor.ForRole("nobody")
	assert.Error(t, err)
}
