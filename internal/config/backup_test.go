package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfigNoOpWhenConfigAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestBackupUserConfigCopiesExistingConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "siloindex")
	configPath := filepath.Join(configDir, "config.toml")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	content := []byte("[server]\nname = \"acme\"\n")
	require.NoError(t, os.WriteFile(configPath, content, 0o644))

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)
	assert.FileExists(t, backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestListUserConfigBackupsReturnsNilWhenDirMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "does-not-exist"))

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Nil(t, backups)
}

func TestCleanupOldBackupsKeepsOnlyMaxBackups(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "siloindex")
	configPath := filepath.Join(configDir, "config.toml")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte("[server]\nname = \"acme\"\n"), 0o644))

	for i := 0; i < MaxBackups+2; i++ {
		_, err := BackupUserConfig()
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
}

func TestRestoreUserConfigWritesBackupContent(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "siloindex")
	configPath := filepath.Join(configDir, "config.toml")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte("[server]\nname = \"original\"\n"), 0o644))

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)

	require.NoError(t, os.WriteFile(configPath, []byte("[server]\nname = \"changed\"\n"), 0o644))
	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "original")
}

func TestRestoreUserConfigErrorsForMissingBackup(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Error(t, RestoreUserConfig(filepath.Join(t.TempDir(), "missing.bak")))
}
