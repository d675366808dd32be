package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigHasServerIdentityAndEmbeddings(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "siloindex", cfg.Server.Name)
	assert.Equal(t, "http://localhost:11434", cfg.Embeddings.OllamaURL)
	assert.NotEmpty(t, cfg.Embeddings.Model)
}

func TestDefaultConfigDefaultsDebounceToTwoSeconds(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2*time.Second, time.Duration(cfg.Defaults.Debounce))
}

func TestDefaultConfigSilosMapIsEmptyNotNil(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotNil(t, cfg.Silos)
	assert.Empty(t, cfg.Silos)
}

func TestDurationRoundTripsThroughTOML(t *testing.T) {
	type doc struct {
		D Duration `toml:"d"`
	}
	data, err := toml.Marshal(doc{D: Duration(90 * time.Second)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"1m30s"`)

	var out doc
	require.NoError(t, toml.Unmarshal(data, &out))
	assert.Equal(t, 90*time.Second, time.Duration(out.D))
}

func TestDurationUnmarshalRejectsInvalidText(t *testing.T) {
	var d Duration
	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
}

func TestLoadParsesLiteralSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
[server]
name = "acme"

[embeddings]
model = "static-large"
ollama_url = "http://localhost:11434"

[defaults]
debounce = "3s"
extensions = [".md", ".go"]
ignore = ["node_modules", ".git"]
ignore_files = [".DS_Store"]

[silos.docs]
directories = ["/home/user/docs"]
db_path = "docs.db"

[silos.code]
directories = ["/home/user/code"]
db_path = "/var/data/code.db"
model = "qwen3-embedding"
sleeping = true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Server.Name)
	assert.Equal(t, 3*time.Second, time.Duration(cfg.Defaults.Debounce))
	require.Contains(t, cfg.Silos, "docs")
	assert.Equal(t, "docs.db", cfg.Silos["docs"].DBPath)
	require.Contains(t, cfg.Silos, "code")
	assert.True(t, cfg.Silos["code"].Sleeping)
	assert.Equal(t, "qwen3-embedding", cfg.Silos["code"].Model)
}

func TestLoadSeedsDefaultsNotOverriddenByFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nname = \"acme\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", cfg.Embeddings.OllamaURL)
	assert.Equal(t, 2*time.Second, time.Duration(cfg.Defaults.Debounce))
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Silos["docs"] = SiloConfig{Directories: []string{"/a"}, DBPath: "docs.db"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.Name, loaded.Server.Name)
	require.Contains(t, loaded.Silos, "docs")
}

func TestGetUserConfigPathHonorsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	assert.Equal(t, "/custom/xdg/siloindex/config.toml", GetUserConfigPath())
}

func TestGetUserDataDirHonorsXDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	assert.Equal(t, "/custom/data/siloindex", GetUserDataDir())
}

func TestResolveDBPathJoinsRelativePathUnderDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	cfg := DefaultConfig()
	cfg.Silos["docs"] = SiloConfig{Directories: []string{"/a"}, DBPath: "docs.db"}

	path, err := cfg.ResolveDBPath("docs")
	require.NoError(t, err)
	assert.Equal(t, "/custom/data/siloindex/docs.db", path)
}

func TestResolveDBPathLeavesAbsolutePathUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Silos["code"] = SiloConfig{Directories: []string{"/a"}, DBPath: "/var/data/code.db"}

	path, err := cfg.ResolveDBPath("code")
	require.NoError(t, err)
	assert.Equal(t, "/var/data/code.db", path)
}

func TestResolveDBPathErrorsForUnknownSilo(t *testing.T) {
	cfg := DefaultConfig()
	_, err := cfg.ResolveDBPath("missing")
	assert.Error(t, err)
}

func TestPerSiloOverridesWinOverDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.Extensions = []string{".md"}
	cfg.Silos["code"] = SiloConfig{
		Directories: []string{"/a"},
		DBPath:      "code.db",
		Extensions:  []string{".go", ".rs"},
		Model:       "qwen3-embedding",
	}
	cfg.Silos["docs"] = SiloConfig{Directories: []string{"/b"}, DBPath: "docs.db"}

	assert.Equal(t, []string{".go", ".rs"}, cfg.Extensions("code"))
	assert.Equal(t, []string{".md"}, cfg.Extensions("docs"))
	assert.Equal(t, "qwen3-embedding", cfg.Model("code"))
	assert.Equal(t, cfg.Embeddings.Model, cfg.Model("docs"))
}

func TestValidateRejectsSiloWithoutDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Silos["broken"] = SiloConfig{DBPath: "broken.db"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsSiloWithoutDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Silos["broken"] = SiloConfig{Directories: []string{"/a"}}
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Silos["docs"] = SiloConfig{Directories: []string{"/a"}, DBPath: "docs.db"}
	assert.NoError(t, cfg.Validate())
}

func TestLoadUserConfigReturnsDefaultsWhenAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "siloindex", cfg.Server.Name)
}
