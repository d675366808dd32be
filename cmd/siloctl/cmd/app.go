package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/siloindex/siloindex/internal/config"
	"github.com/siloindex/siloindex/internal/embed"
	"github.com/siloindex/siloindex/internal/silo"
)

// app bundles the configuration document and the live silo manager every
// subcommand needs. It is built fresh per invocation and torn down via
// close before the command returns.
type app struct {
	cfg     *config.Config
	mgr     *silo.Manager
	factory *embed.EmbedderFactory
}

// newApp loads the user configuration and opens every configured silo
// against it, skipping any silo marked sleeping.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, mgr: silo.NewManager(), factory: embed.NewEmbedderFactory()}

	for name, sc := range cfg.Silos {
		if sc.Sleeping {
			continue
		}
		if _, err := a.openSilo(ctx, name); err != nil {
			return nil, fmt.Errorf("open silo %q: %w", name, err)
		}
	}

	return a, nil
}

// embedderFor builds the embedder and query/document prefixes configured
// for name's model.
func (a *app) embedderFor(ctx context.Context, name string) (embed.Embedder, string, string, error) {
	httpCfg := embed.DefaultHTTPEmbedConfig()
	httpCfg.Host = a.cfg.Embeddings.OllamaURL

	modelID := a.cfg.Model(name)
	embedder, err := a.factory.New(ctx, modelID, httpCfg)
	if err != nil {
		return nil, "", "", err
	}

	queryPrefix, documentPrefix := "", ""
	if model, ok := a.factory.Registry().Get(modelID); ok {
		queryPrefix, documentPrefix = model.QueryPrefix, model.DocumentPrefix
	}
	return embedder, queryPrefix, documentPrefix, nil
}

// openSilo resolves name's configuration, builds its embedder, and
// registers it with the manager.
func (a *app) openSilo(ctx context.Context, name string) (*silo.Silo, error) {
	sc, ok := a.cfg.Silos[name]
	if !ok {
		return nil, fmt.Errorf("silo %q is not configured", name)
	}

	dbPath, err := a.cfg.ResolveDBPath(name)
	if err != nil {
		return nil, err
	}

	embedder, queryPrefix, documentPrefix, err := a.embedderFor(ctx, name)
	if err != nil {
		return nil, err
	}
	modelID := a.cfg.Model(name)

	siloCfg := silo.Config{
		Name:           name,
		Directories:    sc.Directories,
		DBPath:         dbPath,
		Extensions:     a.cfg.Extensions(name),
		Ignore:         a.cfg.Ignore(name),
		IgnoreFiles:    a.cfg.IgnoreFiles(name),
		ModelName:      modelID,
		Sleeping:       sc.Sleeping,
		Description:    sc.Description,
		Color:          sc.Color,
		Icon:           sc.Icon,
		DebounceWindow: time.Duration(a.cfg.Defaults.Debounce),
	}

	return a.mgr.Open(siloCfg, embedder, queryPrefix, documentPrefix)
}

// close stops every open silo.
func (a *app) close() {
	for _, s := range a.mgr.List() {
		_ = s.Stop()
	}
}
