package core

import (
	"context"
	"slices"
	"strings"

	"github.com/inovacc/finzana/internal/model"
	"github.com/shopspring/decimal"
)

// ConfigPatch is a partial configuration update. Nil fields keep the
// current value.
type ConfigPatch struct {
	Grupos       *[]string        `json:"grupos"`
	Semanas      *[]int           `json:"semanas"`
	TiposUsuario *[]string        `json:"tipos_usuario"`
	TasaInteres  *decimal.Decimal `json:"tasa_interes"`
}

// Empty reports whether the patch changes nothing.
func (p ConfigPatch) Empty() bool {
	return p.Grupos == nil && p.Semanas == nil && p.TiposUsuario == nil && p.TasaInteres == nil
}

func (p ConfigPatch) apply(cfg model.Config) model.Config {
	if p.Grupos != nil {
		cfg.Grupos = slices.Clone(*p.Grupos)
	}

	if p.Semanas != nil {
		cfg.Semanas = slices.Clone(*p.Semanas)
	}

	if p.TiposUsuario != nil {
		cfg.TiposUsuario = slices.Clone(*p.TiposUsuario)
	}

	if p.TasaInteres != nil {
		cfg.TasaInteres = *p.TasaInteres
	}

	return cfg
}

// Config returns the business configuration.
func (a *App) Config() model.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return cloneConfig(a.config)
}

// SaveConfig validates and persists cfg.
func (a *App) SaveConfig(ctx context.Context, cfg model.Config) error {
	cfg = cloneConfig(cfg)

	if err := validateConfig(cfg); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.config
	a.config = cfg

	if err := a.persist(ctx, KeyConfig, cfg); err != nil {
		a.config = prev
		return err
	}

	return nil
}

// UpdateConfig merges patch into the current configuration and persists
// the result.
func (a *App) UpdateConfig(ctx context.Context, patch ConfigPatch) (model.Config, error) {
	if patch.Empty() {
		return model.Config{}, invalid(ErrInvalidConfig, "config", "no fields to update")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cfg := patch.apply(cloneConfig(a.config))
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}

	if err := a.persist(ctx, KeyConfig, cfg); err != nil {
		return model.Config{}, err
	}

	a.config = cfg

	return cloneConfig(cfg), nil
}

// ResetConfig restores and persists the default configuration.
func (a *App) ResetConfig(ctx context.Context) (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := a.SaveConfig(ctx, cfg); err != nil {
		return model.Config{}, err
	}

	return cfg, nil
}

// RefreshConfig refetches the lookup sheet. The sheet configuration is
// adopted when it carries a known key; otherwise the current one is kept.
// It reports whether the sheet was used.
func (a *App) RefreshConfig(ctx context.Context) (model.Config, bool, error) {
	if a.mirror == nil {
		return a.Config(), false, nil
	}

	result := a.mirror.Refresh(ctx, a.mirror.Names().Lookup)
	if result.Err != nil {
		return a.Config(), false, result.Err
	}

	cfg, ok := a.mirror.Config()
	if !ok {
		return a.Config(), false, nil
	}

	if err := a.SaveConfig(ctx, cfg); err != nil {
		return model.Config{}, false, err
	}

	return cfg, true, nil
}

func validateConfig(cfg model.Config) error {
	for _, w := range cfg.Semanas {
		if w <= 0 {
			return invalid(ErrInvalidConfig, "semanas", "must be positive")
		}
	}

	for _, g := range cfg.Grupos {
		if strings.TrimSpace(g) == "" {
			return invalid(ErrInvalidConfig, "grupos", "must not be blank")
		}
	}

	if cfg.TasaInteres.IsNegative() {
		return invalid(ErrInvalidConfig, "tasa_interes", "must not be negative")
	}

	return nil
}

func cloneConfig(c model.Config) model.Config {
	c.Grupos = slices.Clone(c.Grupos)
	c.Semanas = slices.Clone(c.Semanas)
	c.TiposUsuario = slices.Clone(c.TiposUsuario)

	return c
}
