package core

import (
	"context"
	"strings"

	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/model"
)

// ClientInput is a client registration request.
type ClientInput struct {
	CURP      string `json:"curp"`
	Nombre    string `json:"nombre"`
	Telefono  string `json:"telefono"`
	Grupo     string `json:"grupo"`
	Direccion string `json:"direccion"`
}

// RegisterClient validates and stores a new client. The CURP must not be
// registered locally nor present in the mirrored clients sheet.
func (a *App) RegisterClient(ctx context.Context, in ClientInput, by string) (model.Client, error) {
	c := model.Client{
		CURP:          model.NormalizeCURP(in.CURP),
		Nombre:        strings.TrimSpace(in.Nombre),
		Telefono:      strings.TrimSpace(in.Telefono),
		Grupo:         strings.TrimSpace(in.Grupo),
		Direccion:     strings.TrimSpace(in.Direccion),
		FechaRegistro: a.now(),
		RegistradoPor: by,
		Fuente:        model.SourceSystem,
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := validateClient(c, a.config); err != nil {
		return model.Client{}, err
	}

	if a.hasClientLocked(c.CURP) {
		return model.Client{}, &ValidationError{Kind: ErrDuplicateClient, Field: "curp", Reason: c.CURP}
	}

	a.clients = append(a.clients, c)

	if err := a.persist(ctx, KeyClients, a.clients); err != nil {
		a.clients = a.clients[:len(a.clients)-1]
		return model.Client{}, err
	}

	a.enqueue(ctx, localstore.TableClients, c.SheetRow())

	a.logger.Info("client registered", "curp", c.CURP, "grupo", c.Grupo, "by", by)

	return c, nil
}

func validateClient(c model.Client, cfg model.Config) error {
	switch {
	case c.CURP == "":
		return invalid(ErrInvalidClient, "curp", "is required")
	case !model.ValidCURP(c.CURP):
		return invalid(ErrInvalidClient, "curp", "must be 18 letters or digits")
	case c.Nombre == "":
		return invalid(ErrInvalidClient, "nombre", "is required")
	case !cfg.AllowsGroup(c.Grupo):
		return invalid(ErrInvalidClient, "grupo", "is not a configured group")
	}

	return nil
}

func (a *App) hasClientLocked(curp string) bool {
	for _, c := range a.clients {
		if c.CURP == curp {
			return true
		}
	}

	if a.mirror != nil {
		if _, ok := a.mirror.Client(curp); ok {
			return true
		}
	}

	return false
}

// Clients returns the locally registered clients followed by the mirrored
// ones not registered locally.
func (a *App) Clients() []model.Client {
	a.mu.RLock()
	out := cloneOf(a.clients)
	a.mu.RUnlock()

	if a.mirror == nil {
		return out
	}

	seen := make(map[string]bool, len(out))
	for _, c := range out {
		seen[c.CURP] = true
	}

	for _, c := range a.mirror.Clients() {
		if !seen[c.CURP] {
			out = append(out, c)
		}
	}

	return out
}

// FindClient looks a client up by CURP, locally first.
func (a *App) FindClient(curp string) (model.Client, error) {
	curp = model.NormalizeCURP(curp)

	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, c := range a.clients {
		if c.CURP == curp {
			return c, nil
		}
	}

	if a.mirror != nil {
		if c, ok := a.mirror.Client(curp); ok {
			return c, nil
		}
	}

	return model.Client{}, &ValidationError{Kind: ErrUnknownClient, Field: "curp", Reason: curp}
}
