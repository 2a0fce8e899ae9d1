package core

import (
	"context"
	"strings"

	"github.com/inovacc/finzana/internal/auth"
	"github.com/inovacc/finzana/internal/model"
)

// AdminUser is the login seeded on first run.
const AdminUser = "admin"

// UserInput is a new staff user.
type UserInput struct {
	Usuario  string `json:"usuario"`
	Nombre   string `json:"nombre"`
	Tipo     string `json:"tipo"`
	Password string `json:"password"`
}

// AddUser creates an active user with a hashed password.
func (a *App) AddUser(ctx context.Context, in UserInput) (model.User, error) {
	usuario := strings.ToLower(strings.TrimSpace(in.Usuario))

	switch {
	case usuario == "":
		return model.User{}, invalid(ErrInvalidUser, "usuario", "is required")
	case in.Password == "":
		return model.User{}, invalid(ErrInvalidUser, "password", "is required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return model.User{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.config.AllowsUserType(in.Tipo) || in.Tipo == "" {
		return model.User{}, invalid(ErrInvalidUser, "tipo", "is not a configured user type")
	}

	for _, u := range a.users {
		if u.Usuario == usuario {
			return model.User{}, &ValidationError{Kind: ErrDuplicateUser, Field: "usuario", Reason: usuario}
		}
	}

	u := model.User{
		Usuario:      usuario,
		Nombre:       strings.TrimSpace(in.Nombre),
		Tipo:         in.Tipo,
		PasswordHash: hash,
		Activo:       true,
		CreadoEn:     a.now(),
	}

	a.users = append(a.users, u)

	if err := a.persist(ctx, KeyUsers, a.users); err != nil {
		a.users = a.users[:len(a.users)-1]
		return model.User{}, err
	}

	a.logger.Info("user created", "usuario", u.Usuario, "tipo", u.Tipo)

	return u.Public(), nil
}

// SeedAdmin creates the admin user when no user exists yet. It reports
// whether a user was created.
func (a *App) SeedAdmin(ctx context.Context, password string) (bool, error) {
	a.mu.RLock()
	empty := len(a.users) == 0
	a.mu.RUnlock()

	if !empty {
		return false, nil
	}

	if _, err := a.AddUser(ctx, UserInput{
		Usuario:  AdminUser,
		Nombre:   "Administrador",
		Tipo:     "admin",
		Password: password,
	}); err != nil {
		return false, err
	}

	a.logger.Warn("seeded default admin user; change its password", "usuario", AdminUser)

	return true, nil
}

// Login checks a user's password. Unknown, inactive and mismatched users
// all fail with ErrInvalidCredentials.
func (a *App) Login(usuario, password string) (model.User, error) {
	usuario = strings.ToLower(strings.TrimSpace(usuario))

	a.mu.RLock()

	var (
		found model.User
		ok    bool
	)

	for _, u := range a.users {
		if u.Usuario == usuario {
			found, ok = u, true
			break
		}
	}

	a.mu.RUnlock()

	if !ok || !found.Activo {
		return model.User{}, ErrInvalidCredentials
	}

	if err := auth.CheckPassword(found.PasswordHash, password); err != nil {
		a.logger.Info("login rejected", "usuario", usuario)
		return model.User{}, ErrInvalidCredentials
	}

	return found.Public(), nil
}

// Users returns every user without password hashes.
func (a *App) Users() []model.User {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]model.User, 0, len(a.users))
	for _, u := range a.users {
		out = append(out, u.Public())
	}

	return out
}
