package model

import "time"

// User is a staff member allowed to log in.
type User struct {
	Usuario      string    `json:"usuario"`
	Nombre       string    `json:"nombre"`
	Tipo         string    `json:"tipo"`
	PasswordHash string    `json:"passwordHash"`
	Activo       bool      `json:"activo"`
	CreadoEn     time.Time `json:"creadoEn"`
}

// Public returns a copy without the password hash.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
