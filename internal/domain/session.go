package domain

import "strings"

// Profile es la parte del usuario que el cliente guarda junto al token.
type Profile struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// Valid indica si el perfil tiene los campos obligatorios.
func (p Profile) Valid() bool {
	return strings.TrimSpace(p.Username) != "" && strings.TrimSpace(p.UserID) != ""
}

// Session es el estado autenticado del cliente entre login y logout.
type Session struct {
	Profile
	Token string `json:"-"`
}

// Credentials son transitorias: nunca se persisten.
type Credentials struct {
	Username string
	Password string
}

// Normalize recorta el username; el password se usa tal cual.
func (c Credentials) Normalize() Credentials {
	return Credentials{
		Username: strings.TrimSpace(c.Username),
		Password: c.Password,
	}
}

// Validate rechaza credenciales vacias antes de llamar al backend.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == "" {
		return &ValidationError{Field: "credentials", Message: "Please enter both username and password"}
	}
	return nil
}
