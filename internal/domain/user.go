package domain

import "time"

// User es el registro persistido de una cuenta.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Avatar       *string   `json:"avatar,omitempty"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserView es la representacion publica de un usuario, sin secretos.
type UserView struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Avatar    *string `json:"avatar,omitempty"`
}

// View proyecta el usuario a su vista publica.
func (u User) View() UserView {
	var avatar *string
	if u.Avatar != nil {
		a := *u.Avatar
		avatar = &a
	}
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    avatar,
	}
}

// Touch refresca UpdatedAt garantizando que siempre avance.
func (u *User) Touch(now time.Time) {
	now = now.UTC()
	if !now.After(u.UpdatedAt) {
		now = u.UpdatedAt.Add(time.Microsecond)
	}
	u.UpdatedAt = now
}

// LoginResult es la respuesta de un login exitoso.
type LoginResult struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}
