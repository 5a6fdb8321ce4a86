package cqrs

// GetUserQuery busca un usuario no eliminado por ID.
type GetUserQuery struct {
	UserID string
}

func (GetUserQuery) MessageName() string { return "user.get" }

// ListUsersQuery pide una pagina de usuarios no eliminados.
type ListUsersQuery struct {
	Page  int `json:"page" validate:"min=1"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}

func (ListUsersQuery) MessageName() string { return "user.list" }

// Queries lista todas las queries que el bus debe atender.
func Queries() []Message {
	return []Message{
		GetUserQuery{},
		ListUsersQuery{},
	}
}
