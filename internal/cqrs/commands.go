package cqrs

type CreateUserCommand struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,strongpwd"`
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
}

func (CreateUserCommand) MessageName() string { return "user.create" }

// UpdateUserCommand solo aplica los campos presentes; nil deja el valor actual.
type UpdateUserCommand struct {
	UserID    string  `json:"id" validate:"required"`
	FirstName *string `json:"firstName" validate:"omitempty,min=2"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2"`
	Avatar    *string `json:"avatar" validate:"omitempty,url"`
}

func (UpdateUserCommand) MessageName() string { return "user.update" }

type DeleteUserCommand struct {
	UserID string
}

func (DeleteUserCommand) MessageName() string { return "user.delete" }

type LoginUserCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (LoginUserCommand) MessageName() string { return "user.login" }

// Commands lista todos los comandos que el bus debe atender.
func Commands() []Message {
	return []Message{
		CreateUserCommand{},
		UpdateUserCommand{},
		DeleteUserCommand{},
		LoginUserCommand{},
	}
}
