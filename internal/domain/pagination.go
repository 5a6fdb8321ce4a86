package domain

// PageMeta describe la pagina devuelta por un listado.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// UserPage agrupa una pagina de usuarios con su metadata.
type UserPage struct {
	Data []UserView `json:"data"`
	Meta PageMeta   `json:"meta"`
}

// NewPageMeta calcula la metadata; limit debe ser positivo.
func NewPageMeta(page, limit, total int) PageMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageMeta{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

// Offset devuelve el desplazamiento de la pagina (page empieza en 1).
func Offset(page, limit int) int {
	return (page - 1) * limit
}
