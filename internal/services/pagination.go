package services

// Pagination bounds shared by list endpoints.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

func normalizePage(page, perPage int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage, (page - 1) * perPage
}
