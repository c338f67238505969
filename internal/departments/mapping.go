package departments

import (
	"net/url"

	"github.com/yusufekamaulana/rsua-akreditasi/pkg/query"
	"github.com/yusufekamaulana/rsua-akreditasi/pkg/repository"
)

const columns = "id, name, description, created_at, updated_at"

var projection = query.
	NewProjectionMap("public", "departments", "d").
	Project("id", "ID").
	Project("name", "Name").
	Project("description", "Description").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field: "Name",
}

// Filters contains optional filtering criteria for department queries.
// Name uses case-insensitive contains matching.
type Filters struct {
	Name *string `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereContains("Name", f.Name)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	return f
}

func scanDepartment(s repository.Scanner) (Department, error) {
	var d Department
	err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Description,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}
