// Package departments manages the hospital departments incidents are
// reported against.
package departments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Department is a hospital unit. Incident frequency for risk grading is
// counted per department.
type Department struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Command carries the fields for creating or replacing a department.
type Command struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Validate trims the name and rejects an empty one.
func (c *Command) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}
