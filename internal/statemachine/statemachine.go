// Package statemachine holds the incident transition table and authorizes
// requested status changes against it. It is pure: no I/O and no mutation.
package statemachine

import (
	"fmt"
	"slices"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
)

// Transition is the single outgoing edge of a status together with the
// roles allowed to take it.
type Transition struct {
	From  taxonomy.Status
	To    taxonomy.Status
	Roles []string
}

// Permits reports whether any of roles may take the transition.
func (t Transition) Permits(roles []string) bool {
	return slices.ContainsFunc(roles, func(r string) bool {
		return slices.Contains(t.Roles, r)
	})
}

// Machine is an immutable transition table keyed by source status.
type Machine struct {
	transitions map[taxonomy.Status]Transition
}

// New builds a Machine from transitions. Each source status may have at
// most one outgoing transition; later entries replace earlier ones.
func New(transitions ...Transition) *Machine {
	m := &Machine{transitions: make(map[taxonomy.Status]Transition, len(transitions))}
	for _, t := range transitions {
		m.transitions[t.From] = Transition{
			From:  t.From,
			To:    t.To,
			Roles: slices.Clone(t.Roles),
		}
	}
	return m
}

// Default returns the incident workflow:
// DRAFT -> SUBMITTED by perawat, SUBMITTED -> CLOSED by mutu or admin.
func Default() *Machine {
	return New(
		Transition{
			From:  taxonomy.StatusDraft,
			To:    taxonomy.StatusSubmitted,
			Roles: []string{taxonomy.RolePerawat},
		},
		Transition{
			From:  taxonomy.StatusSubmitted,
			To:    taxonomy.StatusClosed,
			Roles: []string{taxonomy.RoleMutu, taxonomy.RoleAdmin},
		},
	)
}

// Next returns the outgoing transition of from, if any.
func (m *Machine) Next(from taxonomy.Status) (Transition, bool) {
	t, ok := m.transitions[from]
	return t, ok
}

// Authorize checks whether an actor holding roles may move an incident
// from current to requested. Requesting the current status is a no-op and
// always succeeds.
func (m *Machine) Authorize(current, requested taxonomy.Status, roles []string) error {
	if current == requested {
		return nil
	}

	t, ok := m.transitions[current]
	if !ok {
		return fmt.Errorf("%w: no transition from %s", ErrInvalidStateTransition, current)
	}

	if t.To != requested {
		return fmt.Errorf("%w: must transition to %s", ErrInvalidStateTransition, t.To)
	}

	if !t.Permits(roles) {
		return fmt.Errorf("%w: %s -> %s requires one of %v", ErrRoleNotAllowed, current, requested, t.Roles)
	}

	return nil
}
