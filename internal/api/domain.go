package api

import (
	"github.com/yusufekamaulana/rsua-akreditasi/internal/attachments"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/departments"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/incidents"
	"github.com/yusufekamaulana/rsua-akreditasi/internal/statemachine"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Incidents   incidents.System
	Departments departments.System
	Attachments attachments.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	lifecycle := incidents.NewLifecycle(
		statemachine.Default(),
		runtime.Models.Classifier,
		runtime.Models.Codes,
		runtime.Logger,
	)

	incidentsSystem := incidents.New(
		runtime.Database.Connection(),
		lifecycle,
		runtime.Logger,
		runtime.Pagination,
	)

	departmentsSystem := departments.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	attachmentsSystem := attachments.New(
		runtime.Database.Connection(),
		runtime.Storage,
		incidentsSystem,
		runtime.Logger,
	)

	return &Domain{
		Incidents:   incidentsSystem,
		Departments: departmentsSystem,
		Attachments: attachmentsSystem,
	}
}
