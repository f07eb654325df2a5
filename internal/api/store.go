package api

import (
	"time"

	"github.com/achievemetrics/facpoints/internal/services"
)

// Store is the persistence surface the router wires the services to.
// The per-service interfaces keep each service's dependency narrow;
// this composite is what a concrete backend implements once.
type Store interface {
	services.ConfigStore
	services.ActivityTypeStore
	services.CampaignStore
	services.CalculatorStore
	services.ImportStore
	services.RosterStore
	services.AuthStore

	InsertAcademicYear(y *services.AcademicYear) (*services.AcademicYear, error)
	ListAcademicYears() ([]*services.AcademicYear, error)
	SetCurrentYear(code string) error

	ListCampaigns() ([]*services.SurveyCampaign, error)

	ListFaculty(includeInactive bool) ([]*services.FacultyMember, error)
	GetFacultyByPortalToken(token string) (*services.FacultyMember, error)

	UpsertDivision(d *services.Division) error
	ListDivisions() ([]*services.Division, error)
	GetDivisionVerification(division, yearCode string) (*services.DivisionVerification, error)
	UpsertDivisionVerification(v *services.DivisionVerification) error
	ListDivisionVerifications(yearCode string) ([]*services.DivisionVerification, error)

	UpsertActivityType(at *services.ActivityType) error
	ListActivityTypes() ([]*services.ActivityType, error)

	UpsertDepartmentalData(d *services.DepartmentalData) error

	ListImportBatches(yearCode string) ([]*services.ImportBatch, error)
	ListEmailLogs(invitationID string) ([]*services.EmailLogEntry, error)
	ListAudit(since time.Time) ([]services.AuditEntry, error)
}

var _ Store = (*memoryStore)(nil)
