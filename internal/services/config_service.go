package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConfigStore abstracts persistence operations required by ConfigService.
type ConfigStore interface {
	GetAcademicYear(code string) (*AcademicYear, error)
	GetActiveConfigOverride(yearCode string) (*ConfigOverride, error)
	InsertConfigOverride(o *ConfigOverride) (*ConfigOverride, error)
	UpdateConfigOverride(o *ConfigOverride) error
	// YearHasSubmittedResponses reports whether any campaign under the
	// year has at least one submitted response. Once true, the year's
	// scoring rules are frozen.
	YearHasSubmittedResponses(yearCode string) (bool, error)
	AddAudit(entry AuditEntry)
}

// ConfigService resolves the authoritative survey taxonomy per year:
// an active per-year override where one exists, the in-code default
// otherwise.
type ConfigService struct {
	store ConfigStore
	now   func() time.Time
	idGen func() string
}

func NewConfigService(store ConfigStore) *ConfigService {
	return &ConfigService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: uuid.NewString,
	}
}

// Resolve returns the taxonomy in effect for yearCode. The result is
// always a private deep copy; callers can mutate it without touching
// the default config or the stored override. Repeated calls with
// unchanged state return identical taxonomies.
func (s *ConfigService) Resolve(yearCode string) (*SurveyConfig, error) {
	if strings.TrimSpace(yearCode) == "" {
		return nil, NewInvalidError("year code required")
	}
	override, err := s.store.GetActiveConfigOverride(yearCode)
	if err != nil {
		return nil, err
	}
	if override != nil && override.Config != nil {
		cfg := override.Config.Clone()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return DefaultSurveyConfig(), nil
}

// CopyToYear deep-copies the source year's effective taxonomy into a
// new override owned by the target year. The single-active-config
// invariant makes this mutually exclusive per target: a second copy
// fails with a config_conflict instead of producing a duplicate.
func (s *ConfigService) CopyToYear(sourceYear, targetYear, createdBy string) (*ConfigOverride, error) {
	if sourceYear == "" || targetYear == "" {
		return nil, NewInvalidError("source and target year codes required")
	}
	if sourceYear == targetYear {
		return nil, NewInvalidError("source and target years must differ")
	}
	if y, err := s.store.GetAcademicYear(targetYear); err != nil {
		return nil, err
	} else if y == nil {
		return nil, NewNotFoundError(fmt.Sprintf("academic year %s not found", targetYear))
	}

	existing, err := s.store.GetActiveConfigOverride(targetYear)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConfigConflictError(fmt.Sprintf("year %s already has an active survey config", targetYear))
	}

	cfg, err := s.Resolve(sourceYear)
	if err != nil {
		return nil, err
	}

	now := s.now()
	override := &ConfigOverride{
		ID:        s.idGen(),
		YearCode:  targetYear,
		Name:      fmt.Sprintf("AY %s Survey Config", targetYear),
		Config:    cfg.Clone(),
		IsActive:  true,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.store.InsertConfigOverride(override)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		override = stored
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: createdBy, Action: "config_copy", Target: targetYear, Note: "from " + sourceYear})
	return override, nil
}

// UpdateOverride replaces the taxonomy of an existing override.
// Rejected once any submitted response exists under the year; changing
// scoring rules retroactively is not allowed.
func (s *ConfigService) UpdateOverride(yearCode string, cfg *SurveyConfig, updatedBy string) (*ConfigOverride, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	override, err := s.store.GetActiveConfigOverride(yearCode)
	if err != nil {
		return nil, err
	}
	if override == nil {
		return nil, NewNotFoundError(fmt.Sprintf("year %s has no active survey config", yearCode))
	}
	frozen, err := s.store.YearHasSubmittedResponses(yearCode)
	if err != nil {
		return nil, err
	}
	if frozen {
		return nil, NewConfigImmutableError(fmt.Sprintf("year %s has submitted responses; its survey config is frozen", yearCode))
	}
	override.Config = cfg.Clone()
	override.UpdatedAt = s.now()
	if err := s.store.UpdateConfigOverride(override); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: override.UpdatedAt, Actor: updatedBy, Action: "config_update", Target: yearCode})
	return override, nil
}
