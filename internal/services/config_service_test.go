package services

import (
	"testing"
	"time"
)

type configStubStore struct {
	years     map[string]*AcademicYear
	overrides map[string]*ConfigOverride
	frozen    map[string]bool
	audits    []AuditEntry
}

func newConfigStubStore() *configStubStore {
	return &configStubStore{
		years:     map[string]*AcademicYear{},
		overrides: map[string]*ConfigOverride{},
		frozen:    map[string]bool{},
	}
}

func (s *configStubStore) GetAcademicYear(code string) (*AcademicYear, error) {
	return s.years[code], nil
}

func (s *configStubStore) GetActiveConfigOverride(yearCode string) (*ConfigOverride, error) {
	o, ok := s.overrides[yearCode]
	if !ok || !o.IsActive {
		return nil, nil
	}
	return o, nil
}

func (s *configStubStore) InsertConfigOverride(o *ConfigOverride) (*ConfigOverride, error) {
	cp := *o
	s.overrides[o.YearCode] = &cp
	return &cp, nil
}

func (s *configStubStore) UpdateConfigOverride(o *ConfigOverride) error {
	cp := *o
	s.overrides[o.YearCode] = &cp
	return nil
}

func (s *configStubStore) YearHasSubmittedResponses(yearCode string) (bool, error) {
	return s.frozen[yearCode], nil
}

func (s *configStubStore) AddAudit(entry AuditEntry) { s.audits = append(s.audits, entry) }

func TestConfigResolveDefault(t *testing.T) {
	svc := NewConfigService(newConfigStubStore())

	cfg, err := svc.Resolve("24-25")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(cfg.Categories) != 5 {
		t.Fatalf("expected 5 categories in default config, got %d", len(cfg.Categories))
	}

	// Mutating the returned config must not leak into later resolves.
	cfg.Categories[0].Name = "mangled"
	again, err := svc.Resolve("24-25")
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}
	if again.Categories[0].Name == "mangled" {
		t.Fatalf("Resolve returned a shared config instance")
	}
}

func TestConfigResolvePrefersActiveOverride(t *testing.T) {
	store := newConfigStubStore()
	custom := DefaultSurveyConfig()
	custom.Categories = custom.Categories[:2]
	store.overrides["24-25"] = &ConfigOverride{ID: "o1", YearCode: "24-25", Config: custom, IsActive: true}
	svc := NewConfigService(store)

	cfg, err := svc.Resolve("24-25")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(cfg.Categories) != 2 {
		t.Fatalf("expected override config, got %d categories", len(cfg.Categories))
	}

	// Other years still see the default.
	other, err := svc.Resolve("25-26")
	if err != nil {
		t.Fatalf("Resolve for other year returned error: %v", err)
	}
	if len(other.Categories) != 5 {
		t.Fatalf("override leaked into another year")
	}
}

func TestConfigCopyToYear(t *testing.T) {
	store := newConfigStubStore()
	store.years["25-26"] = &AcademicYear{Code: "25-26"}
	svc := NewConfigService(store)
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }

	override, err := svc.CopyToYear("24-25", "25-26", "admin@example.com")
	if err != nil {
		t.Fatalf("CopyToYear returned error: %v", err)
	}
	if override.YearCode != "25-26" || !override.IsActive {
		t.Fatalf("unexpected override: %+v", override)
	}
	if len(override.Config.Categories) != 5 {
		t.Fatalf("copied config lost categories")
	}

	// A second copy into the same target must refuse.
	if _, err := svc.CopyToYear("24-25", "25-26", "admin@example.com"); !IsCode(err, ErrorConfigConflict) {
		t.Fatalf("expected config_conflict, got %v", err)
	}
}

func TestConfigCopyToYearValidation(t *testing.T) {
	store := newConfigStubStore()
	svc := NewConfigService(store)

	if _, err := svc.CopyToYear("24-25", "24-25", "a"); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for same-year copy, got %v", err)
	}
	if _, err := svc.CopyToYear("24-25", "99-00", "a"); !IsCode(err, ErrorNotFound) {
		t.Fatalf("expected not_found for missing target year, got %v", err)
	}
}

func TestConfigUpdateFrozenAfterSubmission(t *testing.T) {
	store := newConfigStubStore()
	store.overrides["24-25"] = &ConfigOverride{ID: "o1", YearCode: "24-25", Config: DefaultSurveyConfig(), IsActive: true}
	store.frozen["24-25"] = true
	svc := NewConfigService(store)

	if _, err := svc.UpdateOverride("24-25", DefaultSurveyConfig(), "admin"); !IsCode(err, ErrorConfigImmutable) {
		t.Fatalf("expected config_immutable, got %v", err)
	}

	store.frozen["24-25"] = false
	if _, err := svc.UpdateOverride("24-25", DefaultSurveyConfig(), "admin"); err != nil {
		t.Fatalf("UpdateOverride on unfrozen year returned error: %v", err)
	}
}
