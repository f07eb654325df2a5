package services

import (
	"errors"
	"testing"
)

type registryStubStore struct {
	byVariable map[string]*ActivityType
}

func (s *registryStubStore) GetActivityTypeByVariable(dataVariable string) (*ActivityType, error) {
	if at, ok := s.byVariable[dataVariable]; ok {
		cp := *at
		return &cp, nil
	}
	return nil, nil
}

func TestResolveRegistryWinsOverFallback(t *testing.T) {
	// Fallback says lecture_new is 250; a live registry row saying 300
	// must take precedence.
	store := &registryStubStore{byVariable: map[string]*ActivityType{
		"EDU_CIRC_LEC_NEW": {DataVariable: "EDU_CIRC_LEC_NEW", BasePoints: 300, IsActive: true},
	}}
	r := NewPointsResolver(store)

	res, err := r.Resolve("lecture_new", "24-25")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Points != 300 || res.Source != SourceRegistry {
		t.Fatalf("expected 300 from registry, got %+v", res)
	}
}

func TestResolveFallsBackWhenRegistryInactive(t *testing.T) {
	store := &registryStubStore{byVariable: map[string]*ActivityType{
		"EDU_CIRC_LEC_NEW": {DataVariable: "EDU_CIRC_LEC_NEW", BasePoints: 300, IsActive: false},
	}}
	r := NewPointsResolver(store)

	res, err := r.Resolve("lecture_new", "24-25")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Points != 250 || res.Source != SourceFallback {
		t.Fatalf("expected 250 fallback, got %+v", res)
	}
}

func TestResolveFallbackWithoutRegistry(t *testing.T) {
	r := NewPointsResolver(nil)

	res, err := r.Resolve("comm_unmc", "24-25")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Points != 1000 || res.Source != SourceFallback {
		t.Fatalf("expected 1000 fallback, got %+v", res)
	}
}

func TestResolveUnknownTrigger(t *testing.T) {
	r := NewPointsResolver(&registryStubStore{})

	_, err := r.Resolve("no_such_trigger", "24-25")
	if err == nil {
		t.Fatalf("expected error for unknown trigger")
	}
	var ut *UnresolvedTriggerError
	if !errors.As(err, &ut) {
		t.Fatalf("expected UnresolvedTriggerError, got %T", err)
	}
	if ut.TriggerKey != "no_such_trigger" || ut.YearCode != "24-25" {
		t.Fatalf("unexpected error details: %+v", ut)
	}
	if !IsCode(err, ErrorUnresolvedTrigger) {
		t.Fatalf("error should carry unresolved_trigger code")
	}
}

func TestResolveYearVersionedVariable(t *testing.T) {
	// sim_event_resfel repointed between 23-24 and 24-25; the resolver
	// must consult the right variable for each year.
	store := &registryStubStore{byVariable: map[string]*ActivityType{
		"EDU_CIRC_SIM_EVENT":   {DataVariable: "EDU_CIRC_SIM_EVENT", BasePoints: 100, IsActive: true},
		"EDU_CLIN_SIM_SESSION": {DataVariable: "EDU_CLIN_SIM_SESSION", BasePoints: 150, IsActive: true},
	}}
	r := NewPointsResolver(store)

	old, err := r.Resolve("sim_event_resfel", "23-24")
	if err != nil {
		t.Fatalf("Resolve 23-24 returned error: %v", err)
	}
	if old.Points != 100 {
		t.Fatalf("23-24 should price through EDU_CIRC_SIM_EVENT, got %+v", old)
	}

	current, err := r.Resolve("sim_event_resfel", "24-25")
	if err != nil {
		t.Fatalf("Resolve 24-25 returned error: %v", err)
	}
	if current.Points != 150 {
		t.Fatalf("24-25 should price through EDU_CLIN_SIM_SESSION, got %+v", current)
	}
}

func TestResolveAllStopsOnUnresolvable(t *testing.T) {
	r := NewPointsResolver(nil)

	answers := map[string]int{"comm_unmc": 1, "bogus": 2}
	if _, err := r.ResolveAll(answers, "24-25"); !IsCode(err, ErrorUnresolvedTrigger) {
		t.Fatalf("expected unresolved_trigger, got %v", err)
	}

	delete(answers, "bogus")
	priced, err := r.ResolveAll(answers, "24-25")
	if err != nil {
		t.Fatalf("ResolveAll returned error: %v", err)
	}
	if priced["comm_unmc"].Points != 1000 {
		t.Fatalf("unexpected pricing: %+v", priced)
	}
}
