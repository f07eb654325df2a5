package services

import "testing"

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultSurveyConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaultConfigTriggersAllPriceable(t *testing.T) {
	// Every trigger shipped in the default taxonomy must resolve to a
	// point value without a registry, or a fresh deployment would
	// reject submissions out of the box.
	r := NewPointsResolver(nil)
	for _, key := range DefaultSurveyConfig().TriggerKeys() {
		if _, err := r.Resolve(key, "24-25"); err != nil {
			t.Errorf("default trigger %s is unpriceable: %v", key, err)
		}
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	cfg := DefaultSurveyConfig()
	cfg.Categories[1].Key = cfg.Categories[0].Key
	if err := cfg.Validate(); err == nil {
		t.Fatalf("duplicate category keys must fail validation")
	}

	cfg = DefaultSurveyConfig()
	cfg.Version = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("zero version must fail validation")
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg := DefaultSurveyConfig()
	cp := cfg.Clone()
	cp.Categories[0].Subsections[0].Triggers[0].Label = "mangled"
	if cfg.Categories[0].Subsections[0].Triggers[0].Label == "mangled" {
		t.Fatalf("Clone shared trigger slices with the source")
	}
}

func TestCanonicalTriggerForVariable(t *testing.T) {
	// The inverse mapping must prefer the long-form trigger key over
	// legacy short aliases that point at the same variable.
	trig, ok := CanonicalTriggerForVariable("CIT_COMMIT_UNMC")
	if !ok || trig != "comm_unmc" {
		t.Fatalf("got %q (ok=%v)", trig, ok)
	}
	if _, ok := CanonicalTriggerForVariable("NOPE_VAR"); ok {
		t.Fatalf("unknown variables must not map")
	}
}

func TestCategoryOfTrigger(t *testing.T) {
	cfg := DefaultSurveyConfig()
	byTrigger := cfg.CategoryOfTrigger()
	if byTrigger["comm_unmc"] != "citizenship" {
		t.Fatalf("comm_unmc should belong to citizenship, got %q", byTrigger["comm_unmc"])
	}
	if byTrigger["lecture_new"] != "education" {
		t.Fatalf("lecture_new should belong to education, got %q", byTrigger["lecture_new"])
	}
}
