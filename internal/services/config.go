package services

import (
	"fmt"
	"time"
)

// SurveyConfig is the taxonomy of achievement activities for one
// academic year: ordered categories, each with subsections, each with
// the triggers faculty answer. Triggers are the unit the points
// resolver prices; a trigger's PointsRef names the resolution key and
// defaults to the trigger's own key.
type SurveyConfig struct {
	Version    int        `json:"version"`
	Categories []Category `json:"categories"`
}

type Category struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Subsections []Subsection `json:"subsections"`
}

type Subsection struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	// CarryForward subsections are reported once per year and repeat
	// into subsequent quarters without re-scoring.
	CarryForward bool      `json:"carry_forward,omitempty"`
	Triggers     []Trigger `json:"triggers"`
}

type Trigger struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	InfoText  string `json:"info_text,omitempty"`
	PointsRef string `json:"points_ref,omitempty"`
}

// ResolutionKey is the key handed to the points resolver.
func (t Trigger) ResolutionKey() string {
	if t.PointsRef != "" {
		return t.PointsRef
	}
	return t.Key
}

// Clone returns a structurally independent deep copy. Mutating the
// copy must never affect the source taxonomy.
func (c *SurveyConfig) Clone() *SurveyConfig {
	if c == nil {
		return nil
	}
	out := &SurveyConfig{Version: c.Version, Categories: make([]Category, len(c.Categories))}
	for i, cat := range c.Categories {
		cc := Category{Key: cat.Key, Name: cat.Name, Description: cat.Description}
		cc.Subsections = make([]Subsection, len(cat.Subsections))
		for j, sub := range cat.Subsections {
			sc := Subsection{Key: sub.Key, Name: sub.Name, CarryForward: sub.CarryForward}
			sc.Triggers = append([]Trigger(nil), sub.Triggers...)
			cc.Subsections[j] = sc
		}
		out.Categories[i] = cc
	}
	return out
}

// Validate checks structural invariants on load: non-zero schema
// version, non-empty ordered keys, and global trigger-key uniqueness.
func (c *SurveyConfig) Validate() error {
	if c == nil {
		return NewInvalidError("survey config is nil")
	}
	if c.Version < 1 {
		return NewInvalidError("survey config version must be >= 1")
	}
	if len(c.Categories) == 0 {
		return NewInvalidError("survey config has no categories")
	}
	seenCat := map[string]bool{}
	seenTrig := map[string]bool{}
	for _, cat := range c.Categories {
		if cat.Key == "" {
			return NewInvalidError("category with empty key")
		}
		if seenCat[cat.Key] {
			return NewInvalidError(fmt.Sprintf("duplicate category key %q", cat.Key))
		}
		seenCat[cat.Key] = true
		for _, sub := range cat.Subsections {
			if sub.Key == "" {
				return NewInvalidError(fmt.Sprintf("subsection with empty key in category %q", cat.Key))
			}
			for _, trig := range sub.Triggers {
				if trig.Key == "" {
					return NewInvalidError(fmt.Sprintf("trigger with empty key in %s/%s", cat.Key, sub.Key))
				}
				if seenTrig[trig.Key] {
					return NewInvalidError(fmt.Sprintf("duplicate trigger key %q", trig.Key))
				}
				seenTrig[trig.Key] = true
			}
		}
	}
	return nil
}

// CategoryOfTrigger builds an index from trigger key to owning
// category key.
func (c *SurveyConfig) CategoryOfTrigger() map[string]string {
	out := map[string]string{}
	for _, cat := range c.Categories {
		for _, sub := range cat.Subsections {
			for _, trig := range sub.Triggers {
				out[trig.Key] = cat.Key
			}
		}
	}
	return out
}

// TriggerKeys lists every trigger key in taxonomy order.
func (c *SurveyConfig) TriggerKeys() []string {
	var out []string
	for _, cat := range c.Categories {
		for _, sub := range cat.Subsections {
			for _, trig := range sub.Triggers {
				out = append(out, trig.Key)
			}
		}
	}
	return out
}

// ConfigOverride attaches a custom taxonomy to one academic year. At
// most one override per year is active; resolution falls back to the
// in-code default when none is.
type ConfigOverride struct {
	ID        string        `json:"id"`
	YearCode  string        `json:"year_code"`
	Name      string        `json:"name"`
	Config    *SurveyConfig `json:"config"`
	IsActive  bool          `json:"is_active"`
	CreatedBy string        `json:"created_by,omitempty"`
	CreatedAt time.Time     `json:"created_at,omitempty"`
	UpdatedAt time.Time     `json:"updated_at,omitempty"`
}
