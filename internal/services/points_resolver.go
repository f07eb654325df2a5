package services

// Source identifies which tier of the resolution chain answered a
// point-value lookup, so tests and audit views can assert on it.
type Source string

const (
	SourceRegistry Source = "registry"
	SourceFallback Source = "fallback"
)

// Resolution is a priced trigger.
type Resolution struct {
	Points int    `json:"points"`
	Source Source `json:"source"`
}

// ActivityTypeStore abstracts the registry lookup for PointsResolver.
type ActivityTypeStore interface {
	GetActivityTypeByVariable(dataVariable string) (*ActivityType, error)
}

// PointsResolver prices trigger keys through an ordered chain: the
// live activity registry first, the compiled fallback table second.
// The registry is passed in explicitly so calculation stays pure and
// reproducible in tests.
type PointsResolver struct {
	store ActivityTypeStore
}

func NewPointsResolver(store ActivityTypeStore) *PointsResolver {
	return &PointsResolver{store: store}
}

// Resolve returns the point value for triggerKey in yearCode and which
// tier answered. The trigger-to-variable mapping is itself versioned by
// year, so a repointed activity resolves against the right variable for
// old years. When neither tier has an entry the error propagates;
// defaulting to zero here would corrupt a score silently.
func (r *PointsResolver) Resolve(triggerKey, yearCode string) (Resolution, error) {
	dataVariable, mapped := DataVariableFor(triggerKey, yearCode)
	if mapped && r.store != nil {
		at, err := r.store.GetActivityTypeByVariable(dataVariable)
		if err != nil {
			return Resolution{}, err
		}
		if at != nil && at.IsActive {
			return Resolution{Points: at.BasePoints, Source: SourceRegistry}, nil
		}
	}
	if pts, ok := fallbackPoints[triggerKey]; ok {
		return Resolution{Points: pts, Source: SourceFallback}, nil
	}
	return Resolution{}, &UnresolvedTriggerError{TriggerKey: triggerKey, YearCode: yearCode}
}

// ResolveAll prices every answered trigger in one pass, failing on the
// first unresolvable key.
func (r *PointsResolver) ResolveAll(answers map[string]int, yearCode string) (map[string]Resolution, error) {
	out := make(map[string]Resolution, len(answers))
	for key := range answers {
		res, err := r.Resolve(key, yearCode)
		if err != nil {
			return nil, err
		}
		out[key] = res
	}
	return out, nil
}
