package services

import "fmt"

// Fixed departmental point values. These are administratively entered
// items outside the survey taxonomy and are not configurable per year.
const (
	pointsNewInnovations   = 2000
	pointsMyTIPWinner      = 250
	pointsMyTIPPer         = 25
	myTIPCountCap          = 20
	pointsTeachingTop25    = 2500
	pointsTeaching6525     = 1000
	pointsTeacherOfYear    = 7500
	pointsHonorableMention = 5000
	pointsCCCMember        = 1000
)

// CalculatorStore abstracts persistence operations required by
// PointsCalculator.
type CalculatorStore interface {
	GetFacultyMember(email string) (*FacultyMember, error)
	ListActiveFaculty() ([]*FacultyMember, error)
	ListCampaignsByYear(yearCode string) ([]*SurveyCampaign, error)
	GetInvitation(campaignID, facultyEmail string) (*SurveyInvitation, error)
	GetResponseByInvitation(invitationID string) (*SurveyResponse, error)
	GetDepartmentalData(facultyEmail, yearCode string) (*DepartmentalData, error)
}

// CalcOptions selects between the official calculation (submitted
// responses only) and the progress preview that also counts drafts.
// A breakdown records which mode produced it so the two are never
// conflated in one report.
type CalcOptions struct {
	IncludeDrafts bool
}

// PointsBreakdown is the per-faculty result: survey points from the
// taxonomy, departmental points from admin-entered records (CCC points
// folded in), and their sum. ByCategory splits only the survey share.
type PointsBreakdown struct {
	FacultyEmail   string         `json:"faculty_email"`
	YearCode       string         `json:"year_code"`
	Survey         int            `json:"survey_points"`
	Departmental   int            `json:"departmental_points"`
	Total          int            `json:"total_points"`
	ByCategory     map[string]int `json:"by_category,omitempty"`
	IncludesDrafts bool           `json:"includes_drafts,omitempty"`
}

// CalcError pairs a faculty member with the error that halted their
// calculation, so batch reports can list failures alongside totals.
type CalcError struct {
	FacultyEmail string `json:"faculty_email"`
	Err          error  `json:"-"`
	Message      string `json:"error"`
}

// PointsCalculator aggregates survey answers and departmental records
// into point totals. All inputs arrive through explicit dependencies;
// two calls over unchanged records yield identical results.
type PointsCalculator struct {
	store    CalculatorStore
	config   *ConfigService
	resolver *PointsResolver
}

func NewPointsCalculator(store CalculatorStore, config *ConfigService, resolver *PointsResolver) *PointsCalculator {
	return &PointsCalculator{store: store, config: config, resolver: resolver}
}

// Calculate computes the breakdown for one faculty member and year.
// Quarters accumulate additively; a trigger absent from a response
// contributes zero; an answered trigger that cannot be priced halts
// this member's calculation with an unresolved_trigger error.
func (c *PointsCalculator) Calculate(facultyEmail, yearCode string, opts CalcOptions) (*PointsBreakdown, error) {
	fm, err := c.store.GetFacultyMember(facultyEmail)
	if err != nil {
		return nil, err
	}
	if fm == nil {
		return nil, NewNotFoundError(fmt.Sprintf("faculty member %s not found", facultyEmail))
	}

	cfg, err := c.config.Resolve(yearCode)
	if err != nil {
		return nil, err
	}
	categoryOf := cfg.CategoryOfTrigger()

	bd := &PointsBreakdown{
		FacultyEmail:   fm.Email,
		YearCode:       yearCode,
		ByCategory:     map[string]int{},
		IncludesDrafts: opts.IncludeDrafts,
	}

	campaigns, err := c.store.ListCampaignsByYear(yearCode)
	if err != nil {
		return nil, err
	}
	for _, campaign := range campaigns {
		inv, err := c.store.GetInvitation(campaign.ID, fm.Email)
		if err != nil {
			return nil, err
		}
		if inv == nil {
			continue
		}
		resp, err := c.store.GetResponseByInvitation(inv.ID)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			continue
		}
		if resp.Status != ResponseSubmitted && !(opts.IncludeDrafts && resp.Status == ResponseDraft) {
			continue
		}
		for key, count := range resp.Answers {
			if count == 0 {
				continue
			}
			res, err := c.resolver.Resolve(key, yearCode)
			if err != nil {
				return nil, err
			}
			pts := clampAnswerCount(key, count) * res.Points
			bd.Survey += pts
			if cat, ok := categoryOf[key]; ok {
				bd.ByCategory[cat] += pts
			}
		}
	}

	dept, err := c.store.GetDepartmentalData(fm.Email, yearCode)
	if err != nil {
		return nil, err
	}
	bd.Departmental = departmentalPoints(fm, dept)
	bd.Total = bd.Survey + bd.Departmental
	return bd, nil
}

// CalculateAll runs the roster for a year. A failure for one member is
// collected, never aborting the rest of the batch.
func (c *PointsCalculator) CalculateAll(yearCode string, opts CalcOptions) ([]*PointsBreakdown, []CalcError, error) {
	roster, err := c.store.ListActiveFaculty()
	if err != nil {
		return nil, nil, err
	}
	var out []*PointsBreakdown
	var failed []CalcError
	for _, fm := range roster {
		bd, err := c.Calculate(fm.Email, yearCode, opts)
		if err != nil {
			failed = append(failed, CalcError{FacultyEmail: fm.Email, Err: err, Message: err.Error()})
			continue
		}
		out = append(out, bd)
	}
	return out, failed, nil
}

// clampAnswerCount applies per-trigger caps. MyTIP mentions cap at 20
// per year so the 25-point mentions cannot exceed 500 points.
func clampAnswerCount(triggerKey string, count int) int {
	if count < 0 {
		return 0
	}
	if triggerKey == "mytip_each" && count > myTIPCountCap {
		return myTIPCountCap
	}
	return count
}

func departmentalPoints(fm *FacultyMember, dept *DepartmentalData) int {
	total := 0
	if dept != nil {
		if dept.NewInnovations {
			total += pointsNewInnovations
		}
		if dept.MyTIPWinner {
			total += pointsMyTIPWinner
		}
		n := dept.MyTIPCount
		if n > myTIPCountCap {
			n = myTIPCountCap
		}
		if n > 0 {
			total += n * pointsMyTIPPer
		}
		if dept.TeachingTop25 {
			total += pointsTeachingTop25
		}
		if dept.Teaching6525 {
			total += pointsTeaching6525
		}
		if dept.TeacherOfYear {
			total += pointsTeacherOfYear
		}
		if dept.HonorableMention {
			total += pointsHonorableMention
		}
	}
	if fm.IsCCCMember {
		total += pointsCCCMember
	}
	return total
}
