package services

import (
	"reflect"
	"testing"
	"time"
)

type calcStubStore struct {
	faculty   map[string]*FacultyMember
	campaigns []*SurveyCampaign
	// invitations keyed campaignID|email, responses keyed invitation ID
	invitations map[string]*SurveyInvitation
	responses   map[string]*SurveyResponse
	dept        map[string]*DepartmentalData
}

func newCalcStubStore() *calcStubStore {
	return &calcStubStore{
		faculty:     map[string]*FacultyMember{},
		invitations: map[string]*SurveyInvitation{},
		responses:   map[string]*SurveyResponse{},
		dept:        map[string]*DepartmentalData{},
	}
}

func (s *calcStubStore) GetFacultyMember(email string) (*FacultyMember, error) {
	return s.faculty[email], nil
}

func (s *calcStubStore) ListActiveFaculty() ([]*FacultyMember, error) {
	var out []*FacultyMember
	for _, fm := range s.faculty {
		if fm.IsActive {
			out = append(out, fm)
		}
	}
	return out, nil
}

func (s *calcStubStore) ListCampaignsByYear(yearCode string) ([]*SurveyCampaign, error) {
	var out []*SurveyCampaign
	for _, c := range s.campaigns {
		if c.YearCode == yearCode {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *calcStubStore) GetInvitation(campaignID, facultyEmail string) (*SurveyInvitation, error) {
	return s.invitations[campaignID+"|"+facultyEmail], nil
}

func (s *calcStubStore) GetResponseByInvitation(invitationID string) (*SurveyResponse, error) {
	return s.responses[invitationID], nil
}

func (s *calcStubStore) GetDepartmentalData(facultyEmail, yearCode string) (*DepartmentalData, error) {
	return s.dept[facultyEmail+"|"+yearCode], nil
}

func (s *calcStubStore) addSubmission(campaignID, email string, answers map[string]int, status ResponseStatus) {
	invID := "inv-" + campaignID + "-" + email
	s.invitations[campaignID+"|"+email] = &SurveyInvitation{ID: invID, CampaignID: campaignID, FacultyEmail: email}
	s.responses[invID] = &SurveyResponse{ID: "r-" + invID, InvitationID: invID, Answers: answers, Status: status}
}

func newTestCalculator(store *calcStubStore) *PointsCalculator {
	config := NewConfigService(newConfigStubStore())
	resolver := NewPointsResolver(nil)
	return NewPointsCalculator(store, config, resolver)
}

func TestCalculateZeroWithoutResponses(t *testing.T) {
	store := newCalcStubStore()
	store.faculty["a@unmc.edu"] = &FacultyMember{Email: "a@unmc.edu", IsActive: true}
	calc := newTestCalculator(store)

	bd, err := calc.Calculate("a@unmc.edu", "24-25", CalcOptions{})
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if bd.Survey != 0 || bd.Departmental != 0 || bd.Total != 0 {
		t.Fatalf("expected zero breakdown, got %+v", bd)
	}
}

func TestCalculateAdditiveAcrossQuarters(t *testing.T) {
	store := newCalcStubStore()
	store.faculty["a@unmc.edu"] = &FacultyMember{Email: "a@unmc.edu", IsActive: true}
	store.campaigns = []*SurveyCampaign{
		{ID: "c1", YearCode: "24-25", Quarter: "Q1"},
		{ID: "c2", YearCode: "24-25", Quarter: "Q2"},
	}
	// comm_unmc 1000, dept_gr_host 300 per fallback table.
	store.addSubmission("c1", "a@unmc.edu", map[string]int{"comm_unmc": 1}, ResponseSubmitted)
	store.addSubmission("c2", "a@unmc.edu", map[string]int{"dept_gr_host": 2}, ResponseSubmitted)
	calc := newTestCalculator(store)

	bd, err := calc.Calculate("a@unmc.edu", "24-25", CalcOptions{})
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if bd.Survey != 1600 {
		t.Fatalf("expected 1600 survey points, got %d", bd.Survey)
	}
	if bd.ByCategory["citizenship"] != 1600 {
		t.Fatalf("expected citizenship subtotal 1600, got %+v", bd.ByCategory)
	}
	if bd.Total != 1600 {
		t.Fatalf("expected total 1600, got %d", bd.Total)
	}
}

func TestCalculateSkipsDraftsByDefault(t *testing.T) {
	store := newCalcStubStore()
	store.faculty["a@unmc.edu"] = &FacultyMember{Email: "a@unmc.edu", IsActive: true}
	store.campaigns = []*SurveyCampaign{{ID: "c1", YearCode: "24-25", Quarter: "Q1"}}
	store.addSubmission("c1", "a@unmc.edu", map[string]int{"comm_unmc": 1}, ResponseDraft)
	calc := newTestCalculator(store)

	official, err := calc.Calculate("a@unmc.edu", "24-25", CalcOptions{})
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if official.Survey != 0 || official.IncludesDrafts {
		t.Fatalf("draft counted in official totals: %+v", official)
	}

	preview, err := calc.Calculate("a@unmc.edu", "24-25", CalcOptions{IncludeDrafts: true})
	if err != nil {
		t.Fatalf("Calculate preview returned error: %v", err)
	}
	if preview.Survey != 1000 || !preview.IncludesDrafts {
		t.Fatalf("preview should count the draft: %+v", preview)
	}
}

func TestCalculateDepartmentalAndCCC(t *testing.T) {
	store := newCalcStubStore()
	store.faculty["a@unmc.edu"] = &FacultyMember{Email: "a@unmc.edu", IsActive: true, IsCCCMember: true}
	store.dept["a@unmc.edu|24-25"] = &DepartmentalData{
		FacultyEmail:   "a@unmc.edu",
		YearCode:       "24-25",
		NewInnovations: true,
		MyTIPWinner:    true,
		MyTIPCount:     30, // capped at 20
		TeacherOfYear:  true,
	}
	calc := newTestCalculator(store)

	bd, err := calc.Calculate("a@unmc.edu", "24-25", CalcOptions{})
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	// 2000 + 250 + 20*25 + 7500 + 1000 CCC
	want := 2000 + 250 + 500 + 7500 + 1000
	if bd.Departmental != want {
		t.Fatalf("expected departmental %d, got %d", want, bd.Departmental)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	store := newCalcStubStore()
	store.faculty["a@unmc.edu"] = &FacultyMember{Email: "a@unmc.edu", IsActive: true}
	store.campaigns = []*SurveyCampaign{{ID: "c1", YearCode: "24-25", Quarter: "Q1"}}
	store.addSubmission("c1", "a@unmc.edu", map[string]int{"comm_unmc": 1, "dept_gr_host": 3, "lecture_new": 2}, ResponseSubmitted)
	calc := newTestCalculator(store)

	first, err := calc.Calculate("a@unmc.edu", "24-25", CalcOptions{})
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	second, err := calc.Calculate("a@unmc.edu", "24-25", CalcOptions{})
	if err != nil {
		t.Fatalf("second Calculate returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same inputs produced different breakdowns:\n%+v\n%+v", first, second)
	}
}

func TestCalculateUnresolvedTriggerHaltsMember(t *testing.T) {
	store := newCalcStubStore()
	store.faculty["a@unmc.edu"] = &FacultyMember{Email: "a@unmc.edu", IsActive: true}
	store.faculty["b@unmc.edu"] = &FacultyMember{Email: "b@unmc.edu", IsActive: true}
	store.campaigns = []*SurveyCampaign{{ID: "c1", YearCode: "24-25", Quarter: "Q1"}}
	store.addSubmission("c1", "a@unmc.edu", map[string]int{"bogus_key": 1}, ResponseSubmitted)
	store.addSubmission("c1", "b@unmc.edu", map[string]int{"comm_unmc": 1}, ResponseSubmitted)
	calc := newTestCalculator(store)

	if _, err := calc.Calculate("a@unmc.edu", "24-25", CalcOptions{}); !IsCode(err, ErrorUnresolvedTrigger) {
		t.Fatalf("expected unresolved_trigger, got %v", err)
	}

	// The batch keeps going and reports the failure alongside results.
	breakdowns, failed, err := calc.CalculateAll("24-25", CalcOptions{})
	if err != nil {
		t.Fatalf("CalculateAll returned error: %v", err)
	}
	if len(breakdowns) != 1 || breakdowns[0].FacultyEmail != "b@unmc.edu" {
		t.Fatalf("unexpected breakdowns: %+v", breakdowns)
	}
	if len(failed) != 1 || failed[0].FacultyEmail != "a@unmc.edu" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestClampMyTIPCount(t *testing.T) {
	if got := clampAnswerCount("mytip_each", 25); got != 20 {
		t.Fatalf("expected mytip cap of 20, got %d", got)
	}
	if got := clampAnswerCount("comm_unmc", 25); got != 25 {
		t.Fatalf("non-mytip triggers must not be clamped, got %d", got)
	}
	if got := clampAnswerCount("comm_unmc", -1); got != 0 {
		t.Fatalf("negative counts clamp to zero, got %d", got)
	}
}

func TestCurrentYearCode(t *testing.T) {
	cases := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), "24-25"},
		{time.Date(2025, time.June, 30, 23, 0, 0, 0, time.UTC), "24-25"},
		{time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), "25-26"},
		{time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), "25-26"},
	}
	for _, tc := range cases {
		if got := CurrentYearCode(tc.now); got != tc.want {
			t.Errorf("CurrentYearCode(%s) = %q, want %q", tc.now.Format("2006-01-02"), got, tc.want)
		}
	}
}
