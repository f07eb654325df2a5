package services

import (
	"bytes"
	"encoding/csv"
	"testing"
)

func newTestExportService(store *calcStubStore) *ExportService {
	return NewExportService(store, newTestCalculator(store))
}

func TestWritePointsSummaryOrdering(t *testing.T) {
	store := newCalcStubStore()
	store.faculty["z@unmc.edu"] = &FacultyMember{Email: "z@unmc.edu", FirstName: "Zed", LastName: "Adams", Division: "Critical Care", IsActive: true}
	store.faculty["a@unmc.edu"] = &FacultyMember{Email: "a@unmc.edu", FirstName: "Ada", LastName: "Smith", Division: "Cardiology", IsActive: true}
	store.faculty["b@unmc.edu"] = &FacultyMember{Email: "b@unmc.edu", FirstName: "Bea", LastName: "Adams", Division: "Cardiology", IsActive: true}
	store.campaigns = []*SurveyCampaign{{ID: "c1", YearCode: "24-25", Quarter: "Q1"}}
	store.addSubmission("c1", "a@unmc.edu", map[string]int{"comm_unmc": 1}, ResponseSubmitted)
	store.dept["a@unmc.edu|24-25"] = &DepartmentalData{FacultyEmail: "a@unmc.edu", YearCode: "24-25", NewInnovations: true}
	svc := newTestExportService(store)

	var buf bytes.Buffer
	failed, err := svc.WritePointsSummary(&buf, "24-25", CalcOptions{})
	if err != nil {
		t.Fatalf("WritePointsSummary returned error: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}
	header := records[0]
	want := []string{"surname", "given_name", "division", "survey_points", "departmental_points", "total_points"}
	for i := range want {
		if header[i] != want[i] {
			t.Fatalf("unexpected header: %v", header)
		}
	}

	// Surname ascending, given name breaking the Adams tie.
	if records[1][0] != "Adams" || records[1][1] != "Bea" {
		t.Fatalf("row 1 out of order: %v", records[1])
	}
	if records[2][0] != "Adams" || records[2][1] != "Zed" {
		t.Fatalf("row 2 out of order: %v", records[2])
	}
	if records[3][0] != "Smith" {
		t.Fatalf("row 3 out of order: %v", records[3])
	}
	if records[3][3] != "1000" || records[3][4] != "2000" || records[3][5] != "3000" {
		t.Fatalf("unexpected points row: %v", records[3])
	}
}

func TestWritePointsSummaryReportsFailures(t *testing.T) {
	store := newCalcStubStore()
	store.faculty["a@unmc.edu"] = &FacultyMember{Email: "a@unmc.edu", LastName: "Smith", IsActive: true}
	store.faculty["bad@unmc.edu"] = &FacultyMember{Email: "bad@unmc.edu", LastName: "Broken", IsActive: true}
	store.campaigns = []*SurveyCampaign{{ID: "c1", YearCode: "24-25", Quarter: "Q1"}}
	store.addSubmission("c1", "bad@unmc.edu", map[string]int{"bogus": 1}, ResponseSubmitted)
	svc := newTestExportService(store)

	var buf bytes.Buffer
	failed, err := svc.WritePointsSummary(&buf, "24-25", CalcOptions{})
	if err != nil {
		t.Fatalf("WritePointsSummary returned error: %v", err)
	}
	if len(failed) != 1 || failed[0].FacultyEmail != "bad@unmc.edu" {
		t.Fatalf("expected one failure, got %+v", failed)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("failed member must be omitted from rows, got %d records", len(records))
	}
}

func TestWriteCampaignResponses(t *testing.T) {
	store := newCalcStubStore()
	store.faculty["a@unmc.edu"] = &FacultyMember{Email: "a@unmc.edu", FirstName: "Ada", LastName: "Smith", IsActive: true}
	store.faculty["b@unmc.edu"] = &FacultyMember{Email: "b@unmc.edu", FirstName: "Bea", LastName: "Adams", IsActive: true}
	campaign := &SurveyCampaign{ID: "c1", YearCode: "24-25", Quarter: "Q1"}
	store.campaigns = []*SurveyCampaign{campaign}
	store.addSubmission("c1", "a@unmc.edu", map[string]int{"comm_unmc": 1, "dept_gr_host": 2}, ResponseSubmitted)
	store.invitations["c1|b@unmc.edu"] = &SurveyInvitation{ID: "inv-b", CampaignID: "c1", FacultyEmail: "b@unmc.edu"}
	svc := newTestExportService(store)

	var buf bytes.Buffer
	if err := svc.WriteCampaignResponses(&buf, campaign); err != nil {
		t.Fatalf("WriteCampaignResponses returned error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[1][0] != "Adams" || records[1][3] != string(ResponseNotStarted) {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][0] != "Smith" || records[2][3] != string(ResponseSubmitted) {
		t.Fatalf("unexpected second row: %v", records[2])
	}
	if records[2][5] != "comm_unmc=1; dept_gr_host=2" {
		t.Fatalf("answers cell must be deterministic: %q", records[2][5])
	}
}
