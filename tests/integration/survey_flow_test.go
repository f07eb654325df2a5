package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/achievemetrics/facpoints/internal/api"
	"github.com/achievemetrics/facpoints/internal/middleware"
	"github.com/achievemetrics/facpoints/internal/services"
)

func newTestServer(t *testing.T) (*httptest.Server, api.Store) {
	t.Helper()
	store := api.NewMemoryStore()
	mux := http.NewServeMux()
	api.NewRouter(store, "http://portal.test").Register(mux)
	srv := httptest.NewServer(middleware.SecureHeaders(middleware.CORS(middleware.WithAuth(mux))))
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		// Leave status handling to the caller but keep the body around.
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		return resp
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, url, raw, err)
		}
	}
	return resp
}

func doRaw(t *testing.T, client *http.Client, method, url, token, contentType, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, string(raw)
}

// TestSurveyLifecycle walks the whole admin-and-faculty flow: account
// setup, year and campaign creation, roster import, invitations,
// portal draft/submit, point reporting, departmental entry, CSV
// export, and the post-submission config freeze.
func TestSurveyLifecycle(t *testing.T) {
	srv, store := newTestServer(t)
	client := &http.Client{Timeout: 5 * time.Second}
	base := srv.URL

	var reg struct {
		Token string `json:"token"`
	}
	resp := doJSON(t, client, http.MethodPost, base+"/api/register", "", map[string]string{
		"email":    "admin@unmc.test",
		"password": "Secret123!",
	}, &reg)
	if resp.StatusCode != http.StatusCreated || reg.Token == "" {
		t.Fatalf("register: status %d, token %q", resp.StatusCode, reg.Token)
	}
	token := reg.Token

	const yearCode = "26-27"
	resp = doJSON(t, client, http.MethodPost, base+"/api/years", token, map[string]any{
		"code":       yearCode,
		"start_date": "2026-07-01T00:00:00Z",
		"end_date":   "2027-06-30T00:00:00Z",
		"is_current": true,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create year: status %d", resp.StatusCode)
	}

	rosterCSV := "email,first_name,last_name,rank,division,is_active,is_ccc_member\n" +
		"ada@unmc.test,Ada,Lovelace,Assistant Professor,Critical Care,yes,yes\n" +
		"grace@unmc.test,Grace,Hopper,Professor,Hospital Medicine,yes,no\n"
	resp2, body := doRaw(t, client, http.MethodPost, base+"/api/roster/import", token, "text/csv", rosterCSV)
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("roster import: status %d body %s", resp2.StatusCode, body)
	}
	var rosterStats struct {
		Created int `json:"created"`
	}
	if err := json.Unmarshal([]byte(body), &rosterStats); err != nil || rosterStats.Created != 2 {
		t.Fatalf("roster import: created = %d, body %s", rosterStats.Created, body)
	}

	now := time.Now().UTC()
	var campaign struct {
		ID string `json:"id"`
	}
	resp = doJSON(t, client, http.MethodPost, base+"/api/campaigns", token, map[string]any{
		"year_code": yearCode,
		"quarter":   "Q1",
		"name":      "Q1 Achievement Survey",
		"opens_at":  now.Add(-time.Hour),
		"closes_at": now.Add(24 * time.Hour),
	}, &campaign)
	if resp.StatusCode != http.StatusCreated || campaign.ID == "" {
		t.Fatalf("create campaign: status %d id %q", resp.StatusCode, campaign.ID)
	}

	var invited struct {
		Created int `json:"created"`
	}
	resp = doJSON(t, client, http.MethodPost, base+"/api/campaigns/"+campaign.ID+"/invite", token, map[string]any{}, &invited)
	if resp.StatusCode != http.StatusOK || invited.Created != 2 {
		t.Fatalf("invite: status %d created %d", resp.StatusCode, invited.Created)
	}

	// Portal tokens never cross the admin API; pull Ada's straight
	// from the store the way the mailer integration would.
	inv, err := store.GetInvitation(campaign.ID, "ada@unmc.test")
	if err != nil || inv == nil {
		t.Fatalf("lookup invitation: %v", err)
	}
	portal := base + "/api/portal/" + inv.Token

	var view struct {
		Campaign struct {
			Name string `json:"name"`
		} `json:"campaign"`
	}
	resp = doJSON(t, client, http.MethodGet, portal, "", nil, &view)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open portal: status %d", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPut, portal+"/draft", "", map[string]any{
		"answers": map[string]int{"comm_unmc": 1, "dept_gr_host": 2},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save draft: status %d", resp.StatusCode)
	}

	var submitted struct {
		Status string `json:"status"`
	}
	resp = doJSON(t, client, http.MethodPost, portal+"/submit", "", map[string]any{}, &submitted)
	if resp.StatusCode != http.StatusOK || submitted.Status != "submitted" {
		t.Fatalf("submit: status %d, response status %q", resp.StatusCode, submitted.Status)
	}

	// Survey: comm_unmc 1000 + dept_gr_host 2x300. Departmental: the
	// standing CCC membership award.
	var bd struct {
		Survey       int `json:"survey_points"`
		Departmental int `json:"departmental_points"`
		Total        int `json:"total_points"`
	}
	pointsURL := fmt.Sprintf("%s/api/points?email=%s&year=%s", base, "ada@unmc.test", yearCode)
	resp = doJSON(t, client, http.MethodGet, pointsURL, token, nil, &bd)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("points: status %d", resp.StatusCode)
	}
	if bd.Survey != 1600 || bd.Departmental != 1000 || bd.Total != 2600 {
		t.Fatalf("points: survey = %d, departmental = %d, total = %d, want 1600/1000/2600",
			bd.Survey, bd.Departmental, bd.Total)
	}

	// Departmental entry adds the evaluation completion award on top.
	resp = doJSON(t, client, http.MethodPut, base+"/api/departmental", token, map[string]any{
		"faculty_email":   "ada@unmc.test",
		"year_code":       yearCode,
		"new_innovations": true,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("departmental: status %d", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodGet, pointsURL, token, nil, &bd)
	if resp.StatusCode != http.StatusOK || bd.Total != 4600 {
		t.Fatalf("points after departmental: status %d total %d, want 4600", resp.StatusCode, bd.Total)
	}

	var stats struct {
		Total     int `json:"total"`
		Submitted int `json:"submitted"`
		Pending   int `json:"pending"`
	}
	resp = doJSON(t, client, http.MethodGet, base+"/api/campaigns/"+campaign.ID+"/stats", token, nil, &stats)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: status %d", resp.StatusCode)
	}
	if stats.Total != 2 || stats.Submitted != 1 || stats.Pending != 1 {
		t.Fatalf("stats: %+v", stats)
	}

	// Division chief sign-off for the year.
	resp = doJSON(t, client, http.MethodPut, base+"/api/divisions", token, map[string]string{
		"name":        "Critical Care",
		"chief_email": "grace@unmc.test",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert division: status %d", resp.StatusCode)
	}
	var verify struct {
		Verified   bool   `json:"verified"`
		VerifiedBy string `json:"verified_by"`
	}
	resp = doJSON(t, client, http.MethodPost, base+"/api/divisions/verify", token, map[string]any{
		"division":  "Critical Care",
		"year_code": yearCode,
		"verified":  true,
	}, &verify)
	if resp.StatusCode != http.StatusOK || !verify.Verified || verify.VerifiedBy != "admin@unmc.test" {
		t.Fatalf("verify division: status %d, %+v", resp.StatusCode, verify)
	}

	// Faculty self-service summary via the long-lived roster token.
	fm, err := store.GetFacultyMember("ada@unmc.test")
	if err != nil || fm == nil || fm.PortalToken == "" {
		t.Fatalf("lookup faculty: %v, %+v", err, fm)
	}
	var me struct {
		Points struct {
			Total int `json:"total_points"`
		} `json:"points"`
	}
	resp = doJSON(t, client, http.MethodGet, base+"/api/me/"+fm.PortalToken+"?year="+yearCode, "", nil, &me)
	if resp.StatusCode != http.StatusOK || me.Points.Total != 4600 {
		t.Fatalf("self-service summary: status %d total %d", resp.StatusCode, me.Points.Total)
	}

	resp3, csv := doRaw(t, client, http.MethodGet, base+"/api/points/export.csv?year="+yearCode, token, "", "")
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("points export: status %d", resp3.StatusCode)
	}
	if !strings.Contains(csv, "surname,given_name") || !strings.Contains(csv, "Lovelace,Ada") {
		t.Fatalf("points export: unexpected CSV:\n%s", csv)
	}

	// A submitted response freezes the year's scoring rules.
	var cfg services.SurveyConfig
	resp = doJSON(t, client, http.MethodGet, base+"/api/config/"+yearCode, "", nil, &cfg)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get config: status %d", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodPut, base+"/api/config/"+yearCode, token, &cfg, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("config update after submission: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

// TestPortalClosesWithCampaign verifies that a closed window stays
// readable but rejects every mutation.
func TestPortalClosesWithCampaign(t *testing.T) {
	srv, store := newTestServer(t)
	client := &http.Client{Timeout: 5 * time.Second}
	base := srv.URL

	var reg struct {
		Token string `json:"token"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/register", "", map[string]string{
		"email":    "admin@unmc.test",
		"password": "Secret123!",
	}, &reg)
	token := reg.Token

	const yearCode = "26-27"
	doJSON(t, client, http.MethodPost, base+"/api/years", token, map[string]any{
		"code":       yearCode,
		"start_date": "2026-07-01T00:00:00Z",
		"end_date":   "2027-06-30T00:00:00Z",
	}, nil)
	doRaw(t, client, http.MethodPost, base+"/api/roster/import", token, "text/csv",
		"email,first_name,last_name\nada@unmc.test,Ada,Lovelace\n")

	// Already-closed window.
	now := time.Now().UTC()
	var campaign struct {
		ID string `json:"id"`
	}
	resp := doJSON(t, client, http.MethodPost, base+"/api/campaigns", token, map[string]any{
		"year_code": yearCode,
		"quarter":   "Q2",
		"name":      "Q2 Achievement Survey",
		"opens_at":  now.Add(-48 * time.Hour),
		"closes_at": now.Add(-24 * time.Hour),
	}, &campaign)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create campaign: status %d", resp.StatusCode)
	}
	doJSON(t, client, http.MethodPost, base+"/api/campaigns/"+campaign.ID+"/invite", token, map[string]any{}, nil)

	inv, err := store.GetInvitation(campaign.ID, "ada@unmc.test")
	if err != nil || inv == nil {
		t.Fatalf("lookup invitation: %v", err)
	}
	portal := base + "/api/portal/" + inv.Token

	if resp := doJSON(t, client, http.MethodGet, portal, "", nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("closed portal should stay readable, got status %d", resp.StatusCode)
	}
	resp = doJSON(t, client, http.MethodPut, portal+"/draft", "", map[string]any{
		"answers": map[string]int{"comm_unmc": 1},
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("draft against closed campaign: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp = doJSON(t, client, http.MethodPost, portal+"/submit", "", map[string]any{}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("submit against closed campaign: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}
