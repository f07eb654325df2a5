package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/achievemetrics/facpoints/internal/middleware"
	"github.com/achievemetrics/facpoints/internal/services"
)

// Router wires the HTTP surface to the services. Admin routes expect a
// bearer token; portal routes authenticate by invitation token alone.
type Router struct {
	store     Store
	auth      *services.AuthService
	config    *services.ConfigService
	campaigns *services.CampaignService
	calc      *services.PointsCalculator
	importer  *services.ImportReconciler
	roster    *services.RosterService
	export    *services.ExportService
	baseURL   string
}

func NewRouter(store Store, baseURL string) *Router {
	resolver := services.NewPointsResolver(store)
	config := services.NewConfigService(store)
	calc := services.NewPointsCalculator(store, config, resolver)
	return &Router{
		store:     store,
		auth:      services.NewAuthService(store, middleware.SignToken),
		config:    config,
		campaigns: services.NewCampaignService(store, resolver),
		calc:      calc,
		importer:  services.NewImportReconciler(store, resolver),
		roster:    services.NewRosterService(store),
		export:    services.NewExportService(store, calc),
		baseURL:   baseURL,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", rt.handleRegister)               // POST
	mux.HandleFunc("/api/login", rt.handleLogin)                     // POST
	mux.HandleFunc("/api/years", rt.handleYears)                     // GET, POST
	mux.HandleFunc("/api/config/copy", rt.handleConfigCopy)          // POST
	mux.HandleFunc("/api/config/", rt.handleConfigScoped)            // GET/PUT /api/config/{year}
	mux.HandleFunc("/api/campaigns", rt.handleCampaigns)             // GET, POST
	mux.HandleFunc("/api/campaigns/", rt.handleCampaignScoped)       // {id}/invite|stats|reopen|export.csv
	mux.HandleFunc("/api/portal/", rt.handlePortal)                  // {token}[/draft|/submit|/reopen]
	mux.HandleFunc("/api/points", rt.handlePoints)                   // GET
	mux.HandleFunc("/api/points/batch", rt.handlePointsBatch)        // GET
	mux.HandleFunc("/api/points/export.csv", rt.handlePointsCSV)     // GET
	mux.HandleFunc("/api/import/parse", rt.handleImportParse)        // POST
	mux.HandleFunc("/api/import/preview", rt.handleImportPreview)    // POST
	mux.HandleFunc("/api/import/apply", rt.handleImportApply)        // POST
	mux.HandleFunc("/api/import/batches", rt.handleImportBatches)    // GET
	mux.HandleFunc("/api/roster", rt.handleRoster)                   // GET
	mux.HandleFunc("/api/divisions", rt.handleDivisions)             // GET, PUT
	mux.HandleFunc("/api/divisions/verify", rt.handleDivisionVerify) // POST
	mux.HandleFunc("/api/me/", rt.handleSelfService)                 // GET /api/me/{token}
	mux.HandleFunc("/api/roster/import", rt.handleRosterImport)      // POST
	mux.HandleFunc("/api/activity-types", rt.handleActivityTypes)    // GET, POST
	mux.HandleFunc("/api/departmental", rt.handleDepartmental)       // PUT
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps service error codes onto HTTP statuses; everything
// else is a 500.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := services.ErrorCode("internal")
	if c, ok := services.CodeOf(err); ok {
		code = c
		switch c {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict, services.ErrorConfigConflict, services.ErrorConfigImmutable, services.ErrorCampaignClosed:
			status = http.StatusConflict
		case services.ErrorUnresolvedTrigger, services.ErrorAmbiguousRow:
			status = http.StatusUnprocessableEntity
		}
	}
	writeJSON(w, status, map[string]any{"error": err.Error(), "code": code})
}

// actor returns the authenticated admin's email for audit attribution,
// rejecting the request when the route needs one.
func (rt *Router) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, ok := middleware.UserEmailFromContext(r.Context())
	if !ok {
		writeErr(w, services.NewUnauthorizedError("admin authentication required"))
		return "", false
	}
	return email, true
}

// POST /api/register {email, password}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": res.Token, "user_id": res.UserID, "role": res.Role})
}

// POST /api/login {email, password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID, "role": res.Role})
}

// GET /api/years | POST /api/years {code, start_date, end_date}
func (rt *Router) handleYears(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		years, err := rt.store.ListAcademicYears()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"years": years, "current_code": services.CurrentYearCode(time.Now().UTC())})
	case http.MethodPost:
		if _, ok := rt.actor(w, r); !ok {
			return
		}
		var y services.AcademicYear
		if err := json.NewDecoder(r.Body).Decode(&y); err != nil {
			writeErr(w, services.NewInvalidError("invalid JSON body"))
			return
		}
		if y.Code == "" {
			writeErr(w, services.NewInvalidError("year code required"))
			return
		}
		stored, err := rt.store.InsertAcademicYear(&y)
		if err != nil {
			writeErr(w, err)
			return
		}
		if y.IsCurrent {
			if err := rt.store.SetCurrentYear(y.Code); err != nil {
				writeErr(w, err)
				return
			}
		}
		writeJSON(w, http.StatusCreated, stored)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET|PUT /api/config/{year}
func (rt *Router) handleConfigScoped(w http.ResponseWriter, r *http.Request) {
	yearCode := strings.TrimPrefix(r.URL.Path, "/api/config/")
	if yearCode == "" || strings.Contains(yearCode, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		cfg, err := rt.config.Resolve(yearCode)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		actor, ok := rt.actor(w, r)
		if !ok {
			return
		}
		var cfg services.SurveyConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeErr(w, services.NewInvalidError("invalid JSON body"))
			return
		}
		override, err := rt.config.UpdateOverride(yearCode, &cfg, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, override)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/config/copy {source_year, target_year}
func (rt *Router) handleConfigCopy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	var req struct {
		SourceYear string `json:"source_year"`
		TargetYear string `json:"target_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	override, err := rt.config.CopyToYear(req.SourceYear, req.TargetYear, actor)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, override)
}

// GET /api/campaigns | POST /api/campaigns
func (rt *Router) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := rt.actor(w, r); !ok {
			return
		}
		list, err := rt.store.ListCampaigns()
		if err != nil {
			writeErr(w, err)
			return
		}
		now := time.Now().UTC()
		type campaignView struct {
			*services.SurveyCampaign
			State services.CampaignState `json:"state"`
		}
		out := make([]campaignView, 0, len(list))
		for _, c := range list {
			out = append(out, campaignView{SurveyCampaign: c, State: services.CampaignStateAt(now, c)})
		}
		writeJSON(w, http.StatusOK, map[string]any{"campaigns": out})
	case http.MethodPost:
		actor, ok := rt.actor(w, r)
		if !ok {
			return
		}
		var c services.SurveyCampaign
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeErr(w, services.NewInvalidError("invalid JSON body"))
			return
		}
		c.CreatedBy = actor
		created, err := rt.campaigns.CreateCampaign(&c)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/campaigns/{id}/invite | /stats | /reopen | /export.csv | /emails/{invID}
func (rt *Router) handleCampaignScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/campaigns/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}

	switch {
	case parts[1] == "invite" && r.Method == http.MethodPost:
		created, err := rt.campaigns.Invite(id, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"created": len(created), "invitations": created})
	case parts[1] == "stats" && r.Method == http.MethodGet:
		st, err := rt.campaigns.Stats(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	case parts[1] == "reopen" && r.Method == http.MethodPost:
		var req struct {
			ClosesAt time.Time `json:"closes_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, services.NewInvalidError("invalid JSON body"))
			return
		}
		c, err := rt.campaigns.ReopenCampaign(id, req.ClosesAt, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case parts[1] == "export.csv" && r.Method == http.MethodGet:
		campaign, err := rt.store.GetCampaign(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="campaign_responses.csv"`)
		if err := rt.export.WriteCampaignResponses(w, campaign); err != nil {
			writeErr(w, err)
			return
		}
	case parts[1] == "emails" && len(parts) == 3 && r.Method == http.MethodGet:
		// Render the outgoing emails for one invitation so the admin
		// UI can preview them before handing off to the mailer.
		inv, err := rt.store.GetInvitationByID(parts[2])
		if err != nil {
			writeErr(w, err)
			return
		}
		if inv == nil || inv.CampaignID != id {
			writeErr(w, services.NewNotFoundError("invitation not found"))
			return
		}
		campaign, err := rt.store.GetCampaign(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		fm, err := rt.store.GetFacultyMember(inv.FacultyEmail)
		if err != nil {
			writeErr(w, err)
			return
		}
		if campaign == nil || fm == nil {
			writeErr(w, services.NewNotFoundError("campaign or faculty member not found"))
			return
		}
		invSubject, invBody := services.InvitationEmail(fm, inv, campaign, rt.baseURL)
		remSubject, remBody := services.ReminderEmail(fm, inv, campaign, rt.baseURL)
		writeJSON(w, http.StatusOK, map[string]any{
			"invitation": map[string]string{"subject": invSubject, "body": invBody},
			"reminder":   map[string]string{"subject": remSubject, "body": remBody},
		})
	case parts[1] == "emails" && len(parts) == 3 && r.Method == http.MethodPost:
		// The external mailer reports a delivery outcome.
		var req struct {
			EmailType string `json:"email_type"`
			Subject   string `json:"subject"`
			Status    string `json:"status"`
			Error     string `json:"error"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, services.NewInvalidError("invalid JSON body"))
			return
		}
		if err := rt.campaigns.MarkEmailSent(parts[2], req.EmailType, req.Subject, req.Status, req.Error); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		http.NotFound(w, r)
	}
}

// /api/portal/{token} GET | /draft PUT | /submit POST | /reopen POST
func (rt *Router) handlePortal(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/portal/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	token := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		view, err := rt.campaigns.OpenPortal(token, rt.config)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}

	switch {
	case parts[1] == "draft" && r.Method == http.MethodPut:
		var req struct {
			Answers map[string]int `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, services.NewInvalidError("invalid JSON body"))
			return
		}
		resp, err := rt.campaigns.SaveDraft(token, req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case parts[1] == "submit" && r.Method == http.MethodPost:
		resp, err := rt.campaigns.Submit(token)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case parts[1] == "reopen" && r.Method == http.MethodPost:
		resp, err := rt.campaigns.Reopen(token)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	default:
		http.NotFound(w, r)
	}
}

// GET /api/points?email=...&year=...&include_drafts=1
func (rt *Router) handlePoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	email := r.URL.Query().Get("email")
	year := r.URL.Query().Get("year")
	if email == "" || year == "" {
		writeErr(w, services.NewInvalidError("email and year are required"))
		return
	}
	opts := services.CalcOptions{IncludeDrafts: boolParam(r, "include_drafts")}
	bd, err := rt.calc.Calculate(email, year, opts)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bd)
}

// GET /api/points/batch?year=...
func (rt *Router) handlePointsBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	year := r.URL.Query().Get("year")
	if year == "" {
		writeErr(w, services.NewInvalidError("year is required"))
		return
	}
	opts := services.CalcOptions{IncludeDrafts: boolParam(r, "include_drafts")}
	breakdowns, failed, err := rt.calc.CalculateAll(year, opts)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"breakdowns": breakdowns, "errors": failed})
}

// GET /api/points/export.csv?year=...
func (rt *Router) handlePointsCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	year := r.URL.Query().Get("year")
	if year == "" {
		writeErr(w, services.NewInvalidError("year is required"))
		return
	}
	opts := services.CalcOptions{IncludeDrafts: boolParam(r, "include_drafts")}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="points_summary.csv"`)
	if _, err := rt.export.WritePointsSummary(w, year, opts); err != nil {
		writeErr(w, err)
		return
	}
}

// POST /api/import/parse — raw CSV body, returns parsed rows plus
// column warnings without touching the roster.
func (rt *Router) handleImportParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	res, err := services.ParseREDCapCSV(r.Body)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/import/preview?year=... — raw CSV body; matches against
// the roster, diffs against existing records, persists nothing.
func (rt *Router) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	year := r.URL.Query().Get("year")
	if year == "" {
		writeErr(w, services.NewInvalidError("year is required"))
		return
	}
	parsed, err := services.ParseREDCapCSV(r.Body)
	if err != nil {
		writeErr(w, err)
		return
	}
	roster, err := rt.store.ListActiveFaculty()
	if err != nil {
		writeErr(w, err)
		return
	}
	matched, rejected := services.MatchRoster(parsed.Rows, roster)
	existing, err := rt.importer.ExistingForYear(year)
	if err != nil {
		writeErr(w, err)
		return
	}
	it := rt.importer.Reconcile(existing, year, matched)
	records := it.Collect()
	rejected = append(rejected, it.Rejected()...)
	writeJSON(w, http.StatusOK, map[string]any{
		"records":  records,
		"rejected": rejected,
		"warnings": parsed.Warnings,
	})
}

// POST /api/import/apply {campaign_id, exclude_reduced, filename, records}
func (rt *Router) handleImportApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	var req struct {
		CampaignID     string                   `json:"campaign_id"`
		ExcludeReduced bool                     `json:"exclude_reduced"`
		Filename       string                   `json:"filename"`
		Records        []*services.ImportRecord `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	applied, err := rt.importer.Apply(req.Records, req.CampaignID, services.ApplyOptions{
		ExcludeReduced: req.ExcludeReduced,
		Filename:       req.Filename,
		Actor:          actor,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied})
}

// GET /api/import/batches?year=...
func (rt *Router) handleImportBatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	batches, err := rt.store.ListImportBatches(r.URL.Query().Get("year"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

// GET /api/roster?all=1
func (rt *Router) handleRoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	list, err := rt.store.ListFaculty(boolParam(r, "all"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"faculty": list})
}

// POST /api/roster/import?update_existing=1 — raw CSV body.
func (rt *Router) handleRosterImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	rows, err := services.ParseRosterCSV(r.Body)
	if err != nil {
		writeErr(w, err)
		return
	}
	updateExisting := true
	if v := r.URL.Query().Get("update_existing"); v != "" {
		updateExisting = boolParam(r, "update_existing")
	}
	stats, err := rt.roster.Import(rows, updateExisting, actor)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /api/divisions?year=... | PUT /api/divisions {name, chief_email}
func (rt *Router) handleDivisions(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		divisions, err := rt.store.ListDivisions()
		if err != nil {
			writeErr(w, err)
			return
		}
		roster, err := rt.store.ListFaculty(false)
		if err != nil {
			writeErr(w, err)
			return
		}
		members := map[string]int{}
		for _, fm := range roster {
			if fm.Division != "" {
				members[fm.Division]++
			}
		}
		verified := map[string]*services.DivisionVerification{}
		if year := r.URL.Query().Get("year"); year != "" {
			list, err := rt.store.ListDivisionVerifications(year)
			if err != nil {
				writeErr(w, err)
				return
			}
			for _, v := range list {
				verified[v.Division] = v
			}
		}
		type divisionView struct {
			*services.Division
			Members      int                            `json:"members"`
			Verification *services.DivisionVerification `json:"verification,omitempty"`
		}
		out := make([]divisionView, 0, len(divisions))
		for _, d := range divisions {
			out = append(out, divisionView{Division: d, Members: members[d.Name], Verification: verified[d.Name]})
		}
		writeJSON(w, http.StatusOK, map[string]any{"divisions": out})
	case http.MethodPut:
		var d services.Division
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			writeErr(w, services.NewInvalidError("invalid JSON body"))
			return
		}
		if d.Name == "" {
			writeErr(w, services.NewInvalidError("division name required"))
			return
		}
		if err := rt.store.UpsertDivision(&d); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/divisions/verify {division, year_code, verified}
func (rt *Router) handleDivisionVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	var req struct {
		Division string `json:"division"`
		YearCode string `json:"year_code"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	if req.Division == "" || req.YearCode == "" {
		writeErr(w, services.NewInvalidError("division and year_code required"))
		return
	}
	v := services.DivisionVerification{
		Division: req.Division,
		YearCode: req.YearCode,
		Verified: req.Verified,
	}
	if req.Verified {
		v.VerifiedBy = actor
		v.VerifiedAt = time.Now().UTC()
	}
	if err := rt.store.UpsertDivisionVerification(&v); err != nil {
		writeErr(w, err)
		return
	}
	rt.store.AddAudit(services.AuditEntry{
		Time:   time.Now().UTC(),
		Actor:  actor,
		Action: "division_verify",
		Target: req.Division,
		Note:   req.YearCode,
	})
	writeJSON(w, http.StatusOK, v)
}

// GET /api/me/{portalToken} — faculty self-service summary, keyed by
// the long-lived roster token rather than a campaign invitation.
func (rt *Router) handleSelfService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := strings.TrimPrefix(r.URL.Path, "/api/me/")
	if token == "" || strings.Contains(token, "/") {
		http.NotFound(w, r)
		return
	}
	fm, err := rt.store.GetFacultyByPortalToken(token)
	if err != nil {
		writeErr(w, err)
		return
	}
	if fm == nil {
		writeErr(w, services.NewNotFoundError("unknown portal token"))
		return
	}
	year := r.URL.Query().Get("year")
	if year == "" {
		year = services.CurrentYearCode(time.Now().UTC())
	}
	bd, err := rt.calc.Calculate(fm.Email, year, services.CalcOptions{})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"faculty": fm, "points": bd})
}

// GET /api/activity-types | POST /api/activity-types
func (rt *Router) handleActivityTypes(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := rt.store.ListActivityTypes()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"activity_types": list})
	case http.MethodPost:
		var at services.ActivityType
		if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
			writeErr(w, services.NewInvalidError("invalid JSON body"))
			return
		}
		if at.DataVariable == "" {
			writeErr(w, services.NewInvalidError("data_variable required"))
			return
		}
		if err := rt.store.UpsertActivityType(&at); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, at)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// PUT /api/departmental — upsert the per-faculty-per-year record.
func (rt *Router) handleDepartmental(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := rt.actor(w, r); !ok {
		return
	}
	var d services.DepartmentalData
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeErr(w, services.NewInvalidError("invalid JSON body"))
		return
	}
	if d.FacultyEmail == "" || d.YearCode == "" {
		writeErr(w, services.NewInvalidError("faculty_email and year_code required"))
		return
	}
	d.UpdatedAt = time.Now().UTC()
	if err := rt.store.UpsertDepartmentalData(&d); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
