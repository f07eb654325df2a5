package api

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/achievemetrics/facpoints/internal/services"
)

// memoryStore is the zero-setup backend used by tests and local dev.
// Everything is copied on the way in and out so callers never share
// mutable state with the store.
type memoryStore struct {
	mu sync.RWMutex

	years         map[string]*services.AcademicYear
	overrides     map[string]*services.ConfigOverride // by year code
	faculty       map[string]*services.FacultyMember  // by email
	activityTypes map[string]*services.ActivityType   // by data variable
	campaigns     map[string]*services.SurveyCampaign
	invitations   map[string]*services.SurveyInvitation
	responses     map[string]*services.SurveyResponse
	snapshots     []*services.ResponseSnapshot
	departmental  map[string]*services.DepartmentalData // by email|year
	divisions     map[string]*services.Division
	verifications map[string]*services.DivisionVerification // by division|year
	importBatches []*services.ImportBatch
	emailLogs     []*services.EmailLogEntry
	usersByEmail  map[string]*services.User
	audit         []services.AuditEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		years:         map[string]*services.AcademicYear{},
		overrides:     map[string]*services.ConfigOverride{},
		faculty:       map[string]*services.FacultyMember{},
		activityTypes: map[string]*services.ActivityType{},
		campaigns:     map[string]*services.SurveyCampaign{},
		invitations:   map[string]*services.SurveyInvitation{},
		responses:     map[string]*services.SurveyResponse{},
		departmental:  map[string]*services.DepartmentalData{},
		divisions:     map[string]*services.Division{},
		verifications: map[string]*services.DivisionVerification{},
		usersByEmail:  map[string]*services.User{},
	}
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store { return newMemoryStore() }

func deptKey(email, year string) string { return email + "|" + year }

// --- academic years ---

func (s *memoryStore) GetAcademicYear(code string) (*services.AcademicYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if y, ok := s.years[code]; ok {
		cp := *y
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) InsertAcademicYear(y *services.AcademicYear) (*services.AcademicYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.years[y.Code]; ok {
		return nil, services.NewConflictError("academic year " + y.Code + " already exists")
	}
	cp := *y
	s.years[y.Code] = &cp
	out := cp
	return &out, nil
}

func (s *memoryStore) ListAcademicYears() ([]*services.AcademicYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.AcademicYear, 0, len(s.years))
	for _, y := range s.years {
		cp := *y
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *memoryStore) SetCurrentYear(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.years[code]; !ok {
		return services.NewNotFoundError("academic year " + code + " not found")
	}
	for c, y := range s.years {
		y.IsCurrent = c == code
	}
	return nil
}

// --- survey config overrides ---

func (s *memoryStore) GetActiveConfigOverride(yearCode string) (*services.ConfigOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[yearCode]
	if !ok || !o.IsActive {
		return nil, nil
	}
	cp := *o
	cp.Config = o.Config.Clone()
	return &cp, nil
}

func (s *memoryStore) InsertConfigOverride(o *services.ConfigOverride) (*services.ConfigOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.overrides[o.YearCode]; ok && existing.IsActive {
		return nil, services.NewConfigConflictError("year " + o.YearCode + " already has an active survey config")
	}
	cp := *o
	cp.Config = o.Config.Clone()
	s.overrides[o.YearCode] = &cp
	out := cp
	out.Config = cp.Config.Clone()
	return &out, nil
}

func (s *memoryStore) UpdateConfigOverride(o *services.ConfigOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overrides[o.YearCode]; !ok {
		return services.NewNotFoundError("no survey config for year " + o.YearCode)
	}
	cp := *o
	cp.Config = o.Config.Clone()
	s.overrides[o.YearCode] = &cp
	return nil
}

func (s *memoryStore) YearHasSubmittedResponses(yearCode string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.campaigns {
		if c.YearCode != yearCode {
			continue
		}
		for _, inv := range s.invitations {
			if inv.CampaignID != c.ID {
				continue
			}
			for _, r := range s.responses {
				if r.InvitationID == inv.ID && r.Status == services.ResponseSubmitted {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// --- faculty roster ---

func (s *memoryStore) GetFacultyMember(email string) (*services.FacultyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if fm, ok := s.faculty[strings.ToLower(email)]; ok {
		cp := *fm
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) InsertFacultyMember(fm *services.FacultyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(fm.Email)
	if _, ok := s.faculty[key]; ok {
		return services.NewConflictError("faculty member " + fm.Email + " already exists")
	}
	cp := *fm
	s.faculty[key] = &cp
	return nil
}

func (s *memoryStore) UpdateFacultyMember(fm *services.FacultyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(fm.Email)
	if _, ok := s.faculty[key]; !ok {
		return services.NewNotFoundError("faculty member " + fm.Email + " not found")
	}
	cp := *fm
	s.faculty[key] = &cp
	return nil
}

func (s *memoryStore) ListActiveFaculty() ([]*services.FacultyMember, error) {
	return s.ListFaculty(false)
}

func (s *memoryStore) ListFaculty(includeInactive bool) ([]*services.FacultyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.FacultyMember
	for _, fm := range s.faculty {
		if !includeInactive && !fm.IsActive {
			continue
		}
		cp := *fm
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (s *memoryStore) GetFacultyByPortalToken(token string) (*services.FacultyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token == "" {
		return nil, nil
	}
	for _, fm := range s.faculty {
		if fm.PortalToken == token {
			cp := *fm
			return &cp, nil
		}
	}
	return nil, nil
}

// --- divisions ---

func divisionKey(division, year string) string { return division + "|" + year }

func (s *memoryStore) UpsertDivision(d *services.Division) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.divisions[d.Name] = &cp
	return nil
}

func (s *memoryStore) ListDivisions() ([]*services.Division, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Division, 0, len(s.divisions))
	for _, d := range s.divisions {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryStore) GetDivisionVerification(division, yearCode string) (*services.DivisionVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.verifications[divisionKey(division, yearCode)]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) UpsertDivisionVerification(v *services.DivisionVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.verifications[divisionKey(v.Division, v.YearCode)] = &cp
	return nil
}

func (s *memoryStore) ListDivisionVerifications(yearCode string) ([]*services.DivisionVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.DivisionVerification
	for _, v := range s.verifications {
		if v.YearCode == yearCode {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Division < out[j].Division })
	return out, nil
}

// --- activity registry ---

func (s *memoryStore) GetActivityTypeByVariable(dataVariable string) (*services.ActivityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if at, ok := s.activityTypes[dataVariable]; ok {
		cp := *at
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) UpsertActivityType(at *services.ActivityType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *at
	s.activityTypes[at.DataVariable] = &cp
	return nil
}

func (s *memoryStore) ListActivityTypes() ([]*services.ActivityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.ActivityType, 0, len(s.activityTypes))
	for _, at := range s.activityTypes {
		cp := *at
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DataVariable < out[j].DataVariable })
	return out, nil
}

// --- campaigns ---

func (s *memoryStore) GetCampaign(id string) (*services.SurveyCampaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.campaigns[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) GetCampaignByYearQuarter(yearCode, quarter string) (*services.SurveyCampaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.campaigns {
		if c.YearCode == yearCode && c.Quarter == quarter {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) InsertCampaign(c *services.SurveyCampaign) (*services.SurveyCampaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.campaigns[c.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memoryStore) UpdateCampaign(c *services.SurveyCampaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[c.ID]; !ok {
		return services.NewNotFoundError("campaign not found")
	}
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *memoryStore) ListCampaigns() ([]*services.SurveyCampaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.SurveyCampaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].YearCode != out[j].YearCode {
			return out[i].YearCode < out[j].YearCode
		}
		return out[i].Quarter < out[j].Quarter
	})
	return out, nil
}

func (s *memoryStore) ListCampaignsByYear(yearCode string) ([]*services.SurveyCampaign, error) {
	all, err := s.ListCampaigns()
	if err != nil {
		return nil, err
	}
	var out []*services.SurveyCampaign
	for _, c := range all {
		if c.YearCode == yearCode {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- invitations ---

func (s *memoryStore) GetInvitation(campaignID, facultyEmail string) (*services.SurveyInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invitations {
		if inv.CampaignID == campaignID && strings.EqualFold(inv.FacultyEmail, facultyEmail) {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) GetInvitationByID(id string) (*services.SurveyInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if inv, ok := s.invitations[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) GetInvitationByToken(token string) (*services.SurveyInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) InsertInvitation(inv *services.SurveyInvitation) (*services.SurveyInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inv
	s.invitations[inv.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memoryStore) UpdateInvitation(inv *services.SurveyInvitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invitations[inv.ID]; !ok {
		return services.NewNotFoundError("invitation not found")
	}
	cp := *inv
	s.invitations[inv.ID] = &cp
	return nil
}

func (s *memoryStore) ListInvitationsByCampaign(campaignID string) ([]*services.SurveyInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.SurveyInvitation
	for _, inv := range s.invitations {
		if inv.CampaignID == campaignID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FacultyEmail < out[j].FacultyEmail })
	return out, nil
}

// --- responses ---

func (s *memoryStore) GetResponseByInvitation(invitationID string) (*services.SurveyResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.responses {
		if r.InvitationID == invitationID {
			cp := *r
			cp.Answers = r.CloneAnswers()
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) InsertResponse(r *services.SurveyResponse) (*services.SurveyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.Answers = r.CloneAnswers()
	s.responses[r.ID] = &cp
	out := cp
	out.Answers = cp.CloneAnswers()
	return &out, nil
}

func (s *memoryStore) UpdateResponse(r *services.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[r.ID]; !ok {
		return services.NewNotFoundError("response not found")
	}
	cp := *r
	cp.Answers = r.CloneAnswers()
	s.responses[r.ID] = &cp
	return nil
}

func (s *memoryStore) AddResponseSnapshot(snap *services.ResponseSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
}

// --- departmental data ---

func (s *memoryStore) GetDepartmentalData(facultyEmail, yearCode string) (*services.DepartmentalData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.departmental[deptKey(strings.ToLower(facultyEmail), yearCode)]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) UpsertDepartmentalData(d *services.DepartmentalData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.departmental[deptKey(strings.ToLower(d.FacultyEmail), d.YearCode)] = &cp
	return nil
}

// --- import batches, email logs, audit ---

func (s *memoryStore) InsertImportBatch(b *services.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.importBatches = append(s.importBatches, &cp)
	return nil
}

func (s *memoryStore) ListImportBatches(yearCode string) ([]*services.ImportBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.ImportBatch
	for _, b := range s.importBatches {
		if yearCode == "" || b.YearCode == yearCode {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) AddEmailLog(e *services.EmailLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.emailLogs = append(s.emailLogs, &cp)
}

func (s *memoryStore) ListEmailLogs(invitationID string) ([]*services.EmailLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.EmailLogEntry
	for _, e := range s.emailLogs {
		if invitationID == "" || e.InvitationID == invitationID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) AddAudit(entry services.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
}

func (s *memoryStore) ListAudit(since time.Time) ([]services.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []services.AuditEntry
	for _, e := range s.audit {
		if since.IsZero() || !e.Time.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- admin users ---

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.usersByEmail[strings.ToLower(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.usersByEmail[key]; ok {
		return services.NewConflictError("email exists")
	}
	cp := *u
	s.usersByEmail[key] = &cp
	return nil
}
