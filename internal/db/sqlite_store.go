package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/achievemetrics/facpoints/internal/api"
	"github.com/achievemetrics/facpoints/internal/services"
)

// SQLiteStore is the durable api.Store backend. All SQL lives here;
// the services never see database/sql types.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

var _ api.Store = (*SQLiteStore)(nil)

// --- scan helpers ---

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

func timeToText(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func timeToNull(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: timeToText(t), Valid: true}
}

func textToTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullToTime(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	return textToTime(ns.String)
}

func encodeAnswers(m map[string]int) string {
	if m == nil {
		m = map[string]int{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeAnswers(s string) map[string]int {
	out := map[string]int{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		log.Printf("sqlite store: decode answers: %v", err)
	}
	return out
}

// --- academic years ---

func (s *SQLiteStore) GetAcademicYear(code string) (*services.AcademicYear, error) {
	row := s.db.QueryRow(`SELECT code, start_date, end_date, is_current FROM academic_years WHERE code = ?`, code)
	var y services.AcademicYear
	var start, end string
	var current int64
	if err := row.Scan(&y.Code, &start, &end, &current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	y.StartDate = textToTime(start)
	y.EndDate = textToTime(end)
	y.IsCurrent = int64ToBool(current)
	return &y, nil
}

func (s *SQLiteStore) InsertAcademicYear(y *services.AcademicYear) (*services.AcademicYear, error) {
	_, err := s.db.Exec(`INSERT INTO academic_years (code, start_date, end_date, is_current) VALUES (?, ?, ?, ?)`,
		y.Code, timeToText(y.StartDate), timeToText(y.EndDate), boolToInt64(y.IsCurrent))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, services.NewConflictError("academic year " + y.Code + " already exists")
		}
		return nil, err
	}
	return s.GetAcademicYear(y.Code)
}

func (s *SQLiteStore) ListAcademicYears() ([]*services.AcademicYear, error) {
	rows, err := s.db.Query(`SELECT code, start_date, end_date, is_current FROM academic_years ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.AcademicYear
	for rows.Next() {
		var y services.AcademicYear
		var start, end string
		var current int64
		if err := rows.Scan(&y.Code, &start, &end, &current); err != nil {
			return nil, err
		}
		y.StartDate = textToTime(start)
		y.EndDate = textToTime(end)
		y.IsCurrent = int64ToBool(current)
		out = append(out, &y)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetCurrentYear(code string) error {
	res, err := s.db.Exec(`UPDATE academic_years SET is_current = (code = ?)`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("academic year " + code + " not found")
	}
	return nil
}

// --- survey config overrides ---

func (s *SQLiteStore) GetActiveConfigOverride(yearCode string) (*services.ConfigOverride, error) {
	row := s.db.QueryRow(`SELECT id, year_code, name, config, is_active, created_by, created_at, updated_at
		FROM config_overrides WHERE year_code = ? AND is_active = 1`, yearCode)
	return scanConfigOverride(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfigOverride(row rowScanner) (*services.ConfigOverride, error) {
	var o services.ConfigOverride
	var cfgJSON string
	var active int64
	var created, updated string
	if err := row.Scan(&o.ID, &o.YearCode, &o.Name, &cfgJSON, &active, &o.CreatedBy, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var cfg services.SurveyConfig
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return nil, fmt.Errorf("decode survey config for %s: %w", o.YearCode, err)
	}
	o.Config = &cfg
	o.IsActive = int64ToBool(active)
	o.CreatedAt = textToTime(created)
	o.UpdatedAt = textToTime(updated)
	return &o, nil
}

func (s *SQLiteStore) InsertConfigOverride(o *services.ConfigOverride) (*services.ConfigOverride, error) {
	cfgJSON, err := json.Marshal(o.Config)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`INSERT INTO config_overrides (id, year_code, name, config, is_active, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.YearCode, o.Name, string(cfgJSON), boolToInt64(o.IsActive), o.CreatedBy, timeToText(o.CreatedAt), timeToText(o.UpdatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, services.NewConfigConflictError("year " + o.YearCode + " already has an active survey config")
		}
		return nil, err
	}
	return o, nil
}

func (s *SQLiteStore) UpdateConfigOverride(o *services.ConfigOverride) error {
	cfgJSON, err := json.Marshal(o.Config)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE config_overrides SET name = ?, config = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		o.Name, string(cfgJSON), boolToInt64(o.IsActive), timeToText(o.UpdatedAt), o.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("no survey config override " + o.ID)
	}
	return nil
}

func (s *SQLiteStore) YearHasSubmittedResponses(yearCode string) (bool, error) {
	row := s.db.QueryRow(`SELECT COUNT(1)
		FROM survey_responses r
		JOIN survey_invitations i ON i.id = r.invitation_id
		JOIN survey_campaigns c ON c.id = i.campaign_id
		WHERE c.year_code = ? AND r.status = 'submitted'`, yearCode)
	var n int64
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- faculty roster ---

const facultyCols = `email, first_name, last_name, rank, contract_type, division, is_active, is_ccc_member, portal_token, created_at, updated_at`

func scanFaculty(row rowScanner) (*services.FacultyMember, error) {
	var fm services.FacultyMember
	var active, ccc int64
	var rank, contract string
	var created, updated string
	if err := row.Scan(&fm.Email, &fm.FirstName, &fm.LastName, &rank, &contract, &fm.Division, &active, &ccc, &fm.PortalToken, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	fm.Rank = services.Rank(rank)
	fm.ContractType = services.ContractType(contract)
	fm.IsActive = int64ToBool(active)
	fm.IsCCCMember = int64ToBool(ccc)
	fm.CreatedAt = textToTime(created)
	fm.UpdatedAt = textToTime(updated)
	return &fm, nil
}

func (s *SQLiteStore) GetFacultyMember(email string) (*services.FacultyMember, error) {
	row := s.db.QueryRow(`SELECT `+facultyCols+` FROM faculty_members WHERE email = ?`, strings.ToLower(email))
	return scanFaculty(row)
}

func (s *SQLiteStore) InsertFacultyMember(fm *services.FacultyMember) error {
	_, err := s.db.Exec(`INSERT INTO faculty_members (`+facultyCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.ToLower(fm.Email), fm.FirstName, fm.LastName, string(fm.Rank), string(fm.ContractType), fm.Division,
		boolToInt64(fm.IsActive), boolToInt64(fm.IsCCCMember), fm.PortalToken, timeToText(fm.CreatedAt), timeToText(fm.UpdatedAt))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return services.NewConflictError("faculty member " + fm.Email + " already exists")
	}
	return err
}

func (s *SQLiteStore) UpdateFacultyMember(fm *services.FacultyMember) error {
	res, err := s.db.Exec(`UPDATE faculty_members SET first_name = ?, last_name = ?, rank = ?, contract_type = ?, division = ?,
		is_active = ?, is_ccc_member = ?, portal_token = ?, updated_at = ? WHERE email = ?`,
		fm.FirstName, fm.LastName, string(fm.Rank), string(fm.ContractType), fm.Division,
		boolToInt64(fm.IsActive), boolToInt64(fm.IsCCCMember), fm.PortalToken, timeToText(fm.UpdatedAt), strings.ToLower(fm.Email))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("faculty member " + fm.Email + " not found")
	}
	return nil
}

func (s *SQLiteStore) ListActiveFaculty() ([]*services.FacultyMember, error) {
	return s.ListFaculty(false)
}

func (s *SQLiteStore) ListFaculty(includeInactive bool) ([]*services.FacultyMember, error) {
	q := `SELECT ` + facultyCols + ` FROM faculty_members`
	if !includeInactive {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY last_name, first_name`
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.FacultyMember
	for rows.Next() {
		fm, err := scanFaculty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fm)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetFacultyByPortalToken(token string) (*services.FacultyMember, error) {
	if token == "" {
		return nil, nil
	}
	row := s.db.QueryRow(`SELECT `+facultyCols+` FROM faculty_members WHERE portal_token = ?`, token)
	return scanFaculty(row)
}

// --- divisions ---

func (s *SQLiteStore) UpsertDivision(d *services.Division) error {
	_, err := s.db.Exec(`INSERT INTO divisions (name, chief_email) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET chief_email = excluded.chief_email`,
		d.Name, strings.ToLower(d.ChiefEmail))
	return err
}

func (s *SQLiteStore) ListDivisions() ([]*services.Division, error) {
	rows, err := s.db.Query(`SELECT name, chief_email FROM divisions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Division
	for rows.Next() {
		var d services.Division
		if err := rows.Scan(&d.Name, &d.ChiefEmail); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func scanDivisionVerification(row rowScanner) (*services.DivisionVerification, error) {
	var v services.DivisionVerification
	var verified int64
	var at sql.NullString
	if err := row.Scan(&v.Division, &v.YearCode, &verified, &v.VerifiedBy, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	v.Verified = int64ToBool(verified)
	v.VerifiedAt = nullToTime(at)
	return &v, nil
}

func (s *SQLiteStore) GetDivisionVerification(division, yearCode string) (*services.DivisionVerification, error) {
	return scanDivisionVerification(s.db.QueryRow(`SELECT division, year_code, verified, verified_by, verified_at
		FROM division_verifications WHERE division = ? AND year_code = ?`, division, yearCode))
}

func (s *SQLiteStore) UpsertDivisionVerification(v *services.DivisionVerification) error {
	_, err := s.db.Exec(`INSERT INTO division_verifications (division, year_code, verified, verified_by, verified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (division, year_code) DO UPDATE SET
			verified = excluded.verified,
			verified_by = excluded.verified_by,
			verified_at = excluded.verified_at`,
		v.Division, v.YearCode, boolToInt64(v.Verified), v.VerifiedBy, timeToNull(v.VerifiedAt))
	return err
}

func (s *SQLiteStore) ListDivisionVerifications(yearCode string) ([]*services.DivisionVerification, error) {
	rows, err := s.db.Query(`SELECT division, year_code, verified, verified_by, verified_at
		FROM division_verifications WHERE year_code = ? ORDER BY division`, yearCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.DivisionVerification
	for rows.Next() {
		v, err := scanDivisionVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- activity registry ---

func (s *SQLiteStore) GetActivityTypeByVariable(dataVariable string) (*services.ActivityType, error) {
	row := s.db.QueryRow(`SELECT data_variable, name, base_points, is_active FROM activity_types WHERE data_variable = ?`, dataVariable)
	var at services.ActivityType
	var active int64
	if err := row.Scan(&at.DataVariable, &at.Name, &at.BasePoints, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	at.IsActive = int64ToBool(active)
	return &at, nil
}

func (s *SQLiteStore) UpsertActivityType(at *services.ActivityType) error {
	_, err := s.db.Exec(`INSERT INTO activity_types (data_variable, name, base_points, is_active) VALUES (?, ?, ?, ?)
		ON CONFLICT (data_variable) DO UPDATE SET name = excluded.name, base_points = excluded.base_points, is_active = excluded.is_active`,
		at.DataVariable, at.Name, at.BasePoints, boolToInt64(at.IsActive))
	return err
}

func (s *SQLiteStore) ListActivityTypes() ([]*services.ActivityType, error) {
	rows, err := s.db.Query(`SELECT data_variable, name, base_points, is_active FROM activity_types ORDER BY data_variable`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.ActivityType
	for rows.Next() {
		var at services.ActivityType
		var active int64
		if err := rows.Scan(&at.DataVariable, &at.Name, &at.BasePoints, &active); err != nil {
			return nil, err
		}
		at.IsActive = int64ToBool(active)
		out = append(out, &at)
	}
	return out, rows.Err()
}

// --- campaigns ---

const campaignCols = `id, year_code, quarter, name, opens_at, closes_at, is_active,
	email_from_name, email_from_address, email_subject, email_body, reminder_subject, reminder_body,
	created_by, created_at, updated_at`

func scanCampaign(row rowScanner) (*services.SurveyCampaign, error) {
	var c services.SurveyCampaign
	var opens, closes, created, updated string
	var active int64
	if err := row.Scan(&c.ID, &c.YearCode, &c.Quarter, &c.Name, &opens, &closes, &active,
		&c.EmailFromName, &c.EmailFromAddress, &c.EmailSubject, &c.EmailBody, &c.ReminderSubject, &c.ReminderBody,
		&c.CreatedBy, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.OpensAt = textToTime(opens)
	c.ClosesAt = textToTime(closes)
	c.IsActive = int64ToBool(active)
	c.CreatedAt = textToTime(created)
	c.UpdatedAt = textToTime(updated)
	return &c, nil
}

func (s *SQLiteStore) GetCampaign(id string) (*services.SurveyCampaign, error) {
	return scanCampaign(s.db.QueryRow(`SELECT `+campaignCols+` FROM survey_campaigns WHERE id = ?`, id))
}

func (s *SQLiteStore) GetCampaignByYearQuarter(yearCode, quarter string) (*services.SurveyCampaign, error) {
	return scanCampaign(s.db.QueryRow(`SELECT `+campaignCols+` FROM survey_campaigns WHERE year_code = ? AND quarter = ?`, yearCode, quarter))
}

func (s *SQLiteStore) InsertCampaign(c *services.SurveyCampaign) (*services.SurveyCampaign, error) {
	_, err := s.db.Exec(`INSERT INTO survey_campaigns (`+campaignCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.YearCode, c.Quarter, c.Name, timeToText(c.OpensAt), timeToText(c.ClosesAt), boolToInt64(c.IsActive),
		c.EmailFromName, c.EmailFromAddress, c.EmailSubject, c.EmailBody, c.ReminderSubject, c.ReminderBody,
		c.CreatedBy, timeToText(c.CreatedAt), timeToText(c.UpdatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, services.NewConflictError("campaign for " + c.YearCode + " " + c.Quarter + " already exists")
		}
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) UpdateCampaign(c *services.SurveyCampaign) error {
	res, err := s.db.Exec(`UPDATE survey_campaigns SET name = ?, opens_at = ?, closes_at = ?, is_active = ?,
		email_from_name = ?, email_from_address = ?, email_subject = ?, email_body = ?, reminder_subject = ?, reminder_body = ?,
		updated_at = ? WHERE id = ?`,
		c.Name, timeToText(c.OpensAt), timeToText(c.ClosesAt), boolToInt64(c.IsActive),
		c.EmailFromName, c.EmailFromAddress, c.EmailSubject, c.EmailBody, c.ReminderSubject, c.ReminderBody,
		timeToText(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("campaign not found")
	}
	return nil
}

func (s *SQLiteStore) listCampaigns(where string, args ...any) ([]*services.SurveyCampaign, error) {
	rows, err := s.db.Query(`SELECT `+campaignCols+` FROM survey_campaigns `+where+` ORDER BY year_code, quarter`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.SurveyCampaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListCampaigns() ([]*services.SurveyCampaign, error) {
	return s.listCampaigns("")
}

func (s *SQLiteStore) ListCampaignsByYear(yearCode string) ([]*services.SurveyCampaign, error) {
	return s.listCampaigns("WHERE year_code = ?", yearCode)
}

// --- invitations ---

const invitationCols = `id, campaign_id, faculty_email, token, email_sent_at, reminder_sent_at, first_accessed_at, submitted_at, created_at, updated_at`

func scanInvitation(row rowScanner) (*services.SurveyInvitation, error) {
	var inv services.SurveyInvitation
	var emailSent, reminderSent, firstAccess, submitted sql.NullString
	var created, updated string
	if err := row.Scan(&inv.ID, &inv.CampaignID, &inv.FacultyEmail, &inv.Token, &emailSent, &reminderSent, &firstAccess, &submitted, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	inv.EmailSentAt = nullToTime(emailSent)
	inv.ReminderSentAt = nullToTime(reminderSent)
	inv.FirstAccessedAt = nullToTime(firstAccess)
	inv.SubmittedAt = nullToTime(submitted)
	inv.CreatedAt = textToTime(created)
	inv.UpdatedAt = textToTime(updated)
	return &inv, nil
}

func (s *SQLiteStore) GetInvitation(campaignID, facultyEmail string) (*services.SurveyInvitation, error) {
	return scanInvitation(s.db.QueryRow(`SELECT `+invitationCols+` FROM survey_invitations WHERE campaign_id = ? AND faculty_email = ?`,
		campaignID, strings.ToLower(facultyEmail)))
}

func (s *SQLiteStore) GetInvitationByID(id string) (*services.SurveyInvitation, error) {
	return scanInvitation(s.db.QueryRow(`SELECT `+invitationCols+` FROM survey_invitations WHERE id = ?`, id))
}

func (s *SQLiteStore) GetInvitationByToken(token string) (*services.SurveyInvitation, error) {
	return scanInvitation(s.db.QueryRow(`SELECT `+invitationCols+` FROM survey_invitations WHERE token = ?`, token))
}

func (s *SQLiteStore) InsertInvitation(inv *services.SurveyInvitation) (*services.SurveyInvitation, error) {
	_, err := s.db.Exec(`INSERT INTO survey_invitations (`+invitationCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.CampaignID, strings.ToLower(inv.FacultyEmail), inv.Token,
		timeToNull(inv.EmailSentAt), timeToNull(inv.ReminderSentAt), timeToNull(inv.FirstAccessedAt), timeToNull(inv.SubmittedAt),
		timeToText(inv.CreatedAt), timeToText(inv.UpdatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, services.NewConflictError("invitation already exists for " + inv.FacultyEmail)
		}
		return nil, err
	}
	return inv, nil
}

func (s *SQLiteStore) UpdateInvitation(inv *services.SurveyInvitation) error {
	res, err := s.db.Exec(`UPDATE survey_invitations SET email_sent_at = ?, reminder_sent_at = ?, first_accessed_at = ?, submitted_at = ?, updated_at = ? WHERE id = ?`,
		timeToNull(inv.EmailSentAt), timeToNull(inv.ReminderSentAt), timeToNull(inv.FirstAccessedAt), timeToNull(inv.SubmittedAt),
		timeToText(inv.UpdatedAt), inv.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("invitation not found")
	}
	return nil
}

func (s *SQLiteStore) ListInvitationsByCampaign(campaignID string) ([]*services.SurveyInvitation, error) {
	rows, err := s.db.Query(`SELECT `+invitationCols+` FROM survey_invitations WHERE campaign_id = ? ORDER BY faculty_email`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.SurveyInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// --- responses ---

func scanResponse(row rowScanner) (*services.SurveyResponse, error) {
	var r services.SurveyResponse
	var answers, status, created, updated string
	var submitted sql.NullString
	if err := row.Scan(&r.ID, &r.InvitationID, &answers, &status, &submitted, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r.Answers = decodeAnswers(answers)
	r.Status = services.ResponseStatus(status)
	r.SubmittedAt = nullToTime(submitted)
	r.CreatedAt = textToTime(created)
	r.UpdatedAt = textToTime(updated)
	return &r, nil
}

func (s *SQLiteStore) GetResponseByInvitation(invitationID string) (*services.SurveyResponse, error) {
	return scanResponse(s.db.QueryRow(`SELECT id, invitation_id, answers, status, submitted_at, created_at, updated_at
		FROM survey_responses WHERE invitation_id = ?`, invitationID))
}

func (s *SQLiteStore) InsertResponse(r *services.SurveyResponse) (*services.SurveyResponse, error) {
	_, err := s.db.Exec(`INSERT INTO survey_responses (id, invitation_id, answers, status, submitted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.InvitationID, encodeAnswers(r.Answers), string(r.Status), timeToNull(r.SubmittedAt),
		timeToText(r.CreatedAt), timeToText(r.UpdatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, services.NewConflictError("response already exists for invitation " + r.InvitationID)
		}
		return nil, err
	}
	return r, nil
}

// UpdateResponse swaps the whole row in one statement, keeping the
// answer set replacement atomic.
func (s *SQLiteStore) UpdateResponse(r *services.SurveyResponse) error {
	res, err := s.db.Exec(`UPDATE survey_responses SET answers = ?, status = ?, submitted_at = ?, updated_at = ? WHERE id = ?`,
		encodeAnswers(r.Answers), string(r.Status), timeToNull(r.SubmittedAt), timeToText(r.UpdatedAt), r.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("response not found")
	}
	return nil
}

func (s *SQLiteStore) AddResponseSnapshot(snap *services.ResponseSnapshot) {
	_, err := s.db.Exec(`INSERT INTO response_snapshots (id, response_id, action, answers, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.ResponseID, snap.Action, encodeAnswers(snap.Answers), timeToText(snap.CreatedAt))
	if err != nil {
		log.Printf("sqlite store: add response snapshot: %v", err)
	}
}

// --- departmental data ---

func (s *SQLiteStore) GetDepartmentalData(facultyEmail, yearCode string) (*services.DepartmentalData, error) {
	row := s.db.QueryRow(`SELECT faculty_email, year_code, new_innovations, mytip_winner, mytip_count,
		teaching_top_25, teaching_65_25, teacher_of_year, honorable_mention, created_at, updated_at
		FROM departmental_data WHERE faculty_email = ? AND year_code = ?`, strings.ToLower(facultyEmail), yearCode)
	var d services.DepartmentalData
	var ni, mw, t25, t65, toy, hm int64
	var created, updated string
	if err := row.Scan(&d.FacultyEmail, &d.YearCode, &ni, &mw, &d.MyTIPCount, &t25, &t65, &toy, &hm, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.NewInnovations = int64ToBool(ni)
	d.MyTIPWinner = int64ToBool(mw)
	d.TeachingTop25 = int64ToBool(t25)
	d.Teaching6525 = int64ToBool(t65)
	d.TeacherOfYear = int64ToBool(toy)
	d.HonorableMention = int64ToBool(hm)
	d.CreatedAt = textToTime(created)
	d.UpdatedAt = textToTime(updated)
	return &d, nil
}

func (s *SQLiteStore) UpsertDepartmentalData(d *services.DepartmentalData) error {
	now := timeToText(time.Now().UTC())
	created := now
	if !d.CreatedAt.IsZero() {
		created = timeToText(d.CreatedAt)
	}
	updated := now
	if !d.UpdatedAt.IsZero() {
		updated = timeToText(d.UpdatedAt)
	}
	_, err := s.db.Exec(`INSERT INTO departmental_data (faculty_email, year_code, new_innovations, mytip_winner, mytip_count,
		teaching_top_25, teaching_65_25, teacher_of_year, honorable_mention, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (faculty_email, year_code) DO UPDATE SET
			new_innovations = excluded.new_innovations,
			mytip_winner = excluded.mytip_winner,
			mytip_count = excluded.mytip_count,
			teaching_top_25 = excluded.teaching_top_25,
			teaching_65_25 = excluded.teaching_65_25,
			teacher_of_year = excluded.teacher_of_year,
			honorable_mention = excluded.honorable_mention,
			updated_at = excluded.updated_at`,
		strings.ToLower(d.FacultyEmail), d.YearCode, boolToInt64(d.NewInnovations), boolToInt64(d.MyTIPWinner), d.MyTIPCount,
		boolToInt64(d.TeachingTop25), boolToInt64(d.Teaching6525), boolToInt64(d.TeacherOfYear), boolToInt64(d.HonorableMention),
		created, updated)
	return err
}

// --- import batches, email logs, audit ---

func (s *SQLiteStore) InsertImportBatch(b *services.ImportBatch) error {
	unmatched, err := json.Marshal(b.UnmatchedEmails)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO import_batches (id, year_code, filename, imported_by, faculty_count, activity_count, unmatched_emails, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.YearCode, b.Filename, b.ImportedBy, b.FacultyCount, b.ActivityCount, string(unmatched), timeToText(b.ImportedAt))
	return err
}

func (s *SQLiteStore) ListImportBatches(yearCode string) ([]*services.ImportBatch, error) {
	q := `SELECT id, year_code, filename, imported_by, faculty_count, activity_count, unmatched_emails, imported_at FROM import_batches`
	var args []any
	if yearCode != "" {
		q += ` WHERE year_code = ?`
		args = append(args, yearCode)
	}
	q += ` ORDER BY imported_at DESC`
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.ImportBatch
	for rows.Next() {
		var b services.ImportBatch
		var unmatched, imported string
		if err := rows.Scan(&b.ID, &b.YearCode, &b.Filename, &b.ImportedBy, &b.FacultyCount, &b.ActivityCount, &unmatched, &imported); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(unmatched), &b.UnmatchedEmails); err != nil {
			log.Printf("sqlite store: decode unmatched emails: %v", err)
		}
		b.ImportedAt = textToTime(imported)
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddEmailLog(e *services.EmailLogEntry) {
	_, err := s.db.Exec(`INSERT INTO email_logs (id, invitation_id, email_type, recipient, subject, status, error_message, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.InvitationID, e.EmailType, e.Recipient, e.Subject, e.Status, e.ErrorMessage, timeToText(e.SentAt))
	if err != nil {
		log.Printf("sqlite store: add email log: %v", err)
	}
}

func (s *SQLiteStore) ListEmailLogs(invitationID string) ([]*services.EmailLogEntry, error) {
	q := `SELECT id, invitation_id, email_type, recipient, subject, status, error_message, sent_at FROM email_logs`
	var args []any
	if invitationID != "" {
		q += ` WHERE invitation_id = ?`
		args = append(args, invitationID)
	}
	q += ` ORDER BY sent_at`
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.EmailLogEntry
	for rows.Next() {
		var e services.EmailLogEntry
		var sent string
		if err := rows.Scan(&e.ID, &e.InvitationID, &e.EmailType, &e.Recipient, &e.Subject, &e.Status, &e.ErrorMessage, &sent); err != nil {
			return nil, err
		}
		e.SentAt = textToTime(sent)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddAudit(entry services.AuditEntry) {
	_, err := s.db.Exec(`INSERT INTO audit_log (ts, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		timeToText(entry.Time), entry.Actor, entry.Action, entry.Target, entry.Note)
	if err != nil {
		log.Printf("sqlite store: add audit entry: %v", err)
	}
}

func (s *SQLiteStore) ListAudit(since time.Time) ([]services.AuditEntry, error) {
	q := `SELECT ts, actor, action, target, note FROM audit_log`
	var args []any
	if !since.IsZero() {
		q += ` WHERE ts >= ?`
		args = append(args, timeToText(since))
	}
	q += ` ORDER BY seq`
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []services.AuditEntry
	for rows.Next() {
		var e services.AuditEntry
		var ts string
		if err := rows.Scan(&ts, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			return nil, err
		}
		e.Time = textToTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- admin users ---

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	row := s.db.QueryRow(`SELECT id, email, pass_hash, role, created_at FROM users WHERE email = ?`, strings.ToLower(email))
	var u services.User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.Role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt = textToTime(created)
	return &u, nil
}

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, email, pass_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.PassHash, u.Role, timeToText(u.CreatedAt))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return services.NewConflictError("email exists")
	}
	return err
}
