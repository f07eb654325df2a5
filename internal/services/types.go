package services

import (
	"fmt"
	"time"
)

// AcademicYear identifies one July-June cycle, keyed by a short code
// such as "24-25". Years are immutable once created except for
// per-division verification, which lives in DivisionVerification.
type AcademicYear struct {
	Code      string    `json:"code"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsCurrent bool      `json:"is_current"`
}

// Division groups faculty members under a chief.
type Division struct {
	Name       string `json:"name"`
	ChiefEmail string `json:"chief_email,omitempty"`
}

// DivisionVerification records that a division chief signed off on the
// division's point totals for one academic year.
type DivisionVerification struct {
	Division   string    `json:"division"`
	YearCode   string    `json:"year_code"`
	Verified   bool      `json:"verified"`
	VerifiedBy string    `json:"verified_by,omitempty"`
	VerifiedAt time.Time `json:"verified_at,omitempty"`
}

type Rank string

const (
	RankInstructor Rank = "instructor"
	RankAssistant  Rank = "assistant"
	RankAssociate  Rank = "associate"
	RankProfessor  Rank = "professor"
)

type ContractType string

const (
	ContractAcademic    ContractType = "academic"
	ContractClinical    ContractType = "clinical"
	ContractEarlyCareer ContractType = "early_career"
)

// FacultyMember is a roster entry. Email is the primary identifier and
// must match survey submissions and REDCap imports. PortalToken is the
// long-lived opaque token used for self-service portal identity.
type FacultyMember struct {
	Email        string       `json:"email"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Rank         Rank         `json:"rank,omitempty"`
	ContractType ContractType `json:"contract_type,omitempty"`
	Division     string       `json:"division,omitempty"`
	IsActive     bool         `json:"is_active"`
	IsCCCMember  bool         `json:"is_ccc_member"`
	PortalToken  string       `json:"-"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at,omitempty"`
}

// DisplayName returns the roster name in "Last, First" form.
func (f *FacultyMember) DisplayName() string {
	return fmt.Sprintf("%s, %s", f.LastName, f.FirstName)
}

// ActivityType is a registry entry mapping a stable data variable
// (e.g. CIT_COMMIT_UNMC) to its current point value. When present it is
// the single source of truth for that variable's points.
type ActivityType struct {
	DataVariable string `json:"data_variable"`
	Name         string `json:"name,omitempty"`
	BasePoints   int    `json:"base_points"`
	IsActive     bool   `json:"is_active"`
}

// SurveyCampaign is a bounded submission window for one academic year
// and quarter. Open/closed state is derived from the dates at access
// time, never stored.
type SurveyCampaign struct {
	ID       string    `json:"id"`
	YearCode string    `json:"year_code"`
	Quarter  string    `json:"quarter"`
	Name     string    `json:"name"`
	OpensAt  time.Time `json:"opens_at"`
	ClosesAt time.Time `json:"closes_at"`
	IsActive bool      `json:"is_active"`

	EmailFromName    string `json:"email_from_name,omitempty"`
	EmailFromAddress string `json:"email_from_address,omitempty"`
	EmailSubject     string `json:"email_subject,omitempty"`
	EmailBody        string `json:"email_body,omitempty"`
	ReminderSubject  string `json:"reminder_subject,omitempty"`
	ReminderBody     string `json:"reminder_body,omitempty"`

	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SurveyInvitation joins a faculty member to a campaign and carries the
// per-campaign access token. Zero timestamps mean "not yet".
type SurveyInvitation struct {
	ID           string `json:"id"`
	CampaignID   string `json:"campaign_id"`
	FacultyEmail string `json:"faculty_email"`
	Token        string `json:"-"`

	EmailSentAt     time.Time `json:"email_sent_at,omitempty"`
	ReminderSentAt  time.Time `json:"reminder_sent_at,omitempty"`
	FirstAccessedAt time.Time `json:"first_accessed_at,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ResponseStatus is the per-response lifecycle state.
type ResponseStatus string

const (
	ResponseNotStarted ResponseStatus = "not_started"
	ResponseDraft      ResponseStatus = "draft"
	ResponseSubmitted  ResponseStatus = "submitted"
)

// SurveyResponse holds one faculty member's answer set for one
// invitation: trigger key -> count (or 0/1 flag). Mutation is gated by
// the owning campaign's state, not by the record itself.
type SurveyResponse struct {
	ID           string         `json:"id"`
	InvitationID string         `json:"invitation_id"`
	Answers      map[string]int `json:"answers"`
	Status       ResponseStatus `json:"status"`
	SubmittedAt  time.Time      `json:"submitted_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at,omitempty"`
}

// CloneAnswers returns an independent copy of the answer map.
func (r *SurveyResponse) CloneAnswers() map[string]int {
	out := make(map[string]int, len(r.Answers))
	for k, v := range r.Answers {
		out[k] = v
	}
	return out
}

// ResponseSnapshot is an audit record of a response at the moment of a
// create/update/submit/reopen action.
type ResponseSnapshot struct {
	ID         string         `json:"id"`
	ResponseID string         `json:"response_id"`
	Action     string         `json:"action"`
	Answers    map[string]int `json:"answers"`
	CreatedAt  time.Time      `json:"created_at"`
}

// DepartmentalData is the admin-entered per-faculty-per-year record of
// evaluation completion and teaching awards. CCC membership lives on
// FacultyMember because it persists year to year.
type DepartmentalData struct {
	FacultyEmail string `json:"faculty_email"`
	YearCode     string `json:"year_code"`

	NewInnovations bool `json:"new_innovations"`
	MyTIPWinner    bool `json:"mytip_winner"`
	MyTIPCount     int  `json:"mytip_count"`

	TeachingTop25    bool `json:"teaching_top_25"`
	Teaching6525     bool `json:"teaching_65_25"`
	TeacherOfYear    bool `json:"teacher_of_year"`
	HonorableMention bool `json:"honorable_mention"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ImportBatch is the audit record of one REDCap CSV import.
type ImportBatch struct {
	ID              string    `json:"id"`
	YearCode        string    `json:"year_code"`
	Filename        string    `json:"filename"`
	ImportedBy      string    `json:"imported_by,omitempty"`
	FacultyCount    int       `json:"faculty_count"`
	ActivityCount   int       `json:"activity_count"`
	UnmatchedEmails []string  `json:"unmatched_emails,omitempty"`
	ImportedAt      time.Time `json:"imported_at"`
}

// EmailLogEntry is the audit trail for emails handed to the external
// mail collaborator.
type EmailLogEntry struct {
	ID           string    `json:"id"`
	InvitationID string    `json:"invitation_id"`
	EmailType    string    `json:"email_type"` // invitation | reminder | confirmation
	Recipient    string    `json:"recipient"`
	Subject      string    `json:"subject"`
	Status       string    `json:"status"` // sent | failed | bounced
	ErrorMessage string    `json:"error_message,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

type AuditEntry struct {
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}

// User is an administrator account for the reporting UI.
type User struct {
	ID        string
	Email     string
	PassHash  []byte
	Role      string
	CreatedAt time.Time
}

// UserRoleAdmin is the only role today; the field exists so read-only
// reviewer accounts can be added without a schema change.
const UserRoleAdmin = "admin"

// CurrentYearCode derives the "YY-YY" academic year code for the
// July-June cycle containing now.
func CurrentYearCode(now time.Time) string {
	start := now.Year()
	if now.Month() < time.July {
		start--
	}
	return fmt.Sprintf("%02d-%02d", start%100, (start+1)%100)
}

// YearBounds returns July 1 and June 30 for the cycle starting in
// startYear.
func YearBounds(startYear int) (time.Time, time.Time) {
	return time.Date(startYear, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(startYear+1, time.June, 30, 0, 0, 0, 0, time.UTC)
}
