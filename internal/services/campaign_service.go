package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CampaignState is derived from the clock and the campaign window at
// access time. There is no background job flipping a stored flag.
type CampaignState string

const (
	CampaignScheduled CampaignState = "scheduled"
	CampaignOpen      CampaignState = "open"
	CampaignClosed    CampaignState = "closed"
)

// CampaignStateAt is the pure transition function of the campaign
// window. Deactivated campaigns report closed regardless of dates.
func CampaignStateAt(now time.Time, c *SurveyCampaign) CampaignState {
	if !c.IsActive {
		return CampaignClosed
	}
	switch {
	case now.Before(c.OpensAt):
		return CampaignScheduled
	case now.After(c.ClosesAt):
		return CampaignClosed
	default:
		return CampaignOpen
	}
}

var validQuarters = map[string]bool{
	"Q1": true, "Q2": true, "Q3": true, "Q4": true,
	"Q1-Q2": true, // kept for campaigns created before quarterly cadence
}

// CampaignStore abstracts persistence operations required by
// CampaignService.
type CampaignStore interface {
	GetAcademicYear(code string) (*AcademicYear, error)
	GetCampaign(id string) (*SurveyCampaign, error)
	GetCampaignByYearQuarter(yearCode, quarter string) (*SurveyCampaign, error)
	InsertCampaign(c *SurveyCampaign) (*SurveyCampaign, error)
	UpdateCampaign(c *SurveyCampaign) error

	GetInvitation(campaignID, facultyEmail string) (*SurveyInvitation, error)
	GetInvitationByID(id string) (*SurveyInvitation, error)
	GetInvitationByToken(token string) (*SurveyInvitation, error)
	InsertInvitation(inv *SurveyInvitation) (*SurveyInvitation, error)
	UpdateInvitation(inv *SurveyInvitation) error
	ListInvitationsByCampaign(campaignID string) ([]*SurveyInvitation, error)

	GetResponseByInvitation(invitationID string) (*SurveyResponse, error)
	InsertResponse(r *SurveyResponse) (*SurveyResponse, error)
	// UpdateResponse swaps the whole record atomically; a partial edit
	// must never leave an answer set half-written.
	UpdateResponse(r *SurveyResponse) error
	AddResponseSnapshot(s *ResponseSnapshot)

	GetFacultyMember(email string) (*FacultyMember, error)
	ListActiveFaculty() ([]*FacultyMember, error)

	AddEmailLog(e *EmailLogEntry)
	AddAudit(entry AuditEntry)
}

// CampaignService hosts the survey period lifecycle: campaign windows,
// invitation issuance, and the draft/submit transitions on responses.
type CampaignService struct {
	store    CampaignStore
	resolver *PointsResolver
	now      func() time.Time
	idGen    func() string
	tokenGen func() string
}

func NewCampaignService(store CampaignStore, resolver *PointsResolver) *CampaignService {
	return &CampaignService{
		store:    store,
		resolver: resolver,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
		tokenGen: func() string { return generateToken(32) },
	}
}

func generateToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; an empty
		// token is rejected downstream rather than panicking here.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// CreateCampaign opens a new submission window for a year and quarter.
// One campaign per year/quarter pair.
func (s *CampaignService) CreateCampaign(c *SurveyCampaign) (*SurveyCampaign, error) {
	if c == nil {
		return nil, NewInvalidError("campaign required")
	}
	if c.YearCode == "" || !validQuarters[c.Quarter] {
		return nil, NewInvalidError("year code and a valid quarter are required")
	}
	if y, err := s.store.GetAcademicYear(c.YearCode); err != nil {
		return nil, err
	} else if y == nil {
		return nil, NewNotFoundError(fmt.Sprintf("academic year %s not found", c.YearCode))
	}
	if !c.ClosesAt.After(c.OpensAt) {
		return nil, NewInvalidError("campaign close date must be after open date")
	}
	if existing, err := s.store.GetCampaignByYearQuarter(c.YearCode, c.Quarter); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, NewConflictError(fmt.Sprintf("campaign for %s %s already exists", c.YearCode, c.Quarter))
	}

	now := s.now()
	c.ID = s.idGen()
	c.IsActive = true
	if c.Name == "" {
		c.Name = fmt.Sprintf("AY %s %s Survey", c.YearCode, c.Quarter)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	stored, err := s.store.InsertCampaign(c)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		c = stored
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: c.CreatedBy, Action: "campaign_create", Target: c.ID, Note: c.Name})
	return c, nil
}

// Invite issues invitations for every active roster member who does
// not yet hold one under the campaign. Each invitation carries its own
// URL-safe token.
func (s *CampaignService) Invite(campaignID, actor string) ([]*SurveyInvitation, error) {
	campaign, err := s.requireCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.ListActiveFaculty()
	if err != nil {
		return nil, err
	}
	now := s.now()
	var created []*SurveyInvitation
	for _, fm := range roster {
		existing, err := s.store.GetInvitation(campaign.ID, fm.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		inv := &SurveyInvitation{
			ID:           s.idGen(),
			CampaignID:   campaign.ID,
			FacultyEmail: fm.Email,
			Token:        s.tokenGen(),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if inv.Token == "" {
			return nil, NewInvalidError("token generation failed")
		}
		stored, err := s.store.InsertInvitation(inv)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			inv = stored
		}
		created = append(created, inv)
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor, Action: "campaign_invite", Target: campaign.ID, Note: fmt.Sprintf("%d invitations", len(created))})
	return created, nil
}

// MarkEmailSent stamps an invitation after the external mailer reports
// delivery, and records the audit log row the mailer hands back.
func (s *CampaignService) MarkEmailSent(invitationID, emailType, subject, status, errMsg string) error {
	inv, err := s.requireInvitationByID(invitationID)
	if err != nil {
		return err
	}
	now := s.now()
	switch emailType {
	case "invitation":
		inv.EmailSentAt = now
	case "reminder":
		inv.ReminderSentAt = now
	case "confirmation":
		// confirmation sends do not change invitation timestamps
	default:
		return NewInvalidError("unknown email type " + emailType)
	}
	inv.UpdatedAt = now
	if err := s.store.UpdateInvitation(inv); err != nil {
		return err
	}
	s.store.AddEmailLog(&EmailLogEntry{
		ID:           s.idGen(),
		InvitationID: inv.ID,
		EmailType:    emailType,
		Recipient:    inv.FacultyEmail,
		Subject:      subject,
		Status:       status,
		ErrorMessage: errMsg,
		SentAt:       now,
	})
	return nil
}

// PortalView is what the faculty portal renders after token access.
type PortalView struct {
	Campaign      *SurveyCampaign   `json:"campaign"`
	CampaignState CampaignState     `json:"campaign_state"`
	Invitation    *SurveyInvitation `json:"invitation"`
	Faculty       *FacultyMember    `json:"faculty"`
	Response      *SurveyResponse   `json:"response"`
	Config        *SurveyConfig     `json:"config,omitempty"`
}

// OpenPortal resolves an invitation token, stamps first access, and
// auto-creates the empty draft on first visit to an open campaign.
// Closed campaigns stay readable; only mutation is gated.
func (s *CampaignService) OpenPortal(token string, config *ConfigService) (*PortalView, error) {
	inv, campaign, err := s.requireInvitation(token)
	if err != nil {
		return nil, err
	}
	fm, err := s.store.GetFacultyMember(inv.FacultyEmail)
	if err != nil {
		return nil, err
	}
	now := s.now()
	state := CampaignStateAt(now, campaign)

	resp, err := s.store.GetResponseByInvitation(inv.ID)
	if err != nil {
		return nil, err
	}
	if state == CampaignOpen {
		if inv.FirstAccessedAt.IsZero() {
			inv.FirstAccessedAt = now
			inv.UpdatedAt = now
			if err := s.store.UpdateInvitation(inv); err != nil {
				return nil, err
			}
		}
		if resp == nil {
			resp = &SurveyResponse{
				ID:           s.idGen(),
				InvitationID: inv.ID,
				Answers:      map[string]int{},
				Status:       ResponseDraft,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			stored, err := s.store.InsertResponse(resp)
			if err != nil {
				return nil, err
			}
			if stored != nil {
				resp = stored
			}
			s.snapshot(resp, "create", now)
		}
	}

	view := &PortalView{Campaign: campaign, CampaignState: state, Invitation: inv, Faculty: fm, Response: resp}
	if config != nil {
		cfg, err := config.Resolve(campaign.YearCode)
		if err != nil {
			return nil, err
		}
		view.Config = cfg
	}
	return view, nil
}

// SaveDraft replaces the invitation's answer set. Every edit persists
// immediately; there is no separate save step. Submitted responses
// must be reopened before editing.
func (s *CampaignService) SaveDraft(token string, answers map[string]int) (*SurveyResponse, error) {
	inv, campaign, err := s.requireInvitation(token)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if state := CampaignStateAt(now, campaign); state != CampaignOpen {
		return nil, NewCampaignClosedError(fmt.Sprintf("campaign %s is %s and not accepting changes", campaign.Name, state))
	}

	resp, err := s.store.GetResponseByInvitation(inv.ID)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Status == ResponseSubmitted {
		return nil, NewConflictError("response already submitted; reopen it to edit")
	}

	clean := make(map[string]int, len(answers))
	for k, v := range answers {
		k = strings.TrimSpace(k)
		if k == "" || v < 0 {
			return nil, NewInvalidError("answer keys must be non-empty and counts non-negative")
		}
		clean[k] = v
	}

	if resp == nil {
		resp = &SurveyResponse{
			ID:           s.idGen(),
			InvitationID: inv.ID,
			Answers:      clean,
			Status:       ResponseDraft,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		stored, err := s.store.InsertResponse(resp)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			resp = stored
		}
		s.snapshot(resp, "create", now)
		return resp, nil
	}

	resp.Answers = clean
	resp.Status = ResponseDraft
	resp.UpdatedAt = now
	if err := s.store.UpdateResponse(resp); err != nil {
		return nil, err
	}
	s.snapshot(resp, "update", now)
	return resp, nil
}

// Submit finalizes the response. The campaign must be open and every
// answered trigger must be priceable; an unresolvable key rejects the
// submission and leaves the response in draft.
func (s *CampaignService) Submit(token string) (*SurveyResponse, error) {
	inv, campaign, err := s.requireInvitation(token)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if state := CampaignStateAt(now, campaign); state != CampaignOpen {
		return nil, NewCampaignClosedError(fmt.Sprintf("campaign %s is %s and not accepting submissions", campaign.Name, state))
	}
	resp, err := s.store.GetResponseByInvitation(inv.ID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, NewNotFoundError("no draft to submit")
	}
	if resp.Status == ResponseSubmitted {
		return resp, nil
	}

	if _, err := s.resolver.ResolveAll(resp.Answers, campaign.YearCode); err != nil {
		return nil, err
	}

	resp.Status = ResponseSubmitted
	resp.SubmittedAt = now
	resp.UpdatedAt = now
	if err := s.store.UpdateResponse(resp); err != nil {
		return nil, err
	}
	inv.SubmittedAt = now
	inv.UpdatedAt = now
	if err := s.store.UpdateInvitation(inv); err != nil {
		return nil, err
	}
	s.snapshot(resp, "submit", now)
	s.store.AddAudit(AuditEntry{Time: now, Actor: inv.FacultyEmail, Action: "response_submit", Target: inv.ID})
	return resp, nil
}

// Reopen returns a submitted response to draft for further edits.
// Allowed only while the campaign remains open; re-submission is then
// required.
func (s *CampaignService) Reopen(token string) (*SurveyResponse, error) {
	inv, campaign, err := s.requireInvitation(token)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if state := CampaignStateAt(now, campaign); state != CampaignOpen {
		return nil, NewCampaignClosedError(fmt.Sprintf("campaign %s is %s; submissions can no longer be reopened", campaign.Name, state))
	}
	resp, err := s.store.GetResponseByInvitation(inv.ID)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Status != ResponseSubmitted {
		return nil, NewInvalidError("only submitted responses can be reopened")
	}
	resp.Status = ResponseDraft
	resp.SubmittedAt = time.Time{}
	resp.UpdatedAt = now
	if err := s.store.UpdateResponse(resp); err != nil {
		return nil, err
	}
	inv.SubmittedAt = time.Time{}
	inv.UpdatedAt = now
	if err := s.store.UpdateInvitation(inv); err != nil {
		return nil, err
	}
	s.snapshot(resp, "reopen", now)
	return resp, nil
}

// ReopenCampaign is the explicit admin override that extends a closed
// campaign's window. It is never an automatic transition and is always
// audit-logged with the actor.
func (s *CampaignService) ReopenCampaign(campaignID string, closesAt time.Time, actor string) (*SurveyCampaign, error) {
	campaign, err := s.requireCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !closesAt.After(now) {
		return nil, NewInvalidError("new close date must be in the future")
	}
	campaign.ClosesAt = closesAt
	campaign.IsActive = true
	campaign.UpdatedAt = now
	if err := s.store.UpdateCampaign(campaign); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor, Action: "campaign_reopen", Target: campaign.ID, Note: "closes " + closesAt.Format(time.RFC3339)})
	return campaign, nil
}

// SubmissionStats summarizes invitation progress for a campaign.
type SubmissionStats struct {
	Total          int     `json:"total"`
	Submitted      int     `json:"submitted"`
	InProgress     int     `json:"in_progress"`
	Pending        int     `json:"pending"`
	NotEmailed     int     `json:"not_emailed"`
	CompletionRate float64 `json:"completion_rate"`
}

func (s *CampaignService) Stats(campaignID string) (*SubmissionStats, error) {
	if _, err := s.requireCampaign(campaignID); err != nil {
		return nil, err
	}
	invs, err := s.store.ListInvitationsByCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	st := &SubmissionStats{Total: len(invs)}
	for _, inv := range invs {
		switch {
		case !inv.SubmittedAt.IsZero():
			st.Submitted++
		case !inv.FirstAccessedAt.IsZero():
			st.InProgress++
		default:
			st.Pending++
		}
		if inv.EmailSentAt.IsZero() {
			st.NotEmailed++
		}
	}
	if st.Total > 0 {
		st.CompletionRate = float64(st.Submitted) / float64(st.Total) * 100
	}
	return st, nil
}

func (s *CampaignService) snapshot(resp *SurveyResponse, action string, now time.Time) {
	s.store.AddResponseSnapshot(&ResponseSnapshot{
		ID:         s.idGen(),
		ResponseID: resp.ID,
		Action:     action,
		Answers:    resp.CloneAnswers(),
		CreatedAt:  now,
	})
}

func (s *CampaignService) requireCampaign(id string) (*SurveyCampaign, error) {
	if id == "" {
		return nil, NewInvalidError("campaign id required")
	}
	campaign, err := s.store.GetCampaign(id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, NewNotFoundError("campaign not found")
	}
	return campaign, nil
}

func (s *CampaignService) requireInvitation(token string) (*SurveyInvitation, *SurveyCampaign, error) {
	if token == "" {
		return nil, nil, NewInvalidError("token required")
	}
	inv, err := s.store.GetInvitationByToken(token)
	if err != nil {
		return nil, nil, err
	}
	if inv == nil {
		return nil, nil, NewNotFoundError("invitation not found")
	}
	campaign, err := s.store.GetCampaign(inv.CampaignID)
	if err != nil {
		return nil, nil, err
	}
	if campaign == nil {
		return nil, nil, NewNotFoundError("campaign not found")
	}
	return inv, campaign, nil
}

func (s *CampaignService) requireInvitationByID(id string) (*SurveyInvitation, error) {
	if id == "" {
		return nil, NewInvalidError("invitation id required")
	}
	inv, err := s.store.GetInvitationByID(id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, NewNotFoundError("invitation not found")
	}
	return inv, nil
}
