package services

import (
	"strings"
	"time"
)

// Placeholder fields the external mail collaborator substitutes into
// campaign email bodies.
const (
	PlaceholderFirstName  = "{first_name}"
	PlaceholderLastName   = "{last_name}"
	PlaceholderSurveyLink = "{survey_link}"
	PlaceholderDeadline   = "{deadline}"
	PlaceholderStatus     = "{status}"
)

const (
	defaultInvitationSubject = "Faculty Achievement Survey - {deadline} deadline"
	defaultInvitationBody    = "Dear {first_name} {last_name},\n\n" +
		"Please complete your quarterly achievement survey by {deadline}:\n\n{survey_link}\n\n" +
		"Your submission feeds your annual point summary.\n"
	defaultReminderSubject = "Reminder: achievement survey closes {deadline}"
	defaultReminderBody    = "Dear {first_name} {last_name},\n\n" +
		"Your survey is currently marked: {status}.\n" +
		"The submission window closes {deadline}:\n\n{survey_link}\n"
)

// EmailFields are the computed placeholder values for one invitation.
type EmailFields struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	SurveyLink string `json:"survey_link"`
	Deadline   string `json:"deadline"`
	Status     string `json:"status"`
}

// InvitationStatusLabel is the human-readable status used for the
// {status} placeholder.
func InvitationStatusLabel(inv *SurveyInvitation) string {
	switch {
	case !inv.SubmittedAt.IsZero():
		return "Submitted"
	case !inv.FirstAccessedAt.IsZero():
		return "In Progress"
	default:
		return "Not Started"
	}
}

// BuildEmailFields computes the placeholder values for an invitation.
// baseURL is the portal origin, e.g. "https://points.example.edu".
func BuildEmailFields(fm *FacultyMember, inv *SurveyInvitation, campaign *SurveyCampaign, baseURL string) EmailFields {
	return EmailFields{
		FirstName:  fm.FirstName,
		LastName:   fm.LastName,
		SurveyLink: strings.TrimRight(baseURL, "/") + "/survey/" + inv.Token,
		Deadline:   campaign.ClosesAt.Format("January 2, 2006"),
		Status:     InvitationStatusLabel(inv),
	}
}

// RenderEmailTemplate substitutes the placeholder fields into tmpl.
// Unknown placeholders are left verbatim so typos are visible in the
// preview rather than silently dropped.
func RenderEmailTemplate(tmpl string, f EmailFields) string {
	r := strings.NewReplacer(
		PlaceholderFirstName, f.FirstName,
		PlaceholderLastName, f.LastName,
		PlaceholderSurveyLink, f.SurveyLink,
		PlaceholderDeadline, f.Deadline,
		PlaceholderStatus, f.Status,
	)
	return r.Replace(tmpl)
}

// InvitationEmail renders the subject and body for the initial
// invitation, falling back to the stock template when the campaign has
// no custom one.
func InvitationEmail(fm *FacultyMember, inv *SurveyInvitation, campaign *SurveyCampaign, baseURL string) (subject, body string) {
	f := BuildEmailFields(fm, inv, campaign, baseURL)
	subject = campaign.EmailSubject
	if subject == "" {
		subject = defaultInvitationSubject
	}
	body = campaign.EmailBody
	if body == "" {
		body = defaultInvitationBody
	}
	return RenderEmailTemplate(subject, f), RenderEmailTemplate(body, f)
}

// ReminderEmail renders the reminder subject and body.
func ReminderEmail(fm *FacultyMember, inv *SurveyInvitation, campaign *SurveyCampaign, baseURL string) (subject, body string) {
	f := BuildEmailFields(fm, inv, campaign, baseURL)
	subject = campaign.ReminderSubject
	if subject == "" {
		subject = defaultReminderSubject
	}
	body = campaign.ReminderBody
	if body == "" {
		body = defaultReminderBody
	}
	return RenderEmailTemplate(subject, f), RenderEmailTemplate(body, f)
}

// DeadlinePassed reports whether the campaign deadline is behind now,
// for the mailer to suppress stale reminders.
func DeadlinePassed(now time.Time, campaign *SurveyCampaign) bool {
	return now.After(campaign.ClosesAt)
}
