package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// ExportService renders admin-facing CSV reports. It reads through the
// calculator and campaign store; it never mutates anything.
type ExportService struct {
	store      CalculatorStore
	calculator *PointsCalculator
}

func NewExportService(store CalculatorStore, calculator *PointsCalculator) *ExportService {
	return &ExportService{store: store, calculator: calculator}
}

var pointsSummaryHeader = []string{
	"surname", "given_name", "division",
	"survey_points", "departmental_points", "total_points",
}

// WritePointsSummary writes the year's per-faculty totals, one row per
// active member, ordered by surname ascending (given name breaks
// ties). Members whose calculation failed are omitted and returned so
// the caller can report them next to the download.
func (s *ExportService) WritePointsSummary(w io.Writer, yearCode string, opts CalcOptions) ([]CalcError, error) {
	breakdowns, failed, err := s.calculator.CalculateAll(yearCode, opts)
	if err != nil {
		return nil, err
	}

	type row struct {
		fm *FacultyMember
		bd *PointsBreakdown
	}
	rows := make([]row, 0, len(breakdowns))
	for _, bd := range breakdowns {
		fm, err := s.store.GetFacultyMember(bd.FacultyEmail)
		if err != nil {
			return failed, err
		}
		if fm == nil {
			continue
		}
		rows = append(rows, row{fm: fm, bd: bd})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].fm.LastName != rows[j].fm.LastName {
			return rows[i].fm.LastName < rows[j].fm.LastName
		}
		return rows[i].fm.FirstName < rows[j].fm.FirstName
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(pointsSummaryHeader); err != nil {
		return failed, err
	}
	for _, r := range rows {
		rec := []string{
			r.fm.LastName,
			r.fm.FirstName,
			r.fm.Division,
			strconv.Itoa(r.bd.Survey),
			strconv.Itoa(r.bd.Departmental),
			strconv.Itoa(r.bd.Total),
		}
		if err := cw.Write(rec); err != nil {
			return failed, err
		}
	}
	cw.Flush()
	return failed, cw.Error()
}

// WriteCampaignResponses writes one row per invitation for a campaign:
// identity, response status, submission time, and each answered
// trigger as "key=count" pairs in a trailing column. Admins use it to
// eyeball a quarter before closing it.
func (s *ExportService) WriteCampaignResponses(w io.Writer, campaign *SurveyCampaign) error {
	if campaign == nil {
		return NewNotFoundError("campaign not found")
	}
	roster, err := s.store.ListActiveFaculty()
	if err != nil {
		return err
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].LastName != roster[j].LastName {
			return roster[i].LastName < roster[j].LastName
		}
		return roster[i].FirstName < roster[j].FirstName
	})

	cw := csv.NewWriter(w)
	header := []string{"surname", "given_name", "email", "status", "submitted_at", "answers"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, fm := range roster {
		inv, err := s.store.GetInvitation(campaign.ID, fm.Email)
		if err != nil {
			return err
		}
		if inv == nil {
			continue
		}
		status := string(ResponseNotStarted)
		submitted := ""
		answers := ""
		resp, err := s.store.GetResponseByInvitation(inv.ID)
		if err != nil {
			return err
		}
		if resp != nil {
			status = string(resp.Status)
			if !resp.SubmittedAt.IsZero() {
				submitted = resp.SubmittedAt.UTC().Format("2006-01-02 15:04:05")
			}
			answers = formatAnswers(resp.Answers)
		}
		rec := []string{fm.LastName, fm.FirstName, fm.Email, status, submitted, answers}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatAnswers renders non-zero counts as "key=count; ..." in key
// order, so identical answer sets always export the same cell.
func formatAnswers(answers map[string]int) string {
	keys := make([]string, 0, len(answers))
	for k, v := range answers {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s=%d", k, answers[k])
	}
	return out
}
