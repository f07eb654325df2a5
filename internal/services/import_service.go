package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Classification of one imported row against the existing record for
// the same faculty/year.
type Classification string

const (
	ImportNew       Classification = "new"
	ImportUpdated   Classification = "updated"
	ImportUnchanged Classification = "unchanged"
	// ImportReduced marks rows whose imported total is strictly lower
	// than the existing total, a signal of stale or erroneous external
	// data. Comparison is total-level only; a per-category shuffle
	// that nets the same total classifies as updated.
	ImportReduced Classification = "reduced"
)

// ImportRow is one parsed CSV line: identity columns plus the trigger
// counts recovered from the data-variable columns.
type ImportRow struct {
	Line      int            `json:"line"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Values    map[string]int `json:"values"`
}

// RejectedRow pairs an input row with the reason it left the batch.
// Rejections are per-row and never abort the rest of the import.
type RejectedRow struct {
	Row    ImportRow `json:"row"`
	Reason string    `json:"reason"`
	Err    error     `json:"-"`
}

// ImportRecord is the transient comparison unit: the existing answer
// set, the imported one, their priced totals, and the classification.
// It is never persisted; Apply materializes a survey response from it.
type ImportRecord struct {
	FacultyEmail   string         `json:"faculty_email"`
	YearCode       string         `json:"year_code"`
	OldValues      map[string]int `json:"old_values,omitempty"`
	NewValues      map[string]int `json:"new_values"`
	OldTotal       int            `json:"old_total"`
	NewTotal       int            `json:"new_total"`
	Classification Classification `json:"classification"`
}

// ParseResult carries the parsed rows plus column-level warnings
// (unmapped columns are skipped with a warning, never an error).
type ParseResult struct {
	Rows     []ImportRow `json:"rows"`
	Warnings []string    `json:"warnings,omitempty"`
}

// redcapIdentityColumns are recognized identity headers; everything
// else must be a registry data variable.
var redcapIdentityColumns = map[string]string{
	"email":         "email",
	"email_address": "email",
	"first_name":    "first",
	"last_name":     "last",
}

// ParseREDCapCSV reads a REDCap export: a header row of field names,
// one row per faculty. Data-variable columns map back to trigger keys
// through the inverse points mapping.
func ParseREDCapCSV(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, NewInvalidError("import CSV has no header row")
	}

	type column struct {
		identity string // "email" | "first" | "last" | ""
		trigger  string
	}
	cols := make([]column, len(header))
	res := &ParseResult{}
	for i, h := range header {
		name := strings.TrimSpace(h)
		lower := strings.ToLower(name)
		if id, ok := redcapIdentityColumns[lower]; ok {
			cols[i] = column{identity: id}
			continue
		}
		if trig, ok := CanonicalTriggerForVariable(name); ok {
			cols[i] = column{trigger: trig}
			continue
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("column %q is not a known data variable; ignored", name))
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewInvalidError(fmt.Sprintf("line %d: %v", line+1, err))
		}
		line++
		row := ImportRow{Line: line, Values: map[string]int{}}
		for i, cell := range rec {
			if i >= len(cols) {
				break
			}
			cell = strings.TrimSpace(cell)
			switch {
			case cols[i].identity == "email":
				row.Email = strings.ToLower(cell)
			case cols[i].identity == "first":
				row.FirstName = cell
			case cols[i].identity == "last":
				row.LastName = cell
			case cols[i].trigger != "" && cell != "":
				n, err := strconv.Atoi(cell)
				if err != nil || n < 0 {
					res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: bad count %q for %s; skipped", line, cell, cols[i].trigger))
					continue
				}
				if n > 0 {
					row.Values[cols[i].trigger] = n
				}
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// MatchRoster resolves each row to exactly one roster identity. Email
// matches are exact and case-insensitive; rows without an email fall
// back to a "last, first" name match. Zero or multiple name matches
// reject the row — the reconciler never guesses.
func MatchRoster(rows []ImportRow, roster []*FacultyMember) (matched []ImportRow, rejected []RejectedRow) {
	byEmail := map[string]*FacultyMember{}
	byName := map[string][]*FacultyMember{}
	for _, fm := range roster {
		byEmail[strings.ToLower(fm.Email)] = fm
		key := nameKey(fm.LastName, fm.FirstName)
		byName[key] = append(byName[key], fm)
	}
	for _, row := range rows {
		if row.Email != "" {
			if fm, ok := byEmail[row.Email]; ok {
				row.Email = fm.Email
				matched = append(matched, row)
			} else {
				rejected = append(rejected, RejectedRow{Row: row, Reason: "email not in roster"})
			}
			continue
		}
		candidates := byName[nameKey(row.LastName, row.FirstName)]
		switch len(candidates) {
		case 1:
			row.Email = candidates[0].Email
			matched = append(matched, row)
		case 0:
			rejected = append(rejected, RejectedRow{Row: row, Reason: "no roster match for name"})
		default:
			err := NewAmbiguousRowError(fmt.Sprintf("line %d: name %s, %s matches %d roster entries", row.Line, row.LastName, row.FirstName, len(candidates)))
			rejected = append(rejected, RejectedRow{Row: row, Reason: err.Error(), Err: err})
		}
	}
	return matched, rejected
}

func nameKey(last, first string) string {
	return strings.ToLower(strings.TrimSpace(last)) + "," + strings.ToLower(strings.TrimSpace(first))
}

// ExistingAnswers is the current answer set for one faculty/year,
// aggregated across that year's submitted responses.
type ExistingAnswers map[string]map[string]int // faculty email -> trigger -> count

// ImportReconciler classifies imported rows against existing records
// and applies the approved subset.
type ImportReconciler struct {
	store    ImportStore
	resolver *PointsResolver
	now      func() time.Time
	idGen    func() string
	tokenGen func() string
}

// ImportStore abstracts persistence operations required by
// ImportReconciler.
type ImportStore interface {
	ListActiveFaculty() ([]*FacultyMember, error)
	GetCampaign(id string) (*SurveyCampaign, error)
	ListCampaignsByYear(yearCode string) ([]*SurveyCampaign, error)
	GetInvitation(campaignID, facultyEmail string) (*SurveyInvitation, error)
	InsertInvitation(inv *SurveyInvitation) (*SurveyInvitation, error)
	GetResponseByInvitation(invitationID string) (*SurveyResponse, error)
	InsertResponse(r *SurveyResponse) (*SurveyResponse, error)
	UpdateResponse(r *SurveyResponse) error
	UpdateInvitation(inv *SurveyInvitation) error
	InsertImportBatch(b *ImportBatch) error
	AddAudit(entry AuditEntry)
}

func NewImportReconciler(store ImportStore, resolver *PointsResolver) *ImportReconciler {
	return &ImportReconciler{
		store:    store,
		resolver: resolver,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
		tokenGen: func() string { return generateToken(32) },
	}
}

// ExistingForYear aggregates the submitted answer sets for every
// faculty member in a year, the baseline a preview diffs against.
func (ir *ImportReconciler) ExistingForYear(yearCode string) (ExistingAnswers, error) {
	campaigns, err := ir.store.ListCampaignsByYear(yearCode)
	if err != nil {
		return nil, err
	}
	roster, err := ir.store.ListActiveFaculty()
	if err != nil {
		return nil, err
	}
	out := ExistingAnswers{}
	for _, fm := range roster {
		for _, campaign := range campaigns {
			inv, err := ir.store.GetInvitation(campaign.ID, fm.Email)
			if err != nil {
				return nil, err
			}
			if inv == nil {
				continue
			}
			resp, err := ir.store.GetResponseByInvitation(inv.ID)
			if err != nil {
				return nil, err
			}
			if resp == nil || resp.Status != ResponseSubmitted {
				continue
			}
			agg := out[fm.Email]
			if agg == nil {
				agg = map[string]int{}
				out[fm.Email] = agg
			}
			for k, v := range resp.Answers {
				agg[k] += v
			}
		}
	}
	return out, nil
}

// ReconcileIter walks the comparison lazily in input-row order. Each
// row is independent, so a caller can stop after reviewing a prefix,
// and re-running over the same inputs reproduces the same records.
type ReconcileIter struct {
	reconciler *ImportReconciler
	existing   ExistingAnswers
	yearCode   string
	rows       []ImportRow
	idx        int
	cur        *ImportRecord
	rejected   []RejectedRow
}

// Reconcile prepares a lazy diff of matched rows against the existing
// records. Rows that cannot be priced are rejected per-row during
// iteration, never failing the whole batch.
func (ir *ImportReconciler) Reconcile(existing ExistingAnswers, yearCode string, rows []ImportRow) *ReconcileIter {
	return &ReconcileIter{reconciler: ir, existing: existing, yearCode: yearCode, rows: rows}
}

// Next advances to the next classifiable record. It returns false when
// the input is exhausted.
func (it *ReconcileIter) Next() bool {
	for it.idx < len(it.rows) {
		row := it.rows[it.idx]
		it.idx++
		rec, err := it.reconciler.classify(it.existing, it.yearCode, row)
		if err != nil {
			it.rejected = append(it.rejected, RejectedRow{Row: row, Reason: err.Error(), Err: err})
			continue
		}
		it.cur = rec
		return true
	}
	it.cur = nil
	return false
}

// Record returns the current comparison unit; valid after Next
// reported true.
func (it *ReconcileIter) Record() *ImportRecord { return it.cur }

// Rejected lists the rows dropped so far, in input order.
func (it *ReconcileIter) Rejected() []RejectedRow { return it.rejected }

// Collect drains the iterator; convenience for full-batch previews.
func (it *ReconcileIter) Collect() []*ImportRecord {
	var out []*ImportRecord
	for it.Next() {
		out = append(out, it.Record())
	}
	return out
}

func (ir *ImportReconciler) classify(existing ExistingAnswers, yearCode string, row ImportRow) (*ImportRecord, error) {
	newTotal, err := ir.totalOf(row.Values, yearCode)
	if err != nil {
		return nil, err
	}
	rec := &ImportRecord{
		FacultyEmail: row.Email,
		YearCode:     yearCode,
		NewValues:    row.Values,
		NewTotal:     newTotal,
	}
	old, ok := existing[row.Email]
	if !ok || len(old) == 0 {
		rec.Classification = ImportNew
		return rec, nil
	}
	oldTotal, err := ir.totalOf(old, yearCode)
	if err != nil {
		return nil, err
	}
	rec.OldValues = old
	rec.OldTotal = oldTotal
	switch {
	case answersEqual(old, row.Values):
		rec.Classification = ImportUnchanged
	case newTotal < oldTotal:
		rec.Classification = ImportReduced
	default:
		rec.Classification = ImportUpdated
	}
	return rec, nil
}

func (ir *ImportReconciler) totalOf(values map[string]int, yearCode string) (int, error) {
	total := 0
	for key, count := range values {
		if count == 0 {
			continue
		}
		res, err := ir.resolver.Resolve(key, yearCode)
		if err != nil {
			return 0, err
		}
		total += clampAnswerCount(key, count) * res.Points
	}
	return total, nil
}

func answersEqual(a, b map[string]int) bool {
	if len(nonZero(a)) != len(nonZero(b)) {
		return false
	}
	for k, v := range a {
		if v != 0 && b[k] != v {
			return false
		}
	}
	return true
}

func nonZero(m map[string]int) map[string]int {
	out := map[string]int{}
	for k, v := range m {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// ApplyOptions control which classifications materialize. Unchanged
// records never apply; reduced records apply unless the caller opts
// out — some reductions are legitimate corrections, so the exclusion
// is caller-controlled, not automatic.
type ApplyOptions struct {
	ExcludeReduced bool
	Filename       string
	Actor          string
}

// Apply materializes the selected records as submitted responses under
// the target campaign. Imported data bypasses the draft stage.
func (ir *ImportReconciler) Apply(records []*ImportRecord, targetCampaignID string, opts ApplyOptions) (int, error) {
	campaign, err := ir.store.GetCampaign(targetCampaignID)
	if err != nil {
		return 0, err
	}
	if campaign == nil {
		return 0, NewNotFoundError("target campaign not found")
	}

	now := ir.now()
	applied := 0
	activities := 0
	for _, rec := range records {
		if rec == nil || rec.Classification == ImportUnchanged {
			continue
		}
		if opts.ExcludeReduced && rec.Classification == ImportReduced {
			continue
		}
		inv, err := ir.store.GetInvitation(campaign.ID, rec.FacultyEmail)
		if err != nil {
			return applied, err
		}
		if inv == nil {
			inv = &SurveyInvitation{
				ID:           ir.idGen(),
				CampaignID:   campaign.ID,
				FacultyEmail: rec.FacultyEmail,
				Token:        ir.tokenGen(),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			stored, err := ir.store.InsertInvitation(inv)
			if err != nil {
				return applied, err
			}
			if stored != nil {
				inv = stored
			}
		}
		resp, err := ir.store.GetResponseByInvitation(inv.ID)
		if err != nil {
			return applied, err
		}
		values := make(map[string]int, len(rec.NewValues))
		for k, v := range rec.NewValues {
			values[k] = v
		}
		if resp == nil {
			resp = &SurveyResponse{
				ID:           ir.idGen(),
				InvitationID: inv.ID,
				Answers:      values,
				Status:       ResponseSubmitted,
				SubmittedAt:  now,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if _, err := ir.store.InsertResponse(resp); err != nil {
				return applied, err
			}
		} else {
			resp.Answers = values
			resp.Status = ResponseSubmitted
			resp.SubmittedAt = now
			resp.UpdatedAt = now
			if err := ir.store.UpdateResponse(resp); err != nil {
				return applied, err
			}
		}
		inv.SubmittedAt = now
		inv.UpdatedAt = now
		if err := ir.store.UpdateInvitation(inv); err != nil {
			return applied, err
		}
		applied++
		activities += len(values)
	}

	batch := &ImportBatch{
		ID:            ir.idGen(),
		YearCode:      campaign.YearCode,
		Filename:      opts.Filename,
		ImportedBy:    opts.Actor,
		FacultyCount:  applied,
		ActivityCount: activities,
		ImportedAt:    now,
	}
	if err := ir.store.InsertImportBatch(batch); err != nil {
		return applied, err
	}
	ir.store.AddAudit(AuditEntry{Time: now, Actor: opts.Actor, Action: "import_apply", Target: campaign.ID, Note: fmt.Sprintf("%d records from %s", applied, opts.Filename)})
	return applied, nil
}
