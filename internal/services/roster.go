package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// rankAliases normalizes the rank spellings found in Faculty
// Calculator exports.
var rankAliases = map[string]Rank{
	"instructor":          RankInstructor,
	"assistant professor": RankAssistant,
	"assistant":           RankAssistant,
	"associate professor": RankAssociate,
	"associate":           RankAssociate,
	"professor":           RankProfessor,
}

var contractAliases = map[string]ContractType{
	"academic":               ContractAcademic,
	"clinical":               ContractClinical,
	"early career (yrs 1-3)": ContractEarlyCareer,
	"early career":           ContractEarlyCareer,
	"early_career":           ContractEarlyCareer,
}

// NormalizeRank maps an export spelling to a Rank; unrecognized values
// normalize to empty rather than failing the row.
func NormalizeRank(v string) Rank {
	return rankAliases[strings.ToLower(strings.TrimSpace(v))]
}

func NormalizeContract(v string) ContractType {
	return contractAliases[strings.ToLower(strings.TrimSpace(v))]
}

// RosterRow is one parsed entry. The Has* flags distinguish "column
// absent" from an explicit false, so partial exports never flip flags
// on existing members.
type RosterRow struct {
	Email        string
	FirstName    string
	LastName     string
	Rank         Rank
	ContractType ContractType
	Division     string
	IsActive     bool
	HasActive    bool
	IsCCCMember  bool
	HasCCC       bool
}

// ParseRosterCSV reads a Faculty Calculator roster export. Headers are
// case-insensitive and may use spaces or underscores. Rows missing an
// email or either name part are skipped.
func ParseRosterCSV(r io.Reader) ([]RosterRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, NewInvalidError("roster CSV has no header row")
	}
	idx := map[string]int{}
	for i, h := range header {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))), " ", "_")
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	for _, required := range []string{"email", "first_name", "last_name"} {
		if _, ok := idx[required]; !ok {
			return nil, NewInvalidError(fmt.Sprintf("roster CSV missing required column %q", required))
		}
	}
	cell := func(rec []string, names ...string) (string, bool) {
		for _, n := range names {
			if i, ok := idx[n]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i]), true
			}
		}
		return "", false
	}

	var rows []RosterRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewInvalidError(fmt.Sprintf("roster CSV: %v", err))
		}
		email, _ := cell(rec, "email")
		first, _ := cell(rec, "first_name")
		last, _ := cell(rec, "last_name")
		if email == "" || first == "" || last == "" {
			continue
		}
		row := RosterRow{
			Email:     strings.ToLower(email),
			FirstName: first,
			LastName:  last,
		}
		if v, ok := cell(rec, "rank"); ok {
			row.Rank = NormalizeRank(v)
		}
		if v, ok := cell(rec, "contract_type"); ok {
			row.ContractType = NormalizeContract(v)
		}
		if v, ok := cell(rec, "division"); ok {
			row.Division = v
		}
		if v, ok := cell(rec, "is_active", "active"); ok && v != "" {
			row.IsActive = truthy(v)
			row.HasActive = true
		}
		if v, ok := cell(rec, "is_ccc_member", "ccc_member"); ok && v != "" {
			row.IsCCCMember = truthy(v)
			row.HasCCC = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1", "y":
		return true
	}
	return false
}

// RosterStore abstracts the persistence needed for roster imports.
type RosterStore interface {
	GetFacultyMember(email string) (*FacultyMember, error)
	InsertFacultyMember(fm *FacultyMember) error
	UpdateFacultyMember(fm *FacultyMember) error
	AddAudit(entry AuditEntry)
}

// RosterService imports and maintains the faculty roster.
type RosterService struct {
	store    RosterStore
	now      func() time.Time
	tokenGen func() string
}

func NewRosterService(store RosterStore) *RosterService {
	return &RosterService{
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		tokenGen: func() string { return generateToken(32) },
	}
}

// RosterImportStats summarizes one import. Errors are per-row; a bad
// row never aborts the batch.
type RosterImportStats struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Import upserts parsed roster rows. New members receive a portal
// token at creation so they can be invited without a separate step.
// With updateExisting false, rows for known emails are counted as
// skipped instead of overwriting.
func (s *RosterService) Import(rows []RosterRow, updateExisting bool, actor string) (*RosterImportStats, error) {
	stats := &RosterImportStats{}
	now := s.now()
	for _, row := range rows {
		existing, err := s.store.GetFacultyMember(row.Email)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", row.Email, err))
			continue
		}
		if existing != nil {
			if !updateExisting {
				stats.Skipped++
				continue
			}
			existing.FirstName = row.FirstName
			existing.LastName = row.LastName
			if row.Rank != "" {
				existing.Rank = row.Rank
			}
			if row.ContractType != "" {
				existing.ContractType = row.ContractType
			}
			if row.Division != "" {
				existing.Division = row.Division
			}
			if row.HasActive {
				existing.IsActive = row.IsActive
			}
			if row.HasCCC {
				existing.IsCCCMember = row.IsCCCMember
			}
			existing.UpdatedAt = now
			if err := s.store.UpdateFacultyMember(existing); err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", row.Email, err))
				continue
			}
			stats.Updated++
			continue
		}
		fm := &FacultyMember{
			Email:        row.Email,
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			Rank:         row.Rank,
			ContractType: row.ContractType,
			Division:     row.Division,
			IsActive:     true,
			PortalToken:  s.tokenGen(),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if row.HasActive {
			fm.IsActive = row.IsActive
		}
		if row.HasCCC {
			fm.IsCCCMember = row.IsCCCMember
		}
		if err := s.store.InsertFacultyMember(fm); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", row.Email, err))
			continue
		}
		stats.Created++
	}
	s.store.AddAudit(AuditEntry{
		Time:   now,
		Actor:  actor,
		Action: "roster_import",
		Note:   fmt.Sprintf("created=%d updated=%d skipped=%d errors=%d", stats.Created, stats.Updated, stats.Skipped, len(stats.Errors)),
	})
	return stats, nil
}
