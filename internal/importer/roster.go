// Package importer loads firm rosters (xlsx or csv) and assessment
// snapshots (JSON) and writes them to the store.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-engine/internal/model"
	"github.com/sells-group/esg-engine/internal/store"
)

// Roster is the result of reading a firm roster. Rows that could not become
// a firm are listed in Rejected with their 1-based sheet row.
type Roster struct {
	Firms    []model.Firm
	Rejected []store.ImportError
}

// headerAliases maps normalized header text to a firm field.
var headerAliases = map[string]string{
	"id":               "id",
	"firm_id":          "id",
	"firmid":           "id",
	"firm":             "name",
	"name":             "name",
	"firm_name":        "name",
	"company":          "name",
	"email":            "email",
	"sector":           "sector",
	"industry":         "industry",
	"business_size":    "business_size",
	"size":             "business_size",
	"location":         "location",
	"address_location": "address_location",
	"street":           "street",
	"city":             "city",
	"created_at":       "created_at",
}

// ReadRoster reads a roster file, choosing the parser by extension.
func ReadRoster(path string) (Roster, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = ReadXLSX(path, XLSXOptions{})
	case ".csv":
		rows, err = ReadCSV(path)
	default:
		return Roster{}, eris.Errorf("importer: unsupported roster format %q", filepath.Ext(path))
	}
	if err != nil {
		return Roster{}, err
	}
	return ParseRoster(rows)
}

// ParseRoster maps header-led rows to firms. The header must name an id
// column; unknown columns are ignored. Blank rows are skipped silently.
func ParseRoster(rows [][]string) (Roster, error) {
	if len(rows) == 0 {
		return Roster{}, eris.New("importer: roster is empty")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		if field, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	if _, ok := cols["id"]; !ok {
		return Roster{}, eris.New("importer: roster header has no id column")
	}

	var out Roster
	seen := make(map[string]int)
	for i, row := range rows[1:] {
		rowNum := i + 2
		get := func(field string) string {
			idx, ok := cols[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if isBlank(row) {
			continue
		}

		f := model.Firm{
			ID:           get("id"),
			Name:         get("name"),
			Email:        get("email"),
			Sector:       get("sector"),
			Industry:     get("industry"),
			BusinessSize: get("business_size"),
			LocationName: get("location"),
			CreatedAt:    get("created_at"),
		}
		if loc, street, city := get("address_location"), get("street"), get("city"); loc != "" || street != "" || city != "" {
			f.Address = &model.Address{Location: loc, Street: street, City: city}
		}

		if f.ID == "" {
			out.Rejected = append(out.Rejected, store.ImportError{Row: rowNum, Reason: "missing firm id"})
			continue
		}
		if prev, ok := seen[f.ID]; ok {
			out.Rejected = append(out.Rejected, store.ImportError{
				Row:    rowNum,
				FirmID: f.ID,
				Reason: fmt.Sprintf("duplicate firm id (first on row %d)", prev),
			})
			continue
		}
		seen[f.ID] = rowNum
		out.Firms = append(out.Firms, f)
	}
	return out, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(h)
	return h
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
