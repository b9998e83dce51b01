package importer

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-engine/internal/model"
)

// Snapshot is a point-in-time export of firms and their assessments.
// Assessments keep the order they appear in, per firm.
type Snapshot struct {
	Firms       []model.Firm                     `json:"firms"`
	Assessments map[string][]model.RawAssessment `json:"assessments"`
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open snapshot %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadSnapshot(f)
}

// ReadSnapshot decodes a snapshot. "assessments" may be an object keyed by
// firm id or a flat array whose elements carry firm_id.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var raw struct {
		Firms       []model.Firm    `json:"firms"`
		Assessments json.RawMessage `json:"assessments"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "importer: decode snapshot")
	}

	snap := &Snapshot{Firms: raw.Firms, Assessments: make(map[string][]model.RawAssessment)}
	body := bytes.TrimSpace(raw.Assessments)
	switch {
	case len(body) == 0 || bytes.Equal(body, []byte("null")):
	case body[0] == '{':
		if err := json.Unmarshal(body, &snap.Assessments); err != nil {
			return nil, eris.Wrap(err, "importer: decode assessments by firm")
		}
		for firmID, list := range snap.Assessments {
			for i := range list {
				if list[i].FirmID == "" {
					list[i].FirmID = firmID
				}
			}
		}
	case body[0] == '[':
		var flat []model.RawAssessment
		if err := json.Unmarshal(body, &flat); err != nil {
			return nil, eris.Wrap(err, "importer: decode assessment list")
		}
		for _, a := range flat {
			snap.Assessments[a.FirmID] = append(snap.Assessments[a.FirmID], a)
		}
	default:
		return nil, eris.New("importer: assessments must be an object or an array")
	}
	return snap, nil
}
