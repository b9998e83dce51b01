package store

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-engine/internal/model"
)

func toFirmRow(f model.Firm) (firmRow, error) {
	if strings.TrimSpace(f.ID) == "" {
		return firmRow{}, eris.New("store: firm without id")
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return firmRow{}, eris.Wrapf(err, "store: marshal firm %s", f.ID)
	}
	return firmRow{
		id:       f.ID,
		name:     f.Name,
		sector:   f.Sector,
		industry: f.Industry,
		size:     f.BusinessSize,
		location: f.Location(),
		payload:  payload,
	}, nil
}

// toAssessmentRows assigns ids to assessments that lack one and records
// their position.
func toAssessmentRows(firmID string, assessments []model.RawAssessment) ([]assessmentRow, error) {
	out := make([]assessmentRow, 0, len(assessments))
	for i, a := range assessments {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.FirmID == "" {
			a.FirmID = firmID
		}
		payload, err := json.Marshal(a)
		if err != nil {
			return nil, eris.Wrapf(err, "store: marshal assessment %s", a.ID)
		}
		row := assessmentRow{id: a.ID, firmID: firmID, seq: i, payload: payload}
		if y, ok := a.ReportingYear(); ok {
			row.year = &y
		}
		out = append(out, row)
	}
	return out, nil
}

func decodeFirm(payload []byte) (model.Firm, error) {
	var f model.Firm
	if err := json.Unmarshal(payload, &f); err != nil {
		return f, eris.Wrap(err, "store: unmarshal firm")
	}
	return f, nil
}

func decodeAssessment(payload []byte) (model.RawAssessment, error) {
	var a model.RawAssessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return a, eris.Wrap(err, "store: unmarshal assessment")
	}
	return a, nil
}
