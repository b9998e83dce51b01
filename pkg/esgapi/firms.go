package esgapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/model"
	"github.com/sells-group/esg-engine/internal/resilience"
)

// maxPages bounds pagination against a backend that never stops.
const maxPages = 10000

type firmPage struct {
	Data     []model.Firm `json:"data"`
	NextPage *int         `json:"next_page"`
}

type assessmentPage struct {
	Data []model.RawAssessment `json:"data"`
}

// ListFirms implements Client.
func (c *client) ListFirms(ctx context.Context) ([]model.Firm, error) {
	var firms []model.Firm
	page := 1
	for range maxPages {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))

		var p firmPage
		if err := c.getJSON(ctx, "esgapi: list firms", "/firms", q, &p); err != nil {
			return nil, err
		}
		firms = append(firms, p.Data...)

		if p.NextPage == nil || *p.NextPage <= page || len(p.Data) == 0 {
			zap.L().Debug("esgapi: firms listed", zap.Int("firms", len(firms)), zap.Int("pages", page))
			return firms, nil
		}
		page = *p.NextPage
	}
	return nil, eris.Errorf("esgapi: list firms: more than %d pages", maxPages)
}

// GetFirm implements Client.
func (c *client) GetFirm(ctx context.Context, id string) (*model.Firm, error) {
	var f model.Firm
	err := c.getJSON(ctx, "esgapi: get firm", "/firms/"+url.PathEscape(id), nil, &f)
	if err != nil {
		var se *resilience.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// ListAssessments implements Client.
func (c *client) ListAssessments(ctx context.Context, firmID string, yearFrom, yearTo int) ([]model.RawAssessment, error) {
	q := url.Values{}
	if yearFrom > 0 {
		q.Set("year_from", strconv.Itoa(yearFrom))
	}
	if yearTo > 0 {
		q.Set("year_to", strconv.Itoa(yearTo))
	}

	var p assessmentPage
	path := "/firms/" + url.PathEscape(firmID) + "/assessments"
	if err := c.getJSON(ctx, "esgapi: list assessments", path, q, &p); err != nil {
		return nil, eris.Wrapf(err, "esgapi: firm %s", firmID)
	}
	for i := range p.Data {
		if p.Data[i].FirmID == "" {
			p.Data[i].FirmID = firmID
		}
	}
	return p.Data, nil
}

// getJSON issues a rate-limited GET with retries and decodes the body into out.
func (c *client) getJSON(ctx context.Context, op, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, op+": rate limit")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, eris.Wrap(err, op+": create request")
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, op+": request")
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, op+": read response")
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &resilience.StatusError{Op: op, StatusCode: resp.StatusCode, Body: truncate(string(data), 200)}
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, op+": decode response")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
