package dashboard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-engine/internal/config"
	"github.com/sells-group/esg-engine/internal/esg"
	"github.com/sells-group/esg-engine/internal/model"
)

// Input is everything a view model depends on.
type Input struct {
	Firms       []model.Firm                     `json:"firms"`
	Assessments map[string][]model.RawAssessment `json:"assessments"`
	Filters     Filters                          `json:"filters"`
	Scoring     config.ScoringConfig             `json:"scoring"`
	Dimensions  []Dimension                      `json:"dimensions,omitempty"`
}

// ContentHash returns the hex SHA-256 of the input's JSON encoding. Map keys
// are encoded sorted, so equal inputs hash equally.
func ContentHash(in Input) (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", eris.Wrap(err, "dashboard: hash input")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Memo caches the last computed view model. It recomputes only when the
// content hash of the input changes and is safe for concurrent use.
type Memo struct {
	mu     sync.Mutex
	hash   string
	vm     *ViewModel
	hits   int
	misses int
}

// Get returns the cached view model for in, computing it on a miss.
func (m *Memo) Get(in Input) (*ViewModel, error) {
	hash, err := ContentHash(in)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vm != nil && m.hash == hash {
		m.hits++
		return m.vm, nil
	}
	m.misses++

	vm := ComputeDashboardViewModel(in.Firms, in.Assessments, in.Filters, esg.NewExtractor(in.Scoring), in.Dimensions...)
	vm.Hash = hash
	m.hash, m.vm = hash, vm
	return vm, nil
}

// Stats returns the hit and miss counts.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

// Reset drops the cached view model.
func (m *Memo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hash, m.vm = "", nil
}
