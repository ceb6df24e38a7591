package services

import (
	"strings"

	"github.com/diewo77/dealflow/internal/models"
)

// ProposalFilter narrows Search. Empty fields match everything.
type ProposalFilter struct {
	Status string
	// Query matches the title or the client name, ignoring case.
	Query string
}

// Stats summarizes the aggregate for the dashboard.
type Stats struct {
	TotalProposals int
	TotalClients   int
	AcceptedCount  int
	AcceptedValue  float64
	ByStatus       map[models.Status]int
}

// Search returns the proposals matching f in registry order. An unknown
// status in the filter is reported as models.ErrInvalidStatus.
func (s *ProposalService) Search(f ProposalFilter) ([]*models.Proposal, error) {
	var status models.Status
	if strings.TrimSpace(f.Status) != "" {
		parsed, err := models.ParseStatus(f.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var out []*models.Proposal
	for _, p := range s.mgr.Proposals() {
		if status != "" && p.Status() != status {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func matchesQuery(p *models.Proposal, query string) bool {
	if strings.Contains(strings.ToLower(p.Title), query) {
		return true
	}
	return p.Client != nil && strings.Contains(strings.ToLower(p.Client.Name), query)
}

// Dashboard counts proposals per status and sums the grand totals of the
// accepted ones.
func (s *ProposalService) Dashboard() Stats {
	proposals := s.mgr.Proposals()
	st := Stats{
		TotalProposals: len(proposals),
		TotalClients:   len(s.mgr.Clients()),
		ByStatus:       make(map[models.Status]int, len(models.Statuses())),
	}
	for _, status := range models.Statuses() {
		st.ByStatus[status] = 0
	}
	for _, p := range proposals {
		st.ByStatus[p.Status()]++
		if p.Status() == models.StatusAccepted {
			st.AcceptedCount++
			st.AcceptedValue += p.GrandTotal()
		}
	}
	return st
}
