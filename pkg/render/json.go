package render

import (
	"encoding/json"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/router"
)

// Report is the JSON document produced for a routed board.
type Report struct {
	Board    *router.Snapshot `json:"board"`
	Outcomes []ReportOutcome  `json:"outcomes"`
	Summary  Summary          `json:"summary"`
}

// ReportOutcome is a router.Outcome with its error flattened to strings.
type ReportOutcome struct {
	router.Outcome
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Summary counts outcomes by status.
type Summary struct {
	Routed           int     `json:"routed"`
	AlreadyConnected int     `json:"already_connected"`
	Failed           int     `json:"failed"`
	TotalLength      float64 `json:"total_length"`
	Nets             int     `json:"nets"`
}

// NewReport assembles a report from a snapshot and the outcomes that led to it.
func NewReport(snap *router.Snapshot, outcomes []router.Outcome) *Report {
	rep := &Report{Board: snap, Outcomes: make([]ReportOutcome, 0, len(outcomes))}
	for _, o := range outcomes {
		ro := ReportOutcome{Outcome: o}
		if o.Err != nil {
			ro.Code = string(errors.GetCode(o.Err))
			ro.Error = errors.UserMessage(o.Err)
		}
		rep.Outcomes = append(rep.Outcomes, ro)

		switch o.Status {
		case router.StatusRouted:
			rep.Summary.Routed++
			rep.Summary.TotalLength += o.Length
		case router.StatusAlreadyConnected:
			rep.Summary.AlreadyConnected++
		case router.StatusFailed:
			rep.Summary.Failed++
		}
	}
	rep.Summary.Nets = len(snap.Nets)
	return rep
}

// RenderJSON encodes the report with indentation.
func RenderJSON(rep *Report) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode report")
	}
	return data, nil
}
