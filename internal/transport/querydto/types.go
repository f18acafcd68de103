package querydto

import (
	"github.com/awmpietro/golang-bayes-inference-case/internal/app"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
)

type QueryRequest struct {
	Network        string         `json:"network" validate:"required,max=1048576"`
	Format         string         `json:"format,omitempty" validate:"omitempty,oneof=dot gv yaml yml"`
	Query          string         `json:"query" validate:"required,max=256"`
	Evidence       map[string]any `json:"evidence,omitempty" validate:"omitempty,dive,keys,required,max=256,endkeys"`
	NetworkID      string         `json:"network_id,omitempty" validate:"max=128"`
	NetworkVersion string         `json:"network_version,omitempty" validate:"max=128"`
	Debug          bool           `json:"debug,omitempty"`
}

func (r QueryRequest) ToApp() app.QueryRequest {
	return app.QueryRequest{
		Format:         r.Format,
		Network:        r.Network,
		Query:          r.Query,
		Evidence:       r.Evidence,
		NetworkID:      r.NetworkID,
		NetworkVersion: r.NetworkVersion,
		Debug:          r.Debug,
	}
}

type JointRequest struct {
	Network        string         `json:"network" validate:"required,max=1048576"`
	Format         string         `json:"format,omitempty" validate:"omitempty,oneof=dot gv yaml yml"`
	Assignment     map[string]any `json:"assignment" validate:"required,min=1,dive,keys,required,max=256,endkeys"`
	NetworkID      string         `json:"network_id,omitempty" validate:"max=128"`
	NetworkVersion string         `json:"network_version,omitempty" validate:"max=128"`
}

func (r JointRequest) ToApp() app.JointRequest {
	return app.JointRequest{
		Format:         r.Format,
		Network:        r.Network,
		Assignment:     r.Assignment,
		NetworkID:      r.NetworkID,
		NetworkVersion: r.NetworkVersion,
	}
}

type QueryResponse struct {
	Query        string             `json:"query"`
	Values       []string           `json:"values"`
	Distribution map[string]float64 `json:"distribution"`
	MostLikely   string             `json:"most_likely"`
	Trace        *bayes.QueryTrace  `json:"trace,omitempty"`
	Network      *app.NetworkInfo   `json:"network,omitempty"`
}

func NewQueryResponse(res *app.QueryResult) QueryResponse {
	best, _ := res.Posterior.MostLikely()
	return QueryResponse{
		Query:        res.Posterior.Variable,
		Values:       res.Posterior.Values,
		Distribution: res.Posterior.Map(),
		MostLikely:   best,
		Trace:        res.Trace,
		Network:      res.Network,
	}
}

type JointResponse struct {
	Probability float64          `json:"probability"`
	Network     *app.NetworkInfo `json:"network,omitempty"`
}

// ErrorBody is the 400 payload shared by every transport. kind is the
// error category ("structural", "cpt", "query") when there is one.
func ErrorBody(msg string, err error, trace *bayes.QueryTrace, info *app.NetworkInfo) map[string]any {
	body := map[string]any{
		"error":   msg,
		"details": err.Error(),
	}
	if kind := bayes.Kind(err); kind != "" {
		body["kind"] = kind
	}
	if trace != nil {
		body["trace"] = trace
	}
	if info != nil {
		body["network"] = info
	}
	return body
}

// QueryErrorBody is ErrorBody for a failed query, carrying whatever partial
// result the service returned.
func QueryErrorBody(err error, res *app.QueryResult) map[string]any {
	if res == nil {
		return ErrorBody("query failed", err, nil, nil)
	}
	return ErrorBody("query failed", err, res.Trace, res.Network)
}
