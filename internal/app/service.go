package app

import (
	"fmt"
	"strings"

	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes/cache"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes/eval"
)

type Compiler interface {
	Compile(format, source string) (*bayes.Network, error)
}

type Engine interface {
	Query(n *bayes.Network, query string, evidence bayes.Assignment) (*bayes.Posterior, error)
}

type TraceEngine interface {
	QueryWithTrace(n *bayes.Network, query string, evidence bayes.Assignment) (*bayes.Posterior, *bayes.QueryTrace, error)
}

type Cache interface {
	GetOrCompute(key string, fn func() (*bayes.Network, error)) (*bayes.Network, error)
}

type QueryRequest struct {
	Format         string
	Network        string
	Query          string
	Evidence       map[string]any
	NetworkID      string
	NetworkVersion string
	Debug          bool
}

type JointRequest struct {
	Format         string
	Network        string
	Assignment     map[string]any
	NetworkID      string
	NetworkVersion string
}

// NetworkInfo identifies the network a result was computed on. Hash is the
// sha256 of the network source.
type NetworkInfo struct {
	ID      string `json:"id,omitempty"`
	Version string `json:"version,omitempty"`
	Hash    string `json:"hash"`
}

// QueryResult may be returned alongside an error; Network and Trace are set
// whenever they are known.
type QueryResult struct {
	Posterior *bayes.Posterior
	Trace     *bayes.QueryTrace
	Network   *NetworkInfo
}

type Service struct {
	compiler Compiler
	engine   Engine
	cache    Cache
}

func NewService(compiler Compiler, engine Engine, cache Cache) *Service {
	return &Service{compiler: compiler, engine: engine, cache: cache}
}

// Query compiles the network (cached) and returns the posterior of the query
// variable given the evidence. With Debug set and a tracing engine, the
// enumeration trace is returned as well.
func (s *Service) Query(req QueryRequest) (*QueryResult, error) {
	info, err := networkInfo(req.Network, req.NetworkID, req.NetworkVersion)
	res := &QueryResult{Network: info}
	if err != nil {
		return res, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return res, fmt.Errorf("query is required")
	}

	n, err := s.network(req.Format, req.Network)
	if err != nil {
		return res, err
	}
	evidence, err := toAssignment(req.Evidence)
	if err != nil {
		return res, fmt.Errorf("invalid evidence: %w", err)
	}

	if req.Debug {
		if te, ok := s.engine.(TraceEngine); ok {
			post, trace, err := te.QueryWithTrace(n, req.Query, evidence)
			res.Trace = trace
			if err != nil {
				return res, err
			}
			res.Posterior = post
			return res, nil
		}
	}

	post, err := s.engine.Query(n, req.Query, evidence)
	if err != nil {
		return res, err
	}
	res.Posterior = post
	return res, nil
}

// Joint returns the joint probability of a full assignment.
func (s *Service) Joint(req JointRequest) (float64, *NetworkInfo, error) {
	info, err := networkInfo(req.Network, req.NetworkID, req.NetworkVersion)
	if err != nil {
		return 0, info, err
	}

	n, err := s.network(req.Format, req.Network)
	if err != nil {
		return 0, info, err
	}
	full, err := toAssignment(req.Assignment)
	if err != nil {
		return 0, info, fmt.Errorf("invalid assignment: %w", err)
	}

	p, err := n.JointProbability(full)
	if err != nil {
		return 0, info, err
	}
	return p, info, nil
}

func (s *Service) network(format, source string) (*bayes.Network, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}
	return s.cache.GetOrCompute(format+"\x00"+source, func() (*bayes.Network, error) {
		return s.compiler.Compile(format, source)
	})
}

func networkInfo(source, id, version string) (*NetworkInfo, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("network is required")
	}
	info := &NetworkInfo{
		ID:      strings.TrimSpace(id),
		Version: strings.TrimSpace(version),
		Hash:    cache.Hash(source),
	}
	if (info.ID == "") != (info.Version == "") {
		return info, fmt.Errorf("network_id and network_version must be provided together")
	}
	return info, nil
}

// toAssignment maps JSON scalars onto domain values: true becomes "true",
// 2 becomes "2".
func toAssignment(in map[string]any) (bayes.Assignment, error) {
	out := make(bayes.Assignment, len(in))
	for k, v := range in {
		s, err := eval.FormatValue(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}
