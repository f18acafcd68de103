package bayes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type DuplicateVariableError struct {
	Name string
}

func (e *DuplicateVariableError) Error() string {
	return fmt.Sprintf("variable %q already declared", e.Name)
}

type UnknownParentError struct {
	Variable string
	Parent   string
}

func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("variable %q names unknown parent %q (parents must be declared first)", e.Variable, e.Parent)
}

type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

// InvalidDomainError reports a malformed declaration: empty name, empty
// domain, repeated domain value or repeated parent.
type InvalidDomainError struct {
	Variable string
	Reason   string
}

func (e *InvalidDomainError) Error() string {
	return fmt.Sprintf("invalid declaration of %q: %s", e.Variable, e.Reason)
}

type InvalidValueError struct {
	Variable string
	Value    string
	Domain   []string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("value %q is not in the domain of %q [%s]", e.Value, e.Variable, strings.Join(e.Domain, ", "))
}

type MissingParentCombinationError struct {
	Variable string
	Given    Assignment
}

func (e *MissingParentCombinationError) Error() string {
	return fmt.Sprintf("cpt of %q has no row for parents %s", e.Variable, e.Given)
}

type DuplicateParentCombinationError struct {
	Variable string
	Given    Assignment
}

func (e *DuplicateParentCombinationError) Error() string {
	return fmt.Sprintf("cpt of %q has more than one row for parents %s", e.Variable, e.Given)
}

type NonNormalizedDistributionError struct {
	Variable string
	Given    Assignment
	Sum      float64
}

func (e *NonNormalizedDistributionError) Error() string {
	return fmt.Sprintf("cpt row of %q for parents %s sums to %g, want 1", e.Variable, e.Given, e.Sum)
}

type MissingCPTError struct {
	Variable string
}

func (e *MissingCPTError) Error() string {
	return fmt.Sprintf("variable %q has no cpt", e.Variable)
}

type IncompleteEvidenceError struct {
	Variable string
	Missing  []string
}

func (e *IncompleteEvidenceError) Error() string {
	return fmt.Sprintf("probability of %q needs parents [%s]", e.Variable, strings.Join(e.Missing, ", "))
}

type IncompleteAssignmentError struct {
	Missing []string
}

func (e *IncompleteAssignmentError) Error() string {
	return fmt.Sprintf("assignment does not cover variables [%s]", strings.Join(e.Missing, ", "))
}

type QueryInEvidenceError struct {
	Variable string
}

func (e *QueryInEvidenceError) Error() string {
	return fmt.Sprintf("query variable %q is also present in evidence", e.Variable)
}

type ZeroEvidenceProbabilityError struct {
	Query    string
	Evidence Assignment
}

func (e *ZeroEvidenceProbabilityError) Error() string {
	return fmt.Sprintf("evidence %s has zero probability (query %q)", e.Evidence, e.Query)
}

// EnumerationBudgetExceededError is returned instead of a truncated result.
// Exactly one of MaxAssignments or TimeBudget is set.
type EnumerationBudgetExceededError struct {
	Query          string
	Required       int64
	MaxAssignments int64
	TimeBudget     time.Duration
	Evaluated      int64
}

func (e *EnumerationBudgetExceededError) Error() string {
	if e.TimeBudget > 0 {
		return fmt.Sprintf("query %q exceeded time budget %s after %d of %d assignments", e.Query, e.TimeBudget, e.Evaluated, e.Required)
	}
	return fmt.Sprintf("query %q needs %d assignments, budget is %d", e.Query, e.Required, e.MaxAssignments)
}

// IsStructural reports whether err comes from a malformed network definition.
func IsStructural(err error) bool {
	var (
		dup     *DuplicateVariableError
		parent  *UnknownParentError
		unknown *UnknownVariableError
		domain  *InvalidDomainError
	)
	return errors.As(err, &dup) || errors.As(err, &parent) || errors.As(err, &unknown) || errors.As(err, &domain)
}

// IsCPTError reports whether err is a table integrity or assignment coverage failure.
func IsCPTError(err error) bool {
	var (
		missing    *MissingParentCombinationError
		duplicate  *DuplicateParentCombinationError
		normalized *NonNormalizedDistributionError
		noCPT      *MissingCPTError
		evidence   *IncompleteEvidenceError
		assignment *IncompleteAssignmentError
		value      *InvalidValueError
	)
	return errors.As(err, &missing) || errors.As(err, &duplicate) || errors.As(err, &normalized) ||
		errors.As(err, &noCPT) || errors.As(err, &evidence) || errors.As(err, &assignment) || errors.As(err, &value)
}

// IsQueryError reports whether err failed a single query and left the network usable.
func IsQueryError(err error) bool {
	var (
		inEvidence *QueryInEvidenceError
		zero       *ZeroEvidenceProbabilityError
		budget     *EnumerationBudgetExceededError
	)
	return errors.As(err, &inEvidence) || errors.As(err, &zero) || errors.As(err, &budget)
}

// Kind classifies err as "structural", "cpt", "query" or "" for foreign errors.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsQueryError(err):
		return "query"
	case IsCPTError(err):
		return "cpt"
	case IsStructural(err):
		return "structural"
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
