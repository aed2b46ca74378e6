package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports a bad rebalance request. It is raised before any
// network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// UpstreamFetchError reports that a collaborator (secrets, account or market
// data) could not be reached or returned garbage.
type UpstreamFetchError struct {
	Resource string
	Err      error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Resource, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// PlanningError reports malformed reference data discovered while deriving
// the rebalance plan, e.g. a zero initial margin fraction.
type PlanningError struct {
	Symbol string
	Reason string
}

func (e *PlanningError) Error() string {
	if e.Symbol == "" {
		return "planning failed: " + e.Reason
	}
	return fmt.Sprintf("planning failed for %s: %s", e.Symbol, e.Reason)
}

// MarketNotFoundError reports a symbol lookup miss against the market
// catalog. Known carries every symbol the catalog does have, for diagnosis.
type MarketNotFoundError struct {
	Symbol string
	Known  []string
}

func (e *MarketNotFoundError) Error() string {
	return fmt.Sprintf("market id not found for %s (known: %s)", e.Symbol, strings.Join(e.Known, ", "))
}

// MarginAdjustError reports a failed leverage or margin-mode mutation. The
// whole run aborts; no order is placed after it.
type MarginAdjustError struct {
	Symbol string
	Err    error
}

func (e *MarginAdjustError) Error() string {
	return fmt.Sprintf("margin adjust failed for %s: %v", e.Symbol, e.Err)
}

func (e *MarginAdjustError) Unwrap() error { return e.Err }

// OrderSubmissionError reports a market order the gateway rejected or never
// acknowledged. The remaining batch is not submitted.
type OrderSubmissionError struct {
	Symbol string
	Err    error
}

func (e *OrderSubmissionError) Error() string {
	return fmt.Sprintf("order submission failed for %s: %v", e.Symbol, e.Err)
}

func (e *OrderSubmissionError) Unwrap() error { return e.Err }

// BatchExecutionError reports acknowledged orders that still carried a
// failure status code once the batch was inspected.
type BatchExecutionError struct {
	Symbols []string
}

func (e *BatchExecutionError) Error() string {
	return fmt.Sprintf("one or more orders failed, exchange returned an error code for: %s", strings.Join(e.Symbols, ", "))
}
