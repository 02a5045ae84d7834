package entities

import (
	"fmt"
	"strings"
	"time"
)

// ConfigurationError reports an invalid range or reference in the run setup.
// A simulation or optimization never starts when one is returned.
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func newConfigurationError(field string, value interface{}, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// NewConfigurationError creates a ConfigurationError for callers outside the entities package
func NewConfigurationError(field string, value interface{}, format string, args ...interface{}) *ConfigurationError {
	return newConfigurationError(field, value, fmt.Sprintf(format, args...))
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// InsufficientInventoryError signals an attempt to consume more than a batch
// holds. It is always a bug in the caller and must not be swallowed.
type InsufficientInventoryError struct {
	Batch     BatchRef
	Requested Quantity
	Remaining Quantity
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory in batch %s: requested %d, remaining %d",
		e.Batch, e.Requested, e.Remaining)
}

// InfeasibleError is returned by the optimizer when no production plan meets the constraints
type InfeasibleError struct {
	Capacity    Quantity
	Horizon     int
	WindowDays  int
	MinRequired Quantity
	Reason      string
}

func (e *InfeasibleError) Error() string {
	msg := fmt.Sprintf("production plan infeasible: capacity %d per %d-day window over %d days",
		e.Capacity, e.WindowDays, e.Horizon)
	if e.MinRequired > 0 {
		msg += fmt.Sprintf(", committed production needs %d", e.MinRequired)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// UnboundedError is returned by the optimizer when the objective has no finite optimum
type UnboundedError struct {
	Products []ProductID
	Reason   string
}

func (e *UnboundedError) Error() string {
	ids := make([]string, len(e.Products))
	for i, id := range e.Products {
		ids[i] = string(id)
	}
	msg := "production plan unbounded"
	if len(ids) > 0 {
		msg += " for products " + strings.Join(ids, ", ")
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// TimeoutError is returned when a solve is abandoned because its context ended
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("solve abandoned after %v: %v", e.Timeout, e.Err)
	}
	return fmt.Sprintf("solve abandoned: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// ReconciliationError reports a product whose produced quantity does not equal
// sold + wasted + remaining inventory.
type ReconciliationError struct {
	ProductID ProductID
	Produced  Quantity
	Sold      Quantity
	Wasted    Quantity
	Remaining Quantity
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("conservation violated for product %s: produced %d != sold %d + wasted %d + remaining %d",
		e.ProductID, e.Produced, e.Sold, e.Wasted, e.Remaining)
}
