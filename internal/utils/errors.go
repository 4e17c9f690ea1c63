package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory is the closed classification every caught error maps to.
type ErrorCategory string

const (
	CategoryNetwork  ErrorCategory = "NETWORK"
	CategoryAPI      ErrorCategory = "API"
	CategoryData     ErrorCategory = "DATA"
	CategoryAnalysis ErrorCategory = "ANALYSIS"
	CategoryUnknown  ErrorCategory = "UNKNOWN"
)

// IsCritical reports whether the category is escalated to the critical
// errors sink for operator visibility.
func (c ErrorCategory) IsCritical() bool {
	return c == CategoryNetwork || c == CategoryAPI
}

// CategorizedError carries a category assigned at the point of failure, so
// classification does not depend on fragile message matching.
type CategorizedError struct {
	Category ErrorCategory
	Op       string
	Err      error
}

// Error returns the error message string.
func (e *CategorizedError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError wraps err with an explicit category.
func NewCategorizedError(category ErrorCategory, op string, err error) error {
	return &CategorizedError{Category: category, Op: op, Err: err}
}

// NewAnalysisError marks an internal numeric fault (degenerate range,
// division hazard) detected during feature computation.
func NewAnalysisError(op string, err error) error {
	return NewCategorizedError(CategoryAnalysis, op, err)
}

// NewDataError marks a malformed or unparsable upstream payload.
func NewDataError(op string, err error) error {
	return NewCategorizedError(CategoryData, op, err)
}

// Categorize resolves the category of any error. Typed errors report their
// own category; foreign errors fall back to keyword matching.
func Categorize(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "connection"):
		return CategoryNetwork
	case strings.Contains(msg, "api") || strings.Contains(msg, "rate limit"):
		return CategoryAPI
	case strings.Contains(msg, "data") || strings.Contains(msg, "parse") || strings.Contains(msg, "json"):
		return CategoryData
	case strings.Contains(msg, "calculation") || strings.Contains(msg, "divide"):
		return CategoryAnalysis
	default:
		return CategoryUnknown
	}
}
