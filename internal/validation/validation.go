package validation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/dashtrack/internal/constants"
	errs "github.com/julianstephens/dashtrack/internal/errors"
)

// Checker accumulates field failures for one payload. In partial mode every
// field is optional, but any field that is present still has to satisfy its
// rule.
type Checker struct {
	partial bool
	err     errs.InvalidInputError
}

// New creates a Checker for a full insert (partial=false) or a partial update.
func New(partial bool) *Checker {
	return &Checker{partial: partial}
}

// Partial reports whether the checker validates a partial payload.
func (c *Checker) Partial() bool {
	return c.partial
}

// Fail records a failure for field.
func (c *Checker) Fail(field, format string, args ...interface{}) {
	c.err.Add(field, fmt.Sprintf(format, args...))
}

// Err returns an *errors.InvalidInputError naming every failed field, or nil.
func (c *Checker) Err() error {
	if len(c.err.Fields) == 0 {
		return nil
	}
	out := c.err
	return &out
}

// present reports whether the field should be checked further, recording a
// "required" failure for absent required fields in full mode.
func (c *Checker) present(field string, set, required bool) bool {
	if set {
		return true
	}
	if required && !c.partial {
		c.Fail(field, "is required")
	}
	return false
}

// String requires a non-blank string when present.
func (c *Checker) String(field string, v *string, required bool) {
	if !c.present(field, v != nil, required) {
		return
	}
	if strings.TrimSpace(*v) == "" {
		c.Fail(field, "must not be empty")
	}
}

// IntRange requires min <= v <= max when present.
func (c *Checker) IntRange(field string, v *int, min, max int, required bool) {
	if !c.present(field, v != nil, required) {
		return
	}
	if *v < min || *v > max {
		c.Fail(field, "must be between %d and %d", min, max)
	}
}

// Positive requires v > 0 when present.
func (c *Checker) Positive(field string, v *int, required bool) {
	if !c.present(field, v != nil, required) {
		return
	}
	if *v <= 0 {
		c.Fail(field, "must be greater than 0")
	}
}

// NonNegative requires v >= 0 when present.
func (c *Checker) NonNegative(field string, v *int, required bool) {
	if !c.present(field, v != nil, required) {
		return
	}
	if *v < 0 {
		c.Fail(field, "must not be negative")
	}
}

// Enum requires v to be one of allowed when present.
func (c *Checker) Enum(field string, v *string, allowed []string, required bool) {
	if !c.present(field, v != nil, required) {
		return
	}
	if !slices.Contains(allowed, *v) {
		c.Fail(field, "must be one of %s", strings.Join(allowed, ", "))
	}
}

// Date requires a YYYY-MM-DD calendar date when present.
func (c *Checker) Date(field string, v *string, required bool) {
	if !c.present(field, v != nil, required) {
		return
	}
	if !IsValidDate(*v) {
		c.Fail(field, "must be a date in YYYY-MM-DD format")
	}
}

// Clock requires a 24h HH:MM time of day when present.
func (c *Checker) Clock(field string, v *string, required bool) {
	if !c.present(field, v != nil, required) {
		return
	}
	if !IsValidTime(*v) {
		c.Fail(field, "must be a time in HH:MM format")
	}
}

// Flags requires exactly n booleans when present.
func (c *Checker) Flags(field string, v []bool, n int, required bool) {
	if !c.present(field, v != nil, required) {
		return
	}
	if len(v) != n {
		c.Fail(field, "must contain exactly %d values", n)
	}
}

// IsValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsValidDate(s string) bool {
	if len(s) != len(constants.DateFormat) {
		return false
	}
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}

// IsValidTime reports whether s is a zero-padded HH:MM time of day.
// Lexicographic order on valid values matches chronological order.
func IsValidTime(s string) bool {
	if len(s) != len(constants.TimeFormat) {
		return false
	}
	_, err := time.Parse(constants.TimeFormat, s)
	return err == nil
}
