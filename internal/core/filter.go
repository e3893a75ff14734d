// Package core provides filtering of daemon lists.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmylchreest/daemonview/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring, case-insensitive
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // Field name: id, name, status, enabled
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	regex   *regexp.Regexp
	idVal   int64
	boolVal bool
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// ParseFilter parses a filter expression string into a FilterExpr.
// Format: "field=value,field2~value2"
//
// Supported fields: id, name, status, enabled
// Supported operators: = (equal), != (not equal), ~ (contains), ~= (regex),
// and >, <, >=, <= for id.
//
// Examples:
//   - "status=Running"
//   - "name~poll,enabled=true"
//   - "status!=Running,id>=20"
func ParseFilter(expr string) (*FilterExpr, error) {
	filter := &FilterExpr{}

	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "name=Eventd" or "status~run".
func parseCondition(s string) (FilterCondition, error) {
	// Longest operators first so "!=" is not read as "=".
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpRegex,
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx <= 0 {
			continue
		}
		cond := FilterCondition{
			Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
			Operator: op,
			Value:    strings.TrimSpace(s[idx+len(op):]),
		}
		if err := cond.init(); err != nil {
			return FilterCondition{}, err
		}
		return cond, nil
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init pre-parses and validates the condition value.
func (c *FilterCondition) init() error {
	switch c.Field {
	case "id":
		id, err := strconv.ParseInt(c.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id value: %s", c.Value)
		}
		c.idVal = id
	case "name":
	case "status", "state":
		c.Field = "status"
	case "enabled":
		v, err := parseBool(c.Value)
		if err != nil {
			return err
		}
		c.boolVal = v
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Field != "id" {
		switch c.Operator {
		case FilterOpGreater, FilterOpLess, FilterOpGreaterEq, FilterOpLessEq:
			return fmt.Errorf("operator %s is only valid for id", c.Operator)
		}
	}
	if c.Field == "enabled" && c.Operator != FilterOpEqual && c.Operator != FilterOpNotEqual {
		return fmt.Errorf("operator %s is not valid for enabled", c.Operator)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}

	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y", "t":
		return true, nil
	case "false", "no", "0", "n", "f":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %s", s)
	}
}

// Match tests if a daemon matches the filter expression.
func (f *FilterExpr) Match(d model.Daemon) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(d) {
			return false
		}
	}
	return true
}

// Match tests if a daemon matches this single condition.
func (c *FilterCondition) Match(d model.Daemon) bool {
	switch c.Field {
	case "id":
		return c.matchID(d.ID)
	case "name":
		return c.matchString(d.Name)
	case "status":
		return c.matchString(string(d.Status))
	case "enabled":
		if c.Operator == FilterOpNotEqual {
			return d.Enabled != c.boolVal
		}
		return d.Enabled == c.boolVal
	default:
		return false
	}
}

func (c *FilterCondition) matchString(fieldValue string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.Value
	case FilterOpNotEqual:
		return fieldValue != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(fieldValue)
	default:
		return false
	}
}

func (c *FilterCondition) matchID(id int64) bool {
	switch c.Operator {
	case FilterOpEqual:
		return id == c.idVal
	case FilterOpNotEqual:
		return id != c.idVal
	case FilterOpGreater:
		return id > c.idVal
	case FilterOpLess:
		return id < c.idVal
	case FilterOpGreaterEq:
		return id >= c.idVal
	case FilterOpLessEq:
		return id <= c.idVal
	default:
		return false
	}
}

// FilterWithExpr returns the daemons matching expr, keeping their order.
func FilterWithExpr(daemons []model.Daemon, expr *FilterExpr) []model.Daemon {
	if expr == nil || len(expr.Conditions) == 0 {
		return daemons
	}

	result := make([]model.Daemon, 0, len(daemons))
	for _, d := range daemons {
		if expr.Match(d) {
			result = append(result, d)
		}
	}
	return result
}
