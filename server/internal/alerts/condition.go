package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/strokestats/strokestats/pkg/types"
)

// Columns naming the two award classifications in a rule.
const (
	ColumnAward    = "award"
	ColumnAwardOld = "award_old"
)

// condition is a parsed rule condition.
type condition struct {
	column    string
	op        string
	threshold float64
	tier      string // set for award columns; threshold holds its rank
}

// parseCondition parses "<op> <value>" for column. Award columns take a tier
// name as value, indicator columns a number.
//
//	< 80
//	>= 25.5
//	< GOLD
//	== STROKEREADY
func parseCondition(column, cond string) (condition, error) {
	parts := strings.Fields(cond)
	if len(parts) != 2 {
		return condition{}, fmt.Errorf("alerts: condition %q: want \"<op> <value>\"", cond)
	}
	c := condition{column: column, op: parts[0]}
	if !validOp(c.op) {
		return condition{}, fmt.Errorf("alerts: condition %q: unknown operator %q", cond, c.op)
	}
	if isAwardColumn(column) {
		rank, ok := types.TierRank(parts[1])
		if !ok {
			return condition{}, fmt.Errorf("alerts: condition %q: unknown tier %q", cond, parts[1])
		}
		c.tier = types.Tiers[rank]
		c.threshold = float64(rank)
		return c, nil
	}
	v, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return condition{}, fmt.Errorf("alerts: condition %q: %w", cond, err)
	}
	c.threshold = v
	return c, nil
}

func isAwardColumn(column string) bool {
	return column == ColumnAward || column == ColumnAwardOld
}

// eval tests c against one site of r. It returns whether the condition fires,
// the triggering value (the tier rank for award columns) and whether the
// value could be read at all.
func (c condition) eval(r *types.Report, site *types.SiteRow) (fires bool, value float64, ok bool) {
	switch c.column {
	case ColumnAward, ColumnAwardOld:
		name := site.Award
		if c.column == ColumnAwardOld {
			name = site.AwardOld
		}
		rank, found := types.TierRank(name)
		if !found {
			return false, 0, false
		}
		value = float64(rank)
	default:
		i, found := r.Column(c.column)
		if !found || i >= len(site.Values) {
			return false, 0, false
		}
		value = site.Values[i]
	}
	return compareFloat(value, c.op, c.threshold), value, true
}

// String renders the condition as it reads in a message.
func (c condition) String() string {
	if c.tier != "" {
		return fmt.Sprintf("%s %s %s", c.column, c.op, c.tier)
	}
	return fmt.Sprintf("%s %s %s", c.column, c.op, strconv.FormatFloat(c.threshold, 'f', -1, 64))
}

func validOp(op string) bool {
	switch op {
	case ">", ">=", "<", "<=", "==", "!=":
		return true
	}
	return false
}

// compareFloat applies a comparison operator to two float64 values.
// NaN never compares true.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v == v && v != threshold
	default:
		return false
	}
}
