package etl

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/d9i2r2t1/hh-parser/pkg/hh"
)

// salaryBounds is a parsed compensation string. Either bound may be absent.
type salaryBounds struct {
	min, max       int
	hasMin, hasMax bool
}

// parseSalary understands the compensation grammar of hh.ru listings:
// "от N" (lower bound), "до N" (upper bound), "N-M" (fork), "N" (fixed),
// or the "not specified" marker. Currency suffixes are ignored.
func parseSalary(salary string) salaryBounds {
	if salary == hh.SalaryNotSpecified || salary == "" {
		return salaryBounds{}
	}

	fields := strings.Fields(salary)
	switch {
	case fields[0] == "от" && len(fields) > 1:
		if value, ok := parseAmount(fields[1]); ok {
			return salaryBounds{min: value, hasMin: true}
		}
	case fields[0] == "до" && len(fields) > 1:
		if value, ok := parseAmount(fields[1]); ok {
			return salaryBounds{max: value, hasMax: true}
		}
	case strings.Count(fields[0], "-") == 1:
		fork := strings.SplitN(fields[0], "-", 2)
		low, okLow := parseAmount(fork[0])
		high, okHigh := parseAmount(fork[1])
		if okLow && okHigh {
			return salaryBounds{min: low, max: high, hasMin: true, hasMax: true}
		}
	default:
		if value, ok := parseAmount(fields[0]); ok {
			return salaryBounds{min: value, max: value, hasMin: true, hasMax: true}
		}
	}

	zap.S().Warnf("Unparsable salary %q, treating as not specified", salary)
	return salaryBounds{}
}

// parseAmount reads the leading digits of a token, tolerating a glued
// currency suffix ("150000руб.").
func parseAmount(token string) (int, bool) {
	end := 0
	for end < len(token) && token[end] >= '0' && token[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	value, err := strconv.Atoi(token[:end])
	if err != nil {
		return 0, false
	}
	return value, true
}
