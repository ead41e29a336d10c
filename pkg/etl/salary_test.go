package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/d9i2r2t1/hh-parser/pkg/hh"
)

func TestParseSalary(t *testing.T) {
	t.Run("lower bound only", func(t *testing.T) {
		bounds := parseSalary("от 150000 руб.")
		assert.Equal(t, salaryBounds{min: 150000, hasMin: true}, bounds)
	})
	t.Run("upper bound only", func(t *testing.T) {
		bounds := parseSalary("до 90000 руб.")
		assert.Equal(t, salaryBounds{max: 90000, hasMax: true}, bounds)
	})
	t.Run("fork", func(t *testing.T) {
		bounds := parseSalary("100000-200000руб.")
		assert.Equal(t, salaryBounds{min: 100000, max: 200000, hasMin: true, hasMax: true}, bounds)
	})
	t.Run("fixed amount", func(t *testing.T) {
		bounds := parseSalary("180000руб.")
		assert.Equal(t, salaryBounds{min: 180000, max: 180000, hasMin: true, hasMax: true}, bounds)
	})
	t.Run("not specified", func(t *testing.T) {
		assert.Equal(t, salaryBounds{}, parseSalary(hh.SalaryNotSpecified))
	})
	t.Run("garbage degrades to not specified", func(t *testing.T) {
		assert.Equal(t, salaryBounds{}, parseSalary("по договоренности"))
	})
}
