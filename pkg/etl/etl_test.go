package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d9i2r2t1/hh-parser/pkg/hh"
)

var runDate = time.Date(2026, time.August, 26, 9, 30, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2026, time.August, d, 0, 0, 0, 0, time.UTC)
}

func testResult() *hh.Result {
	return &hh.Result{
		Params:        hh.SearchParams{Area: 1, SearchPeriod: 1, SearchText: "go", SearchRegex: "go"},
		FetchedAt:     runDate,
		FetchDuration: 12340 * time.Millisecond,
		Vacancies: []hh.Vacancy{
			{Title: "Go developer", Company: "Acme", Salary: "100000-200000руб.", PublishedAt: day(25), URL: "https://hh.ru/vacancy/1"},
			{Title: "Go engineer", Company: "Globex", Salary: "от 250000 руб.", PublishedAt: day(24), URL: "https://hh.ru/vacancy/2"},
			{Title: "Junior Go developer", Company: "Initech", Salary: "до 90000 руб.", PublishedAt: day(23), URL: "https://hh.ru/vacancy/3"},
			{Title: "Go team lead", Company: "Umbrella", Salary: hh.SalaryNotSpecified, PublishedAt: day(22), URL: "https://hh.ru/vacancy/4"},
		},
	}
}

func TestBuildSummary(t *testing.T) {
	summary := buildSummary(testResult())

	assert.Equal(t, 4, summary.JobsCount)
	assert.Equal(t, 25.0, summary.JobsWithoutSalaryPct)
	// Lower bounds: 100000, 250000. Upper bounds: 200000, 90000.
	assert.Equal(t, 160000, summary.SalaryMean)
	assert.Equal(t, 150000, summary.SalaryMedian)
	assert.Equal(t, 175000, summary.MinSalaryMean)
	assert.Equal(t, 145000, summary.MaxSalaryMean)
	assert.Equal(t, 12.34, summary.FetchDurationSec)
	assert.Equal(t, runDate, summary.Date)
}

func TestBuildRankedJobs(t *testing.T) {
	jobs := buildRankedJobs(testResult())
	require.Len(t, jobs, 4)

	// "от 250000" counts as both bounds (mean 250000), the fork has mean
	// 150000, "до 90000" has mean 45000, no salary sinks to the bottom.
	assert.Equal(t, []string{
		"https://hh.ru/vacancy/2",
		"https://hh.ru/vacancy/1",
		"https://hh.ru/vacancy/3",
		"https://hh.ru/vacancy/4",
	}, []string{jobs[0].URL, jobs[1].URL, jobs[2].URL, jobs[3].URL})

	for i, job := range jobs {
		assert.Equal(t, i+1, job.Row)
	}
}

func TestBuildNewUniqueJobs(t *testing.T) {
	stored := StoredState{
		UniqueJobs: []UniqueJob{
			{Date: day(20), URL: "https://hh.ru/vacancy/1"},
			{Date: day(10), URL: "https://hh.ru/vacancy/999"},
		},
	}

	unique := buildNewUniqueJobs(testResult(), stored)
	require.Len(t, unique, 3)
	assert.Equal(t, "https://hh.ru/vacancy/2", unique[0].URL)
	assert.Equal(t, day(24), unique[0].Date)
	assert.Equal(t, "https://hh.ru/vacancy/3", unique[1].URL)
	assert.Equal(t, "https://hh.ru/vacancy/4", unique[2].URL)
}

func TestBuildNewUniqueJobsDeduplicatesWithinRun(t *testing.T) {
	result := testResult()
	result.Vacancies = append(result.Vacancies, result.Vacancies[0])

	unique := buildNewUniqueJobs(result, StoredState{})
	assert.Len(t, unique, 4)
}

func TestBuildNewClosedJobs(t *testing.T) {
	stored := StoredState{
		UniqueJobs: []UniqueJob{
			{Date: day(20), URL: "https://hh.ru/vacancy/1"},   // still open
			{Date: day(12), URL: "https://hh.ru/vacancy/100"}, // closed now
			{Date: day(10), URL: "https://hh.ru/vacancy/200"}, // already recorded as closed
		},
		ClosedJobURLs: map[string]struct{}{"https://hh.ru/vacancy/200": {}},
	}

	closed := buildNewClosedJobs(testResult(), stored)
	require.Len(t, closed, 1)
	assert.Equal(t, "https://hh.ru/vacancy/100", closed[0].URL)
	assert.Equal(t, day(12), closed[0].PublicationDate)
	assert.Equal(t, day(26), closed[0].ClosingDate)
	assert.Equal(t, 14, closed[0].DaysOpen)
}

func TestBuildProducesAllDatasets(t *testing.T) {
	datasets := Build(testResult(), StoredState{})

	assert.Equal(t, 4, datasets.Summary.JobsCount)
	assert.Len(t, datasets.RankedJobs, 4)
	assert.Len(t, datasets.NewUniqueJobs, 4)
	assert.Empty(t, datasets.NewClosedJobs)
}
