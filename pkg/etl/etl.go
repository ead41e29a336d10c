// Package etl turns raw search results into the four persisted datasets:
// the run summary, the salary-ranked snapshot, newly seen vacancies and
// newly closed vacancies.
package etl

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/d9i2r2t1/hh-parser/pkg/hh"
)

// RunSummary is one row of the parsing_results table.
type RunSummary struct {
	Date                 time.Time
	JobsCount            int
	JobsWithoutSalaryPct float64
	SalaryMean           int
	SalaryMedian         int
	MinSalaryMean        int
	MaxSalaryMean        int
	FetchDurationSec     float64
}

// RankedJob is one row of the current_jobs snapshot, ordered by salary.
type RankedJob struct {
	Row     int
	Date    time.Time
	Title   string
	Company string
	Salary  string
	URL     string

	minSalary  int
	maxSalary  int
	meanSalary float64
}

// UniqueJob is a vacancy URL seen for the first time.
type UniqueJob struct {
	Date time.Time
	URL  string
}

// ClosedJob is a previously seen vacancy that disappeared from the results.
type ClosedJob struct {
	URL             string
	PublicationDate time.Time
	ClosingDate     time.Time
	DaysOpen        int
}

// StoredState is what the datasets are diffed against: the accumulated
// unique vacancies and the set of URLs already recorded as closed.
type StoredState struct {
	UniqueJobs    []UniqueJob
	ClosedJobURLs map[string]struct{}
}

// Datasets is the full output of one run.
type Datasets struct {
	Summary       RunSummary
	RankedJobs    []RankedJob
	NewUniqueJobs []UniqueJob
	NewClosedJobs []ClosedJob
}

// Build derives all four datasets from a search result and the stored state.
func Build(result *hh.Result, stored StoredState) Datasets {
	datasets := Datasets{
		Summary:       buildSummary(result),
		RankedJobs:    buildRankedJobs(result),
		NewUniqueJobs: buildNewUniqueJobs(result, stored),
		NewClosedJobs: buildNewClosedJobs(result, stored),
	}
	zap.S().Infof("Datasets generated: %d ranked jobs, %d new unique jobs, %d newly closed jobs",
		len(datasets.RankedJobs), len(datasets.NewUniqueJobs), len(datasets.NewClosedJobs))
	return datasets
}

func buildSummary(result *hh.Result) RunSummary {
	var lowerBounds, upperBounds []int
	withoutSalary := 0
	for _, vacancy := range result.Vacancies {
		bounds := parseSalary(vacancy.Salary)
		if !bounds.hasMin && !bounds.hasMax {
			withoutSalary++
			continue
		}
		if bounds.hasMin {
			lowerBounds = append(lowerBounds, bounds.min)
		}
		if bounds.hasMax {
			upperBounds = append(upperBounds, bounds.max)
		}
	}

	allBounds := append(append([]int{}, lowerBounds...), upperBounds...)
	summary := RunSummary{
		Date:                 result.FetchedAt,
		JobsCount:            len(result.Vacancies),
		JobsWithoutSalaryPct: round2(100 * float64(withoutSalary) / float64(len(result.Vacancies))),
		SalaryMean:           int(math.Round(mean(allBounds))),
		SalaryMedian:         int(math.Round(median(allBounds))),
		MinSalaryMean:        int(math.Round(mean(lowerBounds))),
		MaxSalaryMean:        int(math.Round(mean(upperBounds))),
		FetchDurationSec:     round2(result.FetchDuration.Seconds()),
	}
	zap.S().Infof("Jobs without salary: %.2f%%", summary.JobsWithoutSalaryPct)
	zap.S().Infof("Mean salary: %d, median salary: %d, mean min salary: %d, mean max salary: %d",
		summary.SalaryMean, summary.SalaryMedian, summary.MinSalaryMean, summary.MaxSalaryMean)
	return summary
}

// buildRankedJobs orders the run's vacancies by salary attractiveness.
// Vacancies without a salary rank at the bottom; "от N" counts as both
// bounds, "до N" has a zero lower bound.
func buildRankedJobs(result *hh.Result) []RankedJob {
	jobs := make([]RankedJob, 0, len(result.Vacancies))
	for _, vacancy := range result.Vacancies {
		bounds := parseSalary(vacancy.Salary)
		job := RankedJob{
			Date:    vacancy.PublishedAt,
			Title:   vacancy.Title,
			Company: vacancy.Company,
			Salary:  vacancy.Salary,
			URL:     vacancy.URL,
		}
		switch {
		case bounds.hasMin && bounds.hasMax:
			job.minSalary, job.maxSalary = bounds.min, bounds.max
		case bounds.hasMin:
			job.minSalary, job.maxSalary = bounds.min, bounds.min
		case bounds.hasMax:
			job.minSalary, job.maxSalary = 0, bounds.max
		}
		job.meanSalary = float64(job.minSalary+job.maxSalary) / 2
		jobs = append(jobs, job)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].meanSalary != jobs[j].meanSalary {
			return jobs[i].meanSalary > jobs[j].meanSalary
		}
		if jobs[i].maxSalary != jobs[j].maxSalary {
			return jobs[i].maxSalary > jobs[j].maxSalary
		}
		return jobs[i].minSalary > jobs[j].minSalary
	})
	for i := range jobs {
		jobs[i].Row = i + 1
	}
	return jobs
}

// buildNewUniqueJobs anti-joins the run against the stored unique set:
// only URLs never recorded before are emitted.
func buildNewUniqueJobs(result *hh.Result, stored StoredState) []UniqueJob {
	known := make(map[string]struct{}, len(stored.UniqueJobs))
	for _, job := range stored.UniqueJobs {
		known[job.URL] = struct{}{}
	}

	var unique []UniqueJob
	for _, vacancy := range result.Vacancies {
		if _, ok := known[vacancy.URL]; ok {
			continue
		}
		known[vacancy.URL] = struct{}{}
		unique = append(unique, UniqueJob{Date: vacancy.PublishedAt, URL: vacancy.URL})
	}
	return unique
}

// buildNewClosedJobs finds stored unique vacancies missing from the current
// run. They are considered closed today, unless already recorded as closed.
func buildNewClosedJobs(result *hh.Result, stored StoredState) []ClosedJob {
	current := make(map[string]struct{}, len(result.Vacancies))
	for _, vacancy := range result.Vacancies {
		current[vacancy.URL] = struct{}{}
	}

	closingDate := truncateToDay(result.FetchedAt)
	var closed []ClosedJob
	for _, job := range stored.UniqueJobs {
		if _, stillOpen := current[job.URL]; stillOpen {
			continue
		}
		if _, alreadyClosed := stored.ClosedJobURLs[job.URL]; alreadyClosed {
			continue
		}
		publicationDate := truncateToDay(job.Date)
		closed = append(closed, ClosedJob{
			URL:             job.URL,
			PublicationDate: publicationDate,
			ClosingDate:     closingDate,
			DaysOpen:        int(closingDate.Sub(publicationDate).Hours() / 24),
		})
	}
	return closed
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int{}, values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return float64(sorted[mid-1]+sorted[mid]) / 2
	}
	return float64(sorted[mid])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
