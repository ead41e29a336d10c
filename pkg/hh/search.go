package hh

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// Markers used when a vacancy block carries no employer or salary.
const (
	CompanyUnknown     = "Не определено"
	SalaryNotSpecified = "Не указано"
)

// SearchParams identify one monitored query.
type SearchParams struct {
	// Area is the hh.ru region identifier (1 is Moscow).
	Area int
	// SearchPeriod limits results to vacancies published within the last N days.
	SearchPeriod int
	SearchText   string
	// SearchRegex confirms titles case-insensitively; non-matching vacancies are dropped.
	SearchRegex string
}

// Vacancy is one extracted search result.
type Vacancy struct {
	Title       string
	Company     string
	Salary      string
	PublishedAt time.Time
	URL         string
}

// Result carries everything one search run produced.
type Result struct {
	Params        SearchParams
	Vacancies     []Vacancy
	FetchedAt     time.Time
	FetchDuration time.Duration
}

// Search walks all result pages of the query and extracts the vacancies.
// An empty result set is an error: it means either the query is wrong or
// the page markup changed under us, and both need attention.
func (client *Client) Search(ctx context.Context, params SearchParams) (*Result, error) {
	titleRe, err := regexp.Compile(`(?i)` + params.SearchRegex)
	if err != nil {
		return nil, xerrors.Errorf("search regex does not compile: %w", err)
	}

	timeStart := time.Now()
	zap.S().Infof("Looking for %q vacancies on hh.ru...", params.SearchText)

	doc, err := client.getDocument(ctx, client.pageURL(params, 0))
	if err != nil {
		return nil, xerrors.Errorf("start request failed: %w", err)
	}
	pageCount := resultPageCount(doc)
	zap.S().Infof("Found %d pages with %q vacancies", pageCount, params.SearchText)

	now := client.now()
	vacancies := client.extractVacancies(doc, titleRe, now)
	for page := 1; page < pageCount; page++ {
		zap.S().Infof("Parsing page %d...", page+1)
		doc, err := client.getDocument(ctx, client.pageURL(params, page))
		if err != nil {
			return nil, err
		}
		vacancies = append(vacancies, client.extractVacancies(doc, titleRe, now)...)
	}

	if len(vacancies) == 0 {
		return nil, xerrors.Errorf("no results found for settings: area=%d, period=%d, text=%s, specifying_regex=%s",
			params.Area, params.SearchPeriod, params.SearchText, params.SearchRegex)
	}

	sort.SliceStable(vacancies, func(i, j int) bool {
		return vacancies[i].PublishedAt.After(vacancies[j].PublishedAt)
	})

	fetchDuration := time.Since(timeStart)
	zap.S().Infof("Found %d vacancies in %.2f seconds", len(vacancies), fetchDuration.Seconds())

	return &Result{
		Params:        params,
		Vacancies:     vacancies,
		FetchedAt:     now,
		FetchDuration: fetchDuration,
	}, nil
}

func (client *Client) pageURL(params SearchParams, page int) string {
	query := url.Values{}
	query.Set("search_period", strconv.Itoa(params.SearchPeriod))
	query.Set("clusters", "true")
	query.Set("area", strconv.Itoa(params.Area))
	query.Set("text", params.SearchText)
	query.Set("enable_snippets", "true")
	query.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s?%s", client.baseURL, query.Encode())
}

// resultPageCount reads the page count from the last pager element of the
// first result page. A page without a pager has exactly one result page.
func resultPageCount(doc *goquery.Document) int {
	pages := doc.Find(`a[data-qa="pager-page"]`)
	if pages.Length() == 0 {
		return 1
	}
	last := strings.TrimSpace(pages.Last().Text())
	count, err := strconv.Atoi(last)
	if err != nil || count < 1 {
		zap.S().Warnf("Unexpected pager value %q, assuming a single result page", last)
		return 1
	}
	return count
}

var vacancyBlockSelector = strings.Join([]string{
	`div[data-qa="vacancy-serp__vacancy"]`,
	`div[data-qa="vacancy-serp__vacancy vacancy-serp__vacancy_premium"]`,
}, ", ")

// extractVacancies pulls vacancy data out of the marked result blocks,
// dropping the ones whose title fails the confirming regex.
func (client *Client) extractVacancies(doc *goquery.Document, titleRe *regexp.Regexp, now time.Time) []Vacancy {
	var vacancies []Vacancy
	doc.Find(vacancyBlockSelector).Each(func(_ int, block *goquery.Selection) {
		titleLink := block.Find(`a[data-qa="vacancy-serp__vacancy-title"]`)
		title := strings.TrimSpace(titleLink.Text())
		if title == "" || !titleRe.MatchString(title) {
			return
		}

		href, ok := titleLink.Attr("href")
		if !ok {
			zap.S().Warnf("Vacancy %q has no link, skipping", title)
			return
		}

		company := CompanyUnknown
		if employer := block.Find(`a[data-qa="vacancy-serp__vacancy-employer"]`); employer.Length() > 0 {
			company = strings.TrimSpace(employer.Text())
		}

		salary := SalaryNotSpecified
		if compensation := block.Find(`span[data-qa="vacancy-serp__vacancy-compensation"]`); compensation.Length() > 0 {
			salary = strings.TrimSpace(strings.ReplaceAll(compensation.Text(), "\u00a0", ""))
		}

		rawDate := block.Find("span.vacancy-serp-item__publication-date").Text()
		publishedAt, err := parsePublicationDate(rawDate, now)
		if err != nil {
			zap.S().Warnf("Vacancy %q: %v, skipping", title, err)
			return
		}

		vacancies = append(vacancies, Vacancy{
			Title:       title,
			Company:     company,
			Salary:      salary,
			PublishedAt: publishedAt,
			URL:         href,
		})
	})
	return vacancies
}
