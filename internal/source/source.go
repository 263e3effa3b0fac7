// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source fetches a paginated candidate universe per exchange
// from the external screener and converts raw table rows into
// CandidateRows. A fetch is restartable: each call starts from scratch
// with no caching across calls.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/idea-screener/internal/httputil"
	"github.com/pdiddy/idea-screener/pkg/types"
)

// screenerBase is the screener endpoint. Declared as a var so tests
// can substitute an httptest server.
var screenerBase = "https://finviz.com/screener.ashx"

// exchangeFilters maps exchange names to screener filter codes.
var exchangeFilters = map[string]string{
	"NASDAQ": "exch_nasd",
	"NYSE":   "exch_nyse",
	"AMEX":   "exch_amex",
}

// DefaultExchanges is the default exchange scope.
var DefaultExchanges = []string{"NASDAQ", "NYSE", "AMEX"}

// baseFilters keep the universe broad; the outer selector performs the
// final judgment call.
var baseFilters = []string{
	"geo_usa",
	"ind_stocksonly",
	"cap_midover",
	"sh_price_o5",
	"sh_avgvol_o200",
}

// views are the screener table views fetched for each page. Each view
// carries a different column set; rows are merged by ticker so one
// candidate accumulates all metrics.
var views = []int{111, 121, 161}

const rowsPerPage = 20

// Client fetches screener pages with request pacing.
type Client struct {
	HTTP *http.Client

	// lastRequest enforces the inter-request delay.
	lastRequest time.Time
}

// ExchangeReport describes source coverage for one exchange.
type ExchangeReport struct {
	Exchange       string `json:"exchange"`
	PagesRequested int    `json:"pages_requested"`
	PagesFetched   int    `json:"pages_fetched"`
	PagesDropped   int    `json:"pages_dropped"`
}

// Report describes coverage for the whole fetch. A page dropped after
// retry exhaustion degrades the result; a naturally exhausted exchange
// (empty page) does not.
type Report struct {
	Exchanges []ExchangeReport `json:"exchanges"`
}

// PagesRequested sums requested pages across exchanges.
func (r Report) PagesRequested() int {
	var n int
	for _, e := range r.Exchanges {
		n += e.PagesRequested
	}
	return n
}

// PagesFetched sums fetched pages across exchanges.
func (r Report) PagesFetched() int {
	var n int
	for _, e := range r.Exchanges {
		n += e.PagesFetched
	}
	return n
}

// DroppedPages returns per-exchange dropped page counts, omitting zeros.
func (r Report) DroppedPages() map[string]int {
	out := make(map[string]int)
	for _, e := range r.Exchanges {
		if e.PagesDropped > 0 {
			out[e.Exchange] = e.PagesDropped
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FetchOutput holds the merged candidate universe and its coverage report.
type FetchOutput struct {
	Rows   []types.CandidateRow
	Report Report
}

// Fetch retrieves candidates for every configured exchange. Pages are
// fetched in increasing order until MaxPagesPerExchange or an empty
// page; exhausting retries for a page drops that page and the rest of
// the exchange but not the whole fetch. Malformed rows (missing
// ticker) are skipped. Progress and warnings go to w.
func (c *Client) Fetch(ctx context.Context, cfg types.FetchConfig, w io.Writer) (FetchOutput, error) {
	exchanges := cfg.Exchanges
	if len(exchanges) == 0 {
		exchanges = DefaultExchanges
	}
	for _, name := range exchanges {
		if _, ok := exchangeFilters[strings.ToUpper(name)]; !ok {
			return FetchOutput{}, fmt.Errorf("unknown exchange %q (supported: NASDAQ, NYSE, AMEX)", name)
		}
	}

	maxPages := cfg.MaxPagesPerExchange
	if maxPages <= 0 {
		maxPages = 4
	}
	limit := cfg.CandidateLimit
	if limit <= 0 {
		limit = 150
	}

	var out FetchOutput
	seen := make(map[string]bool)

	for _, name := range exchanges {
		name = strings.ToUpper(name)
		rows, report := c.fetchExchange(ctx, name, exchangeFilters[name], maxPages, cfg, w)
		out.Report.Exchanges = append(out.Report.Exchanges, report)

		for _, raw := range rows {
			candidate, ok := buildCandidate(raw, name)
			if !ok {
				fmt.Fprintf(w, "warning: skipping row without ticker on %s\n", name)
				continue
			}
			if seen[candidate.Ticker] {
				continue
			}
			seen[candidate.Ticker] = true
			out.Rows = append(out.Rows, candidate)
		}

		if ctx.Err() != nil {
			return out, ctx.Err()
		}
	}

	if len(out.Rows) > limit {
		out.Rows = out.Rows[:limit]
	}
	return out, nil
}

// fetchExchange pages through one exchange, merging the per-page views
// by ticker in first-seen order.
func (c *Client) fetchExchange(ctx context.Context, name, filter string, maxPages int, cfg types.FetchConfig, w io.Writer) ([]rawRow, ExchangeReport) {
	report := ExchangeReport{Exchange: name, PagesRequested: maxPages}

	merged := make(map[string]rawRow)
	var order []string

	for page := 0; page < maxPages; page++ {
		startRow := 1 + page*rowsPerPage

		viewRows := make(map[int][]rawRow, len(views))
		var pageErr error
		for _, view := range views {
			rows, err := c.fetchView(ctx, view, filter, startRow, cfg)
			if err != nil {
				pageErr = err
				break
			}
			viewRows[view] = rows
		}
		if pageErr != nil {
			// Drop this page and the remaining pages for the exchange;
			// a partial universe is an acceptable degraded result.
			report.PagesDropped = maxPages - page
			fmt.Fprintf(w, "warning: %s page %d dropped after retries: %v\n", name, page+1, pageErr)
			break
		}

		minCount := len(viewRows[views[0]])
		for _, view := range views[1:] {
			if n := len(viewRows[view]); n < minCount {
				minCount = n
			}
		}
		if minCount == 0 {
			// The source ran out of rows; not a degradation.
			report.PagesRequested = report.PagesFetched
			break
		}

		for _, view := range views {
			for _, row := range viewRows[view] {
				ticker := strings.ToUpper(strings.TrimSpace(row["Ticker"]))
				if ticker == "" {
					continue
				}
				slot, ok := merged[ticker]
				if !ok {
					slot = rawRow{"Ticker": ticker}
					merged[ticker] = slot
					order = append(order, ticker)
				}
				for k, v := range row {
					slot[k] = v
				}
			}
		}
		report.PagesFetched++

		if minCount < rowsPerPage {
			// Short page: last page for this exchange.
			report.PagesRequested = report.PagesFetched
			break
		}
	}

	rows := make([]rawRow, 0, len(order))
	for _, ticker := range order {
		rows = append(rows, merged[ticker])
	}
	return rows, report
}

// fetchView retrieves and parses a single page view, driving the
// bounded retry state machine: Pending -> Retrying(n) -> Succeeded |
// Exhausted.
func (c *Client) fetchView(ctx context.Context, view int, filter string, startRow int, cfg types.FetchConfig) ([]rawRow, error) {
	attempt := newPageAttempt(cfg.MaxPageRetries)
	for {
		switch attempt.state {
		case statePending, stateRetrying:
			if attempt.state == stateRetrying {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(attempt.backoff()):
				}
			}
			rows, err := c.requestView(ctx, view, filter, startRow, cfg)
			if err == nil {
				attempt.succeed()
				return rows, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			attempt.fail(err)

		case stateExhausted:
			return nil, fmt.Errorf("page attempts exhausted after %d tries: %w", attempt.tries, attempt.lastErr)

		case stateSucceeded:
			// Unreachable: success returns directly above.
			return nil, nil
		}
	}
}

// requestView performs one paced HTTP request for a page view.
func (c *Client) requestView(ctx context.Context, view int, filter string, startRow int, cfg types.FetchConfig) ([]rawRow, error) {
	if err := c.pace(ctx, cfg.RequestDelay); err != nil {
		return nil, err
	}

	params := url.Values{
		"v":  {fmt.Sprintf("%d", view)},
		"ft": {"4"},
		"o":  {"-marketcap"},
		"f":  {strings.Join(append([]string{filter}, baseFilters...), ",")},
		"r":  {fmt.Sprintf("%d", startRow)},
	}
	reqURL := screenerBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.AuthToken != "" {
		req.AddCookie(&http.Cookie{Name: "screenerToken", Value: cfg.AuthToken})
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 2)
	if err != nil {
		return nil, fmt.Errorf("screener request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("screener returned HTTP %d", resp.StatusCode)
	}

	rows, err := parseTable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing screener page: %w", err)
	}
	return rows, nil
}

// pace enforces the minimum delay between consecutive requests. The
// pause is a deliberate, synchronous wait, not a background task.
func (c *Client) pace(ctx context.Context, delay time.Duration) error {
	if delay > 0 && !c.lastRequest.IsZero() {
		if wait := delay - time.Since(c.lastRequest); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	c.lastRequest = time.Now()
	return nil
}
