// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/idea-screener/pkg/types"
)

// rawRow is one screener table row keyed by column header.
type rawRow map[string]string

// parseTable extracts screener result rows from an HTML page. The
// results table is identified by its header cells ("No." and "Ticker");
// rows whose cell count does not match the header, or whose first cell
// is not a row number, are ignored.
func parseTable(r io.Reader) ([]rawRow, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	table := findResultsTable(doc)
	if table == nil {
		return nil, nil
	}

	headers := headerTexts(table)
	var rows []rawRow
	for _, tr := range findAll(table, "tr") {
		cells := findAll(tr, "td")
		if len(cells) != len(headers) {
			continue
		}
		first := nodeText(cells[0])
		if !isDigits(first) {
			continue
		}
		row := make(rawRow, len(headers))
		for i, td := range cells {
			row[headers[i]] = nodeText(td)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// findResultsTable returns the first table whose headers contain both
// "No." and "Ticker".
func findResultsTable(n *html.Node) *html.Node {
	for _, table := range findAll(n, "table") {
		headers := headerTexts(table)
		var hasNo, hasTicker bool
		for _, h := range headers {
			switch h {
			case "No.":
				hasNo = true
			case "Ticker":
				hasTicker = true
			}
		}
		if hasNo && hasTicker {
			return table
		}
	}
	return nil
}

func headerTexts(table *html.Node) []string {
	var headers []string
	for _, th := range findAll(table, "th") {
		headers = append(headers, nodeText(th))
	}
	return headers
}

// findAll returns all descendant elements with the given tag, in
// document order. Nested tables are included; the header check on the
// caller side disambiguates.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// nodeText returns the node's text content with whitespace collapsed.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// buildCandidate converts a merged raw row into a CandidateRow. Rows
// without a ticker are malformed and reported as not ok.
func buildCandidate(row rawRow, exchange string) (types.CandidateRow, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(row["Ticker"]))
	if ticker == "" {
		return types.CandidateRow{}, false
	}

	metrics := make(map[string]float64)
	put := func(key string, v float64, ok bool) {
		if ok {
			metrics[key] = v
		}
	}

	cap, capOK := parseMarketCap(row["Market Cap"])
	put(types.MetricMarketCapUSD, cap, capOK)
	pe, peOK := parseNumber(row["P/E"])
	put(types.MetricPE, pe, peOK)
	fpe, fpeOK := parseNumber(row["Fwd P/E"])
	put(types.MetricForwardPE, fpe, fpeOK)
	pb, pbOK := parseNumber(row["P/B"])
	put(types.MetricPriceToBook, pb, pbOK)
	roe, roeOK := parsePercent(row["ROE"])
	put(types.MetricROEPct, roe, roeOK)
	roic, roicOK := parsePercent(row["ROIC"])
	put(types.MetricROICPct, roic, roicOK)
	om, omOK := parsePercent(row["Oper M"])
	put(types.MetricOperatingMargin, om, omOK)
	pm, pmOK := parsePercent(row["Profit M"])
	put(types.MetricProfitMargin, pm, pmOK)
	de, deOK := parseNumber(row["Debt/Eq"])
	put(types.MetricDebtToEquity, de, deOK)
	eps, epsOK := parsePercent(row["EPS Next 5Y"])
	put(types.MetricEPSNext5YPct, eps, epsOK)

	return types.CandidateRow{
		Ticker:   ticker,
		Company:  strings.TrimSpace(row["Company"]),
		Exchange: exchange,
		Sector:   strings.TrimSpace(row["Sector"]),
		Industry: strings.TrimSpace(row["Industry"]),
		Market:   "us",
		Metrics:  metrics,
	}, true
}
