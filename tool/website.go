package tool

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/stratusdb/leadflow/core"
)

const (
	websiteToolName = "get_company_website_information"

	// Some sites block obvious bot user agents, so identify as a browser.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36"

	defaultFetchTimeout = 10 * time.Second
)

// WebsiteContentToolOptions configures the website content tool.
type WebsiteContentToolOptions struct {
	// Timeout bounds the whole fetch including body read.
	Timeout time.Duration
	// HTTPClient overrides the default client (tests inject httptest clients).
	HTTPClient *http.Client
}

// NewWebsiteContentTool returns a tool that fetches a company website and
// extracts its readable text content. Non-2xx responses and network failures
// are reported as tool errors which the loop hands back to the model as a
// negative result; they never abort the run.
func NewWebsiteContentTool(optFns ...func(o *WebsiteContentToolOptions)) Tool {
	opts := WebsiteContentToolOptions{
		Timeout: defaultFetchTimeout,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"company_website_url": map[string]any{
				"type":        "string",
				"description": "The URL of the company's website",
			},
		},
		"required": []string{"company_website_url"},
	}

	return NewFunctionTool(
		websiteToolName,
		"Fetch and extract readable text content from a company's website",
		params,
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			url, _ := args["company_website_url"].(string)

			toolCtx.LogInfo("tool.website.fetch", "url", url)

			req, err := http.NewRequestWithContext(toolCtx.Context(), http.MethodGet, url, nil)
			if err != nil {
				return nil, NewToolError(websiteToolName, fmt.Sprintf("invalid url %q: %v", url, err), "FETCH_ERROR")
			}
			req.Header.Set("User-Agent", browserUserAgent)

			resp, err := client.Do(req)
			if err != nil {
				toolCtx.LogInfo("tool.website.fetch_failed", "url", url, "error", err.Error())
				return nil, NewToolError(websiteToolName, fmt.Sprintf("error fetching website: %v", err), "FETCH_ERROR")
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				toolCtx.LogInfo("tool.website.bad_status", "url", url, "status", resp.StatusCode)
				return nil, NewToolError(
					websiteToolName,
					fmt.Sprintf("failed to fetch the website, status code: %d", resp.StatusCode),
					"FETCH_ERROR",
				)
			}

			text, err := extractVisibleText(resp)
			if err != nil {
				return nil, NewToolError(websiteToolName, fmt.Sprintf("error parsing website: %v", err), "PARSE_ERROR")
			}

			return text, nil
		},
	)
}

// extractVisibleText parses the HTML response, removes non-visible elements
// (style, script, head, title, noscript) and collapses blank lines.
func extractVisibleText(resp *http.Response) (string, error) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	doc.Find("style, script, head, title, noscript").Remove()

	return removeEmptyLines(doc.Text()), nil
}

// removeEmptyLines removes empty lines from the given text.
func removeEmptyLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return strings.Join(lines, "\n")
}
