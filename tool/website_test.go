package tool

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<html>
<head><title>Acme Analytics</title><style>body { color: red; }</style></head>
<body>
<script>console.log("tracking");</script>
<h1>Acme Analytics</h1>

<p>Real-time data  warehousing.</p>
<noscript>Enable JavaScript</noscript>
</body>
</html>`

func websiteCall(t *testing.T, srv *httptest.Server, url string) (any, error) {
	t.Helper()

	wt := NewWebsiteContentTool(func(o *WebsiteContentToolOptions) {
		o.HTTPClient = srv.Client()
	})

	return wt.Call(testToolContext(), map[string]any{"company_website_url": url})
}

func TestWebsiteContentToolExtractsVisibleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	result, err := websiteCall(t, srv, srv.URL)
	require.NoError(t, err)

	text, ok := result.(string)
	require.True(t, ok)

	assert.Contains(t, text, "Acme Analytics")
	assert.Contains(t, text, "Real-time data  warehousing.")
	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Enable JavaScript")
	assert.NotContains(t, text, "\n\n")
}

func TestWebsiteContentToolNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := websiteCall(t, srv, srv.URL)
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "FETCH_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "404")
}

func TestWebsiteContentToolUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	wt := NewWebsiteContentTool()

	_, err := wt.Call(testToolContext(), map[string]any{"company_website_url": url})
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "FETCH_ERROR", toolErr.Code)
}

func TestWebsiteContentToolRequiresURL(t *testing.T) {
	wt := NewWebsiteContentTool()

	_, err := wt.Call(testToolContext(), map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}
