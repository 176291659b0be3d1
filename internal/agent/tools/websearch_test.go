package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div class="result">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Ftrain&amp;rut=x">Kolkata to Gangtok <b>train</b></a></h2>
  <a class="result__snippet" href="#">Sleeper fares from   Rs 450, about 12 hours.</a>
</div>
<div class="result">
  <h2><a class="result__a" href="https://example.org/bus">Bus options</a></h2>
  <a class="result__snippet" href="#">Shared jeeps leave from Siliguri.</a>
</div>
<div class="result">
  <h2><a class="result__a" href="https://example.net/flight">Flights</a></h2>
</div>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	results, err := parseSearchResults(strings.NewReader(searchPage), 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Kolkata to Gangtok train", results[0].Title)
	assert.Equal(t, "https://example.com/train", results[0].URL)
	assert.Equal(t, "Sleeper fares from Rs 450, about 12 hours.", results[0].Snippet)
	assert.Equal(t, "https://example.org/bus", results[1].URL)
	assert.Empty(t, results[2].Snippet)
}

func TestParseSearchResults_RespectsLimit(t *testing.T) {
	results, err := parseSearchResults(strings.NewReader(searchPage), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Sleeper fares from Rs 450, about 12 hours.", results[0].Snippet)

	results, err = parseSearchResults(strings.NewReader(searchPage), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Shared jeeps leave from Siliguri.", results[1].Snippet)
}

func TestWebSearchBinding_ToolRoundTrip(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	ctx := context.Background()
	b := NewWebSearchBinding(srv.URL+"/html/", 2, srv.Client())
	require.NoError(t, b.Probe(ctx))

	sess, err := b.Open(ctx)
	require.NoError(t, err)
	defer sess.Close()

	ts, err := sess.Tools(ctx)
	require.NoError(t, err)
	require.Len(t, ts, 1)

	info, err := ts[0].Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, ToolWebSearch, info.Name)

	inv, ok := ts[0].(tool.InvokableTool)
	require.True(t, ok)
	out, err := inv.InvokableRun(ctx, `{"query":"Kolkata to Gangtok train"}`)
	require.NoError(t, err)

	assert.Equal(t, "Kolkata to Gangtok train", gotQuery)
	assert.Contains(t, out, `"total":2`)
	assert.Contains(t, out, "https://example.com/train")
}

func TestWebSearchBinding_EmptyQuery(t *testing.T) {
	b := NewWebSearchBinding("http://127.0.0.1:1/", 0, nil)
	_, err := b.Search(context.Background(), &WebSearchInput{Query: "  "})
	assert.Error(t, err)
}

func TestWebSearchBinding_ProbeFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewWebSearchBinding(srv.URL, 0, srv.Client()).Probe(context.Background())
	assert.Error(t, err)
}
