package mcp

import (
	"html/template"
	"net/http"

	"github.com/bull/ebook-search-mcp/internal/config"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Name}}</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f172a; color: #e2e8f0; display: flex; justify-content: center; padding: 3rem 1rem; }
  .card { max-width: 640px; width: 100%; background: #1e293b; border-radius: 12px; padding: 2rem; }
  h1 { margin-top: 0; }
  .subtitle { color: #94a3b8; }
  .endpoint, code { font-family: "SF Mono", Menlo, monospace; color: #a5b4fc; }
  li { margin-bottom: 0.4rem; }
</style>
</head>
<body>
<div class="card">
  <h1>{{.Name}} <small class="subtitle">v{{.Version}}</small></h1>
  <p class="subtitle">Search and read the books of a Komga library over the Model Context Protocol.</p>
  <h3>Endpoints</h3>
  <ul>
    <li><a href="/mcp" class="endpoint">/mcp</a>: MCP Streamable HTTP</li>
    <li><a href="/health" class="endpoint">/health</a>: health check</li>
  </ul>
  <h3>Tools</h3>
  <ul>
    {{range .Tools}}<li><code>{{.}}</code></li>
    {{end}}
  </ul>
</div>
</body>
</html>`))

var toolNames = []string{"search_library_books", "get_book_overview", "read_book_pages", "search_within_book"}

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	data := struct {
		Name    string
		Version string
		Tools   []string
	}{config.ServerName, config.ServerVersion, toolNames}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		landingTemplate.Execute(w, data)
	}
}
