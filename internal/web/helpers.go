package web

import (
	"encoding/json"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func esc(value string) string {
	return templ.EscapeString(value)
}

// jsString renders value as a JavaScript string literal safe to embed in a
// script block.
func jsString(value string) string {
	data, err := json.Marshal(value)
	if err != nil {
		return `""`
	}
	return string(data)
}

// WikiPath is the in-game URL for an article.
func WikiPath(title string) string {
	return "/wiki/" + url.PathEscape(title)
}

func writeHead(w io.Writer, title string) {
	_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`+esc(title)+`</title>
    <style>
      body { font-family: system-ui, sans-serif; margin: 0; background: #f6f6f2; color: #1a1a1a; }
      .shell { max-width: 960px; margin: 0 auto; padding: 24px; }
      .panel { background: #fff; border-radius: 8px; padding: 16px 20px; margin-bottom: 16px; }
      .game { display: grid; grid-template-columns: 1fr 260px; gap: 16px; height: calc(100vh - 48px); }
      .game iframe { width: 100%; height: 100%; border: 1px solid #ccc; border-radius: 8px; background: #fff; }
      .error { color: #c92a2a; }
      .solved { color: #2b8a3e; font-weight: 600; }
    </style>
  </head>
  <body>
`)
}

func writeFoot(w io.Writer) {
	_, _ = io.WriteString(w, `  </body>
</html>
`)
}
