// Package handler contains HTTP request handlers for the vault.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Or more commonly, a function with the right signature (http.HandlerFunc).
// Chi's router accepts these directly.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (query params, body, URL params)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business rules. They are the glue between HTTP and the vault.
package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/service"
)

// viewTemplate is the page a share link opens: the snippet's code in a
// read-only block with its language and a download link. Code that came on
// the link itself has no ID and gets no download link.
//
// html/template escapes every {{.Field}} for the context it appears in, so
// code containing "<script>" is shown, never run.
const viewTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}} · CodeVault</title>
</head>
<body>
<h1>{{.Name}}</h1>
{{if .ID}}<p class="meta">{{.Language}} · {{.Visibility}} · saved {{.Age}}</p>
{{else}}<p class="meta">{{.Language}} · shared, not saved</p>
{{end}}<pre><code class="language-{{.Language}}">{{.Code}}</code></pre>
{{if .ID}}<p><a href="/api/snippets/{{.ID}}/download">Download</a></p>
{{end}}
</body>
</html>
`

// ViewHandler serves the page behind share links.
//
// WHY A STRUCT?
// The template is parsed once at startup (expensive) and reused on every
// request (cheap). Holding it in a struct avoids a package-level variable.
type ViewHandler struct {
	templates *template.Template
	snippets  *service.SnippetService
	logger    *slog.Logger
	now       func() time.Time
}

// NewViewHandler parses the view template.
func NewViewHandler(snippets *service.SnippetService, logger *slog.Logger) (*ViewHandler, error) {
	tmpl, err := template.New("view").Parse(viewTemplate)
	if err != nil {
		return nil, err
	}

	return &ViewHandler{
		templates: tmpl,
		snippets:  snippets,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// HandleView renders the snippet named by ?snippet=<ref>, or the code
// carried by ?code= when the link was made from an unsaved buffer.
//
// HTTP: GET /view?snippet=<id or position>
//
//	GET /view?code=<urlencoded>&language=python
//
// Errors are answered in plain text: the caller is a browser following a
// link, not a script reading JSON.
func (h *ViewHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var res model.QueryResult
	var err error
	if q.Has("code") {
		res.Snippet, err = h.snippets.SharedCode(q.Get("code"), q.Get("language"))
	} else {
		res, err = h.snippets.Get(q.Get("snippet"))
	}
	if err != nil {
		status, body := errorResponse(err)
		http.Error(w, body.Message, status)
		return
	}

	data := newSnippetView(res, h.now())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "view", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("snippet", res.Snippet.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
