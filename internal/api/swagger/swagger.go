// Package swagger serves the API documentation: the embedded OpenAPI
// document, its JSON rendering registered with swag, and Swagger UI.
package swagger

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/swaggo/swag"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

type doc struct {
	once     sync.Once
	rendered string
	err      error
}

// ReadDoc renders the embedded YAML document as JSON.
func (d *doc) ReadDoc() string {
	d.once.Do(func() {
		var v any
		if d.err = yaml.Unmarshal(openAPISpec, &v); d.err != nil {
			return
		}
		b, err := json.Marshal(v)
		d.rendered, d.err = string(b), err
	})
	return d.rendered
}

var registered = &doc{}

func init() {
	swag.Register(swag.Name, registered)
}

// JSON returns the registered document.
func JSON() (string, error) {
	s, err := swag.ReadDoc()
	if err != nil {
		return "", err
	}
	if registered.err != nil {
		return "", fmt.Errorf("render openapi document: %w", registered.err)
	}
	return s, nil
}

// Handler serves Swagger UI at "/", the YAML document at /openapi.yaml and
// the JSON document at /doc.json.
func Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = w.Write(openAPISpec)
	})
	mux.HandleFunc("/doc.json", func(w http.ResponseWriter, r *http.Request) {
		s, err := JSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(s))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(swaggerUIHTML))
	})

	return mux
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>EcoEnergy API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css">
  <style>body { margin: 0; } .swagger-ui .topbar { display: none; }</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "/docs/doc.json",
        dom_id: '#swagger-ui',
        deepLinking: true,
        docExpansion: "list",
        filter: true
      });
    };
  </script>
</body>
</html>
`
