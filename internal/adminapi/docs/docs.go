// Package docs holds the hand-authored OpenAPI document for the admin API.
// Normally `swag init` generates this file; since that code-generator can't
// run here, this file is written by hand in the shape it would have
// produced (a SwaggerInfo struct plus a static JSON document), so
// http-swagger still has something to serve at /docs.
package docs

import "net/http"

// SwaggerInfo holds exported Swagger metadata, matching the field names
// swag's generated docs.go uses.
var SwaggerInfo = struct {
	Title       string
	Description string
	Version     string
	Host        string
	BasePath    string
	Schemes     []string
}{
	Title:       "SentinelSuite Admin API",
	Description: "Operator surface for the threshold alerting service: health, queue depth, cache and rate-limiter statistics, and a company lookup.",
	Version:     "1.0.0",
	Host:        "localhost:8000",
	BasePath:    "/",
	Schemes:     []string{"http", "https"},
}

// spec is served at /docs/doc.json, matching the shape swag init would
// have emitted for this handler set.
const spec = `{
  "swagger": "2.0",
  "info": {
    "title": "SentinelSuite Admin API",
    "description": "Operator surface for the threshold alerting service.",
    "version": "1.0.0"
  },
  "host": "localhost:8000",
  "basePath": "/",
  "schemes": ["http", "https"],
  "paths": {
    "/": {"get": {"tags": ["meta"], "summary": "API root info", "responses": {"200": {"description": "OK"}}}},
    "/health": {"get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
    "/health/db": {"get": {"tags": ["health"], "summary": "Database health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
    "/stats/queues": {"get": {"tags": ["operations"], "summary": "Queue statistics", "responses": {"200": {"description": "OK"}}}},
    "/stats/cache": {"get": {"tags": ["operations"], "summary": "Cache statistics", "responses": {"200": {"description": "OK"}}}},
    "/stats/devstate": {"get": {"tags": ["operations"], "summary": "Device-state statistics", "responses": {"200": {"description": "OK"}}}},
    "/stats/ratelimit": {"get": {"tags": ["operations"], "summary": "Rate limiter statistics", "responses": {"200": {"description": "OK"}}}},
    "/stats/runtime": {"get": {"tags": ["operations"], "summary": "Runtime statistics", "responses": {"200": {"description": "OK"}}}},
    "/lookup/company/{deviceID}": {"get": {"tags": ["operations"], "summary": "Company lookup for device", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}}
  }
}`

// Handler serves the static OpenAPI document at /docs/doc.json.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(spec))
}
