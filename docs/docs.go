// Package docs registers the GOBREWER API description with swag. The
// route annotations on the engine handlers are the source of truth;
// regenerate with `swag init -g main.go` after changing them.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/view": {
            "get": {"tags": ["View"], "summary": "Get view state", "produces": ["application/json"],
                "responses": {"200": {"description": "View state", "schema": {"$ref": "#/definitions/engine.ViewState"}}}}
        },
        "/view/events": {
            "get": {"tags": ["View"], "summary": "Stream view state", "produces": ["text/event-stream"],
                "responses": {"200": {"description": "Stream of view states"}}}
        },
        "/view/raster.png": {
            "get": {"tags": ["View"], "summary": "Get rendered page", "produces": ["image/png"],
                "responses": {"200": {"description": "PNG image"}}}
        },
        "/view/open": {
            "post": {"tags": ["View"], "summary": "Open a source", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/engine.OpenRequest"}}],
                "responses": {"202": {"description": "Load job", "schema": {"$ref": "#/definitions/database.Job"}}, "400": {"description": "Invalid or unsupported path"}}}
        },
        "/view/first": {"post": {"tags": ["View"], "summary": "First page", "responses": {"200": {"description": "View state", "schema": {"$ref": "#/definitions/engine.ViewState"}}}}},
        "/view/previous": {"post": {"tags": ["View"], "summary": "Previous page", "responses": {"200": {"description": "View state", "schema": {"$ref": "#/definitions/engine.ViewState"}}}}},
        "/view/next": {"post": {"tags": ["View"], "summary": "Next page", "responses": {"200": {"description": "View state", "schema": {"$ref": "#/definitions/engine.ViewState"}}}}},
        "/view/last": {"post": {"tags": ["View"], "summary": "Last page", "responses": {"200": {"description": "View state", "schema": {"$ref": "#/definitions/engine.ViewState"}}}}},
        "/view/page": {
            "put": {"tags": ["View"], "summary": "Set page", "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/engine.PageRequest"}}],
                "responses": {"200": {"description": "View state", "schema": {"$ref": "#/definitions/engine.ViewState"}}}}
        },
        "/view/viewport": {
            "put": {"tags": ["View"], "summary": "Set viewport", "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/engine.ViewportRequest"}}],
                "responses": {"200": {"description": "View state", "schema": {"$ref": "#/definitions/engine.ViewState"}}, "400": {"description": "Invalid size"}}}
        },
        "/view/save": {
            "post": {"tags": ["View"], "summary": "Save as PDF", "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/engine.SaveRequest"}}],
                "responses": {"200": {"description": "Saved path"}, "409": {"description": "No document open"}}}
        },
        "/preferences": {"get": {"tags": ["Preferences"], "summary": "Get preferences", "responses": {"200": {"description": "Preferences"}}}},
        "/recent": {"get": {"tags": ["Preferences"], "summary": "Get recent documents", "responses": {"200": {"description": "Recent documents"}}}},
        "/about": {"get": {"tags": ["Admin"], "summary": "Get about information", "responses": {"200": {"description": "About information"}}}},
        "/jobs": {"get": {"tags": ["Jobs"], "summary": "Get recent jobs",
            "parameters": [{"type": "integer", "name": "limit", "in": "query"}, {"type": "integer", "name": "offset", "in": "query"}],
            "responses": {"200": {"description": "List of jobs"}}}},
        "/jobs/active": {"get": {"tags": ["Jobs"], "summary": "Get active jobs", "responses": {"200": {"description": "List of active jobs"}}}},
        "/jobs/{id}": {"get": {"tags": ["Jobs"], "summary": "Get job by ID",
            "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "Job details", "schema": {"$ref": "#/definitions/database.Job"}}, "400": {"description": "Invalid job ID"}, "404": {"description": "Job not found"}}}}
    },
    "definitions": {
        "engine.OpenRequest": {"type": "object", "properties": {"path": {"type": "string"}}},
        "engine.SaveRequest": {"type": "object", "properties": {"path": {"type": "string"}}},
        "engine.PageRequest": {"type": "object", "properties": {"index": {"type": "integer"}}},
        "engine.ViewportRequest": {"type": "object", "properties": {"width": {"type": "number"}, "height": {"type": "number"}}},
        "engine.ViewState": {"type": "object", "properties": {
            "pageIndex": {"type": "integer"}, "maxPageIndex": {"type": "integer"},
            "canFirst": {"type": "boolean"}, "canPrevious": {"type": "boolean"}, "canNext": {"type": "boolean"}, "canLast": {"type": "boolean"},
            "loading": {"type": "boolean"}, "title": {"type": "string"}, "sourcePath": {"type": "string"},
            "pageCount": {"type": "integer"}, "error": {"type": "string"}, "frame": {"type": "integer"},
            "viewport": {"type": "object", "properties": {"width": {"type": "number"}, "height": {"type": "number"}}}}},
        "database.Job": {"type": "object", "properties": {
            "id": {"type": "string"}, "type": {"type": "string"}, "status": {"type": "string"},
            "progress": {"type": "integer"}, "currentStep": {"type": "string"}, "message": {"type": "string"},
            "error": {"type": "string"}, "result": {"type": "string"},
            "createdAt": {"type": "string"}, "updatedAt": {"type": "string"},
            "startedAt": {"type": "string"}, "completedAt": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "GOBREWER API",
	Description:      "Document viewer: open PDF, Markdown or YAML sources, page through them and save the compiled PDF.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
