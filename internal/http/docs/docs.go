// Package docs holds the OpenAPI (Swagger 2.0) document of the operator API,
// in the layout produced by swag init from the handler annotations.
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
        "/cycles": {
            "get": {
                "description": "Returns journaled cycles, newest first. A weak ETag over the matching count and newest start time allows 304 responses.",
                "produces": ["application/json"],
                "tags": ["Cycles"],
                "summary": "List polling cycles (paginated)",
                "operationId": "listCycles",
                "parameters": [
                    {"type": "string", "example": "W/\"cycles::1:20:3:0\"", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"},
                    {"enum": ["idle", "notified", "failed"], "type": "string", "description": "Filter by outcome", "name": "outcome", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.ListCyclesResponse"},
                        "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}
                    },
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "400": {"description": "Bad outcome filter", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Journal disabled", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/cycles/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Cycles"],
                "summary": "Get one polling cycle",
                "operationId": "getCycle",
                "parameters": [
                    {"type": "string", "description": "Cycle ULID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Cycle"}},
                    "400": {"description": "Malformed id", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Journal disabled", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "description": "Returns the last cycle (null before the first one finishes), the retry period, and when the next cycle is due.",
                "produces": ["application/json"],
                "tags": ["Status"],
                "summary": "Polling loop status",
                "operationId": "getStatus",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}}
                }
            }
        },
        "/verdicts": {
            "get": {
                "description": "Returns the review status to verdict text table, sorted by status.",
                "produces": ["application/json"],
                "tags": ["Status"],
                "summary": "Verdict table",
                "operationId": "listVerdicts",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handlers.VerdictItem"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.Cycle": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "from_date": {"type": "integer"},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "outcome": {"type": "string"},
                "homework_name": {"type": "string"},
                "status": {"type": "string"},
                "message": {"type": "string"},
                "error_kind": {"type": "string"},
                "error": {"type": "string"},
                "delivered": {"type": "boolean"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "handlers.ListCyclesResponse": {
            "type": "object",
            "properties": {
                "cycles": {"type": "array", "items": {"$ref": "#/definitions/domain.Cycle"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.StatusResponse": {
            "type": "object",
            "properties": {
                "retry_period_seconds": {"type": "number"},
                "journal_enabled": {"type": "boolean"},
                "last_cycle": {"$ref": "#/definitions/domain.Cycle"},
                "next_cycle_at": {"type": "string"}
            }
        },
        "handlers.VerdictItem": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "verdict": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "homework-bot operator API",
	Description:      "Read-only view of the homework status polling loop and its cycle journal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
