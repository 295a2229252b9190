// Package docs registers the beliefd OpenAPI document with swag.
// Regenerate with `swag init -g cmd/beliefd/docs.go -o docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "beliefd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/analyze": {
            "post": {
                "description": "Summarizes the records, then asks the model to address the query given the combined context.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["summary"],
                "summary": "Analyze belief state",
                "parameters": [
                    {
                        "description": "Query and raw records",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.AnalyzeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.AnalyzeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/generate": {
            "post": {
                "description": "Runs the configured model over the query. The response is text, or an object when structured output is enabled.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generation"],
                "summary": "Generate a response",
                "parameters": [
                    {
                        "description": "Query",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/generate/stream": {
            "post": {
                "description": "Streams NDJSON lines: {\"token\":...} per fragment, then a final {\"done\":true,...} line.",
                "consumes": ["application/json"],
                "produces": ["application/x-ndjson"],
                "tags": ["generation"],
                "summary": "Stream a response",
                "parameters": [
                    {
                        "description": "Query",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "NDJSON stream", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Model readiness",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/summaries": {
            "post": {
                "description": "Groups intents and collect requests by target and returns both reports plus the combined context text. Pass completion_durations=1 to include per-group completion durations.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["summary"],
                "summary": "Summarize belief state",
                "parameters": [
                    {
                        "description": "Raw records",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.SummariesRequest"}
                    },
                    {
                        "type": "boolean",
                        "description": "Include completion durations",
                        "name": "completion_durations",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SummariesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.AnalyzeRequest": {
            "type": "object",
            "properties": {
                "collect_requests": {"type": "array", "items": {"type": "object"}},
                "intents": {"type": "array", "items": {"type": "object"}},
                "query": {"type": "string", "example": "Which targets are at risk of missing collection?"}
            }
        },
        "types.AnalyzeResponse": {
            "type": "object",
            "properties": {
                "context": {"type": "string"},
                "execution_time_seconds": {"type": "number", "example": 1.2345},
                "response": {"type": "object"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "error": {"type": "string", "example": "invalid JSON body"}
            }
        },
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string", "example": "Summarize the tasking status of SAT-A."}
            }
        },
        "types.GenerateResponse": {
            "type": "object",
            "properties": {
                "execution_time_seconds": {"type": "number", "example": 1.2345},
                "response": {"type": "object"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Model is initialized and ready."},
                "status": {"type": "string", "example": "healthy"}
            }
        },
        "types.SummariesRequest": {
            "type": "object",
            "properties": {
                "collect_requests": {"type": "array", "items": {"type": "object"}},
                "intents": {"type": "array", "items": {"type": "object"}}
            }
        },
        "types.SummariesResponse": {
            "type": "object",
            "properties": {
                "collect_requests": {"type": "object", "additionalProperties": {"type": "object"}},
                "context": {"type": "string"},
                "intents": {"type": "object", "additionalProperties": {"type": "object"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "beliefd API",
	Description:      "Belief-state summaries of satellite tasking records and LLM analysis over them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
