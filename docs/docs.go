package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check",
                "description": "Check if server is running",
                "responses": {
                    "200": {"description": "Server is healthy"}
                }
            }
        },
        "/health/detailed": {
            "get": {
                "tags": ["Health"],
                "summary": "Detailed Health Check",
                "description": "Database and Redis status with pool statistics",
                "responses": {
                    "200": {"description": "Healthy or degraded"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/trpc/{procedure}": {
            "get": {
                "tags": ["RPC"],
                "summary": "Call a query procedure",
                "description": "Queries: categories.list (public), users.me, todos.list, todos.search, todos.statistics, todos.overdue, todos.byCategory, tags.list, comments.list, attachments.list, reports.monthly. Comma-join names with batch=1 to batch calls; input is then an object keyed by call index.",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "procedure", "type": "string", "required": true, "description": "Dotted procedure name, e.g. todos.list"},
                    {"in": "query", "name": "input", "type": "string", "description": "JSON-encoded procedure input"},
                    {"in": "query", "name": "batch", "type": "string", "enum": ["1"], "description": "Enable batching"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "{\"result\":{\"data\":...}}", "schema": {"$ref": "#/definitions/Result"}},
                    "207": {"description": "Batch with mixed outcomes"},
                    "400": {"description": "ValidationError", "schema": {"$ref": "#/definitions/Error"}},
                    "401": {"description": "Unauthorized or InvalidCredentials", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "NotFound", "schema": {"$ref": "#/definitions/Error"}},
                    "405": {"description": "MethodNotSupported", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "post": {
                "tags": ["RPC"],
                "summary": "Call a mutation procedure",
                "description": "Mutations: auth.register, auth.login (public), users.updateProfilePhoto, todos.create, todos.update, todos.delete, tags.create, tags.attach, tags.detach, comments.create, attachments.create, attachments.delete.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "procedure", "type": "string", "required": true, "description": "Dotted procedure name, e.g. todos.create"},
                    {"in": "body", "name": "input", "description": "Procedure input", "schema": {"type": "object"}}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "{\"result\":{\"data\":...}}", "schema": {"$ref": "#/definitions/Result"}},
                    "400": {"description": "ValidationError", "schema": {"$ref": "#/definitions/Error"}},
                    "401": {"description": "Unauthorized or InvalidCredentials", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "NotFound", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "DuplicateEmail or DuplicateTag", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        }
    },
    "definitions": {
        "Result": {
            "type": "object",
            "properties": {
                "result": {
                    "type": "object",
                    "properties": {"data": {"type": "object"}}
                }
            }
        },
        "Error": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "message": {"type": "string"},
                        "code": {"type": "integer", "example": -32004},
                        "data": {
                            "type": "object",
                            "properties": {
                                "kind": {"type": "string", "example": "NotFound"},
                                "code": {"type": "string", "example": "NOT_FOUND"},
                                "httpStatus": {"type": "integer", "example": 404},
                                "path": {"type": "string", "example": "todos.update"}
                            }
                        }
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Tasklist API",
	Description:      "Personal to-do RPC API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
