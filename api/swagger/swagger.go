package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lanting Archive API",
        "description": "Reference-material archive with content acquisition and reconciliation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Archives", "description": "Archive records and their content items"},
        {"name": "Comments", "description": "Archive comments"},
        {"name": "Tribute", "description": "Pending content awaiting claim"}
    ],
    "paths": {
        "/archives": {
            "get": {
                "tags": ["Archives"],
                "summary": "List archives",
                "parameters": [
                    {"name": "chapter", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Archives"],
                "summary": "Create an archive with content slots",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "title", "in": "formData", "required": true, "type": "string"},
                    {"name": "chapter", "in": "formData", "required": true, "type": "string"},
                    {"name": "remarks", "in": "formData", "type": "string"},
                    {"name": "authors", "in": "formData", "type": "array", "items": {"type": "string"}},
                    {"name": "tags", "in": "formData", "type": "array", "items": {"type": "string"}},
                    {"name": "publisher", "in": "formData", "type": "string"},
                    {"name": "date", "in": "formData", "type": "string"},
                    {"name": "files", "in": "formData", "type": "file"},
                    {"name": "originalUrls", "in": "formData", "type": "array", "items": {"type": "string"}},
                    {"name": "pendingOrigIds", "in": "formData", "type": "array", "items": {"type": "integer"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/archives/chapters": {
            "get": {
                "tags": ["Archives"],
                "summary": "List the chapter set",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/archives/content/{filename}": {
            "get": {
                "tags": ["Archives"],
                "summary": "Read stored content by filename",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "filename", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/archives/{id}": {
            "get": {
                "tags": ["Archives"],
                "summary": "Get one archive",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "include", "in": "query", "type": "string", "description": "Set to comments to embed comments"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "post": {
                "tags": ["Archives"],
                "summary": "Update an archive, reconciling its content slots",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "storageUrls", "in": "formData", "type": "array", "items": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Archives"],
                "summary": "Delete an archive",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/archives/{id}/like": {
            "post": {
                "tags": ["Archives"],
                "summary": "Like or unlike an archive",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LikeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/archives/{id}/comments": {
            "get": {
                "tags": ["Comments"],
                "summary": "List an archive's comments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Comments"],
                "summary": "Post a comment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/archives/comments/{commentId}": {
            "put": {
                "tags": ["Comments"],
                "summary": "Edit a comment",
                "parameters": [
                    {"name": "commentId", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCommentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Comments"],
                "summary": "Delete a comment",
                "parameters": [
                    {"name": "commentId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/tribute/pending-origs": {
            "get": {
                "tags": ["Tribute"],
                "summary": "List pending origs claimable by the current user",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "archived"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        }
    },
    "definitions": {
        "LikeRequest": {
            "type": "object",
            "properties": {
                "liked": {"type": "boolean"}
            },
            "required": ["liked"]
        },
        "CreateCommentRequest": {
            "type": "object",
            "properties": {
                "nickname": {"type": "string"},
                "content": {"type": "string"}
            },
            "required": ["nickname", "content"]
        },
        "UpdateCommentRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            },
            "required": ["content"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
