package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Road Reclassification System API",
        "description": "Workflow service for road reclassification applications",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Applications", "description": "Road reclassification applications"},
        {"name": "Workflow", "description": "Status transitions on applications"},
        {"name": "Verification", "description": "NRCC field verification sub-workflow"},
        {"name": "Appeals", "description": "Appeals against disapproval decisions"},
        {"name": "Reference", "description": "Regions, districts and organizations"},
        {"name": "Users", "description": "User administration"},
        {"name": "Exports", "description": "CSV and PDF exports"},
        {"name": "Admin", "description": "Administrative operations"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/applications": {
            "get": {
                "tags": ["Applications"],
                "summary": "List applications visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated status filter"},
                    {"name": "applicantType", "in": "query", "type": "string"},
                    {"name": "queue", "in": "query", "type": "boolean", "description": "Only applications awaiting the caller's role"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Applications"],
                "summary": "Create a draft application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateApplicationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation failure"}
                }
            }
        },
        "/applications/{id}": {
            "get": {
                "tags": ["Applications"],
                "summary": "Fetch one application by id or application number",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Applications"],
                "summary": "Update a draft or returned application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateApplicationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Application is not editable in its current status"}
                }
            },
            "delete": {
                "tags": ["Applications"],
                "summary": "Delete a draft application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted"},
                    "412": {"description": "Only drafts can be deleted"}
                }
            }
        },
        "/applications/{id}/history": {
            "get": {
                "tags": ["Applications"],
                "summary": "Approval ledger for an application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}/submit": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Submit a draft or returned application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/WorkflowActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Transitioned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent modification, re-fetch and retry"},
                    "412": {"description": "Illegal transition from current status"}
                }
            }
        },
        "/applications/{id}/decision": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Record the minister's decision",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Transitioned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent modification, re-fetch and retry"}
                }
            }
        },
        "/applications/{id}/verification/assign": {
            "post": {
                "tags": ["Verification"],
                "summary": "Assign NRCC members to verify an application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignVerificationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}/appeal": {
            "post": {
                "tags": ["Appeals"],
                "summary": "Appeal a disapproval decision",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AppealRequest"}}
                ],
                "responses": {
                    "200": {"description": "Appeal opened", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Appeal window closed or already appealed"}
                }
            }
        },
        "/references/regions": {
            "get": {
                "tags": ["Reference"],
                "summary": "List regions",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create a user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/applications.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export applications as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV stream"}
                }
            }
        },
        "/applications/{id}/export.pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export one application as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "CreateApplicationRequest": {
            "type": "object",
            "properties": {
                "applicantType": {"type": "string"},
                "roadName": {"type": "string"},
                "currentClass": {"type": "string"},
                "proposedClass": {"type": "string"},
                "regionId": {"type": "integer"},
                "districtId": {"type": "integer"},
                "startingPoint": {"type": "string"},
                "endingPoint": {"type": "string"},
                "lengthKm": {"type": "number"},
                "justification": {"type": "string"},
                "criteria": {"type": "array", "items": {"type": "object"}}
            },
            "required": ["applicantType", "roadName", "currentClass", "proposedClass"]
        },
        "UpdateApplicationRequest": {
            "type": "object",
            "properties": {
                "roadName": {"type": "string"},
                "startingPoint": {"type": "string"},
                "endingPoint": {"type": "string"},
                "lengthKm": {"type": "number"},
                "justification": {"type": "string"},
                "criteria": {"type": "array", "items": {"type": "object"}}
            }
        },
        "WorkflowActionRequest": {
            "type": "object",
            "properties": {
                "comments": {"type": "string"}
            }
        },
        "DecisionRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["APPROVED", "DISAPPROVED"]},
                "disapprovalType": {"type": "string", "enum": ["REFUSED", "DESIGNATED"]},
                "comments": {"type": "string"}
            },
            "required": ["decision"]
        },
        "AssignVerificationRequest": {
            "type": "object",
            "properties": {
                "memberIds": {"type": "array", "items": {"type": "integer"}},
                "dueDate": {"type": "string", "format": "date-time"},
                "comments": {"type": "string"}
            },
            "required": ["memberIds"]
        },
        "AppealRequest": {
            "type": "object",
            "properties": {
                "grounds": {"type": "string"}
            },
            "required": ["grounds"]
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "role": {"type": "string"},
                "regionId": {"type": "integer"},
                "districtId": {"type": "integer"},
                "active": {"type": "boolean"},
                "password": {"type": "string"}
            },
            "required": ["email", "fullName", "role", "password"]
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
