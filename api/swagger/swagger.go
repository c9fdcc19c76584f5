package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Floorman API",
        "description": "Repair floor management API: retrieval/undo workflow and work accuracy metrics",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token lifecycle"},
        {"name": "Retrievals", "description": "Undo request workflow"},
        {"name": "Accuracy", "description": "Work accuracy metrics"},
        {"name": "Notifications", "description": "In-app notification inbox"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retrievals": {
            "get": {
                "tags": ["Retrievals"],
                "summary": "List retrieval requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "targetType", "in": "query", "type": "string"},
                    {"name": "employeeId", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Retrievals"],
                "summary": "Submit a retrieval request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRetrievalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Open request already exists for target"},
                    "412": {"description": "Target has dependent records"}
                }
            }
        },
        "/retrievals/eligibility": {
            "get": {
                "tags": ["Retrievals"],
                "summary": "Check whether a target can be retrieved",
                "parameters": [
                    {"name": "targetType", "in": "query", "required": true, "type": "string"},
                    {"name": "targetId", "in": "query", "required": true, "type": "string"},
                    {"name": "action", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retrievals/sweep": {
            "post": {
                "tags": ["Retrievals"],
                "summary": "Run the auto-approval sweep on demand (admin)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retrievals/{id}": {
            "get": {
                "tags": ["Retrievals"],
                "summary": "Get retrieval request detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retrievals/{id}/approve": {
            "post": {
                "tags": ["Retrievals"],
                "summary": "Approve a pending request (supervisor/admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ApproveRetrievalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request no longer pending"}
                }
            }
        },
        "/retrievals/{id}/reject": {
            "post": {
                "tags": ["Retrievals"],
                "summary": "Reject a pending request (supervisor/admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRetrievalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request no longer pending"}
                }
            }
        },
        "/retrievals/{id}/cancel": {
            "post": {
                "tags": ["Retrievals"],
                "summary": "Cancel an own pending request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retrievals/{id}/perform": {
            "post": {
                "tags": ["Retrievals"],
                "summary": "Execute the undo for an approved request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request not approved or undo failed"}
                }
            }
        },
        "/accuracy/{employeeId}": {
            "get": {
                "tags": ["Accuracy"],
                "summary": "Current accuracy for an employee",
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "type": "string", "description": "DAILY, WEEKLY, MONTHLY, QUARTERLY, or YEARLY"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/accuracy/{employeeId}/history": {
            "get": {
                "tags": ["Accuracy"],
                "summary": "Stored accuracy history",
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/accuracy/{employeeId}/export": {
            "get": {
                "tags": ["Accuracy"],
                "summary": "Export accuracy history as CSV or PDF",
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "description": "csv or pdf"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/accuracy/{employeeId}/recompute": {
            "post": {
                "tags": ["Accuracy"],
                "summary": "Recompute the current bucket (supervisor/admin)",
                "parameters": [
                    {"name": "employeeId", "in": "path", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List unread notifications",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification as read",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
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
        "CreateRetrievalRequest": {
            "type": "object",
            "properties": {
                "targetType": {"type": "string", "enum": ["job_card", "stock_entry"]},
                "targetId": {"type": "string"},
                "action": {"type": "string", "enum": ["DELETE", "EDIT", "UNDO", "RESTORE"]},
                "reason": {"type": "string"},
                "force": {"type": "boolean"}
            },
            "required": ["targetType", "targetId", "action", "reason"]
        },
        "ApproveRetrievalRequest": {
            "type": "object",
            "properties": {
                "note": {"type": "string"}
            }
        },
        "RejectRetrievalRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
        },
        "RetrievalRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "targetType": {"type": "string"},
                "targetId": {"type": "string"},
                "employeeId": {"type": "string"},
                "supervisorId": {"type": "string"},
                "action": {"type": "string"},
                "reason": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "AUTO_APPROVED", "APPROVED", "REJECTED", "COMPLETED", "CANCELLED"]},
                "hasDependents": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "decidedAt": {"type": "string"},
                "completedAt": {"type": "string"}
            }
        },
        "AccuracySummary": {
            "type": "object",
            "properties": {
                "employeeId": {"type": "string"},
                "periodType": {"type": "string"},
                "periodStart": {"type": "string"},
                "periodEnd": {"type": "string"},
                "totalActions": {"type": "integer"},
                "retrievalRequests": {"type": "integer"},
                "accuracyRate": {"type": "number"}
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
                "pagination": {"type": "object"},
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
