package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tikrar API",
        "description": "Partner matching and pairing engine for the Tikrar memorization program",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and session management"},
        {"name": "Batches", "description": "Program batch lookups"},
        {"name": "Pairing", "description": "Partner pairing administration"}
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
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "Tokens rotated"},
                    "401": {"description": "Expired or revoked"}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the current refresh token",
                "responses": {
                    "204": {"description": "Logged out"}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get the authenticated user profile",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/batches": {
            "get": {
                "tags": ["Batches"],
                "summary": "List program batches",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/batches/{id}": {
            "get": {
                "tags": ["Batches"],
                "summary": "Get a program batch",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/pairing/me": {
            "get": {
                "tags": ["Pairing"],
                "summary": "Get own pairing for a batch",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not paired"}
                }
            }
        },
        "/api/v1/admin/pairing/requests": {
            "get": {
                "tags": ["Pairing"],
                "summary": "List pairing requests grouped by partner mode",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/admin/pairing/candidates/{userId}": {
            "get": {
                "tags": ["Pairing"],
                "summary": "List scored partner candidates for a user",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "User already paired"}
                }
            }
        },
        "/api/v1/admin/pairing/approve": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Approve a submission and create its pairing",
                "responses": {
                    "200": {"description": "Approved"},
                    "409": {"description": "Already paired or invalid state"}
                }
            }
        },
        "/api/v1/admin/pairing/reject": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Reject a pending submission",
                "responses": {
                    "204": {"description": "Rejected"},
                    "409": {"description": "Invalid state"}
                }
            }
        },
        "/api/v1/admin/pairing/create": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Pair two users manually or confirm a system match",
                "responses": {
                    "201": {"description": "Pairing created"},
                    "409": {"description": "Already paired"}
                }
            }
        },
        "/api/v1/admin/pairing/approve-tarteel": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Approve a tarteel submission with its companion",
                "responses": {
                    "200": {"description": "Approved"},
                    "409": {"description": "Invalid state"}
                }
            }
        },
        "/api/v1/admin/pairing/approve-family": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Approve a family submission with its companion",
                "responses": {
                    "200": {"description": "Approved"},
                    "409": {"description": "Invalid state"}
                }
            }
        },
        "/api/v1/admin/pairing/change-partner-mode": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Move an unsettled submission to a different partner mode",
                "responses": {
                    "204": {"description": "Mode changed"},
                    "409": {"description": "Invalid state"}
                }
            }
        },
        "/api/v1/admin/pairing/bulk": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Bulk pair remaining system-match users",
                "responses": {
                    "200": {"description": "Pairs created"}
                }
            }
        },
        "/api/v1/admin/pairing/statistics": {
            "get": {
                "tags": ["Pairing"],
                "summary": "Per-mode submission and approval counts",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/admin/pairing/roster": {
            "get": {
                "tags": ["Pairing"],
                "summary": "Export the confirmed pairing roster as CSV or PDF",
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/api/v1/admin/pairing/roster/download": {
            "get": {
                "tags": ["Pairing"],
                "summary": "Re-download an archived roster export via signed token",
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
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
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"}
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
