package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutorlink API",
        "description": "Tutoring marketplace booking backend",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Teachers", "description": "Teacher profiles"},
        {"name": "Availability", "description": "Weekly rules and date overrides"},
        {"name": "Slots", "description": "Computed bookable slots"},
        {"name": "Bookings", "description": "Lesson bookings"}
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
                    "503": {"description": "Dependency unavailable"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with email and password",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teacher profiles",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_dir", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Teacher page", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create a teacher profile",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Profile already exists"}
                }
            }
        },
        "/api/v1/teachers/{id}": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Get a teacher profile",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Teacher"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Teachers"],
                "summary": "Update a teacher profile",
                "responses": {
                    "200": {"description": "Updated"}
                }
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Deactivate a teacher profile",
                "responses": {
                    "204": {"description": "Deactivated"}
                }
            }
        },
        "/api/v1/teachers/{id}/availability/weekly": {
            "get": {
                "tags": ["Availability"],
                "summary": "List weekly availability rules",
                "responses": {
                    "200": {"description": "Rules"}
                }
            },
            "put": {
                "tags": ["Availability"],
                "summary": "Replace weekly availability rules",
                "responses": {
                    "200": {"description": "Saved"},
                    "422": {"description": "Invalid or overlapping windows"}
                }
            }
        },
        "/api/v1/teachers/{id}/availability/overrides": {
            "get": {
                "tags": ["Availability"],
                "summary": "List date overrides in a range",
                "parameters": [
                    {"name": "start", "in": "query", "type": "string", "format": "date"},
                    {"name": "end", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Overrides"}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Create or replace the override for a date",
                "responses": {
                    "200": {"description": "Saved"}
                }
            }
        },
        "/api/v1/teachers/{id}/availability/overrides/{date}": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete the override for a date",
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "No override for that date"}
                }
            }
        },
        "/api/v1/teachers/{id}/slots": {
            "get": {
                "tags": ["Slots"],
                "summary": "Compute bookable slots for a date range",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "end", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "duration", "in": "query", "type": "integer"},
                    {"name": "buffer", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Slots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid query"}
                }
            }
        },
        "/api/v1/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings",
                "responses": {
                    "200": {"description": "Booking page"}
                }
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Create a booking",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Slot already taken"}
                }
            }
        },
        "/api/v1/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get a booking",
                "responses": {
                    "200": {"description": "Booking"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/bookings/{id}/confirm": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Confirm a pending booking",
                "responses": {
                    "200": {"description": "Confirmed"}
                }
            }
        },
        "/api/v1/bookings/{id}/cancel": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Cancel a booking",
                "responses": {
                    "200": {"description": "Cancelled"}
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
            }
        },
        "TimeSlot": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "10:00"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
