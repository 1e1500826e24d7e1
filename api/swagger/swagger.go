package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "On-Call Roster API",
        "description": "Monthly on-call duty roster solver for hospital departments",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Optimize", "description": "Roster constraint solving"},
        {"name": "Schedule", "description": "Accepted roster persistence"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/optimize/": {
            "post": {
                "tags": ["Optimize"],
                "summary": "Solve a monthly on-call roster",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {"$ref": "#/definitions/OptimizeRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Solved schedule with per-doctor scores",
                        "schema": {"$ref": "#/definitions/OptimizeResponse"}
                    },
                    "400": {
                        "description": "Invalid calendar or malformed constraint",
                        "schema": {"$ref": "#/definitions/ErrorDetail"}
                    },
                    "422": {
                        "description": "No feasible assignment under the given constraints",
                        "schema": {"$ref": "#/definitions/ErrorDetail"}
                    },
                    "500": {
                        "description": "Solver fault",
                        "schema": {"$ref": "#/definitions/ErrorDetail"}
                    }
                }
            }
        },
        "/api/schedule/save/": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Persist an accepted monthly roster",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SaveRosterRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Roster stored"},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/api/schedule/{year}/{month}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Retrieve the stored roster for a month",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "year", "required": true, "type": "integer"},
                    {"in": "path", "name": "month", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Stored schedule"},
                    "404": {"description": "No roster saved for this month"}
                }
            }
        }
    },
    "definitions": {
        "OptimizeRequest": {
            "type": "object",
            "required": ["year", "month", "num_doctors"],
            "properties": {
                "year": {"type": "integer"},
                "month": {"type": "integer", "minimum": 1, "maximum": 12},
                "num_doctors": {"type": "integer", "minimum": 1, "maximum": 64},
                "holidays": {"type": "array", "items": {"type": "integer"}},
                "unavailable": {"type": "object"},
                "fixed_unavailable_weekdays": {"type": "object"},
                "prev_month_last_day": {"type": "integer"},
                "prev_month_worked_days": {"type": "object"},
                "score_min": {"type": "number"},
                "score_max": {"type": "number"},
                "min_score_by_doctor": {"type": "object"},
                "max_score_by_doctor": {"type": "object"},
                "target_score_by_doctor": {"type": "object"},
                "sat_prev": {"type": "object"},
                "past_sat_counts": {"type": "array", "items": {"type": "integer"}},
                "past_sunhol_counts": {"type": "array", "items": {"type": "integer"}},
                "past_total_scores": {"type": "object"},
                "objective_weights": {"type": "object"}
            }
        },
        "OptimizeResponse": {
            "type": "object",
            "properties": {
                "schedule": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ScheduleEntry"}
                },
                "scores": {"type": "object"}
            }
        },
        "ScheduleEntry": {
            "type": "object",
            "properties": {
                "day": {"type": "integer"},
                "day_shift": {"type": "integer"},
                "night_shift": {"type": "integer"},
                "is_holiday": {"type": "boolean"}
            }
        },
        "SaveRosterRequest": {
            "type": "object",
            "required": ["year", "month", "num_doctors", "schedule"],
            "properties": {
                "year": {"type": "integer"},
                "month": {"type": "integer"},
                "num_doctors": {"type": "integer"},
                "schedule": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ScheduleEntry"}
                }
            }
        },
        "ErrorDetail": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"}
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
