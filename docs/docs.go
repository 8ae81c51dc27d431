// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/guttosm/avpulse"
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
        "/api/v1/summary": {
            "get": {
                "description": "Metadata, latest bar and open/close/volume series aligned with the timestamps",
                "produces": ["application/json"],
                "tags": ["intraday"],
                "summary": "Ticker summary",
                "parameters": [
                    {"type": "string", "example": "IBM", "description": "Ticker symbol", "name": "symbol", "in": "query", "required": true},
                    {"type": "integer", "example": 60, "description": "Bar size in minutes (1, 5, 15, 30, 60)", "name": "interval", "in": "query", "required": true},
                    {"type": "string", "description": "provider (default) or store", "name": "source", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.SummaryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Provider failure", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/analysis": {
            "get": {
                "description": "Max-volume date(s), average closing price over distinct past days and latest close per date",
                "produces": ["application/json"],
                "tags": ["intraday"],
                "summary": "Intraday analysis",
                "parameters": [
                    {"type": "string", "example": "IBM", "description": "Ticker symbol", "name": "symbol", "in": "query", "required": true},
                    {"type": "integer", "example": 60, "description": "Bar size in minutes (1, 5, 15, 30, 60)", "name": "interval", "in": "query", "required": true},
                    {"type": "string", "description": "provider (default) or store", "name": "source", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.AnalysisResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Provider failure", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/report": {
            "get": {
                "description": "Summary and analysis computed from one provider call (or one stored snapshot)",
                "produces": ["application/json"],
                "tags": ["intraday"],
                "summary": "Summary and analysis",
                "parameters": [
                    {"type": "string", "example": "IBM", "description": "Ticker symbol", "name": "symbol", "in": "query", "required": true},
                    {"type": "integer", "example": 60, "description": "Bar size in minutes (1, 5, 15, 30, 60)", "name": "interval", "in": "query", "required": true},
                    {"type": "string", "description": "provider (default) or store", "name": "source", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.ReportResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Provider failure", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/snapshots": {
            "get": {
                "description": "Newest persisted fetches for a symbol",
                "produces": ["application/json"],
                "tags": ["store"],
                "summary": "Stored snapshots",
                "parameters": [
                    {"type": "string", "example": "IBM", "description": "Ticker symbol", "name": "symbol", "in": "query", "required": true},
                    {"type": "integer", "description": "Max rows (default 20)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Snapshot"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Store disabled", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "description": "Always returns OK if the service is running",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Returns ready if the snapshot store is reachable or disabled",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "analytics.CloseAverage": {
            "type": "object",
            "properties": {
                "average": {"type": "number", "example": 146.87},
                "days": {"type": "integer", "example": 20}
            }
        },
        "analytics.DateClose": {
            "type": "object",
            "properties": {
                "close": {"type": "number", "example": 147.78},
                "date": {"type": "string", "example": "2023-11-03"},
                "timestamp": {"type": "string", "example": "2023-11-03 19:30:00"}
            }
        },
        "analytics.DateVolume": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "example": "2023-11-03"},
                "volume": {"type": "integer", "example": 966256}
            }
        },
        "analytics.MaxVolume": {
            "type": "object",
            "properties": {
                "dates": {"type": "array", "items": {"type": "string"}, "example": ["2023-11-03"]},
                "volume": {"type": "integer", "example": 966256}
            }
        },
        "dto.AnalysisResponse": {
            "type": "object",
            "properties": {
                "average_close": {"$ref": "#/definitions/analytics.CloseAverage"},
                "daily_volumes": {"type": "array", "items": {"$ref": "#/definitions/analytics.DateVolume"}},
                "interval": {"type": "string", "example": "60min"},
                "latest_closes": {"type": "array", "items": {"$ref": "#/definitions/analytics.DateClose"}},
                "malformed": {"type": "integer", "example": 0},
                "max_volume": {"$ref": "#/definitions/analytics.MaxVolume"},
                "records": {"type": "integer", "example": 320},
                "source": {"type": "string", "example": "provider"},
                "symbol": {"type": "string", "example": "IBM"},
                "today": {"type": "string", "example": "2023-11-04"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Invalid API call."},
                "message": {"type": "string", "example": "no valid data found in the response"},
                "request_id": {"type": "string", "example": "3f1c2d9e-8a4b-4c1e-9f0a-2b7d6e5c4a31"},
                "timestamp": {"type": "string", "example": "2023-11-03T20:00:00Z"}
            }
        },
        "dto.LatestBar": {
            "type": "object",
            "properties": {
                "close": {"type": "string", "example": "147.78"},
                "high": {"type": "string", "example": "147.95"},
                "low": {"type": "string", "example": "147.70"},
                "open": {"type": "string", "example": "147.82"},
                "timestamp": {"type": "string", "example": "2023-11-03 19:30:00"},
                "volume": {"type": "string", "example": "1,210"}
            }
        },
        "dto.ReportResponse": {
            "type": "object",
            "properties": {
                "analysis": {"$ref": "#/definitions/dto.AnalysisResponse"},
                "summary": {"$ref": "#/definitions/dto.SummaryResponse"}
            }
        },
        "dto.SummaryResponse": {
            "type": "object",
            "properties": {
                "close_series": {"type": "array", "items": {"type": "number"}},
                "interval": {"type": "string", "example": "60min"},
                "last_refreshed": {"type": "string", "example": "2023-11-03 19:30:00"},
                "latest": {"$ref": "#/definitions/dto.LatestBar"},
                "open_series": {"type": "array", "items": {"type": "number"}},
                "source": {"type": "string", "example": "provider"},
                "symbol": {"type": "string", "example": "IBM"},
                "time_zone": {"type": "string", "example": "US/Eastern"},
                "timestamps": {"type": "array", "items": {"type": "string"}},
                "volume_series": {"type": "array", "items": {"type": "number"}}
            }
        },
        "models.Snapshot": {
            "type": "object",
            "properties": {
                "bars": {"type": "integer", "example": 320},
                "fetched_at": {"type": "string", "example": "2023-11-03T20:00:00Z"},
                "id": {"type": "integer", "example": 42},
                "information": {"type": "string"},
                "interval_minutes": {"type": "integer", "example": 60},
                "last_refreshed": {"type": "string", "example": "2023-11-03 19:00:00"},
                "output_size": {"type": "string", "example": "Full size"},
                "symbol": {"type": "string", "example": "IBM"},
                "time_zone": {"type": "string", "example": "US/Eastern"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "avpulse API",
	Description:      "Intraday aggregation and ranking over Alpha Vantage time series.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
