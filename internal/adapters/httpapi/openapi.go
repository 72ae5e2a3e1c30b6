package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/httpjson"
)

// handleOpenAPI renvoie une spec OpenAPI minimale pour cadrer l'API.
// Elle sera enrichie au fil des jalons.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOK := func(schemaRef string) map[string]any {
		return map[string]any{
			"description": "OK",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}

	jsonErr := map[string]any{
		"description": "Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Error"},
			},
		},
	}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "TAW API",
			"version": "v1",
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"OpenAPIDocument": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
				},
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error":     map[string]any{"type": "string"},
						"errorCode": map[string]any{"type": "string", "enum": []any{"already_running", "launch_failed", "player_crashed", "stream_ended"}},
					},
					"required": []any{"error"},
				},
				"Session": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":        map[string]any{"type": "string"},
						"channel":   map[string]any{"type": "string"},
						"quality":   map[string]any{"type": "string"},
						"trigger":   map[string]any{"type": "string", "enum": []any{"manual", "schedule"}},
						"state":     map[string]any{"type": "string", "enum": []any{"starting", "running", "exited", "failed"}},
						"pid":       map[string]any{"type": "integer"},
						"retries":   map[string]any{"type": "integer"},
						"startedAt": map[string]any{"type": "string", "format": "date-time"},
						"endedAt":   map[string]any{"type": "string", "format": "date-time"},
						"exitCode":  map[string]any{"type": "integer"},
						"errorCode": map[string]any{"type": "string"},
						"error":     map[string]any{"type": "string"},
					},
					"required": []any{"id", "channel", "state"},
				},
				"Status": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"active":      map[string]any{"$ref": "#/components/schemas/Session"},
						"lastFailure": map[string]any{"$ref": "#/components/schemas/Session"},
					},
				},
				"StartWatchRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"channel": map[string]any{"type": "string"},
						"quality": map[string]any{"type": "string"},
					},
					"required": []any{"channel"},
				},
				"ScheduleEntry": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"timeOfDay": map[string]any{"type": "string", "description": "HH:MM, heure locale"},
						"channel":   map[string]any{"type": "string"},
						"quality":   map[string]any{"type": "string"},
						"enabled":   map[string]any{"type": "boolean"},
					},
					"required": []any{"timeOfDay", "channel"},
				},
				"ScheduleView": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"entry":     map[string]any{"$ref": "#/components/schemas/ScheduleEntry"},
						"nextRun":   map[string]any{"type": "string", "format": "date-time"},
						"lastFired": map[string]any{"type": "string", "description": "YYYY-MM-DD du dernier déclenchement"},
					},
				},
				"Settings": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"cookieFile":          map[string]any{"type": "string"},
						"player":              map[string]any{"type": "string"},
						"quality":             map[string]any{"type": "string"},
						"lowResource":         map[string]any{"type": "boolean"},
						"streamRetries":       map[string]any{"type": "integer", "minimum": 1},
						"retryCount":          map[string]any{"type": "integer", "minimum": 0},
						"retryDelaySeconds":   map[string]any{"type": "integer", "minimum": 1},
						"defaultScheduleTime": map[string]any{"type": "string"},
					},
					"additionalProperties": false,
				},
				"CookieReport": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"path":          map[string]any{"type": "string"},
						"count":         map[string]any{"type": "integer"},
						"expired":       map[string]any{"type": "integer"},
						"hasTwitchAuth": map[string]any{"type": "boolean"},
						"warnings":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
			},
		},
		"paths": map[string]any{
			"/api/v1/health": map[string]any{
				"get": map[string]any{
					"summary":   "Health check",
					"responses": map[string]any{"200": map[string]any{"description": "OK"}},
				},
			},
			"/api/v1/version": map[string]any{
				"get": map[string]any{
					"summary":   "Build info",
					"responses": map[string]any{"200": map[string]any{"description": "OK"}},
				},
			},
			"/api/v1/openapi.json": map[string]any{
				"get": map[string]any{
					"summary":   "Cette spec",
					"responses": map[string]any{"200": jsonOK("#/components/schemas/OpenAPIDocument")},
				},
			},
			"/api/v1/watch": map[string]any{
				"post": map[string]any{
					"summary": "Démarrer une session de watch",
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/StartWatchRequest"},
							},
						},
					},
					"responses": map[string]any{
						"201": jsonOK("#/components/schemas/Session"),
						"409": jsonErr,
						"502": jsonErr,
					},
				},
				"get": map[string]any{
					"summary":   "Session en cours + dernier échec",
					"responses": map[string]any{"200": jsonOK("#/components/schemas/Status")},
				},
			},
			"/api/v1/watch/stop": map[string]any{
				"post": map[string]any{
					"summary":   "Arrêter la session en cours (no-op si idle)",
					"responses": map[string]any{"200": jsonOK("#/components/schemas/Status")},
				},
			},
			"/api/v1/sessions": map[string]any{
				"get": map[string]any{
					"summary": "Historique des sessions",
					"parameters": []any{
						map[string]any{"name": "limit", "in": "query", "schema": map[string]any{"type": "integer"}},
					},
					"responses": map[string]any{"200": map[string]any{"description": "OK"}},
				},
			},
			"/api/v1/schedule": map[string]any{
				"get": map[string]any{
					"summary":   "Planification courante",
					"responses": map[string]any{"200": jsonOK("#/components/schemas/ScheduleView")},
				},
				"put": map[string]any{
					"summary": "Armer la planification quotidienne",
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/ScheduleEntry"},
							},
						},
					},
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/ScheduleEntry"),
						"400": jsonErr,
					},
				},
				"delete": map[string]any{
					"summary":   "Désarmer la planification",
					"responses": map[string]any{"200": map[string]any{"description": "OK"}},
				},
			},
			"/api/v1/settings": map[string]any{
				"get": map[string]any{
					"summary":   "Lire les settings",
					"responses": map[string]any{"200": jsonOK("#/components/schemas/Settings")},
				},
				"put": map[string]any{
					"summary": "Mettre à jour les settings",
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/Settings"},
							},
						},
					},
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Settings"),
						"400": jsonErr,
					},
				},
			},
			"/api/v1/cookies/check": map[string]any{
				"get": map[string]any{
					"summary":   "Preflight du cookie jar",
					"responses": map[string]any{"200": jsonOK("#/components/schemas/CookieReport"), "400": jsonErr},
				},
			},
			"/api/v1/events": map[string]any{
				"get": map[string]any{
					"summary":   "Events temps réel (SSE): watch.* et schedule.*",
					"responses": map[string]any{"200": map[string]any{"description": "text/event-stream"}},
				},
			},
		},
	}

	httpjson.Write(w, http.StatusOK, spec)
}
