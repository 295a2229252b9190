package summary

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const observationParamsDef = `{
	"type": "object",
	"required": ["numFrames", "integrationTimeS", "trackType"],
	"properties": {
		"frameType": {"type": "string"},
		"numFrames": {"type": "integer"},
		"integrationTimeS": {"type": "number"},
		"trackType": {"type": "string"}
	}
}`

const targetDef = `{
	"type": "object",
	"required": ["name", "rso"],
	"properties": {
		"name": {"type": "string"},
		"rso": {
			"type": "object",
			"required": ["catalogId"],
			"properties": {"catalogId": {"type": "string"}}
		}
	}
}`

var intentsSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "object",
		"required": ["target", "currentStatus", "updateList", "priority", "intentObservationParameters", "createdAt"],
		"properties": {
			"target": ` + targetDef + `,
			"currentStatus": {"type": "string"},
			"updateList": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["updateType", "updateReason", "status", "createdAt"],
					"properties": {
						"updateType": {"type": "string"},
						"updateReason": {"type": "string"},
						"status": {"type": "string"},
						"createdAt": {"type": "string"}
					}
				}
			},
			"priority": {"type": "integer"},
			"intentObservationParameters": {
				"allOf": [` + observationParamsDef + `, {"required": ["frameType"]}]
			},
			"createdAt": {"type": "string"}
		}
	}
}`

var collectRequestsSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "object",
		"required": ["target", "intent", "startDateTime", "endDateTime", "durationS", "priority", "frameType", "instrument"],
		"properties": {
			"target": ` + targetDef + `,
			"intent": {
				"type": "object",
				"required": ["currentStatus", "intentObservationParameters"],
				"properties": {
					"currentStatus": {"type": "string"},
					"intentObservationParameters": ` + observationParamsDef + `
				}
			},
			"startDateTime": {"type": "string"},
			"endDateTime": {"type": "string"},
			"durationS": {"type": "number"},
			"priority": {"type": "integer"},
			"frameType": {"type": "string"},
			"instrument": {
				"type": "object",
				"required": ["sensor"],
				"properties": {
					"sensor": {
						"type": "object",
						"required": ["name", "latitudeDeg", "longitudeDeg", "altitudeKm"],
						"properties": {
							"name": {"type": "string"},
							"latitudeDeg": {"type": "number"},
							"longitudeDeg": {"type": "number"},
							"altitudeKm": {"type": "number"}
						}
					}
				}
			}
		}
	}
}`

var (
	intentsSchema         = jsonschema.MustCompileString("https://beliefd.local/schemas/summary/intents.schema.json", intentsSchemaJSON)
	collectRequestsSchema = jsonschema.MustCompileString("https://beliefd.local/schemas/summary/collect_requests.schema.json", collectRequestsSchemaJSON)
)

// validateDocument checks a decoded record list against schema. The
// validation error names the offending instance location (e.g. /3/target/rso).
func validateDocument(schema *jsonschema.Schema, doc []any) error {
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}
