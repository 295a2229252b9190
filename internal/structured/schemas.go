package structured

const basicSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "BasicLLMResponse",
	"type": "object",
	"required": ["response"],
	"properties": {
		"response": {"type": "string", "description": "The main response from the LLM"}
	}
}`

const detailedSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "DetailedLLMResponse",
	"type": "object",
	"required": ["response", "confidence"],
	"properties": {
		"response": {"type": "string", "description": "The main response from the LLM"},
		"sources": {
			"type": ["array", "null"],
			"items": {"type": "string"},
			"description": "Sources or references for the response"
		},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1, "description": "Confidence score of the response"}
	}
}`

const informationalSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "InformationalContent",
	"type": "object",
	"required": ["title", "summary", "key_facts", "statistics"],
	"$defs": {
		"fact": {
			"type": "object",
			"required": ["content"],
			"properties": {
				"content": {"type": "string", "description": "The content of the fact"},
				"category": {"type": ["string", "null"], "description": "Category of the fact"}
			}
		},
		"statistic": {
			"type": "object",
			"required": ["name", "value"],
			"properties": {
				"name": {"type": "string", "description": "Name of the statistic"},
				"value": {"type": ["integer", "number", "string"], "description": "Value of the statistic"},
				"unit": {"type": ["string", "null"], "description": "Unit of the statistic, if applicable"}
			}
		},
		"component": {
			"type": "object",
			"required": ["name", "description"],
			"properties": {
				"name": {"type": "string", "description": "Name of the component"},
				"description": {"type": "string", "description": "Description of the component"},
				"specifications": {
					"type": ["object", "null"],
					"additionalProperties": {"type": ["string", "integer", "number"]},
					"description": "Specifications of the component"
				}
			}
		},
		"measurement": {
			"type": "object",
			"required": ["value", "unit"],
			"properties": {
				"value": {"type": "number", "description": "The numerical value of the measurement"},
				"unit": {"type": "string", "description": "The unit of measurement"}
			}
		},
		"strings": {"type": ["array", "null"], "items": {"type": "string"}}
	},
	"properties": {
		"title": {"type": "string", "description": "Title of the informational content"},
		"summary": {"type": "string", "description": "Brief summary or overview"},
		"key_facts": {"type": "array", "items": {"$ref": "#/$defs/fact"}, "description": "List of key facts"},
		"statistics": {"type": "array", "items": {"$ref": "#/$defs/statistic"}, "description": "List of important statistics"},
		"components": {"type": ["array", "null"], "items": {"$ref": "#/$defs/component"}, "description": "List of major components or systems"},
		"measurements": {"type": ["object", "null"], "additionalProperties": {"$ref": "#/$defs/measurement"}, "description": "Key measurements"},
		"historical_events": {"$ref": "#/$defs/strings", "description": "List of significant historical events"},
		"comparisons": {"$ref": "#/$defs/strings", "description": "Interesting comparisons or analogies"},
		"images": {"$ref": "#/$defs/strings", "description": "Descriptions of related images"},
		"additional_info": {"$ref": "#/$defs/strings", "description": "Any additional interesting information"}
	}
}`
