// Package summary groups observation-scheduling records by target and
// reduces each group to a flat, display-ready mapping.
//
// Two record kinds are supported:
//
//   - intents: requested observations with a status lifecycle and an update list.
//   - collect requests: scheduled observations with timing and sensor detail.
//
// Records are grouped by GroupKey(target.name, target.rso.catalogId). Input is
// validated against an embedded JSON Schema once, at ingestion; accumulation
// then runs over typed records in a single pass and formatting derives the
// final values (tallies, most common status progression, completion rate,
// average duration). Each call owns its accumulators, so calls are
// independent and safe to run concurrently.
package summary
