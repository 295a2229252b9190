package main

// General API documentation for swaggo. Regenerate docs/ with
// `swag init -g cmd/beliefd/docs.go -o docs` after changing annotations.
//
// @title           beliefd API
// @version         1.0
// @description     Belief-state summaries of satellite tasking records and LLM analysis over them.
//
// @contact.name   beliefd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
