// Package domain contains the core business concepts for the docmerge service.
// Keep this package free of transport (HTTP) and infrastructure (Redis/Postgres) concerns.
package domain
