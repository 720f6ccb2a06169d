// Package migrations registers the decorhub schema with pkg/migration.
// cmd/decorhub imports it for its side effects.
package migrations
