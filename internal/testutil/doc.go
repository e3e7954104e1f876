// Package testutil contains helpers used across tests to reduce boilerplate:
// fake vendor endpoints speaking server-sent events, a fluent builder for
// chat requests, and collectors for event streams. They are not intended for
// production usage.
package testutil
