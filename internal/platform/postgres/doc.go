// Package postgres provides the PostgreSQL implementation of the card
// queue store defined in internal/store.
package postgres
