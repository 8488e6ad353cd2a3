// Package store defines the persistence interfaces for the card queue
// and shared database helpers. Implementations live under
// internal/platform; services and handlers depend only on the
// interfaces declared here.
package store
