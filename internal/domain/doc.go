// Package domain contains the core entities of the card queue and the
// rules that govern them, independent of storage and transport concerns.
package domain
