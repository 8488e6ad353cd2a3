// Package mocks provides test doubles for the store and collaborator
// interfaces so handler, service and sync-cycle tests run without a
// database or network.
package mocks
