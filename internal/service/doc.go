// Package service contains the business operations of the card queue:
// enqueueing captures, listing the pending set, applying sync reports
// and requeueing failures. Handlers stay thin and delegate here; the
// services in turn speak to storage through the repository interfaces
// defined in this package.
package service
