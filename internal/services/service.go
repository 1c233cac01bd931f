// Package services – shared collaborator contracts
//
// Every domain service composes the same three collaborators: the serialized
// transport, the TTL cache, and the in-flight registry. The interfaces here
// are declared at the consumer so tests can substitute fakes without touching
// the transport package.
package services

import (
	"context"
)

// Transport is the upstream request contract implemented by
// transport.Client. Calls are serialized FIFO by the implementation.
type Transport interface {
	Send(ctx context.Context, xmlRequest string) (string, error)
}

// CompanyProvider yields the active company context for queries.
// SettingsService implements it.
type CompanyProvider interface {
	ActiveCompany(ctx context.Context) (string, error)
}
