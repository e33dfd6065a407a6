package resource

import "context"

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks github.com/trezcool/masomo-console/core/resource Gateway

// Gateway is the remote side of a resource: the platform's REST API.
// Every method resolves or fails; failures are *core.GatewayError values.
type Gateway interface {
	// List fetches the full collection.
	List(ctx context.Context, def Definition) (Collection, error)
	// Search fetches the collection filtered server-side by params.
	Search(ctx context.Context, def Definition, params map[string]string) (Collection, error)
	// Create submits fields without an identifier and returns the server's message, if any.
	Create(ctx context.Context, def Definition, fields Entity) (string, error)
	Update(ctx context.Context, def Definition, id string, patch Entity) (string, error)
	Delete(ctx context.Context, def Definition, id string) (string, error)
}
