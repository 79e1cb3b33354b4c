// Package di wires the resolver layer and its collaborators into a
// samber/do container.
package di

import (
	"github.com/samber/do/v2"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, ProvideConfig)
	do.Provide(injector, ProvideLogger)
	do.Provide(injector, ProvideValidator)

	// Graph store
	do.Provide(injector, ProvideDriver)

	// Slug allocation
	do.Provide(injector, ProvideSlugAllocator)

	// Resolvers
	do.Provide(injector, ProvideGroupsResolver)
	do.Provide(injector, ProvidePostsResolver)
	do.Provide(injector, ProvideUsersResolver)

	return injector
}
