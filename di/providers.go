package di

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/groupmesh/groupmesh-server/config"
	"github.com/groupmesh/groupmesh-server/graph"
	"github.com/groupmesh/groupmesh-server/graph/bolt"
	"github.com/groupmesh/groupmesh-server/logger"
	"github.com/groupmesh/groupmesh-server/resolver"
	"github.com/groupmesh/groupmesh-server/slugify"
	"github.com/groupmesh/groupmesh-server/validation"
)

const shutdownTimeout = 10 * time.Second

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.Load()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}), nil
}

// ProvideValidator provides the struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// DriverHandle wraps the graph driver with shutdown capability.
type DriverHandle struct {
	graph.Driver
}

// Shutdown implements do.Shutdownable.
func (h *DriverHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Close(ctx)
}

// ProvideDriver provides the bolt graph driver.
func ProvideDriver(i do.Injector) (*DriverHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	driver, err := bolt.Open(bolt.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Graph store connected", "uri", cfg.Graph.URI)

	return &DriverHandle{Driver: driver}, nil
}

// ProvideSlugAllocator provides the slug allocator backed by the graph store.
func ProvideSlugAllocator(i do.Injector) (*slugify.Allocator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	driverHandle := do.MustInvoke[*DriverHandle](i)

	checker := resolver.NewSlugChecker(driverHandle.Driver)
	return slugify.NewAllocator(checker, cfg.Slugs.MaxProbes), nil
}

// ProvideGroupsResolver provides the group resolver.
func ProvideGroupsResolver(i do.Injector) (*resolver.Groups, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	driverHandle := do.MustInvoke[*DriverHandle](i)
	slugs := do.MustInvoke[*slugify.Allocator](i)
	validate := do.MustInvoke[*validation.Validator](i)

	return resolver.NewGroups(
		driverHandle.Driver,
		slugs,
		validate,
		cfg.Categories,
		cfg.Groups,
		nil,
		log.Logger,
	), nil
}

// ProvidePostsResolver provides the post resolver.
func ProvidePostsResolver(i do.Injector) (*resolver.Posts, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	driverHandle := do.MustInvoke[*DriverHandle](i)
	slugs := do.MustInvoke[*slugify.Allocator](i)
	validate := do.MustInvoke[*validation.Validator](i)

	return resolver.NewPosts(
		driverHandle.Driver,
		slugs,
		validate,
		cfg.Categories,
		log.Logger,
	), nil
}

// ProvideUsersResolver provides the user resolver.
func ProvideUsersResolver(i do.Injector) (*resolver.Users, error) {
	log := do.MustInvoke[*logger.Logger](i)
	driverHandle := do.MustInvoke[*DriverHandle](i)
	slugs := do.MustInvoke[*slugify.Allocator](i)
	validate := do.MustInvoke[*validation.Validator](i)

	return resolver.NewUsers(
		driverHandle.Driver,
		slugs,
		validate,
		log.Logger,
	), nil
}
