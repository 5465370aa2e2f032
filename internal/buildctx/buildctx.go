// Package buildctx holds the configuration shared by every dispatch of one
// schema build: the instance provider, the operation directory, global and
// per-kind interceptors, the pub/sub engine and scalar conventions.
//
// A Context is created explicitly and handed to the dispatch engine;
// Create applies the options of one build, Reset restores the defaults.
package buildctx

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/hanpama/routegraph/internal/container"
	"github.com/hanpama/routegraph/internal/convert"
	"github.com/hanpama/routegraph/internal/eventbus"
	language "github.com/hanpama/routegraph/internal/language"
	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/pubsub"
	"github.com/hanpama/routegraph/internal/router"
	"go.uber.org/zap"
)

// Options are the settings of one build. Zero fields leave the current
// value untouched.
type Options struct {
	DateScalarMode convert.DateMode
	ScalarsMap     map[reflect.Type]convert.ScalarFunc

	// PubSub wins over PubSubConfig.
	PubSub       pubsub.Engine
	PubSubConfig *pubsub.Config

	GlobalMiddlewares       []*middleware.Middleware
	QueryMiddlewares        []*middleware.Middleware
	MutationMiddlewares     []*middleware.Middleware
	SubscriptionMiddlewares []*middleware.Middleware
	MiddlewareStore         *middleware.Store

	// Container, ContainerGetter and DefaultContainer configure the
	// instance provider, which is rebuilt by every Create.
	Container        container.Container
	ContainerGetter  container.Getter
	DefaultContainer *container.Default

	// Router is booted into Directory, or into a router.Store over the
	// instance provider when no Directory was ever supplied.
	Router    *router.Router
	Directory router.Directory

	NullableByDefault *bool
	ValidateArgs      *bool

	Logger *zap.Logger
	Bus    *eventbus.Bus
}

// Snapshot is an immutable view of a Context.
type Snapshot struct {
	DateScalarMode convert.DateMode
	Scalars        map[reflect.Type]convert.ScalarFunc
	PubSub         pubsub.Engine

	GlobalMiddlewares       []*middleware.Middleware
	QueryMiddlewares        []*middleware.Middleware
	MutationMiddlewares     []*middleware.Middleware
	SubscriptionMiddlewares []*middleware.Middleware
	MiddlewareStore         *middleware.Store

	Container *container.Provider
	Directory router.Directory

	NullableByDefault bool
	ValidateArgs      bool

	Logger *zap.Logger
	Bus    *eventbus.Bus
}

// KindMiddlewares returns the interceptors configured for kind.
func (s Snapshot) KindMiddlewares(kind language.Operation) []*middleware.Middleware {
	switch kind {
	case language.Query:
		return s.QueryMiddlewares
	case language.Mutation:
		return s.MutationMiddlewares
	case language.Subscription:
		return s.SubscriptionMiddlewares
	}
	return nil
}

// Converter returns the value converter for the configured scalars.
func (s Snapshot) Converter() convert.Converter {
	return convert.Converter{DateMode: s.DateScalarMode, Scalars: s.Scalars}
}

// Context is the build context.
type Context struct {
	mu   sync.RWMutex
	snap Snapshot
	// directory is the caller supplied directory, kept across Create calls
	// until Reset.
	directory router.Directory
}

// New returns a Context holding the defaults.
func New() *Context {
	c := &Context{}
	c.Reset()
	return c
}

func defaults() Snapshot {
	return Snapshot{
		DateScalarMode:  convert.DateISO,
		Scalars:         map[reflect.Type]convert.ScalarFunc{},
		PubSub:          pubsub.NewMemory(),
		MiddlewareStore: middleware.NewStore(),
		Container:       container.NewProvider(),
		ValidateArgs:    true,
		Logger:          zap.NewNop(),
		Bus:             eventbus.New(),
	}
}

// Reset restores the defaults, dropping the directory, the container and
// every interceptor.
func (c *Context) Reset() {
	c.mu.Lock()
	c.snap = defaults()
	c.directory = nil
	c.mu.Unlock()
}

// Create applies opts. The instance provider is always rebuilt from opts
// and the router is booted; everything else changes only when supplied.
// On error the Context is unchanged.
func (c *Context) Create(opts Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.snap

	if opts.DateScalarMode != "" {
		next.DateScalarMode = opts.DateScalarMode
	}
	if opts.ScalarsMap != nil {
		next.Scalars = maps.Clone(opts.ScalarsMap)
	}
	switch {
	case opts.PubSub != nil:
		next.PubSub = opts.PubSub
	case opts.PubSubConfig != nil:
		engine, err := pubsub.New(*opts.PubSubConfig)
		if err != nil {
			return fmt.Errorf("buildctx: %w", err)
		}
		next.PubSub = engine
	}
	if opts.GlobalMiddlewares != nil {
		next.GlobalMiddlewares = slices.Clone(opts.GlobalMiddlewares)
	}
	if opts.QueryMiddlewares != nil {
		next.QueryMiddlewares = slices.Clone(opts.QueryMiddlewares)
	}
	if opts.MutationMiddlewares != nil {
		next.MutationMiddlewares = slices.Clone(opts.MutationMiddlewares)
	}
	if opts.SubscriptionMiddlewares != nil {
		next.SubscriptionMiddlewares = slices.Clone(opts.SubscriptionMiddlewares)
	}
	if opts.MiddlewareStore != nil {
		next.MiddlewareStore = opts.MiddlewareStore
	}
	if opts.NullableByDefault != nil {
		next.NullableByDefault = *opts.NullableByDefault
	}
	if opts.ValidateArgs != nil {
		next.ValidateArgs = *opts.ValidateArgs
	}
	if opts.Logger != nil {
		next.Logger = opts.Logger
	}
	if opts.Bus != nil {
		next.Bus = opts.Bus
	}

	next.Container = container.NewProvider(
		container.WithContainer(opts.Container),
		container.WithGetter(opts.ContainerGetter),
		container.WithDefault(opts.DefaultContainer),
	)

	custom := c.directory
	if opts.Directory != nil {
		custom = opts.Directory
	}
	dir := custom
	if dir == nil {
		dir = router.NewStore(next.Container, router.WithLogger(next.Logger))
	}
	var defs []router.Definition
	if opts.Router != nil {
		defs = opts.Router.Definitions()
	}
	if err := dir.Boot(defs); err != nil {
		return err
	}
	next.Directory = dir

	c.snap = next
	c.directory = custom
	return nil
}

// Snapshot returns the current settings.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}
