// Package enricher holds the building blocks shared by manifest enrichers and
// the health check enricher built on them.
package enricher

import (
	"github.com/rzbill/podprobe/pkg/layered"
	"github.com/rzbill/podprobe/pkg/log"
	"github.com/rzbill/podprobe/pkg/podtemplate"
	"github.com/rzbill/podprobe/pkg/types"
)

// PropertyNamespace prefixes enricher-scoped property keys.
const PropertyNamespace = "enricher"

// Context carries what the build hands to every enricher.
type Context struct {
	// Properties are the build-time property overrides
	Properties layered.Layer

	// Config is the enricher's own configuration section
	Config layered.Layer

	// Applicable reports whether the workload is of the kind the enricher targets
	Applicable bool

	Logger log.Logger
}

func (c *Context) logger() log.Logger {
	if c.Logger == nil {
		return log.GetDefaultLogger()
	}
	return c.Logger
}

// Base implements the behavior common to all enrichers.
type Base struct {
	name string
	ctx  *Context
	log  log.Logger
}

// NewBase creates the base of an enricher called name.
func NewBase(ctx *Context, name string) Base {
	if ctx == nil {
		ctx = &Context{}
	}
	return Base{
		name: name,
		ctx:  ctx,
		log:  ctx.logger().WithComponent(name),
	}
}

// Name returns the enricher name.
func (b *Base) Name() string {
	return b.name
}

// Context returns the enricher context.
func (b *Base) Context() *Context {
	return b.ctx
}

// Log returns the logger tagged with the enricher name.
func (b *Base) Log() log.Logger {
	return b.log
}

// Config returns the value of key, looked up as the property
// enricher.<name>.<key> first and in the enricher configuration second.
func (b *Base) Config(key, defaultValue string) string {
	res := layered.NewResolver(
		layered.Tier{Layer: b.ctx.Properties, Prefix: layered.JoinKey(PropertyNamespace, b.name)},
		layered.Tier{Layer: b.ctx.Config},
	)
	if v, ok := res.ResolveString(key); ok {
		return v
	}
	return defaultValue
}

// AddInitContainer merges c into the pod template's init containers.
func (b *Base) AddInitContainer(builder podtemplate.Builder, c *types.InitContainer) error {
	if err := podtemplate.Merge(builder, c); err != nil {
		return err
	}
	b.log.Debug("added init container", log.Str("container", c.Name), log.Str("pod", builder.Name()))
	return nil
}

// HasInitContainer reports whether the pod template already has an init
// container called name.
func (b *Base) HasInitContainer(builder podtemplate.Builder, name string) (bool, error) {
	return podtemplate.HasInitContainer(builder, name)
}
