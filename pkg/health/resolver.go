// Package health resolves liveness and readiness probes from layered build
// configuration.
package health

import (
	"errors"
	"strings"

	"github.com/rzbill/podprobe/pkg/layered"
	"github.com/rzbill/podprobe/pkg/log"
	"github.com/rzbill/podprobe/pkg/types"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// DefaultPropertyPrefix prefixes the property keys read by the resolver,
// e.g. health.port or health.readiness.path.
const DefaultPropertyPrefix = "health"

// Configuration keys, shared by properties and structured configuration.
const (
	KeyType     = "type"
	KeyPath     = "path"
	KeyPort     = "port"
	KeyPortName = "port-name"
	KeyScheme   = "scheme"
	KeyHost     = "host"
	KeyHeaders  = "headers"
	KeyCommand  = "command"
)

// Inputs are the collaborator-supplied facts a resolution runs on.
type Inputs struct {
	// Properties are the build-time overrides
	Properties layered.Layer

	// Config is the declared configuration tree
	Config layered.Layer

	// Applicable reports whether the workload is of the kind the probes are for.
	// When false no probe is resolved at all.
	Applicable bool
}

// Probes holds the resolved probes. A nil field means the role has no probe.
type Probes struct {
	Liveness  *types.ProbeSpec
	Readiness *types.ProbeSpec
}

// Get returns the probe for role.
func (p Probes) Get(role types.Role) *types.ProbeSpec {
	if role == types.RoleReadiness {
		return p.Readiness
	}
	return p.Liveness
}

func (p *Probes) set(role types.Role, spec *types.ProbeSpec) {
	if role == types.RoleReadiness {
		p.Readiness = spec
	} else {
		p.Liveness = spec
	}
}

// Resolver turns layered configuration into probe specs. Resolution is a pure
// function of its inputs.
type Resolver struct {
	// PropertyPrefix defaults to DefaultPropertyPrefix
	PropertyPrefix string

	// Logger defaults to the package default logger
	Logger log.Logger
}

// NewResolver creates a resolver reading properties under prefix.
func NewResolver(prefix string, logger log.Logger) *Resolver {
	return &Resolver{PropertyPrefix: prefix, Logger: logger}
}

func (r *Resolver) prefix() string {
	if r.PropertyPrefix == "" {
		return DefaultPropertyPrefix
	}
	return r.PropertyPrefix
}

func (r *Resolver) logger() log.Logger {
	if r.Logger == nil {
		return log.GetDefaultLogger()
	}
	return r.Logger
}

// Resolve resolves both roles. A failure in one role does not prevent or
// discard the other: the returned Probes always hold every role that resolved,
// and the error joins one *types.RoleError per failed role.
func (r *Resolver) Resolve(in Inputs) (Probes, error) {
	var probes Probes
	if !in.Applicable {
		r.logger().Debug("workload is not applicable, skipping health checks")
		return probes, nil
	}

	var errs []error
	for _, role := range types.Roles() {
		spec, err := r.resolveRole(in, role)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		probes.set(role, spec)
	}
	return probes, errors.Join(errs...)
}

// ResolveRole resolves the probe of a single role. It returns nil without an
// error when configuration disables the probe.
func (r *Resolver) ResolveRole(in Inputs, role types.Role) (*types.ProbeSpec, error) {
	if !in.Applicable {
		return nil, nil
	}
	return r.resolveRole(in, role)
}

func (r *Resolver) resolveRole(in Inputs, role types.Role) (*types.ProbeSpec, error) {
	res := layered.ForRole(in.Properties, in.Config, r.prefix(), role)
	logger := r.logger().With(log.Str("role", string(role)))

	spec, err := r.resolveSpec(res, logger)
	if err != nil {
		return nil, &types.RoleError{Role: role, Err: err}
	}
	if spec == nil {
		logger.Info("probe disabled by configuration")
		return nil, nil
	}
	logger.Debug("probe resolved", log.Str("probe", spec.String()))
	return spec, nil
}

func (r *Resolver) resolveSpec(res *layered.Resolver, logger log.Logger) (*types.ProbeSpec, error) {
	kind := types.ProbeKindHTTP
	explicit, hasType := res.ResolveString(KeyType)
	if hasType {
		parsed, err := types.ParseProbeKind(explicit)
		if err != nil {
			return nil, err
		}
		kind = parsed
	}

	switch kind {
	case types.ProbeKindTCP:
		return resolveTCP(res, logger)
	case types.ProbeKindExec:
		return resolveExec(res, logger)
	default:
		return resolveHTTP(res, logger)
	}
}

func resolveHTTP(res *layered.Resolver, logger log.Logger) (*types.ProbeSpec, error) {
	path, ok := res.ResolveString(KeyPath)
	if !ok {
		logger.Debug("no path configured for http probe")
		return nil, nil
	}
	logger.Debug("resolved path", log.Str("path", path), log.Str("source", res.Source(KeyPath)))

	port, ok, err := resolvePort(res, logger)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if port == nil {
		p := intstr.FromInt32(types.DefaultHTTPPort)
		port = &p
	}

	scheme := types.DefaultScheme
	if s, ok := res.ResolveString(KeyScheme); ok {
		scheme = strings.ToUpper(s)
	}
	host, _ := res.ResolveString(KeyHost)

	probe := types.HTTPProbe{
		Scheme: scheme,
		Host:   host,
		Port:   *port,
		Path:   normalizePath(path),
	}
	if entries, ok := res.ResolveMap(KeyHeaders); ok {
		for _, e := range entries {
			probe.Headers = append(probe.Headers, types.HTTPHeader{Name: e.Name, Value: e.Value})
		}
	}
	return types.NewHTTPProbeSpec(probe), nil
}

func resolveTCP(res *layered.Resolver, logger log.Logger) (*types.ProbeSpec, error) {
	port, ok, err := resolvePort(res, logger)
	if err != nil || !ok {
		return nil, err
	}
	if port == nil {
		logger.Debug("no port configured for tcp probe")
		return nil, nil
	}
	return types.NewTCPProbeSpec(types.TCPProbe{Port: *port}), nil
}

func resolveExec(res *layered.Resolver, logger log.Logger) (*types.ProbeSpec, error) {
	command, ok := res.ResolveStringList(KeyCommand)
	if !ok {
		logger.Debug("no command configured for exec probe")
		return nil, nil
	}
	return types.NewExecProbeSpec(types.ExecProbe{Command: command}), nil
}

// resolvePort resolves the mutually exclusive port and port-name keys. It
// returns ok=false when a non-positive port disables the probe, and a nil
// port when neither key is set. Ports above types.MaxPort are invalid numbers.
func resolvePort(res *layered.Resolver, logger log.Logger) (*intstr.IntOrString, bool, error) {
	number, hasNumber, err := res.ResolveIntMax(KeyPort, types.MaxPort)
	if err != nil {
		return nil, false, err
	}
	name, hasName := res.ResolveString(KeyPortName)

	switch {
	case hasNumber && hasName:
		return nil, false, &types.ConflictingPortError{Port: number, PortName: name}
	case hasNumber:
		if number <= 0 {
			logger.Debug("non-positive port disables probe", log.Int("port", number), log.Str("source", res.Source(KeyPort)))
			return nil, false, nil
		}
		port := intstr.FromInt32(int32(number))
		return &port, true, nil
	case hasName:
		port := intstr.FromString(name)
		return &port, true, nil
	default:
		return nil, true, nil
	}
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
