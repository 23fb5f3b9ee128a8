package enricher

import (
	"github.com/rzbill/podprobe/pkg/health"
	"github.com/rzbill/podprobe/pkg/log"
	"github.com/rzbill/podprobe/pkg/types"
	corev1 "k8s.io/api/core/v1"
)

// DefaultHealthCheckName is the name of the health check enricher unless
// configured otherwise.
const DefaultHealthCheckName = "healthcheck"

// HealthCheck attaches liveness and readiness probes resolved from the build
// configuration to pod templates.
type HealthCheck struct {
	Base
	resolver *health.Resolver
}

// NewHealthCheck creates a health check enricher. Probe properties are read
// under propertyPrefix, health.DefaultPropertyPrefix when empty.
func NewHealthCheck(ctx *Context, name, propertyPrefix string) *HealthCheck {
	if name == "" {
		name = DefaultHealthCheckName
	}
	h := &HealthCheck{Base: NewBase(ctx, name)}
	h.resolver = health.NewResolver(propertyPrefix, h.Log())
	return h
}

func (h *HealthCheck) inputs() health.Inputs {
	return health.Inputs{
		Properties: h.ctx.Properties,
		Config:     h.ctx.Config,
		Applicable: h.ctx.Applicable,
	}
}

// Probes resolves both probes. Roles that resolved are returned even when the
// other role failed.
func (h *HealthCheck) Probes() (health.Probes, error) {
	return h.resolver.Resolve(h.inputs())
}

// LivenessProbe returns the liveness probe, nil when none applies.
func (h *HealthCheck) LivenessProbe() (*corev1.Probe, error) {
	return h.probe(types.RoleLiveness)
}

// ReadinessProbe returns the readiness probe, nil when none applies.
func (h *HealthCheck) ReadinessProbe() (*corev1.Probe, error) {
	return h.probe(types.RoleReadiness)
}

func (h *HealthCheck) probe(role types.Role) (*corev1.Probe, error) {
	spec, err := h.resolver.ResolveRole(h.inputs(), role)
	if err != nil {
		return nil, err
	}
	return spec.ToKubernetes(), nil
}

// Adapt sets the resolved probes on every container of template that does not
// declare them already. Probes of a role that resolved are applied even when
// the other role failed; the resolution error is still returned.
func (h *HealthCheck) Adapt(template *corev1.PodTemplateSpec) error {
	probes, err := h.Probes()
	if err != nil {
		h.Log().Error("health check resolution failed", log.Err(err))
	}

	for i := range template.Spec.Containers {
		c := &template.Spec.Containers[i]
		if c.LivenessProbe == nil && probes.Liveness != nil {
			c.LivenessProbe = probes.Liveness.ToKubernetes()
			h.Log().Info("added liveness probe", log.Str("container", c.Name), log.Str("probe", probes.Liveness.String()))
		}
		if c.ReadinessProbe == nil && probes.Readiness != nil {
			c.ReadinessProbe = probes.Readiness.ToKubernetes()
			h.Log().Info("added readiness probe", log.Str("container", c.Name), log.Str("probe", probes.Readiness.String()))
		}
	}
	return err
}
