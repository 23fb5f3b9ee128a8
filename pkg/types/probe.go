package types

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// Role identifies which health check a probe serves.
type Role string

const (
	// RoleLiveness checks if the container is running
	RoleLiveness Role = "liveness"

	// RoleReadiness checks if the container is ready to receive traffic
	RoleReadiness Role = "readiness"
)

// Roles returns the probe roles in resolution order.
func Roles() []Role {
	return []Role{RoleLiveness, RoleReadiness}
}

// ProbeKind is the mechanism a probe uses to check the container.
type ProbeKind string

const (
	ProbeKindHTTP ProbeKind = "http"
	ProbeKindTCP  ProbeKind = "tcp"
	ProbeKindExec ProbeKind = "exec"
)

const (
	// DefaultHTTPPort is used by HTTP probes that configure neither port nor port-name.
	DefaultHTTPPort = 8080

	// DefaultScheme is the scheme of HTTP probes that do not configure one.
	DefaultScheme = "HTTP"
)

// ParseProbeKind converts a configured probe type into a ProbeKind. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseProbeKind(s string) (ProbeKind, error) {
	switch kind := ProbeKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case ProbeKindHTTP, ProbeKindTCP, ProbeKindExec:
		return kind, nil
	default:
		return "", &UnsupportedProbeTypeError{Type: s}
	}
}

// HTTPHeader is a custom header sent by an HTTP probe.
type HTTPHeader struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// HTTPProbe performs an HTTP GET against the container.
type HTTPProbe struct {
	// Scheme is HTTP or HTTPS
	Scheme string `json:"scheme" yaml:"scheme"`

	// Host to connect to, empty means the pod IP
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is either a port number or a named container port
	Port intstr.IntOrString `json:"port" yaml:"port"`

	Path    string       `json:"path" yaml:"path"`
	Headers []HTTPHeader `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// TCPProbe opens a TCP connection to the container.
type TCPProbe struct {
	Port intstr.IntOrString `json:"port" yaml:"port"`
}

// ExecProbe runs a command inside the container.
type ExecProbe struct {
	Command []string `json:"command" yaml:"command"`
}

// ProbeSpec is a resolved probe. Exactly one of HTTP, TCP or Exec is set,
// matching Kind. A nil *ProbeSpec means no probe applies.
type ProbeSpec struct {
	Kind ProbeKind  `json:"type" yaml:"type"`
	HTTP *HTTPProbe `json:"http,omitempty" yaml:"http,omitempty"`
	TCP  *TCPProbe  `json:"tcp,omitempty" yaml:"tcp,omitempty"`
	Exec *ExecProbe `json:"exec,omitempty" yaml:"exec,omitempty"`
}

// NewHTTPProbeSpec wraps an HTTP probe into a ProbeSpec.
func NewHTTPProbeSpec(p HTTPProbe) *ProbeSpec {
	return &ProbeSpec{Kind: ProbeKindHTTP, HTTP: &p}
}

// NewTCPProbeSpec wraps a TCP probe into a ProbeSpec.
func NewTCPProbeSpec(p TCPProbe) *ProbeSpec {
	return &ProbeSpec{Kind: ProbeKindTCP, TCP: &p}
}

// NewExecProbeSpec wraps an exec probe into a ProbeSpec.
func NewExecProbeSpec(p ExecProbe) *ProbeSpec {
	return &ProbeSpec{Kind: ProbeKindExec, Exec: &p}
}

// Validate validates the probe configuration.
func (p *ProbeSpec) Validate() error {
	if p == nil {
		return nil
	}

	switch p.Kind {
	case ProbeKindHTTP:
		if p.HTTP == nil || p.TCP != nil || p.Exec != nil {
			return NewValidationError("http probe must only carry an http handler")
		}
		if !strings.HasPrefix(p.HTTP.Path, "/") {
			return NewValidationError("http probe must have an absolute path")
		}
		if err := validatePort(p.HTTP.Port); err != nil {
			return WrapValidationError(err, "http probe")
		}
		switch p.HTTP.Scheme {
		case "HTTP", "HTTPS":
		default:
			return NewValidationError("http probe scheme must be HTTP or HTTPS, got " + p.HTTP.Scheme)
		}
	case ProbeKindTCP:
		if p.TCP == nil || p.HTTP != nil || p.Exec != nil {
			return NewValidationError("tcp probe must only carry a tcp handler")
		}
		if err := validatePort(p.TCP.Port); err != nil {
			return WrapValidationError(err, "tcp probe")
		}
	case ProbeKindExec:
		if p.Exec == nil || p.HTTP != nil || p.TCP != nil {
			return NewValidationError("exec probe must only carry an exec handler")
		}
		if len(p.Exec.Command) == 0 {
			return NewValidationError("exec probe must have a command")
		}
	default:
		return NewValidationError("unknown probe type: " + string(p.Kind))
	}

	return nil
}

// MaxPort is the largest valid TCP port number.
const MaxPort = 65535

func validatePort(port intstr.IntOrString) error {
	switch port.Type {
	case intstr.Int:
		if port.IntVal <= 0 {
			return NewValidationError("port must be positive")
		}
		if port.IntVal > MaxPort {
			return NewValidationError(fmt.Sprintf("port must not exceed %d", MaxPort))
		}
	case intstr.String:
		if strings.TrimSpace(port.StrVal) == "" {
			return NewValidationError("port name must not be empty")
		}
	}
	return nil
}

// String renders a short human readable description, e.g. "http GET HTTP :8080/ping".
func (p *ProbeSpec) String() string {
	if p == nil {
		return "<none>"
	}
	switch {
	case p.HTTP != nil:
		return fmt.Sprintf("http GET %s %s:%s%s", p.HTTP.Scheme, p.HTTP.Host, p.HTTP.Port.String(), p.HTTP.Path)
	case p.TCP != nil:
		return fmt.Sprintf("tcp :%s", p.TCP.Port.String())
	case p.Exec != nil:
		return fmt.Sprintf("exec %s", strings.Join(p.Exec.Command, " "))
	}
	return string(p.Kind)
}
