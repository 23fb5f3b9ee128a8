package types

import (
	corev1 "k8s.io/api/core/v1"
)

// ToKubernetes renders p as a core/v1 probe. Timing fields are left at
// their zero values so the API server defaults apply.
func (p *ProbeSpec) ToKubernetes() *corev1.Probe {
	if p == nil {
		return nil
	}

	probe := &corev1.Probe{}
	switch {
	case p.HTTP != nil:
		action := &corev1.HTTPGetAction{
			Path:   p.HTTP.Path,
			Port:   p.HTTP.Port,
			Host:   p.HTTP.Host,
			Scheme: corev1.URIScheme(p.HTTP.Scheme),
		}
		for _, h := range p.HTTP.Headers {
			action.HTTPHeaders = append(action.HTTPHeaders, corev1.HTTPHeader{Name: h.Name, Value: h.Value})
		}
		probe.HTTPGet = action
	case p.TCP != nil:
		probe.TCPSocket = &corev1.TCPSocketAction{Port: p.TCP.Port}
	case p.Exec != nil:
		probe.Exec = &corev1.ExecAction{Command: append([]string(nil), p.Exec.Command...)}
	default:
		return nil
	}
	return probe
}
