package health

import (
	"errors"
	"strconv"
	"testing"

	"github.com/rzbill/podprobe/pkg/layered"
	"github.com/rzbill/podprobe/pkg/log"
	"github.com/rzbill/podprobe/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/intstr"
)

func props(kv map[string]string) layered.Layer {
	return layered.NewPropertyLayer("properties", kv)
}

func structured(t *testing.T, doc string) layered.Layer {
	t.Helper()
	l, err := layered.ParseStructuredLayer("config", []byte(doc))
	require.NoError(t, err)
	return l
}

func httpSpec(scheme string, port intstr.IntOrString, path string) *types.ProbeSpec {
	return types.NewHTTPProbeSpec(types.HTTPProbe{Scheme: scheme, Port: port, Path: path})
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		properties    map[string]string
		config        string
		wantLiveness  *types.ProbeSpec
		wantReadiness *types.ProbeSpec
	}{
		{
			name:          "path property defaults port and scheme",
			properties:    map[string]string{"health.path": "/ping"},
			wantLiveness:  httpSpec("HTTP", intstr.FromInt32(8080), "/ping"),
			wantReadiness: httpSpec("HTTP", intstr.FromInt32(8080), "/ping"),
		},
		{
			name:          "structured http config",
			config:        "path: health\nport: 1234\nscheme: https\n",
			wantLiveness:  httpSpec("HTTPS", intstr.FromInt32(1234), "/health"),
			wantReadiness: httpSpec("HTTPS", intstr.FromInt32(1234), "/health"),
		},
		{
			name: "tcp with role override",
			properties: map[string]string{
				"health.type":           "tcp",
				"health.port":           "1234",
				"health.readiness.port": "1235",
			},
			wantLiveness:  types.NewTCPProbeSpec(types.TCPProbe{Port: intstr.FromInt32(1234)}),
			wantReadiness: types.NewTCPProbeSpec(types.TCPProbe{Port: intstr.FromInt32(1235)}),
		},
		{
			name:          "exec command list",
			config:        "type: exec\ncommand:\n  - /bin/sh\n  - -c\n  - echo hi\n",
			wantLiveness:  types.NewExecProbeSpec(types.ExecProbe{Command: []string{"/bin/sh", "-c", "echo hi"}}),
			wantReadiness: types.NewExecProbeSpec(types.ExecProbe{Command: []string{"/bin/sh", "-c", "echo hi"}}),
		},
		{
			name:       "exec command from comma separated property",
			properties: map[string]string{"health.type": "exec", "health.liveness.command": "cat, /tmp/healthy"},
			wantLiveness: types.NewExecProbeSpec(types.ExecProbe{
				Command: []string{"cat", "/tmp/healthy"},
			}),
		},
		{
			name:          "port name",
			properties:    map[string]string{"health.path": "/ready", "health.port-name": "http"},
			config:        "readiness:\n  path: /live\n",
			wantLiveness:  httpSpec("HTTP", intstr.FromString("http"), "/ready"),
			wantReadiness: httpSpec("HTTP", intstr.FromString("http"), "/ready"),
		},
		{
			name:          "structured role section beats structured default",
			config:        "path: /common\nreadiness:\n  path: /ready\n  port: 9090\n",
			wantLiveness:  httpSpec("HTTP", intstr.FromInt32(8080), "/common"),
			wantReadiness: httpSpec("HTTP", intstr.FromInt32(9090), "/ready"),
		},
		{
			name:          "blank property falls through to structured config",
			properties:    map[string]string{"health.path": "  "},
			config:        "path: /fallback\n",
			wantLiveness:  httpSpec("HTTP", intstr.FromInt32(8080), "/fallback"),
			wantReadiness: httpSpec("HTTP", intstr.FromInt32(8080), "/fallback"),
		},
		{
			name:          "non-positive port disables the probe",
			properties:    map[string]string{"health.path": "/ping", "health.liveness.port": "-1", "health.readiness.port": "0"},
			wantLiveness:  nil,
			wantReadiness: nil,
		},
		{
			name: "tcp role disabled by property",
			properties: map[string]string{
				"health.type":           "tcp",
				"health.port":           "1235",
				"health.readiness.port": "0",
			},
			wantLiveness: types.NewTCPProbeSpec(types.TCPProbe{Port: intstr.FromInt32(1235)}),
		},
		{
			name:         "tcp role disabled by structured config",
			config:       "type: tcp\nport: 1235\nreadiness:\n  port: -1\n",
			wantLiveness: types.NewTCPProbeSpec(types.TCPProbe{Port: intstr.FromInt32(1235)}),
		},
		{
			name:          "highest port is accepted",
			properties:    map[string]string{"health.type": "tcp", "health.port": "65535"},
			wantLiveness:  types.NewTCPProbeSpec(types.TCPProbe{Port: intstr.FromInt32(65535)}),
			wantReadiness: types.NewTCPProbeSpec(types.TCPProbe{Port: intstr.FromInt32(65535)}),
		},
		{
			name:       "tcp without port is absent",
			properties: map[string]string{"health.type": "tcp"},
		},
		{
			name:       "explicit http without path is absent",
			properties: map[string]string{"health.type": "HTTP", "health.port": "8081"},
		},
		{
			name: "nothing configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Inputs{Applicable: true}
			if tt.properties != nil {
				in.Properties = props(tt.properties)
			}
			if tt.config != "" {
				in.Config = structured(t, tt.config)
			}

			probes, err := NewResolver("", log.NewTestLogger()).Resolve(in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLiveness, probes.Liveness)
			assert.Equal(t, tt.wantReadiness, probes.Readiness)

			for _, role := range types.Roles() {
				assert.NoError(t, probes.Get(role).Validate())
			}
		})
	}
}

func TestResolve_HostAndHeaders(t *testing.T) {
	config := structured(t, `
path: /healthz
host: 10.0.0.1
headers:
  X-Probe: liveness
  Accept: application/json
readiness:
  headers:
    X-Probe: readiness
`)

	probes, err := NewResolver("", nil).Resolve(Inputs{Config: config, Applicable: true})
	require.NoError(t, err)

	require.NotNil(t, probes.Liveness)
	assert.Equal(t, "10.0.0.1", probes.Liveness.HTTP.Host)
	assert.Equal(t, []types.HTTPHeader{
		{Name: "X-Probe", Value: "liveness"},
		{Name: "Accept", Value: "application/json"},
	}, probes.Liveness.HTTP.Headers)

	require.NotNil(t, probes.Readiness)
	assert.Equal(t, []types.HTTPHeader{{Name: "X-Probe", Value: "readiness"}}, probes.Readiness.HTTP.Headers)
}

func TestResolve_Errors(t *testing.T) {
	t.Run("unsupported type fails both roles", func(t *testing.T) {
		probes, err := NewResolver("", nil).Resolve(Inputs{
			Properties: props(map[string]string{"health.type": "bogus"}),
			Applicable: true,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrUnsupportedProbeType)
		assert.Nil(t, probes.Liveness)
		assert.Nil(t, probes.Readiness)

		for _, role := range types.Roles() {
			_, err := NewResolver("", nil).ResolveRole(Inputs{
				Properties: props(map[string]string{"health.type": "bogus"}),
				Applicable: true,
			}, role)
			var roleErr *types.RoleError
			require.True(t, errors.As(err, &roleErr))
			assert.Equal(t, role, roleErr.Role)
			var typeErr *types.UnsupportedProbeTypeError
			require.True(t, errors.As(err, &typeErr))
			assert.Equal(t, "bogus", typeErr.Type)
		}
	})

	t.Run("port and port name conflict", func(t *testing.T) {
		_, err := NewResolver("", nil).Resolve(Inputs{
			Properties: props(map[string]string{"health.path": "/ping", "health.port": "8080", "health.port-name": "http"}),
			Applicable: true,
		})
		var conflict *types.ConflictingPortError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, 8080, conflict.Port)
		assert.Equal(t, "http", conflict.PortName)
	})

	t.Run("conflict across tiers", func(t *testing.T) {
		_, err := NewResolver("", nil).ResolveRole(Inputs{
			Properties: props(map[string]string{"health.type": "tcp", "health.port": "1234"}),
			Config:     structured(t, "port-name: admin\n"),
			Applicable: true,
		}, types.RoleLiveness)
		assert.ErrorIs(t, err, types.ErrConflictingPort)
	})

	t.Run("invalid port", func(t *testing.T) {
		_, err := NewResolver("", nil).ResolveRole(Inputs{
			Properties: props(map[string]string{"health.path": "/ping", "health.port": "eighty"}),
			Config:     structured(t, "port: 8080\n"),
			Applicable: true,
		}, types.RoleReadiness)
		assert.ErrorIs(t, err, types.ErrInvalidNumber)
		var numErr *types.InvalidNumberError
		require.True(t, errors.As(err, &numErr))
		assert.Equal(t, "eighty", numErr.Value)
	})

	t.Run("port out of range", func(t *testing.T) {
		for _, port := range []string{"65536", "2147483648", "4294967297"} {
			probes, err := NewResolver("", nil).Resolve(Inputs{
				Properties: props(map[string]string{"health.path": "/ping", "health.port": port}),
				Applicable: true,
			})
			assert.ErrorIs(t, err, types.ErrInvalidNumber, port)
			assert.ErrorIs(t, err, strconv.ErrRange, port)
			assert.Nil(t, probes.Liveness, port)
			assert.Nil(t, probes.Readiness, port)

			var numErr *types.InvalidNumberError
			require.True(t, errors.As(err, &numErr), port)
			assert.Equal(t, port, numErr.Value)
			assert.Equal(t, "health.port", numErr.Key)
		}
	})

	t.Run("one failing role keeps the other", func(t *testing.T) {
		probes, err := NewResolver("", nil).Resolve(Inputs{
			Properties: props(map[string]string{
				"health.path":           "/ping",
				"health.readiness.port": "abc",
			}),
			Applicable: true,
		})
		require.Error(t, err)
		assert.Equal(t, httpSpec("HTTP", intstr.FromInt32(8080), "/ping"), probes.Liveness)
		assert.Nil(t, probes.Readiness)

		var roleErr *types.RoleError
		require.True(t, errors.As(err, &roleErr))
		assert.Equal(t, types.RoleReadiness, roleErr.Role)
	})
}

func TestResolve_NotApplicable(t *testing.T) {
	logger := log.NewTestLogger()
	r := NewResolver("", logger)
	in := Inputs{
		Properties: props(map[string]string{"health.type": "bogus"}),
		Applicable: false,
	}

	probes, err := r.Resolve(in)
	require.NoError(t, err)
	assert.Nil(t, probes.Liveness)
	assert.Nil(t, probes.Readiness)

	spec, err := r.ResolveRole(in, types.RoleLiveness)
	assert.NoError(t, err)
	assert.Nil(t, spec)
}

func TestResolve_CustomPrefixAndLogging(t *testing.T) {
	logger := log.NewTestLogger()
	r := NewResolver("vertx.health", logger)

	probes, err := r.Resolve(Inputs{
		Properties: props(map[string]string{
			"vertx.health.path":           "/ping",
			"vertx.health.readiness.path": "",
			"health.path":                 "/ignored",
		}),
		Applicable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/ping", probes.Liveness.HTTP.Path)
	assert.Equal(t, "/ping", probes.Readiness.HTTP.Path)

	assert.True(t, logger.AssertLoggedWithField(log.DebugLevel, "resolved path", "source", "properties:vertx.health"))
	assert.True(t, logger.AssertLoggedWithField(log.DebugLevel, "probe resolved", "role", "liveness"))
}

func TestResolve_DisabledRoleIsLogged(t *testing.T) {
	logger := log.NewTestLogger()

	probes, err := NewResolver("", logger).Resolve(Inputs{
		Properties: props(map[string]string{"health.path": "/ping", "health.readiness.port": "0"}),
		Applicable: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, probes.Liveness)
	assert.Nil(t, probes.Readiness)
	assert.True(t, logger.AssertLoggedWithField(log.InfoLevel, "probe disabled", "role", "readiness"))
	assert.False(t, logger.AssertLoggedWithField(log.InfoLevel, "probe disabled", "role", "liveness"))
}
