package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/rpcpin/packages/core/config"
	"github.com/abdul-hamid-achik/rpcpin/packages/pinning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// resetFlags restores every flag variable; cobra keeps them between runs.
func resetFlags() {
	configFlag, envFileFlag, logFormatFlag = "", "", ""
	verboseFlag, noColorFlag = false, true
	outputFlag = "console"

	baseURLFlag, dataFlag, dataFileFlag = "", "", ""
	headerFlags, paramFlags = nil, nil
	streamFlag, includeFlag, insecureFlag = false, false, false
	repeatFlag = 1
	timeoutFlag, proxyFlag, metricsFileFlag = "", "", ""
	rateFlag, burstFlag = 0, 0
	pinCertFlags, pinFlags = nil, nil
	pinStrategyFlag, pinGranularityFlag = "any", ""

	serverNameFlag, saveDirFlag = "", ""
	probeTimeoutFlag = 5 * time.Second
	yamlFlag, checkFlag = false, false
	granularityFlag, strategyFlag = "publickey", "any"

	forceInit = false
	initBaseURL = "https://api.example.com"
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--no-color"))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func apiServer(t *testing.T, tls bool) *httptest.Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/created":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"created":true}`))
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `","auth":"` + r.Header.Get("Authorization") + `"}`))
		}
	})
	var srv *httptest.Server
	if tls {
		srv = httptest.NewTLSServer(handler)
	} else {
		srv = httptest.NewServer(handler)
	}
	t.Cleanup(srv.Close)
	return srv
}

func spkiPin(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	e, ok := pinning.PublicKeyElement(srv.Certificate())
	require.True(t, ok)
	return e.Pin()
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rpcpin version dev")
}

func TestRequest_Console(t *testing.T) {
	srv := apiServer(t, false)

	out, _, err := execute(t, "request", "get", "/users/1", "--base-url", srv.URL, "-H", "Authorization: Bearer t0k", "-i")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 200 OK GET "+srv.URL+"/users/1")
	assert.Contains(t, out, "Content-Type: application/json")
	assert.Contains(t, out, `"auth":"Bearer t0k"`)
}

func TestRequest_JSONWithRepeat(t *testing.T) {
	srv := apiServer(t, false)
	metricsFile := filepath.Join(t.TempDir(), "metrics.prom")

	out, _, err := execute(t, "request", "GET", srv.URL+"/ping", "-o", "json", "--repeat", "3", "--stream", "--metrics-file", metricsFile)
	require.NoError(t, err)

	var doc struct {
		Results []json.RawMessage `json:"results"`
		Summary struct {
			Count  int64 `json:"count"`
			Errors int64 `json:"errors"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Empty(t, doc.Results, "successes are summarised when repeating")
	assert.Equal(t, int64(3), doc.Summary.Count)
	assert.Equal(t, int64(0), doc.Summary.Errors)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `rpcpin_dispatches_total{method="GET",outcome="success",status_code="200",style="stream"} 3`)
}

func TestRequest_StatusPolicies(t *testing.T) {
	srv := apiServer(t, false)

	_, _, err := execute(t, "request", "POST", srv.URL+"/created")
	require.Error(t, err)
	assert.Equal(t, ExitRequestFailure, exitCode(err))

	out, _, err := execute(t, "request", "POST", srv.URL+"/created", "--stream")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 201 Created")
}

func TestRequest_Pinning(t *testing.T) {
	srv := apiServer(t, true)

	out, _, err := execute(t, "request", "GET", srv.URL+"/secure", "--pin", spkiPin(t, srv))
	require.NoError(t, err)
	assert.Contains(t, out, `"path":"/secure"`)

	foreign := pinning.Element{1, 2, 3}.Pin()
	_, stderr, err := execute(t, "request", "GET", srv.URL+"/secure", "--pin", foreign)
	require.Error(t, err)
	assert.Equal(t, ExitTrustError, exitCode(err))
	assert.Contains(t, stderr, "[challenge]")
}

func TestRequest_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad method", []string{"request", "TRACE", "http://x.example.com"}, ExitUsageError},
		{"bad header", []string{"request", "GET", "http://x.example.com", "-H", "novalue"}, ExitUsageError},
		{"bad repeat", []string{"request", "GET", "http://x.example.com", "--repeat", "0"}, ExitUsageError},
		{"bad output", []string{"request", "GET", "http://x.example.com", "-o", "xml"}, ExitUsageError},
		{"bad timeout", []string{"request", "GET", "http://x.example.com", "--timeout", "soon"}, ExitConfigError},
		{"bad pin", []string{"request", "GET", "http://x.example.com", "--pin", "sha256/short"}, ExitConfigError},
		{"relative without base", []string{"request", "GET", "/nowhere"}, ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
}

func TestPins_YAML(t *testing.T) {
	srv := apiServer(t, true)
	addr := strings.TrimPrefix(srv.URL, "https://")

	out, _, err := execute(t, "pins", addr, "--yaml", "--strategy", "all")
	require.NoError(t, err)

	var doc struct {
		Pinning config.Pinning `yaml:"pinning"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "publickey", doc.Pinning.Granularity)
	assert.Equal(t, "all", doc.Pinning.Strategy)
	assert.Contains(t, doc.Pinning.Pins, spkiPin(t, srv))
}

func TestPins_SaveDirAndCertificateYAML(t *testing.T) {
	srv := apiServer(t, true)
	dir := t.TempDir()

	out, _, err := execute(t, "pins", srv.URL, "--yaml", "--granularity", "certificate", "--save-dir", dir, "--server-name", "example.com")
	require.NoError(t, err)

	var doc struct {
		Pinning config.Pinning `yaml:"pinning"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.NotEmpty(t, doc.Pinning.Certificates)

	certs, err := pinning.File(doc.Pinning.Certificates[0]).Certificates()
	require.NoError(t, err)
	assert.True(t, certs[0].Equal(srv.Certificate()))
}

func TestPins_Console(t *testing.T) {
	srv := apiServer(t, true)

	out, _, err := execute(t, "pins", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Chain presented by")
	assert.Contains(t, out, spkiPin(t, srv))
}

func TestPins_Check(t *testing.T) {
	srv := apiServer(t, true)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("pinning:\n  granularity: publickey\n  pins:\n    - "+spkiPin(t, srv)+"\n"), 0644))
	out, _, err := execute(t, "pins", srv.URL, "--check", "--config", good)
	require.NoError(t, err)
	assert.Contains(t, out, ": accept (publickey, any, 1 pinned)")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pinning:\n  granularity: publickey\n  pins:\n    - "+pinning.Element{9}.Pin()+"\n"), 0644))
	out, _, err = execute(t, "pins", srv.URL, "--check", "--config", bad)
	require.Error(t, err)
	assert.Equal(t, ExitTrustError, exitCode(err))
	assert.Contains(t, out, ": reject")
}

func TestInit(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out, _, err := execute(t, "init", "--base-url", "https://init.example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Created:")

	_, _, err = execute(t, "init")
	require.Error(t, err, "existing files are not overwritten")

	cfg, err := config.FindAndLoadConfig(".")
	require.NoError(t, err)
	assert.Equal(t, "https://init.example.com", cfg.BaseURL)
	assert.Equal(t, "Bearer change-me", cfg.Headers["Authorization"])
}

func TestCompletion(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "rpcpin")
}

func TestProbeAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "example.com:443", false},
		{"example.com:8443", "example.com:8443", false},
		{"https://example.com", "example.com:443", false},
		{"https://example.com:9443/path", "example.com:9443", false},
		{"https://", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := probeAddress(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"Accept: text/plain", "X-Id:42"}, ":")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "text/plain", "X-Id": "42"}, got)

	got, err = parsePairs(nil, "=")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parsePairs([]string{"=v"}, "=")
	assert.Error(t, err)
}
