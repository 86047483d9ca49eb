package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/integrand"
	"github.com/njchilds90/integrand/internal/config"
)

func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvConfig, config.EnvAddr, config.EnvLogLevel, config.EnvOpenAI, config.EnvGemini} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvLogLevel, "error")
}

func TestSolveTyped(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	err := run([]string{"solve", "x", "squared"}, nil, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "F(x)   = x**3/3 + C")
}

func TestSolveJSONWithPlot(t *testing.T) {
	isolate(t)
	pngPath := filepath.Join(t.TempDir(), "plot.png")
	var out bytes.Buffer
	err := run([]string{"solve", "-mode", "definite", "-lower", "2", "-upper", "0", "-png", pngPath, "-json", "x**2"}, nil, &out)
	require.NoError(t, err)

	var resp integrand.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, integrand.DefiniteSigned, resp.Mode)
	assert.Equal(t, `\frac{8}{3}`, resp.ValueLaTeX)

	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestSolveErrors(t *testing.T) {
	isolate(t)
	tests := [][]string{
		{},
		{"frobnicate"},
		{"solve", "-mode", "area", "x"},
		{"solve", "-mode", "sideways", "x"},
		{"solve"},
		{"solve", "-image", filepath.Join(t.TempDir(), "missing.png")},
		{"solve", "-voice"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			assert.Error(t, run(args, nil, &bytes.Buffer{}))
		})
	}
}

func TestBatch(t *testing.T) {
	isolate(t)
	in := strings.NewReader(`{"expression":"x"}` + "\n" + `{"expression":"exp(x**2)"}` + "\n")
	var out bytes.Buffer
	require.NoError(t, run([]string{"batch", "-c", "2"}, in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"antiderivative":"x**2/2"`)
	assert.Contains(t, lines[1], `"error"`)
}

func TestConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "integrand.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid:\n  points: 1\n"), 0o600))
	assert.Error(t, run([]string{"-config", path, "solve", "x"}, nil, &bytes.Buffer{}))
}
