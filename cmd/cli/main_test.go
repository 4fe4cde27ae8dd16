package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
project:
  id: solar
  name: Solar plant
  horizon_months: 24
financial_inputs:
  - period: {year: 2025, month: 1}
    revenue: 1000
    ebitda: 400
    net_income: 100
    total_debt: 2000
    cash: 50
  - period: {year: 2025, month: 2}
    revenue: 1100
    ebitda: 420
    net_income: 120
    total_debt: 1900
    cash: 60
instruments:
  - id: senior
    name: Senior loan
    principal: 1200
    base_rate: 0.05
    amortization_years: 1
    frequency: monthly
vintages:
  - id: v1
    name: Panels
    capitalized_value: 2400
    start_period: 1
    useful_life_years: 1
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "solar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o600))
	return path
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printJSON(&out, struct {
		A int `json:"a"`
	}{A: 1}))

	expected := "{\n  \"a\": 1\n}\n"
	if out.String() != expected {
		t.Fatalf("unexpected json output:\n%s", out.String())
	}
}

func TestCalcRunPostsToProjectEndpoint(t *testing.T) {
	var (
		gotPath, gotQuery, gotActor string
		gotBody                     map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		gotActor = r.Header.Get("X-Actor")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"id":"run-1","status":"running"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--url", srv.URL, "--actor", "analyst",
		"calc", "run", "solar", "depreciation", "--reason", "capex update", "--horizon", "60", "--async")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/projects/solar/calculations/depreciation", gotPath)
	assert.Equal(t, "async=true", gotQuery)
	assert.Equal(t, "analyst", gotActor)
	assert.Equal(t, "capex update", gotBody["change_reason"])
	assert.Equal(t, float64(60), gotBody["horizon_months"])
	assert.Contains(t, out, `"status": "running"`)
}

func TestCalcRunRejectsUnknownType(t *testing.T) {
	_, err := execute(t, "--url", "http://127.0.0.1:1", "calc", "run", "solar", "cashflow")
	assert.Error(t, err)
}

func TestCalcCompareReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/runs/compare", r.URL.Path)
		assert.Equal(t, "r1", r.URL.Query().Get("a"))
		assert.Equal(t, "r2", r.URL.Query().Get("b"))
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"calculation run not found"}`))
	}))
	defer srv.Close()

	_, err := execute(t, "--url", srv.URL, "calc", "compare", "r1", "r2")

	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestCalcExportWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/runs/run-1/export", r.URL.Path)
		assert.Equal(t, "xlsx", r.URL.Query().Get("format"))
		w.Write([]byte("PK-binary"))
	}))
	defer srv.Close()

	target := filepath.Join(t.TempDir(), "run.xlsx")
	out, err := execute(t, "--url", srv.URL, "calc", "export", "run-1", "--format", "xlsx", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "PK-binary", string(data))
	assert.Contains(t, out, "wrote 9 bytes")
}

func TestScenarioRunOfflineJSON(t *testing.T) {
	out, err := execute(t, "scenario", "run", writeScenario(t))
	require.NoError(t, err)

	var runs []struct {
		CalculationType string          `json:"calculation_type"`
		Status          string          `json:"status"`
		Version         int64           `json:"version"`
		Output          json.RawMessage `json:"output"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 3)

	for i, want := range []string{"amortization", "depreciation", "kpi"} {
		assert.Equal(t, want, runs[i].CalculationType)
		assert.Equal(t, "completed", runs[i].Status)
		assert.Equal(t, int64(1), runs[i].Version)
		assert.NotEmpty(t, runs[i].Output)
	}
}

func TestScenarioRunOfflineCSV(t *testing.T) {
	out, err := execute(t, "scenario", "run", writeScenario(t), "--type", "amortization", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "# Amortization", lines[0])
	assert.Equal(t, "instrument_id,period,opening_balance,payment,interest_payment,principal_payment,closing_balance,cumulative_interest", lines[1])
	// header plus twelve monthly rows
	assert.Len(t, lines, 14)
	assert.True(t, strings.HasPrefix(lines[2], "senior,1,1200.00,"), lines[2])
}

func TestScenarioValidate(t *testing.T) {
	out, err := execute(t, "scenario", "validate", writeScenario(t))
	require.NoError(t, err)

	var results []struct {
		CalculationType string `json:"calculation_type"`
		IsValid         bool   `json:"is_valid"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.IsValid, r.CalculationType)
	}
}

func TestScenarioRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: {name: nameless}\n"), 0o600))

	_, err := execute(t, "scenario", "run", path)
	assert.ErrorContains(t, err, "no project id")
}
