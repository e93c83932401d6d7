package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/source"
)

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestResolveSourceEnvFallback(t *testing.T) {
	sourceLocation = ""
	t.Setenv("SOURCE_URL", "https://erp.example.com/export.json")

	location, err := resolveSource()
	if err != nil {
		t.Fatalf("resolveSource failed: %v", err)
	}
	if location != "https://erp.example.com/export.json" {
		t.Errorf("Expected env fallback, got %q", location)
	}
}

func TestResolveSourceFlagWinsOverEnv(t *testing.T) {
	sourceLocation = "gs://bucket/export.json"
	defer func() { sourceLocation = "" }()
	t.Setenv("SOURCE_URL", "https://erp.example.com/export.json")

	location, err := resolveSource()
	if err != nil {
		t.Fatalf("resolveSource failed: %v", err)
	}
	if location != "gs://bucket/export.json" {
		t.Errorf("Expected flag value, got %q", location)
	}
}

func TestResolveSourceUnconfigured(t *testing.T) {
	sourceLocation = ""
	t.Setenv("SOURCE_URL", "")

	if _, err := resolveSource(); err == nil {
		t.Fatal("Expected error when neither flag nor env is set")
	} else if !strings.Contains(err.Error(), "SOURCE_URL") {
		t.Errorf("Expected error to mention SOURCE_URL, got %q", err.Error())
	}
}

func TestLoadSummariesFromEnvSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(source.RawTable{
			Headers: []string{"Material", "Material Description", "Quantity", "Unit of Entry", "Movement Type"},
			Rows: [][]any{
				{"M1", "Bolt", 10.0, "EA", "101"},
				{"M1", "Bolt", 4.0, "EA", "201"},
			},
		})
	}))
	defer server.Close()

	sourceLocation = ""
	t.Setenv("SOURCE_URL", server.URL)

	summaries, err := loadSummaries(testCommand())
	if err != nil {
		t.Fatalf("loadSummaries failed: %v", err)
	}

	if len(summaries) != 1 {
		t.Fatalf("Expected 1 material, got %d", len(summaries))
	}
	if summaries[0].Balance != 6 {
		t.Errorf("Expected balance 6, got %v", summaries[0].Balance)
	}
}
