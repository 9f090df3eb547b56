package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/searchrank/core"
)

func TestArtifact_Score(t *testing.T) {
	columns := []string{"ctr", "rating"}
	a := NewArtifact("v1", columns, &LRModel{Bias: 0, Weights: []float64{1.0, 0.1}})

	scores, err := a.Score([][]float64{
		{0.9, 5.0},
		{0.1, 1.0},
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}
	if scores[0] <= scores[1] {
		t.Errorf("scores = %v, want first row to score higher", scores)
	}
}

func TestArtifact_ColumnWidthMismatch(t *testing.T) {
	a := NewArtifact("v1", []string{"a", "b", "c"}, &LRModel{Weights: []float64{1, 1, 1}})

	tests := []struct {
		name   string
		matrix [][]float64
	}{
		{"row too narrow", [][]float64{{1, 2}}},
		{"row too wide", [][]float64{{1, 2, 3, 4}}},
		{"second row bad", [][]float64{{1, 2, 3}, {1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Score(tt.matrix)
			if !core.IsContractViolation(err) {
				t.Errorf("err = %v, want CONTRACT_VIOLATION", err)
			}
		})
	}
}

func writeArtifact(t *testing.T, dir, version, body string) string {
	t.Helper()
	path := filepath.Join(dir, "model_"+version+".json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const gbdtArtifactJSON = `{
  "version": "v20260824",
  "model_type": "gbdt",
  "feature_cols": ["ctr", "rating"],
  "bias": 0.1,
  "learning_rate": 0.5,
  "trees": [
    {"nodes": [
      {"feature": 0, "threshold": 0.5, "left": 1, "right": 2},
      {"leaf": true, "value": 1.0},
      {"leaf": true, "value": -1.0}
    ]}
  ]
}`

func TestLoadArtifact(t *testing.T) {
	dir := t.TempDir()
	path := writeArtifact(t, dir, "v20260824", gbdtArtifactJSON)

	a, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}
	if a.Version() != "v20260824" {
		t.Errorf("Version() = %q, want v20260824", a.Version())
	}
	if len(a.Columns()) != 2 {
		t.Errorf("Columns() = %v, want 2 columns", a.Columns())
	}
	if _, err := a.Score([][]float64{{0.2, 4.0}}); err != nil {
		t.Errorf("Score() error = %v", err)
	}
}

func TestLoadArtifact_LR(t *testing.T) {
	dir := t.TempDir()
	path := writeArtifact(t, dir, "lr1", `{
  "version": "lr1",
  "model_type": "lr",
  "feature_cols": ["ctr", "rating"],
  "bias": 0,
  "weights": {"ctr": 2.0, "rating": 0.1}
}`)

	a, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}
	scores, err := a.Score([][]float64{{1.0, 0.0}, {0.0, 0.0}})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if scores[0] <= scores[1] {
		t.Errorf("scores = %v, want weighted row to score higher", scores)
	}
}

func TestLoadArtifact_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"no feature cols", `{"version": "x", "model_type": "gbdt"}`},
		{"unknown model type", `{"version": "x", "model_type": "dnn", "feature_cols": ["a"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArtifact(t, dir, tt.name, tt.body)
			_, err := LoadArtifact(path)
			if !core.IsLoadFailed(err) {
				t.Errorf("err = %v, want LOAD_FAILED", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadArtifact(filepath.Join(dir, "nope.json"))
		if !core.IsLoadFailed(err) {
			t.Errorf("err = %v, want LOAD_FAILED", err)
		}
	})
}
