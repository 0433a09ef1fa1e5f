package pathplan_test

import (
	"path/filepath"
	"testing"

	"udfconv/internal/pathplan"
	"udfconv/internal/tabular"
)

func TestPlanSubfolderNoStamp(t *testing.T) {
	paths := pathplan.Plan(pathplan.Request{
		SourcePath:   "/data/runs/sample.udf",
		OutputDir:    "/exports",
		UseSubfolder: true,
		Formats:      []tabular.Format{tabular.FormatParquet},
	})

	want := filepath.Join("/exports", pathplan.ExportSubfolder, "sample.parquet")
	if paths[tabular.FormatParquet] != want {
		t.Fatalf("planned path = %q, want %q", paths[tabular.FormatParquet], want)
	}
	if len(paths) != 1 {
		t.Fatalf("expected exactly one planned path, got %d", len(paths))
	}
}

func TestPlanStampAppliedToAllFormats(t *testing.T) {
	paths := pathplan.Plan(pathplan.Request{
		SourcePath: "/data/brake_test.bin",
		OutputDir:  "/out",
		Stamp:      "20260825_120000",
		Formats:    []tabular.Format{tabular.FormatParquet, tabular.FormatCSV},
	})

	if got := paths[tabular.FormatParquet]; got != filepath.Join("/out", "brake_test_20260825_120000.parquet") {
		t.Fatalf("parquet path = %q", got)
	}
	if got := paths[tabular.FormatCSV]; got != filepath.Join("/out", "brake_test_20260825_120000.csv") {
		t.Fatalf("csv path = %q", got)
	}
}

func TestPlanDeterministic(t *testing.T) {
	req := pathplan.Request{
		SourcePath: "/data/a.udf",
		OutputDir:  "/out",
		Stamp:      "20260825_120000",
		Formats:    []tabular.Format{tabular.FormatCSV},
	}
	first := pathplan.Plan(req)
	second := pathplan.Plan(req)
	if first[tabular.FormatCSV] != second[tabular.FormatCSV] {
		t.Fatal("expected identical plans for identical requests")
	}
}

func TestStem(t *testing.T) {
	if got := pathplan.Stem("/data/sample.udf", ""); got != "sample" {
		t.Fatalf("Stem without stamp = %q", got)
	}
	if got := pathplan.Stem("/data/sample.udf", "20260825_120000"); got != "sample_20260825_120000" {
		t.Fatalf("Stem with stamp = %q", got)
	}
}
