// Package pathplan computes output destinations for conversion items.
//
// Planning is a pure function of the source path, the batch options, and the
// run's fixed timestamp. The timestamp is computed once per batch and reused
// for every item, so the pre-flight collision scan and the eventual writes
// always observe the same filenames.
package pathplan

import (
	"path/filepath"
	"strings"

	"udfconv/internal/tabular"
)

// ExportSubfolder is the directory created under the output directory when the
// subfolder option is active.
const ExportSubfolder = "UDF_Exports"

// StampLayout is the timestamp layout used for filename suffixes and archive
// names.
const StampLayout = "20060102_150405"

// Request carries the inputs for planning one item's outputs.
type Request struct {
	SourcePath   string
	OutputDir    string
	UseSubfolder bool
	// Stamp is the batch's fixed timestamp suffix; empty when the suffix
	// option is off.
	Stamp   string
	Formats []tabular.Format
}

// BaseDir returns the directory all outputs of a batch land in.
func BaseDir(outputDir string, useSubfolder bool) string {
	if useSubfolder {
		return filepath.Join(outputDir, ExportSubfolder)
	}
	return outputDir
}

// Stem returns the output filename stem for a source path, including the
// timestamp suffix when a stamp is set.
func Stem(sourcePath, stamp string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stamp != "" {
		stem += "_" + stamp
	}
	return stem
}

// Plan computes one destination path per requested format. Deterministic for a
// fixed stamp.
func Plan(req Request) map[tabular.Format]string {
	dir := BaseDir(req.OutputDir, req.UseSubfolder)
	stem := Stem(req.SourcePath, req.Stamp)

	paths := make(map[tabular.Format]string, len(req.Formats))
	for _, format := range req.Formats {
		if !format.Valid() {
			continue
		}
		paths[format] = filepath.Join(dir, stem+format.Ext())
	}
	return paths
}
