// Package preflight validates a batch before any queue item is touched.
//
// All checks run against the same fixed timestamp the batch will use, so the
// collision scan here and the writes later observe identical filenames.
package preflight

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/sys/unix"

	"udfconv/internal/deps"
	"udfconv/internal/pathplan"
	"udfconv/internal/services"
	"udfconv/internal/tabular"
)

// Result is one named check outcome, suitable for table rendering.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckOutputDir verifies the output directory exists and is writable. The
// directory is never created implicitly; pointing a batch at a typo should
// fail, not silently build a new tree.
func CheckOutputDir(dir string) Result {
	result := Result{Name: "output directory"}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		result.Detail = "not configured"
		return result
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			result.Detail = fmt.Sprintf("%s does not exist", dir)
		} else {
			result.Detail = err.Error()
		}
		return result
	}
	if !info.IsDir() {
		result.Detail = fmt.Sprintf("%s is not a directory", dir)
		return result
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		result.Detail = fmt.Sprintf("%s is not writable", dir)
		return result
	}

	result.Passed = true
	result.Detail = dir
	return result
}

// CheckDecoder verifies the decoder binary is on PATH.
func CheckDecoder(binary string) Result {
	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        "UDF decoder",
		Command:     binary,
		Description: "decodes measurement containers",
	}})
	status := statuses[0]
	result := Result{Name: status.Name, Passed: status.Available}
	if status.Available {
		result.Detail = status.Command
	} else {
		result.Detail = status.Detail
	}
	return result
}

// Batch bundles the inputs validated before a run starts.
type Batch struct {
	Formats       []tabular.Format
	QueuedItems   int
	OutputDir     string
	DecoderBinary string
}

// CheckBatch validates a batch setup, returning a classified error on the
// first failed check. Errors here abort the run before any item changes state.
func CheckBatch(b Batch) error {
	if len(b.Formats) == 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "formats", "no output formats selected", nil)
	}
	if b.QueuedItems == 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "queue", "no files queued for conversion", nil)
	}
	if result := CheckOutputDir(b.OutputDir); !result.Passed {
		return services.Wrap(services.ErrConfiguration, "preflight", "output directory", result.Detail, nil)
	}
	if result := CheckDecoder(b.DecoderBinary); !result.Passed {
		return services.Wrap(services.ErrMissingDependency, "preflight", "decoder", result.Detail, nil)
	}
	return nil
}

// FindCollisions returns the basenames of planned outputs that already exist
// on disk, sorted, with duplicates removed. Used to prompt before overwriting
// when skip-existing is off.
func FindCollisions(sources []string, outputDir string, useSubfolder bool, stamp string, formats []tabular.Format) []string {
	seen := make(map[string]struct{})
	var collisions []string

	for _, source := range sources {
		planned := pathplan.Plan(pathplan.Request{
			SourcePath:   source,
			OutputDir:    outputDir,
			UseSubfolder: useSubfolder,
			Stamp:        stamp,
			Formats:      formats,
		})
		for _, path := range planned {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			base := strings.TrimSpace(info.Name())
			if _, ok := seen[base]; ok {
				continue
			}
			seen[base] = struct{}{}
			collisions = append(collisions, base)
		}
	}

	sort.Strings(collisions)
	return collisions
}
