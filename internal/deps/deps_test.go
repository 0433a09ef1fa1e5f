package deps_test

import (
	"testing"

	"udfconv/internal/deps"
)

func TestCheckBinaries(t *testing.T) {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{Name: "Shell", Command: "sh", Description: "always present on POSIX"},
		{Name: "Ghost", Command: "definitely-not-a-real-binary-12345"},
		{Name: "Unset", Command: ""},
		{Name: "OptionalGhost", Command: "also-not-real-9876", Optional: true},
	})

	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatalf("expected sh to be available: %+v", statuses[0])
	}
	if statuses[1].Available || statuses[2].Available {
		t.Fatal("expected missing and unset commands to be unavailable")
	}

	missing := deps.Missing(statuses)
	if len(missing) != 2 {
		t.Fatalf("expected 2 required missing deps, got %d", len(missing))
	}
	for _, status := range missing {
		if status.Optional {
			t.Fatalf("optional dependency reported as missing: %+v", status)
		}
	}
}
