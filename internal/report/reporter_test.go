package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iliyamo/hotel-floor-reservation/internal/model"
	"github.com/iliyamo/hotel-floor-reservation/internal/repository"
)

func TestReportWritesEveryFloorOnce(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	if err := store.Reserve("3rdFloor", 2); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	var out bytes.Buffer
	reporter := NewReporter(store, &out)
	if err := reporter.Report(); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if err := reporter.Report(); err != nil {
		t.Fatalf("second Report: %v", err)
	}

	text := out.String()
	if !strings.HasPrefix(text, "\n") || !strings.HasSuffix(text, "\n\n") {
		t.Fatalf("dump is not framed by blank lines: %q", text)
	}
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	floors := model.DefaultFloors()
	if len(lines) != len(floors) {
		t.Fatalf("dump has %d lines, want %d (written twice?)\n%s", len(lines), len(floors), text)
	}
	for i, floor := range floors {
		if !strings.HasPrefix(lines[i], floor+" ") {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], floor)
		}
	}
	if got := strings.Fields(lines[2])[3]; got != "1" {
		t.Errorf("3rdFloor room 2 = %s, want 1", got)
	}
}
