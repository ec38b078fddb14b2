package domain

import "testing"

func TestActiveJobStatusesExcludeTerminal(t *testing.T) {
	active := ActiveJobStatuses()
	if len(active) != 3 {
		t.Fatalf("want 3 active statuses, got %d", len(active))
	}
	for _, status := range active {
		if status.IsTerminal() {
			t.Errorf("%s listed active but reports terminal", status)
		}
	}
	for _, status := range []JobStatus{JobStatusCompleted, JobStatusCancelled} {
		if !status.IsTerminal() {
			t.Errorf("%s should be terminal", status)
		}
	}
}
