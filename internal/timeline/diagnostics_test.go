package timeline

import "testing"

func TestDiagnosticsForSubject(t *testing.T) {
	var d Diagnostics
	d.DropFor("JOAO", 2, DropMalformedTimestamp, "time \"banana\"")
	d.DropFor("MARIA", 3, DropMalformedTimestamp, "")
	d.Drop(4, DropMissingSubject, "")
	d.DropFor("JOAO", 5, DropExcluded, "FIM EXPEDIENTE")

	tests := []struct {
		subject     string
		wantDropped map[DropReason]int
		wantIssues  int
	}{
		{"JOAO", map[DropReason]int{DropMalformedTimestamp: 1, DropExcluded: 1}, 2},
		{"MARIA", map[DropReason]int{DropMalformedTimestamp: 1}, 1},
		{"", map[DropReason]int{DropMissingSubject: 1}, 1},
		{"PEDRO", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			got := d.ForSubject(tt.subject)
			if len(got.Issues) != tt.wantIssues {
				t.Errorf("issues = %+v, want %d", got.Issues, tt.wantIssues)
			}
			if len(got.Dropped) != len(tt.wantDropped) {
				t.Fatalf("dropped = %v, want %v", got.Dropped, tt.wantDropped)
			}
			for reason, n := range tt.wantDropped {
				if got.Dropped[reason] != n {
					t.Errorf("dropped[%s] = %d, want %d", reason, got.Dropped[reason], n)
				}
			}
		})
	}

	if d.DroppedCount() != 4 {
		t.Errorf("ForSubject must not change the receiver, count = %d", d.DroppedCount())
	}
}
