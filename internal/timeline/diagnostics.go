package timeline

// DropReason says why a row did not make it into the timeline.
type DropReason string

const (
	DropMalformedTimestamp  DropReason = "malformed_timestamp"
	DropMissingSubject      DropReason = "missing_subject"
	DropCrossesMultipleDays DropReason = "crosses_multiple_days"
	DropExcluded            DropReason = "excluded"
)

// RowIssue records one problem with one source row.
type RowIssue struct {
	Row       int        `json:"row"`
	SubjectID string     `json:"subject_id,omitempty"`
	Reason    DropReason `json:"reason"`
	Detail    string     `json:"detail,omitempty"`
	Dropped   bool       `json:"dropped"`
}

// Diagnostics collects the row-level problems of a batch. Row errors never fail
// a batch; they end up here instead.
type Diagnostics struct {
	Dropped map[DropReason]int `json:"dropped,omitempty"`

	// Flagged counts rows kept despite an issue, such as multi-day rows under
	// the pass-through policy.
	Flagged int        `json:"flagged"`
	Issues  []RowIssue `json:"issues,omitempty"`
}

// Drop records a dropped row.
func (d *Diagnostics) Drop(row int, reason DropReason, detail string) {
	d.DropFor("", row, reason, detail)
}

// DropFor records a dropped row that belongs to subject.
func (d *Diagnostics) DropFor(subject string, row int, reason DropReason, detail string) {
	if d.Dropped == nil {
		d.Dropped = make(map[DropReason]int)
	}
	d.Dropped[reason]++
	d.Issues = append(d.Issues, RowIssue{Row: row, SubjectID: subject, Reason: reason, Detail: detail, Dropped: true})
}

// Flag records a row that was kept but looks suspicious.
func (d *Diagnostics) Flag(row int, reason DropReason, detail string) {
	d.Flagged++
	d.Issues = append(d.Issues, RowIssue{Row: row, Reason: reason, Detail: detail})
}

// DroppedCount returns the total number of dropped rows.
func (d Diagnostics) DroppedCount() int {
	n := 0
	for _, c := range d.Dropped {
		n += c
	}
	return n
}

// Merge adds the counts and issues of o to d.
func (d *Diagnostics) Merge(o Diagnostics) {
	for reason, c := range o.Dropped {
		if d.Dropped == nil {
			d.Dropped = make(map[DropReason]int)
		}
		d.Dropped[reason] += c
	}
	d.Flagged += o.Flagged
	d.Issues = append(d.Issues, o.Issues...)
}

// ForSubject returns the issues recorded for subject, with counts rebuilt from
// them. An empty subject selects the rows recorded without one.
func (d Diagnostics) ForSubject(subject string) Diagnostics {
	var out Diagnostics
	for _, issue := range d.Issues {
		if issue.SubjectID != subject {
			continue
		}
		if issue.Dropped {
			if out.Dropped == nil {
				out.Dropped = make(map[DropReason]int)
			}
			out.Dropped[issue.Reason]++
		} else {
			out.Flagged++
		}
		out.Issues = append(out.Issues, issue)
	}
	return out
}
