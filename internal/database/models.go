package database

import (
	"time"

	"github.com/chrissnell/shiftline/internal/timeline"
)

// ActivityRow is one stored activity record.
type ActivityRow struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id"`
	SubjectID      string    `gorm:"column:subject_id;not null;index:idx_activity_events_subject_start,priority:1"`
	ResourceID     string    `gorm:"column:resource_id"`
	ResourceName   string    `gorm:"column:resource_name"`
	GroupLabel     string    `gorm:"column:group_label"`
	OperationLabel string    `gorm:"column:operation_label;not null"`
	StartAt        time.Time `gorm:"column:start_at;not null;index:idx_activity_events_subject_start,priority:2"`
	EndAt          time.Time `gorm:"column:end_at;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for ActivityRow
func (ActivityRow) TableName() string {
	return "activity_events"
}

// RawEvent converts the row for the timeline pipeline. Times are returned in
// loc so that clock-based rules (midnight crossing, night hours) see local time.
func (r ActivityRow) RawEvent(loc *time.Location) timeline.RawEvent {
	if loc == nil {
		loc = time.UTC
	}
	return timeline.RawEvent{
		SubjectID:      r.SubjectID,
		ResourceID:     r.ResourceID,
		ResourceName:   r.ResourceName,
		GroupLabel:     r.GroupLabel,
		OperationLabel: r.OperationLabel,
		Start:          r.StartAt.In(loc),
		End:            r.EndAt.In(loc),
		Row:            int(r.ID),
	}
}

// NewActivityRow is the inverse of RawEvent, used when importing rows.
func NewActivityRow(e timeline.RawEvent) ActivityRow {
	return ActivityRow{
		SubjectID:      e.SubjectID,
		ResourceID:     e.ResourceID,
		ResourceName:   e.ResourceName,
		GroupLabel:     e.GroupLabel,
		OperationLabel: e.OperationLabel,
		StartAt:        e.Start,
		EndAt:          e.End,
	}
}
