// Package api defines the JSON payloads exchanged with dashboard clients.
package api

import (
	"time"

	"nightwatch/internal/store"
	"nightwatch/internal/systemwatch"
)

// Shift is the wire form of a shift row.
type Shift struct {
	ID        int64      `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Notes     string     `json:"notes"`
}

// StartShiftResponse reports the outcome of a start request, including the
// idempotent already-active case.
type StartShiftResponse struct {
	Shift            Shift `json:"shift"`
	CarriedTaskCount int64 `json:"carried_task_count"`
	AlreadyActive    bool  `json:"already_active"`
}

// ShiftNotesRequest carries replacement notes for a shift.
type ShiftNotesRequest struct {
	Notes string `json:"notes"`
}

// Task is the wire form of a task row.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	ShiftID     *int64     `json:"shift_id"`
}

// TaskCreateRequest carries a new task title.
type TaskCreateRequest struct {
	Title string `json:"title"`
}

// System mirrors systemwatch.Snapshot for dashboard consumption.
type System struct {
	At          time.Time `json:"at"`
	CPUPercent  float64   `json:"cpu_percent"`
	RAMPercent  float64   `json:"ram_percent"`
	RAMUsedMB   int64     `json:"ram_used_mb"`
	RAMTotalMB  int64     `json:"ram_total_mb"`
	DiskPercent float64   `json:"disk_percent"`
	DiskUsedGB  float64   `json:"disk_used_gb"`
	DiskTotalGB float64   `json:"disk_total_gb"`
	TempC       *float64  `json:"temp_c"`
	NetworkUp   bool      `json:"network_up"`
}

// FromShift converts a store shift to its wire form.
func FromShift(shift store.Shift) Shift {
	return Shift{
		ID:        shift.ID,
		StartedAt: shift.StartedAt,
		EndedAt:   shift.EndedAt,
		Notes:     shift.Notes,
	}
}

// FromTask converts a store task to its wire form.
func FromTask(task store.Task) Task {
	return Task{
		ID:          task.ID,
		Title:       task.Title,
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
		ShiftID:     task.ShiftID,
	}
}

// FromTasks converts a task list, always returning a non-nil slice so the
// wire form is [] rather than null.
func FromTasks(tasks []*store.Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task == nil {
			continue
		}
		out = append(out, FromTask(*task))
	}
	return out
}

// FromSnapshot converts a system snapshot to its wire form.
func FromSnapshot(snap systemwatch.Snapshot) System {
	return System{
		At:          snap.At,
		CPUPercent:  snap.CPUPercent,
		RAMPercent:  snap.RAMPercent,
		RAMUsedMB:   snap.RAMUsedMB,
		RAMTotalMB:  snap.RAMTotalMB,
		DiskPercent: snap.DiskPercent,
		DiskUsedGB:  snap.DiskUsedGB,
		DiskTotalGB: snap.DiskTotalGB,
		TempC:       snap.TempC,
		NetworkUp:   snap.NetworkUp,
	}
}
