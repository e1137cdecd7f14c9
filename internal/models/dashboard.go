package models

import "time"

// SystemMetrics is a lightweight aggregate of runtime counters exposed on
// the admin dashboard alongside the Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// DashboardStats summarises headline numbers for the admin dashboard.
type DashboardStats struct {
	TotalStudents        int       `json:"total_students"`
	TotalTeachers        int       `json:"total_teachers"`
	TotalClasses         int       `json:"total_classes"`
	PendingRegistrations int       `json:"pending_registrations"`
	TodayPresent         int       `json:"today_present"`
	TodayAbsent          int       `json:"today_absent"`
	TodayLate            int       `json:"today_late"`
	TodayAttendanceRate  float64   `json:"today_attendance_rate"`
	GeneratedAt          time.Time `json:"generated_at"`
}
