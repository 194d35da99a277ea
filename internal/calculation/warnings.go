package calculation

// Warning codes emitted by the post-processor.
const (
	// WarnCodeMonthlyOTCapped indicates overtime was redistributed into normal
	// hours to satisfy a monthly cap.
	WarnCodeMonthlyOTCapped = "MONTHLY_OT_CAPPED"
	// WarnCodeUnknownEmployee indicates an assignment referenced an employee
	// missing from the input pool.
	WarnCodeUnknownEmployee = "UNKNOWN_EMPLOYEE"
	// WarnCodeUnknownShift indicates an assignment referenced a shift code with
	// no definition.
	WarnCodeUnknownShift = "UNKNOWN_SHIFT"
)
