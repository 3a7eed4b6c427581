package taskname

const (
	// Contact tasks
	ContactNotify = "contact:notify"
)
