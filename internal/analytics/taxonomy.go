package analytics

// NormalizeToolCategory maps a raw tool name to a coarse category used
// for aggregate reporting: Read, Edit, Write, Bash, Grep, Glob, Task,
// Other.
func NormalizeToolCategory(rawName string) string {
	switch rawName {
	case "Read":
		return "Read"
	case "Edit":
		return "Edit"
	case "Write", "NotebookEdit":
		return "Write"
	case "Bash":
		return "Bash"
	case "Grep":
		return "Grep"
	case "Glob":
		return "Glob"
	case "Task":
		return "Task"
	default:
		return "Other"
	}
}
