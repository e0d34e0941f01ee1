package tools

// MCP tool annotation hints. None of the tools reach outside the local
// store and file system, so openWorldHint is always false.
func annotations(readOnly, destructive, idempotent bool) map[string]bool {
	return map[string]bool{
		"readOnlyHint":    readOnly,
		"destructiveHint": destructive,
		"idempotentHint":  idempotent,
		"openWorldHint":   false,
	}
}

func ReadOnlyAnnotations() map[string]bool {
	return annotations(true, false, true)
}

func DestructiveAnnotations() map[string]bool {
	return annotations(false, true, false)
}

// SafeWriteAnnotations marks writes that can be repeated without changing
// the outcome, such as ingesting the same text twice.
func SafeWriteAnnotations() map[string]bool {
	return annotations(false, false, true)
}

func NonIdempotentWriteAnnotations() map[string]bool {
	return annotations(false, false, false)
}
