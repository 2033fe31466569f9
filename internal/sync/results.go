package sync

// ExportResult is the outcome of an order export attempt
type ExportResult struct {
	Success    bool
	Skipped    bool
	WMSOrderID string
	Err        error
}

// Result is the outcome of a cancellation or inbound webhook application
type Result struct {
	Success bool
	Skipped bool
	Err     error
}

func failure(err error) Result {
	return Result{Err: err}
}

func success() Result {
	return Result{Success: true}
}

func skipped() Result {
	return Result{Success: true, Skipped: true}
}
