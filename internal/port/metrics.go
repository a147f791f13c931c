package port

// UploadMetrics receives pipeline counters.
type UploadMetrics interface {
	CapabilitiesIssued(n int)
	CommitFinished(outcome string)
	ObjectsRemoved(deleted, failed int)
}
