package mock

// Metrics implements port.UploadMetrics for tests.
type Metrics struct {
	Issued   int
	Outcomes []string
	Deleted  int
	Failed   int
}

func (m *Metrics) CapabilitiesIssued(n int)      { m.Issued += n }
func (m *Metrics) CommitFinished(outcome string) { m.Outcomes = append(m.Outcomes, outcome) }
func (m *Metrics) ObjectsRemoved(deleted, failed int) {
	m.Deleted += deleted
	m.Failed += failed
}
