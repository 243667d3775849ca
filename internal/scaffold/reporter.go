package scaffold

// Step keys reported by Run, in pipeline order.
const (
	StepFetch            = "fetch"
	StepDownload         = "download"
	StepExtract          = "extract"
	StepZipList          = "zip-list"
	StepExtractedSummary = "extracted-summary"
	StepChmod            = "chmod"
	StepCleanup          = "cleanup"
)

// StepDef pairs a step key with its display label.
type StepDef struct {
	Key   string
	Label string
}

// Steps lists the pipeline steps so callers can pre-register them.
func Steps() []StepDef {
	return []StepDef{
		{StepFetch, "Fetch latest release"},
		{StepDownload, "Download template"},
		{StepExtract, "Extract template"},
		{StepZipList, "Archive contents"},
		{StepExtractedSummary, "Extraction summary"},
		{StepChmod, "Ensure scripts executable"},
		{StepCleanup, "Cleanup"},
	}
}

// Reporter receives step transitions. *tracker.Tracker satisfies it.
type Reporter interface {
	Start(key, detail string)
	Complete(key, detail string)
	Error(key, detail string)
	Skip(key, detail string)
}

// safeReporter shields the pipeline from a misbehaving Reporter.
type safeReporter struct {
	r Reporter
}

func (s safeReporter) Start(key, detail string) {
	s.call(func() { s.r.Start(key, detail) })
}

func (s safeReporter) Complete(key, detail string) {
	s.call(func() { s.r.Complete(key, detail) })
}

func (s safeReporter) Error(key, detail string) {
	s.call(func() { s.r.Error(key, detail) })
}

func (s safeReporter) Skip(key, detail string) {
	s.call(func() { s.r.Skip(key, detail) })
}

func (s safeReporter) call(fn func()) {
	if s.r == nil {
		return
	}
	defer func() { _ = recover() }()
	fn()
}
