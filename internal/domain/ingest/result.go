package ingest

// Status is the processing outcome of a single object or chunk.
type Status string

// Outcome status values.
const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Step names the pipeline stage an error outcome came from.
type Step string

// Pipeline steps that produce per-item errors.
const (
	StepExtract Step = "extract"
	StepEmbed   Step = "embed"
)

// ReasonEmptyText is reported when an object yields no extractable text.
const ReasonEmptyText = "empty_text"

// Result is the outcome of processing one object in an ingestion batch.
type Result struct {
	key        string
	status     Status
	step       Step
	chunkIndex int
	hasChunk   bool
	err        error
	reason     string
}

// NewOK creates a successful result.
func NewOK(key string) Result { return Result{key: key, status: StatusOK} }

// NewSkipped creates a result for an object that was filtered out.
func NewSkipped(key, reason string) Result {
	return Result{key: key, status: StatusSkipped, reason: reason}
}

// NewError creates a failed result for a whole object.
func NewError(key string, step Step, err error) Result {
	return Result{key: key, status: StatusError, step: step, err: err}
}

// NewEmptyText creates the extract error reported for objects without text.
func NewEmptyText(key string) Result {
	return Result{key: key, status: StatusError, step: StepExtract, reason: ReasonEmptyText}
}

// NewChunkError creates a failed result for one chunk of an object.
func NewChunkError(key string, chunkIndex int, step Step, err error) Result {
	return Result{key: key, status: StatusError, step: step, chunkIndex: chunkIndex, hasChunk: true, err: err}
}

// Key returns the object key.
func (r Result) Key() string { return r.key }

// Status returns the processing outcome.
func (r Result) Status() Status { return r.status }

// Step returns the failing stage, if any.
func (r Result) Step() Step { return r.step }

// ChunkIndex returns the failing chunk index and whether one was recorded.
func (r Result) ChunkIndex() (int, bool) { return r.chunkIndex, r.hasChunk }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Message renders the error or reason for reporting.
func (r Result) Message() string {
	if r.err != nil {
		return r.err.Error()
	}
	return r.reason
}

// Summary counts results by status.
type Summary struct {
	OK      int
	Skipped int
	Errors  int
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.status {
		case StatusOK:
			s.OK++
		case StatusSkipped:
			s.Skipped++
		case StatusError:
			s.Errors++
		}
	}
	return s
}
