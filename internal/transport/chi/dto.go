package chi

import "github.com/kailas-cloud/ragd/internal/domain"

// ingestRequest is the body of POST /ingest.
type ingestRequest struct {
	Bucket   string   `json:"bucket"`
	Prefix   string   `json:"prefix"`
	DocType  string   `json:"docType"`
	Tags     []string `json:"tags"`
	MaxFiles int      `json:"maxFiles"`
}

type ingestError struct {
	Key        string `json:"key"`
	Step       string `json:"step"`
	ChunkIndex *int   `json:"chunkIndex,omitempty"`
	Error      string `json:"error"`
}

type skippedObject struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

type ingestResponse struct {
	RequestID  string          `json:"requestId"`
	Bucket     string          `json:"bucket"`
	Prefix     string          `json:"prefix"`
	FilesFound int             `json:"filesFound"`
	Ingested   int             `json:"ingested"`
	ListMs     int64           `json:"listMs"`
	DBMs       int64           `json:"dbMs"`
	Errors     []ingestError   `json:"errors"`
	Skipped    []skippedObject `json:"skipped"`
}

type skippedEventResponse struct {
	RequestID string `json:"requestId"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason"`
	Key       string `json:"key"`
}

// chatRequest is the body of POST /chat.
type chatRequest struct {
	Question        string `json:"question"`
	TopK            int    `json:"topK"`
	MaxContextChars int    `json:"maxContextChars"`
}

// chatResponse is the body of a successful POST /chat.
type chatResponse struct {
	RequestID string            `json:"requestId"`
	Answer    string            `json:"answer"`
	Citations []domain.Citation `json:"citations"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}
