package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/metrics"
	"github.com/kailas-cloud/ragd/internal/usecase/chat"
	"github.com/kailas-cloud/ragd/internal/usecase/health"
	"github.com/kailas-cloud/ragd/internal/usecase/ingest"
)

// maxBodyBytes caps request bodies. S3 event batches are the largest payloads.
const maxBodyBytes = 1 << 20

// Ingester runs an ingestion batch.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (ingest.Report, error)
}

// Asker answers one chat turn.
type Asker interface {
	Ask(ctx context.Context, req chat.Request) (chat.Answer, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Server is the HTTP surface over the ingest and chat services.
type Server struct {
	ingest        Ingester
	chat          Asker
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates a Server.
func NewServer(ing Ingester, ask Asker, hc HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ingest:        ing,
		chat:          ask,
		health:        hc,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(EchoRequestID)
	r.Use(WideEvent(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/ingest", s.Ingest)
	r.Post("/events/s3", s.S3Event)
	r.Post("/chat", s.Chat)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", chiMiddleware.GetReqID(r.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed",
			chiMiddleware.GetReqID(r.Context()))
	})
	return r
}

// Ingest handles POST /ingest.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	requestID := chiMiddleware.GetReqID(r.Context())

	var body ingestRequest
	if st := decodeBody(w, r, &body); st == bodyMalformed {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "malformed JSON body", requestID)
		return
	}

	s.runIngest(w, r, requestID, ingest.Request{
		Bucket:   body.Bucket,
		Prefix:   body.Prefix,
		DocType:  body.DocType,
		Tags:     body.Tags,
		MaxFiles: body.MaxFiles,
	})
}

// S3Event handles POST /events/s3. Only the first record is processed.
func (s *Server) S3Event(w http.ResponseWriter, r *http.Request) {
	requestID := chiMiddleware.GetReqID(r.Context())

	var ev events.S3Event
	switch decodeBody(w, r, &ev) {
	case bodyMalformed:
		writeError(w, http.StatusBadRequest, codeValidationFailed, "malformed S3 event", requestID)
		return
	case bodyAbsent:
		writeError(w, http.StatusBadRequest, codeValidationFailed, "event has no records", requestID)
		return
	}
	if len(ev.Records) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "event has no records", requestID)
		return
	}

	rec := ev.Records[0]
	key := rec.S3.Object.URLDecodedKey
	if key == "" {
		key = rec.S3.Object.Key
	}
	if domain.IsFolderMarker(key) {
		writeJSON(w, http.StatusOK, skippedEventResponse{
			RequestID: requestID,
			Skipped:   true,
			Reason:    "folder_marker",
			Key:       key,
		})
		return
	}

	s.runIngest(w, r, requestID, ingest.Request{
		Bucket: rec.S3.Bucket.Name,
		Prefix: domain.PrefixForKey(key),
	})
}

func (s *Server) runIngest(w http.ResponseWriter, r *http.Request, requestID string, req ingest.Request) {
	rep, err := s.ingest.Ingest(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, toIngestResponse(requestID, rep))
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	requestID := chiMiddleware.GetReqID(r.Context())

	var body chatRequest
	if st := decodeBody(w, r, &body); st == bodyMalformed {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "malformed JSON body", requestID)
		return
	}

	ans, err := s.chat.Ask(r.Context(), chat.Request{
		Question:        body.Question,
		TopK:            body.TopK,
		MaxContextChars: body.MaxContextChars,
	})
	if err != nil {
		s.handleDomainError(w, err, requestID)
		return
	}
	citations := ans.Citations
	if citations == nil {
		citations = []domain.Citation{}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		RequestID: requestID,
		Answer:    ans.Answer,
		Citations: citations,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rep := s.health.Check(r.Context())

	checks := make(map[string]string, len(rep.Checks))
	for k, v := range rep.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if rep.Status == health.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(rep.Status), Checks: checks})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error, requestID string) {
	for _, h := range s.errorHandlers {
		if h(w, err, requestID) {
			return
		}
	}
	s.logger.Error("unhandled error",
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, codeInternal, safeDomainMessage(err), requestID)
}

func toIngestResponse(requestID string, rep ingest.Report) ingestResponse {
	resp := ingestResponse{
		RequestID:  requestID,
		Bucket:     rep.Bucket,
		Prefix:     rep.Prefix,
		FilesFound: rep.FilesFound,
		Ingested:   rep.Ingested,
		ListMs:     rep.ListMs,
		DBMs:       rep.DBMs,
		Errors:     []ingestError{},
		Skipped:    []skippedObject{},
	}
	for _, res := range rep.Errors() {
		e := ingestError{Key: res.Key(), Step: string(res.Step()), Error: res.Message()}
		if idx, ok := res.ChunkIndex(); ok {
			e.ChunkIndex = &idx
		}
		resp.Errors = append(resp.Errors, e)
	}
	for _, o := range rep.Skipped {
		resp.Skipped = append(resp.Skipped, skippedObject{Key: o.Key, Size: o.Size})
	}
	return resp
}

type bodyState int

const (
	bodyAbsent bodyState = iota
	bodyOK
	bodyMalformed
)

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bodyState {
	if r.Body == nil || r.Body == http.NoBody {
		return bodyAbsent
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return bodyMalformed
	}
	if strings.TrimSpace(string(data)) == "" {
		return bodyAbsent
	}
	if err := json.Unmarshal(data, v); err != nil {
		return bodyMalformed
	}
	return bodyOK
}
