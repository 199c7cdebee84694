// Package api exposes call analysis over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"call-insights-go/internal/dataset"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/processor"
	"call-insights-go/internal/store"
	"call-insights-go/internal/types"
)

const (
	maxWebhookBody = 10 << 20
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Options struct {
	Processor      *processor.Processor
	Store          store.Store
	MaxUploadBytes int64
	JobTimeout     time.Duration
	// WebhookURL receives async results when the request names none.
	WebhookURL string
}

type Server struct {
	opts Options
}

func New(opts Options) *Server {
	return &Server{opts: opts}
}

// Routes returns the full handler with CORS and request logging applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /analyze-conversation", s.analyze)
	mux.HandleFunc("POST /webhook", s.receiveWebhook)
	mux.HandleFunc("GET /webhook", s.getWebhook)
	mux.HandleFunc("GET /results/{id}", s.getResult)
	mux.HandleFunc("GET /results/{id}/xlsx", s.getResultXLSX)
	return withCORS(withRequestLog(mux))
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "analyze")

	limit := s.opts.MaxUploadBytes
	if r.ContentLength > limit {
		reqLog.WithField("content_length", r.ContentLength).Warn("upload too large")
		writeError(w, http.StatusRequestEntityTooLarge, "File too large", "")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			reqLog.Warn("upload too large")
			writeError(w, http.StatusRequestEntityTooLarge, "File too large", "")
			return
		}
		reqLog.WithError(err).Warn("unreadable multipart form")
		writeError(w, http.StatusBadRequest, "No audio file provided", "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		reqLog.Warn("no audio part")
		writeError(w, http.StatusBadRequest, "No audio file provided", "")
		return
	}
	audio, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided", err.Error())
		return
	}

	// Job ids are minted here. X-Request-ID is caller-controlled and only logged.
	job := processor.Job{
		ID:         uuid.New().String(),
		FileName:   header.Filename,
		Audio:      bytes.NewReader(audio),
		WebhookURL: r.FormValue("webhookUrl"),
	}
	reqLog = reqLog.WithFields(logrus.Fields{"job_id": job.ID, "file": job.FileName, "bytes": len(audio)})

	if r.URL.Query().Get("async") == "true" || job.WebhookURL != "" {
		if job.WebhookURL == "" {
			job.WebhookURL = s.opts.WebhookURL
		}
		id := s.opts.Processor.Start(job, s.opts.JobTimeout)
		reqLog.Info("job accepted")
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "id": id})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.JobTimeout)
	defer cancel()
	res, err := s.opts.Processor.Run(ctx, job)
	if err != nil {
		reqLog.WithError(err).Error("processing failed")
		writeError(w, http.StatusInternalServerError, "Failed to process audio file", err.Error())
		return
	}
	reqLog.WithField("duration_ms", res.DurationMs).Info("processing finished")
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "webhook")

	var res types.AnalysisResult
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&res); err != nil {
		reqLog.WithError(err).Warn("invalid webhook body")
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	id := uuid.New().String()
	if res.ReceivedAt == "" {
		res.ReceivedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := s.opts.Store.Put(r.Context(), id, res); err != nil {
		reqLog.WithError(err).Error("store webhook result failed")
		writeError(w, http.StatusInternalServerError, "Failed to store result", err.Error())
		return
	}
	reqLog.WithField("result_id", id).Info("webhook result stored")
	writeJSON(w, http.StatusOK, map[string]string{"status": "received", "resultId": id})
}

func (s *Server) getWebhook(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		s.writeStored(w, r, id)
		return
	}
	list, err := s.opts.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list results", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": list, "count": len(list)})
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	s.writeStored(w, r, r.PathValue("id"))
}

func (s *Server) writeStored(w http.ResponseWriter, r *http.Request, id string) {
	res, ok, err := s.opts.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load result", err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Result not found", "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getResultXLSX(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, ok, err := s.opts.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load result", err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Result not found", "")
		return
	}
	var buf bytes.Buffer
	if err := dataset.WriteResult(&buf, res); err != nil {
		logger.New().WithRequest(r).WithError(err).Error("xlsx export failed")
		writeError(w, http.StatusInternalServerError, "Failed to export result", err.Error())
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Component("api").WithError(err).Error("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
