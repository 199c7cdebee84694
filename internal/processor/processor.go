// Package processor runs one call-analysis job end to end:
// upload, transcription, analysis, vCon assembly, storage and webhook delivery.
package processor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/pipeline"
	"call-insights-go/internal/store"
	"call-insights-go/internal/types"
	"call-insights-go/internal/vcon"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// finishTimeout bounds storing and delivering a result once the job context is done.
const finishTimeout = 30 * time.Second

// Transcriber is the speech-service collaborator. transcription.Client implements it.
type Transcriber interface {
	Upload(ctx context.Context, audio io.Reader) (string, error)
	TranscribeURL(ctx context.Context, audioURL string) (types.Transcript, error)
}

// Deliverer posts a finished result. webhook.Client implements it.
type Deliverer interface {
	Deliver(ctx context.Context, url string, r types.AnalysisResult) error
}

// Job is one call to analyze. Exactly one of Audio and AudioURL is set.
type Job struct {
	ID         string
	FileName   string
	Audio      io.Reader
	AudioURL   string
	WebhookURL string
}

type Deps struct {
	Transcriber Transcriber
	Pipeline    *pipeline.Pipeline
	Store       store.Store
	Webhook     Deliverer // optional
	Model       string    // provenance label for AI-produced fields
}

type Processor struct {
	deps Deps
	log  *logrus.Entry
	wg   sync.WaitGroup
}

func New(deps Deps) *Processor {
	return &Processor{deps: deps, log: logger.Component("processor")}
}

// Run processes job synchronously. The returned error is non-nil only when no
// transcript could be obtained; the failed result is still stored and delivered.
func (p *Processor) Run(ctx context.Context, job Job) (types.AnalysisResult, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	ctx = logger.WithJobID(ctx, job.ID)
	log := logger.ForJob(ctx, p.log).WithField("file", job.FileName)
	start := time.Now()

	res := types.AnalysisResult{
		ID:         job.ID,
		FileName:   job.FileName,
		ReceivedAt: start.UTC().Format(time.RFC3339),
	}

	tr, audioURL, err := p.transcribe(ctx, job)
	if err != nil {
		log.WithError(err).Error("transcription failed")
		res.Status = StatusFailed
		res.Error = err.Error()
		res.DurationMs = time.Since(start).Milliseconds()
		p.finish(ctx, log, job, res)
		return res, fmt.Errorf("job %s: %w", job.ID, err)
	}

	a := p.deps.Pipeline.Analyze(ctx, tr)
	record, err := vcon.Assemble(vcon.Input{
		Transcript:           &tr,
		AudioURL:             audioURL,
		FileName:             job.FileName,
		Transcription:        a.Transcription,
		Summary:              a.Summary,
		ActionItems:          a.ActionItems,
		BusinessIntelligence: a.BusinessIntelligence,
		Domain:               a.Domain,
		Sources:              a.Sources,
		Model:                p.deps.Model,
	})
	if err != nil {
		// only a nil transcript fails assembly, which cannot happen here
		log.WithError(err).Error("vcon assembly failed")
	}

	res.Status = StatusCompleted
	res.Transcription = a.Transcription
	res.Summary = a.Summary
	res.ActionItems = a.ActionItems
	res.Sentiment = a.Sentiment
	res.BusinessIntelligence = a.BusinessIntelligence
	res.Vcon = record
	res.Sources = a.Sources
	res.DurationMs = time.Since(start).Milliseconds()

	log.WithFields(logrus.Fields{
		"duration_ms": res.DurationMs,
		"utterances":  len(tr.Utterances),
		"overall":     res.BusinessIntelligence.QualityScore.Overall,
	}).Info("job completed")
	p.finish(ctx, log, job, res)
	return res, nil
}

func (p *Processor) transcribe(ctx context.Context, job Job) (types.Transcript, string, error) {
	audioURL := job.AudioURL
	if job.Audio != nil {
		u, err := p.deps.Transcriber.Upload(ctx, job.Audio)
		if err != nil {
			return types.Transcript{}, "", err
		}
		audioURL = u
	}
	tr, err := p.deps.Transcriber.TranscribeURL(ctx, audioURL)
	return tr, audioURL, err
}

// finish stores and delivers res. Neither failure touches the result. It runs
// on its own deadline so a job that hit its timeout still reports the failure.
func (p *Processor) finish(ctx context.Context, log *logrus.Entry, job Job, res types.AnalysisResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if p.deps.Store != nil {
		if err := p.deps.Store.Put(ctx, res.ID, res); err != nil {
			log.WithError(err).Error("store result failed")
		}
	}
	if job.WebhookURL != "" && p.deps.Webhook != nil {
		if err := p.deps.Webhook.Deliver(ctx, job.WebhookURL, res); err != nil {
			log.WithError(err).WithField("webhook_url", job.WebhookURL).Warn("webhook delivery failed")
		}
	}
}

// Start runs job in the background on a context detached from the caller and
// bounded by timeout. A processing placeholder is stored first so the id can be
// polled right away.
func (p *Processor) Start(job Job, timeout time.Duration) string {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if p.deps.Store != nil {
		placeholder := types.AnalysisResult{
			ID:         job.ID,
			FileName:   job.FileName,
			Status:     StatusProcessing,
			ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := p.deps.Store.Put(context.Background(), job.ID, placeholder); err != nil {
			p.log.WithError(err).WithField("job_id", job.ID).Warn("store placeholder failed")
		}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		// errors are already logged, stored and delivered by Run
		_, _ = p.Run(ctx, job)
	}()
	return job.ID
}

// Wait blocks until every background job has finished.
func (p *Processor) Wait() { p.wg.Wait() }
