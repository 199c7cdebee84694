package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

const (
	DefaultBaseURL      = "https://api.assemblyai.com/v2"
	DefaultPollInterval = 4500 * time.Millisecond
	DefaultMaxAttempts  = 20

	mockUploadURL = "mock://upload/audio"
)

// ErrFailed wraps every transcription failure. A job without a transcript cannot continue.
var ErrFailed = errors.New("transcription failed")

// -------------------------------
//  API wire structs
// -------------------------------

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type submitRequest struct {
	AudioURL          string `json:"audio_url"`
	SpeakerLabels     bool   `json:"speaker_labels"`
	SentimentAnalysis bool   `json:"sentiment_analysis"`
	AutoChapters      bool   `json:"auto_chapters"`
	Punctuate         bool   `json:"punctuate"`
	FormatText        bool   `json:"format_text"`
}

type transcriptResponse struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"` // queued, processing, completed, error
	Error         string  `json:"error"`
	Text          string  `json:"text"`
	AudioDuration float64 `json:"audio_duration"`
	Utterances    []struct {
		Speaker    string  `json:"speaker"`
		Text       string  `json:"text"`
		Start      int64   `json:"start"`
		End        int64   `json:"end"`
		Confidence float64 `json:"confidence"`
	} `json:"utterances"`
	SentimentAnalysisResults []struct {
		Text       string  `json:"text"`
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
		Start      int64   `json:"start"`
		End        int64   `json:"end"`
	} `json:"sentiment_analysis_results"`
	Chapters []struct {
		Headline string `json:"headline"`
		Gist     string `json:"gist"`
		Summary  string `json:"summary"`
		Start    int64  `json:"start"`
		End      int64  `json:"end"`
	} `json:"chapters"`
}

func (r transcriptResponse) toTranscript() types.Transcript {
	t := types.Transcript{
		ID:               r.ID,
		Status:           r.Status,
		Text:             r.Text,
		AudioDurationSec: r.AudioDuration,
		Utterances:       make([]types.Utterance, 0, len(r.Utterances)),
		Sentiments:       make([]types.SentimentSegment, 0, len(r.SentimentAnalysisResults)),
	}
	for _, u := range r.Utterances {
		t.Utterances = append(t.Utterances, types.Utterance{
			Speaker: u.Speaker, Text: u.Text, StartMs: u.Start, EndMs: u.End, Confidence: u.Confidence,
		})
	}
	for _, s := range r.SentimentAnalysisResults {
		t.Sentiments = append(t.Sentiments, types.SentimentSegment{
			Text: s.Text, Sentiment: types.Sentiment(strings.ToUpper(s.Sentiment)), Confidence: s.Confidence, StartMs: s.Start, EndMs: s.End,
		})
	}
	for _, c := range r.Chapters {
		t.Chapters = append(t.Chapters, types.Chapter{
			Headline: c.Headline, Gist: c.Gist, Summary: c.Summary, StartMs: c.Start, EndMs: c.End,
		})
	}
	return t
}

type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	MaxAttempts  int
	// Mock skips the network and returns a canned two-speaker call.
	Mock       bool
	HTTPClient *http.Client
}

// Client speaks the AssemblyAI v2 protocol: upload, submit, poll.
type Client struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	maxAttempts  int
	mock         bool
	http         *http.Client
	log          *logrus.Entry
}

func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxAttempts,
		mock:         cfg.Mock,
		http:         cfg.HTTPClient,
		log:          logger.Component("transcription"),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
	}
	return c
}

// doJSON sends req and decodes a 2xx JSON body into target. Non-2xx is reported
// with the upstream body for the logs.
func (c *Client) doJSON(req *http.Request, target any) error {
	req.Header.Set("Authorization", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("json decode error: %w", err)
	}
	return nil
}

// StatusError is a non-2xx answer from the speech service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Upload posts the raw audio bytes and returns the service-side URL.
func (c *Client) Upload(ctx context.Context, audio io.Reader) (string, error) {
	if c.mock {
		return mockUploadURL, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", audio)
	if err != nil {
		return "", fmt.Errorf("%w: build upload request: %w", ErrFailed, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	var out uploadResponse
	if err := c.doJSON(req, &out); err != nil {
		return "", fmt.Errorf("%w: upload audio: %w", ErrFailed, err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("%w: upload returned no url", ErrFailed)
	}
	return out.UploadURL, nil
}

// Submit starts a transcription job for audioURL and returns its id.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(submitRequest{
		AudioURL:          audioURL,
		SpeakerLabels:     true,
		SentimentAnalysis: true,
		AutoChapters:      true,
		Punctuate:         true,
		FormatText:        true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode submit request: %w", ErrFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build submit request: %w", ErrFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out transcriptResponse
	if err := c.doJSON(req, &out); err != nil {
		return "", fmt.Errorf("%w: submit transcription: %w", ErrFailed, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: submit returned no id", ErrFailed)
	}
	return out.ID, nil
}

func (c *Client) status(ctx context.Context, id string) (transcriptResponse, error) {
	var out transcriptResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+id, nil)
	if err != nil {
		return out, err
	}
	err = c.doJSON(req, &out)
	return out, err
}
