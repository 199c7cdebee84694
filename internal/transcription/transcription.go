// Package transcription obtains diarized transcripts with sentiment segments
// and chapters from the speech service.
package transcription

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

var errPending = errors.New("transcript not ready")

// TranscribeURL submits audio the service can fetch, either an Upload result
// or a remote recording, and waits for the transcript.
func (c *Client) TranscribeURL(ctx context.Context, audioURL string) (types.Transcript, error) {
	log := logger.ForJob(ctx, c.log)
	if c.mock {
		log.Info("mock transcription mode ON")
		return MockTranscript(), nil
	}
	id, err := c.Submit(ctx, audioURL)
	if err != nil {
		log.WithError(err).Error("transcription submit failed")
		return types.Transcript{}, err
	}
	log.WithField("transcript_id", id).Info("transcription submitted")
	return c.Poll(ctx, id)
}

// Poll checks the job at a fixed interval until it completes, errors, or the
// attempt budget runs out. This is the only retrying call in the service.
func (c *Client) Poll(ctx context.Context, id string) (types.Transcript, error) {
	log := logger.ForJob(ctx, c.log).WithField("transcript_id", id)

	var (
		done    types.Transcript
		attempt int
	)
	op := func() error {
		attempt++
		resp, err := c.status(ctx, id)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) {
				return backoff.Permanent(err)
			}
			log.WithError(err).Warn("polling failed")
			return err
		}
		log.WithFields(logrus.Fields{"attempt": attempt, "status": resp.Status}).Debug("polling transcription")

		switch resp.Status {
		case "completed":
			done = resp.toTranscript()
			return nil
		case "error":
			msg := resp.Error
			if msg == "" {
				msg = "unknown error"
			}
			return backoff.Permanent(errors.New(msg))
		default:
			return errPending
		}
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.pollInterval), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		if errors.Is(err, errPending) {
			err = fmt.Errorf("not completed after %d attempts", attempt)
		}
		log.WithError(err).Error("transcription did not complete")
		return types.Transcript{}, fmt.Errorf("%w: %w", ErrFailed, err)
	}
	log.WithFields(logrus.Fields{
		"attempts":   attempt,
		"utterances": len(done.Utterances),
		"chapters":   len(done.Chapters),
	}).Info("transcription completed")
	return done, nil
}

// MockTranscript is the canned call returned in mock mode.
func MockTranscript() types.Transcript {
	utts := []types.Utterance{
		{Speaker: "A", Text: "Thank you for calling customer service, my name is Alex. How can I help you today?", StartMs: 240, EndMs: 4100, Confidence: 0.97},
		{Speaker: "B", Text: "Hi, I ordered a large pizza last night but received a cold salad instead, and I was charged twice.", StartMs: 4400, EndMs: 9800, Confidence: 0.94},
		{Speaker: "A", Text: "I'm sorry about that. Let me look into the order and the duplicate charge right away.", StartMs: 10100, EndMs: 14300, Confidence: 0.96},
		{Speaker: "B", Text: "Thanks. Honestly I'm frustrated, this is the second time it has happened.", StartMs: 14600, EndMs: 18200, Confidence: 0.95},
		{Speaker: "A", Text: "I understand. I'll refund the extra charge and follow up with you by email tomorrow.", StartMs: 18500, EndMs: 23000, Confidence: 0.97},
	}
	sents := []types.SentimentSegment{
		{Text: utts[0].Text, Sentiment: types.Positive, Confidence: 0.88, StartMs: utts[0].StartMs, EndMs: utts[0].EndMs},
		{Text: utts[1].Text, Sentiment: types.Neutral, Confidence: 0.61, StartMs: utts[1].StartMs, EndMs: utts[1].EndMs},
		{Text: utts[2].Text, Sentiment: types.Neutral, Confidence: 0.72, StartMs: utts[2].StartMs, EndMs: utts[2].EndMs},
		{Text: utts[3].Text, Sentiment: types.Negative, Confidence: 0.91, StartMs: utts[3].StartMs, EndMs: utts[3].EndMs},
		{Text: utts[4].Text, Sentiment: types.Positive, Confidence: 0.83, StartMs: utts[4].StartMs, EndMs: utts[4].EndMs},
	}
	text := ""
	for i, u := range utts {
		if i > 0 {
			text += " "
		}
		text += u.Text
	}
	return types.Transcript{
		ID:               "mock-transcript",
		Status:           "completed",
		Text:             text,
		Utterances:       utts,
		Sentiments:       sents,
		AudioDurationSec: 23.4,
	}
}
