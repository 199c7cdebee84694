package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-insights-go/internal/api"
	"call-insights-go/internal/config"
	"call-insights-go/internal/extractor"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/pipeline"
	"call-insights-go/internal/processor"
	"call-insights-go/internal/store"
	"call-insights-go/internal/transcription"
	"call-insights-go/internal/webhook"
)

func main() {
	log := logger.New()
	log.WithField("service", "call-insights-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	st, err := store.Open(store.Options{
		Driver:     cfg.Store.Driver,
		Path:       cfg.Store.Path,
		TTL:        cfg.Store.TTL,
		MaxEntries: cfg.Store.MaxEntries,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open result store")
	}
	defer st.Close()
	log.WithField("driver", cfg.Store.Driver).WithField("ttl", cfg.Store.TTL).Info("result store ready")

	llm := extractor.NewClient(extractor.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
		Mock:    cfg.LLM.Mock,
	})
	var gen pipeline.Generator
	if llm.Enabled() {
		gen = extractor.NewAnalyzer(llm)
	}

	proc := processor.New(processor.Deps{
		Transcriber: transcription.NewClient(transcription.Config{
			APIKey:       cfg.Transcription.APIKey,
			BaseURL:      cfg.Transcription.BaseURL,
			PollInterval: cfg.Transcription.PollInterval,
			MaxAttempts:  cfg.Transcription.MaxAttempts,
			Mock:         cfg.Transcription.Mock,
		}),
		Pipeline: pipeline.New(gen),
		Store:    st,
		Webhook:  webhook.New(nil, cfg.Webhook.Timeout),
		Model:    llm.Model(),
	})

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: api.New(api.Options{
			Processor:      proc,
			Store:          st,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			JobTimeout:     cfg.Server.JobTimeout,
			WebhookURL:     cfg.Webhook.URL,
		}).Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.JobTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	proc.Wait()
}
