package pipeline_test

import (
	"context"
	"testing"

	"easyaisubbing/internal/pipeline"
	"easyaisubbing/internal/testsupport"
)

func TestNewStageSetWiresAllStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set := pipeline.NewStageSet(cfg, store, nil)
	if set.Downloader == nil || set.Extractor == nil || set.Transcriber == nil ||
		set.Translator == nil || set.Converter == nil || set.Muxer == nil {
		t.Fatalf("stage set has nil handlers: %+v", set)
	}

	ctx := context.Background()
	if health := set.Converter.HealthCheck(ctx); !health.Ready {
		t.Fatalf("converter health = %+v, want ready", health)
	}
	if health := set.Transcriber.HealthCheck(ctx); !health.Ready {
		t.Fatalf("transcriber health = %+v, want ready with key", health)
	}
}

func TestNewStageSetWithoutKeyReportsUnhealthyTranscriber(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGeminiKey(""))
	store := testsupport.MustOpenStore(t, cfg)

	set := pipeline.NewStageSet(cfg, store, nil)
	if health := set.Transcriber.HealthCheck(context.Background()); health.Ready {
		t.Fatalf("transcriber health = %+v, want not ready without key", health)
	}
}
