package workflow

import (
	"path/filepath"
	"strings"

	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Downloader  stage.Handler
	Extractor   stage.Handler
	Transcriber stage.Handler
	Translator  stage.Handler
	Converter   stage.Handler
	Muxer       stage.Handler
}

// pipelineStage binds a handler to its in-flight status plus the predicates
// that decide whether the stage applies to an item and whether its artifact
// already exists.
type pipelineStage struct {
	name       string
	handler    stage.Handler
	processing queue.Status
	needed     func(*queue.Item) bool
	done       func(*queue.Item) bool
}

// ConfigureStages registers the pipeline handlers. Nil handlers are skipped
// so partial sets can run single stages in tests and one-shot commands.
func (m *Manager) ConfigureStages(set StageSet) {
	m.mu.Lock()
	m.stages = buildStages(set)
	m.mu.Unlock()
}

func buildStages(set StageSet) []pipelineStage {
	defs := []pipelineStage{
		{
			name:       "download",
			handler:    set.Downloader,
			processing: queue.StatusDownloading,
			needed:     func(item *queue.Item) bool { return item.Kind == queue.KindURL },
			done:       func(item *queue.Item) bool { return strings.TrimSpace(item.SourcePath) != "" },
		},
		{
			name:       "extract-audio",
			handler:    set.Extractor,
			processing: queue.StatusExtracting,
			needed:     func(item *queue.Item) bool { return item.Kind != queue.KindSubtitle },
			done:       func(item *queue.Item) bool { return item.Metadata().AudioPath != "" },
		},
		{
			name:       "transcribe",
			handler:    set.Transcriber,
			processing: queue.StatusTranscribing,
			needed:     func(item *queue.Item) bool { return item.Kind != queue.KindSubtitle },
			done:       func(item *queue.Item) bool { return strings.TrimSpace(item.TranscriptPath) != "" },
		},
		{
			// Audio transcription already lands in the target language, so
			// only existing subtitle files pass through the translator.
			name:       "translate",
			handler:    set.Translator,
			processing: queue.StatusTranslating,
			needed:     func(item *queue.Item) bool { return item.Kind == queue.KindSubtitle },
			done:       func(item *queue.Item) bool { return item.Metadata().TranslatedPath != "" },
		},
		{
			name:       "convert",
			handler:    set.Converter,
			processing: queue.StatusConverting,
			needed:     func(item *queue.Item) bool { return true },
			done:       func(item *queue.Item) bool { return strings.TrimSpace(item.SubtitlePath) != "" },
		},
		{
			name:       "mux",
			handler:    set.Muxer,
			processing: queue.StatusMuxing,
			needed: func(item *queue.Item) bool {
				return item.Kind != queue.KindSubtitle && isVideoSource(item.SourcePath)
			},
			done: func(item *queue.Item) bool { return strings.TrimSpace(item.OutputPath) != "" },
		},
	}
	stages := make([]pipelineStage, 0, len(defs))
	for _, def := range defs {
		if def.handler == nil {
			continue
		}
		stages = append(stages, def)
	}
	return stages
}

// nextStageFor returns the first applicable stage whose artifact is missing.
// Routing on artifacts rather than a status chain lets reset items resume
// exactly where they stopped.
func (m *Manager) nextStageFor(item *queue.Item) (pipelineStage, bool) {
	for _, stg := range m.stages {
		if !stg.needed(item) {
			continue
		}
		if stg.done(item) {
			continue
		}
		return stg, true
	}
	return pipelineStage{}, false
}

var videoSourceExts = map[string]struct{}{
	".mkv":  {},
	".mp4":  {},
	".m4v":  {},
	".webm": {},
	".avi":  {},
	".mov":  {},
	".ts":   {},
	".mpg":  {},
	".mpeg": {},
	".wmv":  {},
	".flv":  {},
}

func isVideoSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	_, ok := videoSourceExts[ext]
	return ok
}
