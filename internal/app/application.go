// Package app wires the detection, scoring, correlation, selection and assembly stages into one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"footech/internal/acoustic"
	"footech/internal/artifact"
	"footech/internal/buffer"
	"footech/internal/clips"
	"footech/internal/config"
	"footech/internal/correlator"
	"footech/internal/fetch"
	"footech/internal/gpu"
	"footech/internal/history"
	"footech/internal/media"
	"footech/internal/performance"
	"footech/internal/semantic"
	"footech/internal/transcriber"
	"footech/internal/vocabulary"
)

var (
	// ErrNoFrameSource is returned when no intensity frame source is configured
	ErrNoFrameSource = errors.New("frame source is required")
	// ErrNoTranscriber is returned when no transcriber is configured
	ErrNoTranscriber = errors.New("transcriber is required")
	// ErrNoMedia is returned when no media tool is configured
	ErrNoMedia = errors.New("media tool is required")
)

// Warnings carried in the report
const (
	WarnDurationUnknown = "media duration unknown, clip windows are not clamped to the end of the media"
	WarnNoSignal        = "no acoustic signal"
	WarnNoCorrelation   = "no correlated events"
)

// FrameSource produces the intensity series of an audio file
type FrameSource interface {
	Frames(ctx context.Context, audioPath string) ([]acoustic.Frame, error)
}

// MediaTool probes and decodes source media
type MediaTool interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ExtractAudio(ctx context.Context, video, wavPath string, sampleRate int) error
}

// ClipAssembler cuts windows out of the source and joins them
type ClipAssembler interface {
	Assemble(ctx context.Context, source string, windows []clips.Window, destination string) (media.AssemblyResult, error)
}

// SourceResolver turns a source argument into a local file path
type SourceResolver interface {
	Resolve(ctx context.Context, source string) (string, error)
}

// RunRecorder stores finished runs
type RunRecorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Dependencies are the collaborators of an Application
type Dependencies struct {
	Frames      FrameSource
	Transcriber transcriber.Transcriber
	Similarity  semantic.Similarity
	Vocabulary  vocabulary.Vocabulary
	Media       MediaTool
	Assembler   ClipAssembler
	// Resolver defaults to accepting local paths only
	Resolver SourceResolver
	// History is optional
	History RunRecorder
}

// Analysis is the joined output of the acoustic and semantic tasks
type Analysis struct {
	Segments []transcriber.Segment
	Acoustic acoustic.Result
	Semantic semantic.Result
}

// RunOptions adjusts a single run
type RunOptions struct {
	// Output overrides the path of the concatenated highlight
	Output string
	// SkipAssembly stops after clip selection
	SkipAssembly bool
}

// Report summarises a run; it is written to report.json in the run directory
type Report struct {
	RunID              string             `json:"run_id"`
	Source             string             `json:"source"`
	CreatedAt          time.Time          `json:"created_at"`
	MediaDuration      float64            `json:"media_duration"`
	DurationKnown      bool               `json:"duration_known"`
	Degraded           bool               `json:"degraded"`
	Warnings           []string           `json:"warnings"`
	AcousticThreshold  float64            `json:"acoustic_threshold"`
	AcousticEvents     int                `json:"acoustic_events"`
	SemanticEvents     int                `json:"semantic_events"`
	SkippedSegments    int                `json:"skipped_segments"`
	ScoringFailures    int                `json:"scoring_failures"`
	CorrelatedEvents   int                `json:"correlated_events"`
	DroppedWindows     int                `json:"dropped_windows"`
	MeanSimilarity     float64            `json:"mean_similarity"`
	SuggestedThreshold float64            `json:"suggested_threshold"`
	Windows            []clips.Window     `json:"windows"`
	FailedWindows      []clips.Window     `json:"failed_windows,omitempty"`
	OutputPath         string             `json:"output_path,omitempty"`
	ArtifactsDir       string             `json:"artifacts_dir"`
	Timings            map[string]float64 `json:"timings"`
}

// Application runs the goal-clip pipeline
type Application struct {
	config     *config.Configuration
	logger     *zap.Logger
	deps       Dependencies
	detector   *acoustic.Detector
	scorer     *semantic.Scorer
	correlator *correlator.Correlator
	selector   *clips.Selector
	monitor    *performance.Monitor
	newRunID   func() string
	closers    []func() error
}

// NewApplication builds every collaborator from configuration
func NewApplication(ctx context.Context, cfg *config.Configuration, logger *zap.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	detector := gpu.NewDetectorWithLogger(logger)
	executor := NewExecutor(cfg, logger)

	tr, err := NewTranscriber(ctx, cfg, detector, logger)
	if err != nil {
		return nil, err
	}
	sim, err := NewSimilarity(cfg, logger)
	if err != nil {
		return nil, err
	}
	vocab, err := LoadVocabulary(cfg)
	if err != nil {
		return nil, err
	}

	deps := Dependencies{
		Frames:      acoustic.NewIntensityExtractorWithLogger(cfg.GetHopSeconds(), logger),
		Transcriber: tr,
		Similarity:  sim,
		Vocabulary:  vocab,
		Media:       executor,
		Assembler:   NewAssembler(cfg, executor, detector, logger),
		Resolver: fetch.NewDownloaderWithLogger(downloadsDir(cfg), logger).
			WithRetry(cfg.GetFetchMaxRetries(), cfg.GetFetchBaseBackoffMS()),
	}

	var closers []func() error
	if cfg.GetHistoryEnabled() {
		store, err := history.Open(cfg.GetHistoryDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		deps.History = store
		closers = append(closers, store.Close)
	}

	app, err := NewApplicationWithDependencies(cfg, deps, logger)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, err
	}
	app.closers = closers
	return app, nil
}

// NewApplicationWithDependencies builds an application around the given collaborators,
// rejecting missing ones before any processing happens
func NewApplicationWithDependencies(cfg *config.Configuration, deps Dependencies, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Frames == nil {
		return nil, ErrNoFrameSource
	}
	if deps.Transcriber == nil {
		return nil, ErrNoTranscriber
	}
	if deps.Media == nil || deps.Assembler == nil {
		return nil, ErrNoMedia
	}
	if deps.Resolver == nil {
		deps.Resolver = localResolver{}
	}

	scorer, err := semantic.NewScorerWithLogger(deps.Similarity, deps.Vocabulary, ScorerConfigFrom(cfg), logger)
	if err != nil {
		return nil, err
	}

	return &Application{
		config:     cfg,
		logger:     logger,
		deps:       deps,
		detector:   acoustic.NewDetectorWithLogger(DetectorConfigFrom(cfg), logger),
		scorer:     scorer,
		correlator: NewCorrelator(cfg, logger),
		selector:   NewSelector(cfg, logger),
		monitor:    performance.NewMonitorWithBenchmark(logger, cfg.GetDebugMode()),
		newRunID:   uuid.NewString,
	}, nil
}

// Close releases resources held by the application
func (app *Application) Close() error {
	var errs []error
	for _, c := range app.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

// Monitor returns the stage timing monitor
func (app *Application) Monitor() *performance.Monitor {
	return app.monitor
}

// Analyze runs the acoustic and semantic tasks concurrently on a 16 kHz mono WAV file
// and joins them. A failure in either task cancels the other.
func (app *Application) Analyze(ctx context.Context, audioPath string) (Analysis, error) {
	var analysis Analysis

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		result, err := app.analyzeAcoustic(ctx, audioPath)
		if err != nil {
			return err
		}
		analysis.Acoustic = result
		return nil
	})
	p.Go(func(ctx context.Context) error {
		segments, result, err := app.analyzeSemantic(ctx, audioPath)
		if err != nil {
			return err
		}
		analysis.Segments = segments
		analysis.Semantic = result
		return nil
	})
	if err := p.Wait(); err != nil {
		return Analysis{}, err
	}
	return analysis, nil
}

func (app *Application) analyzeAcoustic(ctx context.Context, audioPath string) (acoustic.Result, error) {
	var frames []acoustic.Frame
	err := app.monitor.Track("intensity", func() error {
		var err error
		frames, err = app.deps.Frames.Frames(ctx, audioPath)
		return err
	})
	if err != nil {
		return acoustic.Result{}, fmt.Errorf("failed to extract intensity frames: %w", err)
	}

	timer := app.monitor.Start("detect")
	result := app.detector.Detect(frames)
	app.monitor.End(timer, nil)
	return result, nil
}

func (app *Application) analyzeSemantic(ctx context.Context, audioPath string) ([]transcriber.Segment, semantic.Result, error) {
	var segments []transcriber.Segment
	err := app.monitor.Track("transcribe", func() error {
		var err error
		segments, err = app.deps.Transcriber.Transcribe(ctx, audioPath)
		return err
	})
	if err != nil {
		return nil, semantic.Result{}, fmt.Errorf("failed to transcribe audio: %w", err)
	}

	// Malformed segments must not be absorbed into a merged sentence
	segments, skipped := transcriber.Sanitize(segments, app.logger)

	if app.config.GetMergeSentences() {
		merged := buffer.MergeSentences(segments, app.config.GetMaxSentenceSeconds())
		app.logger.Debug("merged transcript into sentences",
			zap.Int("segments", len(segments)),
			zap.Int("sentences", len(merged)))
		segments = merged
	}

	var result semantic.Result
	err = app.monitor.Track("score", func() error {
		var err error
		result, err = app.scorer.Score(ctx, segments)
		return err
	})
	if err != nil {
		return nil, semantic.Result{}, fmt.Errorf("failed to score transcript: %w", err)
	}
	result.Skipped += skipped
	return segments, result, nil
}

// Run executes the whole pipeline for source, a local media file or an http(s) URL
func (app *Application) Run(ctx context.Context, source string, opts RunOptions) (Report, error) {
	report := Report{
		RunID:     app.newRunID(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Warnings:  []string{},
	}

	bundle, err := artifact.NewBundle(app.config.GetOutputDir(), report.RunID)
	if err != nil {
		return report, err
	}
	report.ArtifactsDir = bundle.Dir()

	app.logger.Info("starting run",
		zap.String("run_id", report.RunID),
		zap.String("source", source),
		zap.String("artifacts_dir", bundle.Dir()))

	localPath, err := app.deps.Resolver.Resolve(ctx, source)
	if err != nil {
		return report, fmt.Errorf("failed to resolve source: %w", err)
	}

	bounds := app.probeBounds(ctx, localPath)
	report.MediaDuration = bounds.Duration
	report.DurationKnown = bounds.Known
	if !bounds.Known {
		report.Warnings = append(report.Warnings, WarnDurationUnknown)
	}

	audioPath, err := app.prepareAudio(ctx, localPath, bundle)
	if err != nil {
		return report, err
	}

	analysis, err := app.Analyze(ctx, audioPath)
	if err != nil {
		return report, err
	}
	report.AcousticThreshold = analysis.Acoustic.Threshold.Value
	report.AcousticEvents = len(analysis.Acoustic.Events)
	report.SemanticEvents = len(analysis.Semantic.Events)
	report.SkippedSegments = analysis.Semantic.Skipped
	report.ScoringFailures = analysis.Semantic.Failed
	if analysis.Semantic.Skipped > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d malformed transcript segment(s) skipped", analysis.Semantic.Skipped))
	}
	if analysis.Semantic.Failed > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("similarity scoring failed for %d segment(s)", analysis.Semantic.Failed))
	}
	report.MeanSimilarity = analysis.Semantic.MeanSimilarity
	report.SuggestedThreshold = analysis.Semantic.SuggestedThreshold
	if analysis.Acoustic.NoSignal {
		report.Warnings = append(report.Warnings, WarnNoSignal)
	}

	correlated := app.correlator.Correlate(analysis.Acoustic.Events, analysis.Semantic.Events)
	report.CorrelatedEvents = len(correlated)
	if len(correlated) == 0 {
		report.Warnings = append(report.Warnings, WarnNoCorrelation)
	}

	selection := app.selector.Select(correlated, bounds)
	report.Windows = selection.Windows
	report.DroppedWindows = selection.Dropped
	report.Degraded = selection.Degraded

	if err := app.writeArtifacts(bundle, analysis, correlated, selection.Windows); err != nil {
		return report, err
	}

	if !opts.SkipAssembly && len(selection.Windows) > 0 {
		destination := opts.Output
		if destination == "" {
			destination = bundle.Path(app.config.GetFinalName())
		}
		var assembled media.AssemblyResult
		err := app.monitor.Track("assemble", func() error {
			var err error
			assembled, err = app.deps.Assembler.Assemble(ctx, localPath, selection.Windows, destination)
			return err
		})
		report.FailedWindows = assembled.Failed
		if len(assembled.Failed) > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%d clip(s) failed to extract", len(assembled.Failed)))
		}
		if err != nil {
			return report, fmt.Errorf("failed to assemble clips: %w", err)
		}
		report.OutputPath = assembled.Output
	}

	report.Timings = app.monitor.Timings()
	if err := bundle.Write(artifact.ReportFile, report); err != nil {
		return report, err
	}
	app.recordHistory(ctx, report)

	app.logger.Info("run completed",
		zap.String("run_id", report.RunID),
		zap.Int("acoustic_events", report.AcousticEvents),
		zap.Int("semantic_events", report.SemanticEvents),
		zap.Int("correlated_events", report.CorrelatedEvents),
		zap.Int("windows", len(report.Windows)),
		zap.Bool("degraded", report.Degraded),
		zap.String("output", report.OutputPath))
	return report, nil
}

// probeBounds returns the media duration, or unknown bounds when probing fails
func (app *Application) probeBounds(ctx context.Context, path string) clips.Bounds {
	var bounds clips.Bounds
	app.monitor.Track("probe", func() error {
		bounds = ProbeBounds(ctx, app.deps.Media, path, app.logger)
		return nil
	})
	return bounds
}

// ProbeBounds asks tool for the duration of path. A failed probe is logged and yields
// unknown bounds so selection can continue in degraded mode.
func ProbeBounds(ctx context.Context, tool MediaTool, path string, logger *zap.Logger) clips.Bounds {
	duration, err := tool.ProbeDuration(ctx, path)
	if err != nil {
		logger.Warn("could not determine media duration", zap.String("path", path), zap.Error(err))
		return clips.UnknownDuration()
	}
	return clips.KnownDuration(duration)
}

// prepareAudio extracts a mono WAV unless the source already is one
func (app *Application) prepareAudio(ctx context.Context, path string, bundle *artifact.Bundle) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return path, nil
	}
	wavPath := bundle.Path("audio.wav")
	err := app.monitor.Track("extract_audio", func() error {
		return app.deps.Media.ExtractAudio(ctx, path, wavPath, app.config.GetSampleRate())
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract audio: %w", err)
	}
	return wavPath, nil
}

func (app *Application) writeArtifacts(bundle *artifact.Bundle, analysis Analysis, correlated []correlator.Event, windows []clips.Window) error {
	files := []struct {
		name  string
		value any
	}{
		{artifact.TranscriptFile, nonNil(analysis.Segments)},
		{artifact.AcousticEventsFile, nonNil(analysis.Acoustic.Events)},
		{artifact.SemanticEventsFile, nonNil(analysis.Semantic.Events)},
		{artifact.CorrelatedFile, nonNil(correlated)},
		{artifact.ClipWindowsFile, nonNil(windows)},
	}
	for _, f := range files {
		if err := bundle.Write(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) recordHistory(ctx context.Context, report Report) {
	if app.deps.History == nil {
		return
	}
	err := app.deps.History.Record(ctx, history.Run{
		ID:                 report.RunID,
		Source:             report.Source,
		CreatedAt:          report.CreatedAt,
		MediaDuration:      report.MediaDuration,
		DurationKnown:      report.DurationKnown,
		Degraded:           report.Degraded,
		AcousticEvents:     report.AcousticEvents,
		SemanticEvents:     report.SemanticEvents,
		CorrelatedEvents:   report.CorrelatedEvents,
		SuggestedThreshold: report.SuggestedThreshold,
		Windows:            report.Windows,
		Warnings:           report.Warnings,
		OutputPath:         report.OutputPath,
		ArtifactsDir:       report.ArtifactsDir,
	})
	if err != nil {
		app.logger.Warn("failed to record run history", zap.String("run_id", report.RunID), zap.Error(err))
	}
}

// nonNil keeps empty results encoded as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// localResolver accepts local paths only
type localResolver struct{}

func (localResolver) Resolve(ctx context.Context, source string) (string, error) {
	if fetch.IsRemote(source) {
		return "", fmt.Errorf("remote sources are not supported without a downloader: %s", source)
	}
	return fetch.NewDownloader("").Resolve(ctx, source)
}
