package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bagait/capcheck/internal/cache"
	"github.com/bagait/capcheck/internal/detect"
	"github.com/bagait/capcheck/internal/extract"
	"github.com/bagait/capcheck/internal/imageio"
	"github.com/bagait/capcheck/internal/llm"
	"github.com/bagait/capcheck/internal/model"
	"github.com/bagait/capcheck/internal/reconcile"
)

// Pipeline orchestrates the complete verification: noun extraction, object
// detection, and reconciliation.
type Pipeline struct {
	extractor  *extract.NounExtractor
	detector   detect.Detector
	reconciler *reconcile.Reconciler
	renderer   *Renderer
	cache      cache.Cache // nil when caching is disabled
	config     *model.Config
}

// NewPipeline creates a pipeline around an LLM provider and a detector.
// The detector handle is owned by the caller; the pipeline never closes it.
func NewPipeline(cfg *model.Config, provider llm.Provider, detector detect.Detector) *Pipeline {
	var resultCache cache.Cache
	if cfg.Cache.Enabled {
		resultCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return &Pipeline{
		extractor:  extract.NewNounExtractor(provider, cfg.LLM.Model, cfg.LLM.MaxTokens),
		detector:   detector,
		reconciler: reconcile.NewReconciler(nil),
		renderer:   NewRenderer(),
		cache:      resultCache,
		config:     cfg,
	}
}

// Verify runs the full pipeline for one caption/image pair.
//
// The image is loaded and validated first, so an unreadable image fails
// before any model call. Extraction and detection then run concurrently;
// both must succeed before reconciliation.
func (p *Pipeline) Verify(ctx context.Context, caption, imagePath string) (*model.Report, error) {
	imageData, err := imageio.Load(imagePath)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	var (
		nouns      []string
		exMeta     model.ExtractorMeta
		detections []model.Detection
		detMeta    model.DetectorMeta
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nouns, exMeta, err = p.extractNouns(gctx, caption)
		if err != nil {
			return fmt.Errorf("extract nouns: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		detections, detMeta, err = p.detectObjects(gctx, imageData)
		if err != nil {
			return fmt.Errorf("detect objects: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	labels := detect.LabelSet(detections)
	result := p.reconciler.Reconcile(nouns, labels)

	return &model.Report{
		Caption:      caption,
		ImagePath:    imagePath,
		CreatedAt:    time.Now().UTC(),
		Nouns:        nouns,
		Detections:   detections,
		Labels:       labels,
		Verified:     result.Verified,
		Hallucinated: result.Hallucinated,
		Extractor:    exMeta,
		Detector:     detMeta,
	}, nil
}

// extractNouns runs noun extraction with result caching.
func (p *Pipeline) extractNouns(ctx context.Context, caption string) ([]string, model.ExtractorMeta, error) {
	key := cache.ExtractionKey(p.config.LLM.Provider, p.config.LLM.Model, caption)

	if p.cache != nil {
		if data, found := p.cache.Get(key); found {
			var nouns []string
			if err := json.Unmarshal(data, &nouns); err == nil {
				meta := model.ExtractorMeta{
					Provider:  p.config.LLM.Provider,
					Model:     p.config.LLM.Model,
					FromCache: true,
				}
				return nouns, meta, nil
			}
		}
	}

	nouns, meta, err := p.extractor.Extract(ctx, caption)
	if err != nil {
		return nil, meta, err
	}

	if p.cache != nil {
		if data, err := json.Marshal(nouns); err == nil {
			_ = p.cache.Set(key, data, 0)
		}
	}

	return nouns, meta, nil
}

// detectObjects runs detection with result caching keyed by image bytes and
// threshold.
func (p *Pipeline) detectObjects(ctx context.Context, imageData []byte) ([]model.Detection, model.DetectorMeta, error) {
	meta := model.DetectorMeta{
		Backend:    p.detector.Backend(),
		Confidence: p.config.Detector.Confidence,
	}

	key := cache.DetectionKey(imageData, p.config.Detector.Confidence)
	if p.cache != nil {
		if data, found := p.cache.Get(key); found {
			var detections []model.Detection
			if err := json.Unmarshal(data, &detections); err == nil {
				meta.FromCache = true
				return detections, meta, nil
			}
		}
	}

	detections, err := p.detector.Detect(ctx, imageData)
	if err != nil {
		return nil, meta, err
	}

	if p.cache != nil {
		if data, err := json.Marshal(detections); err == nil {
			_ = p.cache.Set(key, data, 0)
		}
	}

	return detections, meta, nil
}

// RenderReport renders the report to stdout and, when configured, to a JSON
// file.
func (p *Pipeline) RenderReport(report *model.Report) error {
	if path := p.config.Output.JSONPath; path != "" {
		if err := p.renderer.RenderJSON(report, path); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	p.renderer.RenderSummary(report)
	return nil
}
