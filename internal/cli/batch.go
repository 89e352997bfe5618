package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bagait/capcheck/internal/assets"
	"github.com/bagait/capcheck/internal/detect"
	"github.com/bagait/capcheck/internal/llm"
	"github.com/bagait/capcheck/internal/model"
	"github.com/bagait/capcheck/internal/pipeline"
	"github.com/bagait/capcheck/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple caption/image pairs from a file in parallel",
	Long: `Batch verifies caption/image pairs concurrently:
- Read pairs from a tab-separated file (image path, then caption, one pair per line)
- Lines starting with # and blank lines are skipped
- All workers share one detector handle, so the model loads once
- LLM calls are rate-limited across workers
- Each pair gets an individual JSON report

Example:
  capcheck batch pairs.tsv
  capcheck batch pairs.tsv --concurrency 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./capcheck-reports", "output directory for JSON reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&confidence, "confidence", 0.25, "minimum detection confidence")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result cache (force fresh model calls)")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "groq", "LLM provider (groq, openai, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default: provider default)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	pairsFile := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency

	tasks, err := readPairs(pairsFile)
	if err != nil {
		return fmt.Errorf("read pairs: %w", err)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no caption/image pairs found in %s", pairsFile)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  capcheck Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", pairsFile)
	fmt.Fprintf(os.Stderr, "  Pairs:        %d\n", len(tasks))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Provider:     %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	fetcher := assets.NewFetcher(cfg.Assets.Timeout, cfg.Assets.MaxBytes)
	if err := fetcher.EnsureDetectorModel(ctx, cfg.Assets, cfg.Detector); err != nil {
		return fmt.Errorf("fetch detector model: %w", err)
	}

	detector, err := detect.NewYOLODetector(cfg.Detector)
	if err != nil {
		return fmt.Errorf("initialize detector: %w", err)
	}
	defer func() { _ = detector.Close() }()

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}
	provider = llm.Throttle(provider, cfg.Concurrency.LLMRequestsPerSecond, cfg.Concurrency.LLMBurst)

	p := pipeline.NewPipeline(cfg, provider, detector)
	renderer := pipeline.NewRenderer()

	pool := worker.NewPool(cfg.Concurrency.Workers)
	start := time.Now()
	outcomes := pool.Run(ctx, tasks, func(ctx context.Context, task worker.Task) (*model.Report, error) {
		return p.Verify(ctx, task.Caption, task.ImagePath)
	})

	failed := 0
	flagged := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ [%d] %s: %v\n", outcome.Task.Index+1, outcome.Task.ImagePath, outcome.Err)
			continue
		}

		path := reportPath(outputDir, outcome.Task.Index)
		if err := renderer.RenderJSON(outcome.Report, path); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ [%d] %s: %v\n", outcome.Task.Index+1, outcome.Task.ImagePath, err)
			continue
		}

		if outcome.Report.Clean() {
			fmt.Fprintf(os.Stderr, "✓ [%d] %s: clean (%d verified)\n",
				outcome.Task.Index+1, outcome.Task.ImagePath, len(outcome.Report.Verified))
		} else {
			flagged++
			fmt.Fprintf(os.Stderr, "⚠ [%d] %s: hallucinated: %s\n",
				outcome.Task.Index+1, outcome.Task.ImagePath, strings.Join(outcome.Report.Hallucinated, ", "))
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Completed %d pairs in %v: %d flagged, %d failed\n",
		len(outcomes), time.Since(start).Round(time.Millisecond), flagged, failed)
	fmt.Fprintf(os.Stderr, "  Reports written to %s\n\n", outputDir)

	if failed > 0 {
		return fmt.Errorf("%d of %d verifications failed", failed, len(outcomes))
	}
	return nil
}

// readPairs parses a tab-separated pairs file: image path, then caption.
func readPairs(path string) ([]worker.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var tasks []worker.Task
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.SplitN(text, "\t", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("line %d: expected image<TAB>caption, got %q", line, text)
		}
		tasks = append(tasks, worker.Task{
			Index:     len(tasks),
			ImagePath: strings.TrimSpace(parts[0]),
			Caption:   strings.TrimSpace(parts[1]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// reportPath names the per-pair JSON report file.
func reportPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("report-%03d.json", index+1))
}
