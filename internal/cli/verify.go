package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bagait/capcheck/internal/assets"
	"github.com/bagait/capcheck/internal/detect"
	"github.com/bagait/capcheck/internal/llm"
	"github.com/bagait/capcheck/internal/model"
	"github.com/bagait/capcheck/internal/pipeline"
)

var (
	caption     string
	imagePath   string
	outJSON     string
	confidence  float64
	timeout     time.Duration
	noCache     bool
	llmProvider string
	llmModel    string
)

func init() {
	// Verification flags live on the root command: the core surface is a
	// single command.
	rootCmd.Flags().StringVar(&caption, "caption", "", "caption to verify (required)")
	rootCmd.Flags().StringVar(&imagePath, "image", "", "path to the image file (default: bundled sample image)")
	rootCmd.Flags().StringVar(&outJSON, "json", "", "also write the report as JSON to this path")
	rootCmd.Flags().Float64Var(&confidence, "confidence", 0.25, "minimum detection confidence")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall verification timeout")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result cache (force fresh model calls)")
	rootCmd.Flags().StringVar(&llmProvider, "llm-provider", "groq", "LLM provider (groq, openai, ollama)")
	rootCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default: provider default)")
	_ = rootCmd.MarkFlagRequired("caption")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Output.JSONPath = outJSON

	if verbose {
		fmt.Fprintf(os.Stderr, "Caption:  %q\n", caption)
		fmt.Fprintf(os.Stderr, "Provider: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Cache:    %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	// First-run assets: sample image (only when needed) and detector model
	fetcher := assets.NewFetcher(cfg.Assets.Timeout, cfg.Assets.MaxBytes)
	target := imagePath
	if target == "" {
		if verbose {
			fmt.Fprintf(os.Stderr, "No --image given, using sample image\n")
		}
		target, err = fetcher.EnsureSampleImage(ctx, cfg.Assets)
		if err != nil {
			return fmt.Errorf("fetch sample image: %w", err)
		}
	}
	if err := fetcher.EnsureDetectorModel(ctx, cfg.Assets, cfg.Detector); err != nil {
		return fmt.Errorf("fetch detector model: %w", err)
	}

	detector, err := detect.NewYOLODetector(cfg.Detector)
	if err != nil {
		return fmt.Errorf("initialize detector: %w", err)
	}
	defer func() { _ = detector.Close() }()
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded detector (%s)\n", detector.Backend())
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}

	p := pipeline.NewPipeline(cfg, provider, detector)

	report, err := p.Verify(ctx, caption, target)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d caption objects\n", len(report.Nouns))
		fmt.Fprintf(os.Stderr, "✓ Detected %d object classes\n", len(report.Labels))
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildConfig assembles the effective configuration from defaults, the
// config file, CAPCHECK_* env vars, and flags, then resolves the API key.
// A missing credential is a configuration error raised before any network
// call.
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()

	// Config file and CAPCHECK_* env vars
	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if viper.IsSet("detector.confidence") {
		cfg.Detector.Confidence = viper.GetFloat64("detector.confidence")
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if v := viper.GetString("cache.dir"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := viper.GetString("assets.dir"); v != "" {
		cfg.Assets.Dir = v
	}

	// Flags given explicitly beat everything above. Flag defaults must not
	// clobber a config-file or env value.
	flags := cmd.Flags()
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("confidence") {
		cfg.Detector.Confidence = confidence
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	cfg.Output.Verbose = verbose

	// The built-in model default is Groq's; other providers get their own
	// default unless one was given explicitly.
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	} else if !viper.IsSet("llm.model") {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.Model = "gpt-4o-mini"
		case "ollama":
			cfg.LLM.Model = "llama3.1:8b"
		}
	}

	switch cfg.LLM.Provider {
	case "ollama":
		// Local endpoint, no key needed
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	default:
		envVar := llm.CredentialEnvVar(cfg.LLM.Provider)
		if envVar == "" {
			return nil, fmt.Errorf("%w: unknown LLM provider %q", model.ErrConfiguration, cfg.LLM.Provider)
		}
		cfg.LLM.APIKey = os.Getenv(envVar)
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("%w: %s is not set (export it or add it to .env)", model.ErrConfiguration, envVar)
		}
	}

	return cfg, nil
}
