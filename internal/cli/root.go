package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command. Running it with --caption performs a
// single verification; subcommands cover batch mode and configuration.
var rootCmd = &cobra.Command{
	Use:   "capcheck",
	Short: "capcheck - cross-check image captions against an object detector",
	Long: `capcheck flags caption hallucinations: objects a caption mentions that an
independent vision model cannot find in the image.

It extracts concrete object nouns from the caption with a hosted language
model, runs a local YOLO detector over the image, and reports which nouns
the detector confirmed and which it did not.

Comparison is exact token matching on normalized labels - "puppy" and "dog"
are different tokens on purpose. capcheck reports what the detector could
not confirm, not what is false.`,
	Example: `  capcheck --caption "A photo of two dogs sitting in the grass."
  capcheck --caption "Two dogs and a cat outside." --image photo.jpg --json report.json
  capcheck batch pairs.tsv --concurrency 4`,
	RunE:          runVerify,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("capcheck v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.capcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the .env file, the config file, and CAPCHECK_* env vars.
func initConfig() {
	// Local untracked .env is the conventional home for GROQ_API_KEY.
	// A missing file is not an error.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.capcheck")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CAPCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
