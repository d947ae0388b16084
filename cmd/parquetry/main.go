package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parquetry/parquetry/internal/pipeline"
	"github.com/parquetry/parquetry/pkg/analyzer"
	"github.com/parquetry/parquetry/pkg/config"
	"github.com/parquetry/parquetry/pkg/logger"
	"github.com/parquetry/parquetry/pkg/stats"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "parquetry",
		Short: "Parquetry - delimited text to parquet converter",
		Long: `Parquetry converts CSV and TXT files into parquet. It samples each
file to infer a schema, streams the rows in chunks, and verifies the
output it wrote. The analyze command inspects existing parquet files.`,
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Parquetry v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newConvertCmd())
	root.AddCommand(newAnalyzeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newConvertCmd() *cobra.Command {
	var (
		configFile string
		outputDir  string
		compress   string
		sampleRows int
		chunkSize  int
		workers    int
		strict     bool
		verbose    bool
		reportPath string
		saveConfig string
	)

	cmd := &cobra.Command{
		Use:   "convert [file or directory]",
		Short: "Convert delimited text files to parquet",
		Long: `Convert a single CSV/TXT file, or every supported file in a
directory, into parquet. Directory conversions run concurrently and
report results in file name order.

Example:
  parquetry convert data/ --output-dir out/ --compression zstd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			if cmd.Flags().Changed("compression") {
				cfg.Compression = compress
			}
			if cmd.Flags().Changed("sample-rows") {
				cfg.SampleRows = sampleRows
			}
			if cmd.Flags().Changed("chunk-size") {
				cfg.ChunkSize = chunkSize
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("strict") {
				cfg.Strict = strict
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if saveConfig != "" {
				if err := config.Save(saveConfig, cfg); err != nil {
					return err
				}
				fmt.Printf("Configuration written to %s\n", saveConfig)
				return nil
			}

			return runConvert(cmd.Context(), args[0], cfg, reportPath)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "configuration file (.yaml or .json)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for parquet output (default: next to input)")
	cmd.Flags().StringVar(&compress, "compression", "snappy", "parquet codec: snappy, gzip, zstd, lz4, brotli, none")
	cmd.Flags().IntVar(&sampleRows, "sample-rows", 1000, "rows sampled for schema inference")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 10000, "rows streamed per chunk")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "concurrent conversions for directories")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().StringVar(&reportPath, "report", "", "write a JSON conversion report to this path")
	cmd.Flags().StringVar(&saveConfig, "save-config", "", "write the effective configuration to this path and exit")

	return cmd
}

func runConvert(ctx context.Context, input string, cfg *config.Config, reportPath string) error {
	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := os.Stat(input)
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, log)
	var results []*stats.ConversionResult
	if info.IsDir() {
		results, err = p.ConvertDirectory(ctx, input)
		if err != nil {
			return err
		}
	} else {
		results = []*stats.ConversionResult{p.ConvertFile(ctx, input)}
	}

	rep := stats.NewReport(results)
	if reportPath != "" {
		if err := rep.Save(reportPath); err != nil {
			return err
		}
		log.Info("report written", zap.String("path", reportPath))
	}

	printResults(results)
	if rep.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", rep.Summary.Failed, rep.Summary.TotalFiles)
	}
	return nil
}

func printResults(results []*stats.ConversionResult) {
	for _, r := range results {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}
		fmt.Printf("%-6s %s -> %s  rows=%d cols=%d warnings=%d elapsed=%s\n",
			status, r.InputPath, r.OutputPath, r.Rows, r.Columns, r.WarningCount(), r.Elapsed.Round(time.Millisecond))
		for _, w := range r.Warnings {
			fmt.Printf("       warning: %s\n", w)
		}
		for _, e := range r.Errors {
			fmt.Printf("       error: %s\n", e)
		}
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		logLevel  string
		recursive bool
		reportDir string
	)

	cmd := &cobra.Command{
		Use:   "analyze [file or directory]",
		Short: "Inspect parquet files",
		Long: `Print schema, shape, per-column statistics and a row sample for a
parquet file, or for every parquet file in a directory. With --output-dir
the report is also written to parquet_analysis_report.txt there.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(logger.Config{Level: logLevel, Encoding: "console"}); err != nil {
				return err
			}
			log := logger.Named("analyze")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			var analyses []*analyzer.FileAnalysis
			if info.IsDir() {
				analyses, err = analyzer.AnalyzeDirectory(ctx, args[0], recursive, log)
				if err != nil {
					return err
				}
			} else {
				analyses = append(analyses, analyzer.AnalyzeFile(ctx, args[0], log))
			}

			if len(analyses) == 0 {
				fmt.Println("No parquet files found.")
				return nil
			}

			fmt.Print(analyzer.FormatReport(analyses))
			if reportDir != "" {
				path, err := analyzer.WriteReport(analyses, reportDir)
				if err != nil {
					return err
				}
				fmt.Printf("Report written to %s\n", path)
			}

			for _, a := range analyses {
				if !a.Success() {
					return fmt.Errorf("failed to analyze %s: %s", a.Path, a.Err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")
	cmd.Flags().StringVarP(&reportDir, "output-dir", "o", "", "directory to write the analysis report into")
	return cmd
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	outputs := []string{"stderr"}
	if cfg.LogFile != "" {
		outputs = append(outputs, cfg.LogFile)
	}
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Encoding:    "console",
		OutputPaths: outputs,
	}); err != nil {
		return nil, err
	}
	return logger.Named("convert"), nil
}
