package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cscanfuse/internal/models"
	"cscanfuse/pkg/batch"
	"cscanfuse/pkg/config"
	"cscanfuse/pkg/parser"
)

// scanSummary is the part of a ScanRecord written to the summary file
type scanSummary struct {
	ID          string              `yaml:"id"`
	Filename    string              `yaml:"filename"`
	Width       int                 `yaml:"width"`
	Height      int                 `yaml:"height"`
	Stats       models.StatsSummary `yaml:"stats"`
	Metadata    models.Metadata     `yaml:"metadata,omitempty"`
	Timestamp   time.Time           `yaml:"timestamp"`
	IsComposite bool                `yaml:"isComposite,omitempty"`
	SourceFiles []string            `yaml:"sourceFiles,omitempty"`
	Resolution  float64             `yaml:"resolution,omitempty"`
	XAxis       []float64           `yaml:"xAxis,omitempty"`
	YAxis       []float64           `yaml:"yAxis,omitempty"`
	Data        [][]models.Cell     `yaml:"data,omitempty"`
}

type failureSummary struct {
	Filename string `yaml:"filename"`
	Error    string `yaml:"error"`
}

type summary struct {
	Scans     []scanSummary    `yaml:"scans"`
	Failures  []failureSummary `yaml:"failures,omitempty"`
	Composite *scanSummary     `yaml:"composite,omitempty"`
}

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing C-scan exports")
	configPath := flag.String("config", "cscanfuse.yaml", "Path to the YAML configuration file")
	outputPath := flag.String("output", "", "Summary file (overrides output.summaryFile; default stdout)")
	numCores := flag.Int("cores", 0, "Number of files parsed concurrently (overrides processing.numCores)")
	noComposite := flag.Bool("no-composite", false, "Do not merge the parsed scans into a composite")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			slog.Error("Failed to create config file", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}
	if *outputPath != "" {
		cfg.Output.SummaryFile = *outputPath
	}
	if *noComposite {
		cfg.Composite.Enabled = false
	}

	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Step 1: Read the raw files
	files, err := readInputFiles(*inputDir, cfg.Input.Extensions)
	if err != nil {
		slog.Error("Failed to read input files", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		slog.Error("No scan files found", slog.String("dir", *inputDir))
		os.Exit(1)
	}
	slog.Info("Loaded scan files", slog.Int("count", len(files)), slog.Int("cores", cfg.Processing.NumCores))

	// Step 2: Parse them
	startTime := time.Now()
	processor := batch.NewProcessor(
		batch.WithWorkers(cfg.Processing.NumCores),
		batch.WithLogger(logger),
		batch.WithParser(parseFile),
		batch.WithProgress(func(completed, total int) {
			progress := float64(completed) / float64(total) * 100
			fmt.Fprintf(os.Stderr, "\rParsing scans: %.1f%% complete", progress)
			if completed == total {
				fmt.Fprintln(os.Stderr)
			}
		}),
	)

	result, err := processor.Process(context.Background(), files)
	if err != nil {
		slog.Error("Batch processing interrupted", "error", err)
		os.Exit(1)
	}
	slog.Info("Parsing completed",
		slog.Int("parsed", len(result.Records)),
		slog.Int("failed", len(result.Failures)),
		slog.Duration("elapsed", time.Since(startTime)))

	out := summary{}
	for _, rec := range result.Records {
		out.Scans = append(out.Scans, summarize(rec, cfg.Output.IncludeGrid))
	}
	for _, f := range result.Failures {
		out.Failures = append(out.Failures, failureSummary{Filename: f.Name, Error: f.Err.Error()})
	}

	// Step 3: Composite
	if cfg.Composite.Enabled {
		if comp, ok := result.Composite(); ok {
			s := summarize(comp, cfg.Output.IncludeGrid)
			out.Composite = &s
			slog.Info("Composite created",
				slog.String("filename", comp.Filename),
				slog.Int("width", comp.Width),
				slog.Int("height", comp.Height),
				slog.Float64("resolution", comp.Resolution))
		} else {
			slog.Info("Composite skipped, fewer than two scans parsed")
		}
	}

	// Step 4: Write the summary
	if err := writeSummary(out, cfg.Output.SummaryFile); err != nil {
		slog.Error("Failed to write summary", "error", err)
		os.Exit(1)
	}
}

// readInputFiles reads every file in dir whose extension is listed, sorted
// by name. Workbooks are converted to text; a workbook that cannot be read
// is kept with empty content so the batch reports it as a failed file.
func readInputFiles(dir string, extensions []string) ([]batch.RawFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	files := make([]batch.RawFile, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		files = append(files, batch.RawFile{Name: name, Content: string(data)})
	}

	return files, nil
}

// parseFile parses one input file. Workbooks are converted by the parser so
// a conversion failure is reported as that file's ParseError.
func parseFile(filename, content string) (*models.ScanRecord, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return parser.ParseWorkbook(filename, strings.NewReader(content))
	}
	return parser.Parse(filename, content)
}

// summarize copies the reportable fields of a record
func summarize(rec *models.ScanRecord, includeGrid bool) scanSummary {
	s := scanSummary{
		ID:          rec.ID,
		Filename:    rec.Filename,
		Width:       rec.Width,
		Height:      rec.Height,
		Stats:       rec.Stats,
		Metadata:    rec.Metadata,
		Timestamp:   rec.Timestamp,
		IsComposite: rec.IsComposite,
		SourceFiles: rec.SourceFiles,
		Resolution:  rec.Resolution,
	}
	if includeGrid {
		s.XAxis = rec.XAxis
		s.YAxis = rec.YAxis
		s.Data = rec.Data
	}
	return s
}

// writeSummary encodes the summary as YAML to path, or stdout when empty
func writeSummary(out summary, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("error creating summary file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("error encoding summary: %w", err)
	}
	return enc.Close()
}
