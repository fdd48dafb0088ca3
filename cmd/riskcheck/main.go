// Command riskcheck runs the analysis pipeline over one local file and prints the report.
//
//	go run ./cmd/riskcheck -file ./term-sheet.pdf
//	go run ./cmd/riskcheck -file ./safe.docx -provider anthropic -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"docrisk-backend/internal/analysis"
	"docrisk-backend/internal/bootstrap"
	"docrisk-backend/internal/shared/config"
	"docrisk-backend/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		exitErr(err.Error())
	}

	filePath := flag.String("file", "", "Path to the document (pdf, docx, pptx, txt, md)")
	asJSON := flag.Bool("json", false, "Print the raw report JSON")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider: openai, anthropic, gemini or none")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	policyFile := flag.String("policy", cfg.RiskPolicyFile, "Aggregation policy YAML (optional)")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	telemetry.SetLevel(*logLevel)
	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}

	cfg.LLMProvider = *provider
	cfg.LLMModel = *model
	cfg.RiskPolicyFile = *policyFile
	// a CLI run should fail loudly rather than fall back to the placeholder
	cfg.Env = "production"

	data, err := os.ReadFile(*filePath)
	if err != nil {
		exitErr(fmt.Sprintf("read file: %v", err))
	}

	ctx := context.Background()
	l, err := bootstrap.BuildLLM(ctx, cfg)
	if err != nil {
		exitErr(err.Error())
	}
	pipeline, err := bootstrap.BuildPipeline(cfg, l)
	if err != nil {
		exitErr(err.Error())
	}

	fileName := filepath.Base(*filePath)
	report, err := pipeline.Analyze(ctx, analysis.Document{
		FileName: fileName,
		MimeType: mime.TypeByExtension(filepath.Ext(fileName)),
		Data:     data,
	})
	if err != nil {
		exitErr(fmt.Sprintf("analyze: %v", err))
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			exitErr(err.Error())
		}
		return
	}
	fmt.Println(render(report))
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
