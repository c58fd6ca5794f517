package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/ai"
	"go-autoapply/internal/answer"
	"go-autoapply/internal/config"
	"go-autoapply/internal/models"
	"go-autoapply/internal/profile"
)

// Puts one question to the configured oracle, the way the form engine would.
func main() {
	question := flag.String("q", "Wie viele Jahre Erfahrung haben Sie mit Go?", "question to ask")
	options := flag.String("options", "", "comma separated options for a choice question")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Oracle.Timeout)
	defer cancel()

	completer, err := ai.NewCompleter(ctx, cfg.Oracle)
	if err != nil {
		log.Fatalf("❌ Failed to build oracle: %v", err)
	}
	client := ai.NewClient(completer, profile.NewLoader(filepath.Dir(cfg.ResumePath)), nil, arbor.NewLogger())

	field := models.FieldDescriptor{Question: *question, Kind: models.KindText}
	var opts []string
	for _, o := range strings.Split(*options, ",") {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
			field.Options = append(field.Options, models.Option{Text: o, Value: o})
		}
	}
	if len(opts) > 0 {
		field.Kind = models.KindSelect
	}

	fmt.Printf("🤖 Asking %s (%s)...\n", completer.Model(), cfg.Oracle.Provider)
	start := time.Now()
	resp, err := client.Answer(ctx, ai.Request{
		Question:   *question,
		Options:    opts,
		FormatSpec: answer.FormatSpecFor(field).String(),
		ProfileKey: cfg.ResumePath,
	})
	if err != nil {
		log.Fatalf("❌ Oracle failed: %v", err)
	}
	fmt.Printf("✅ Answer: %q (confidence %.2f, %s)\n", resp.Answer, resp.Confidence, time.Since(start).Round(time.Millisecond))
}
