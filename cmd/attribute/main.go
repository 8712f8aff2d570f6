// Command attribute runs the attribution models over journeys read from a
// JSON file and prints a report.
//
// Usage:
//
//	attribute -journeys journeys.json [-spend spend.json] [-model linear,time_decay] [-format json|markdown]
//
// The journeys file holds either a JSON array of journeys or an object with
// a "journeys" array. Spend files map channel (or campaign) to amount.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/engine"
	"marketing-attribution/internal/reporting"
)

func main() {
	journeysPath := flag.String("journeys", "-", "Journeys JSON file (- for stdin)")
	spendPath := flag.String("spend", "", "Channel spend JSON file")
	campaignSpendPath := flag.String("campaign-spend", "", "Campaign spend JSON file")
	modelList := flag.String("model", "", "Comma-separated model kinds (default: all)")
	halfLife := flag.Float64("half-life", 0, "Decay half-life in days (default 7)")
	format := flag.String("format", "json", "Output format: json or markdown")
	outPath := flag.String("out", "", "Output file (default stdout)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(*journeysPath, *spendPath, *campaignSpendPath, *modelList, *halfLife, *format, *outPath); err != nil {
		log.Fatal().Err(err).Msg("attribution failed")
	}
}

func run(journeysPath, spendPath, campaignSpendPath, modelList string, halfLife float64, format, outPath string) error {
	journeys, err := readJourneys(journeysPath)
	if err != nil {
		return err
	}
	channelSpend, err := readSpend(spendPath)
	if err != nil {
		return err
	}
	campaignSpend, err := readSpend(campaignSpendPath)
	if err != nil {
		return err
	}
	models, err := parseModels(modelList)
	if err != nil {
		return err
	}

	gen := reporting.NewGenerator(engine.New(engine.Options{}))
	report, err := gen.Generate(reporting.Input{
		Journeys:      journeys,
		ChannelSpend:  channelSpend,
		CampaignSpend: campaignSpend,
		Models:        models,
		Options:       domain.Options{HalfLifeDays: halfLife},
	})
	if err != nil {
		return err
	}

	var out string
	switch format {
	case "json":
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		out = string(b) + "\n"
	case "markdown", "md":
		out = reporting.RenderMarkdown(report)
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if outPath == "" {
		_, err = io.WriteString(os.Stdout, out)
		return err
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	log.Info().Str("path", outPath).Int("journeys", report.Journeys).Msg("report written")
	return nil
}

func readJourneys(path string) ([]domain.Journey, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read journeys: %w", err)
	}

	var journeys []domain.Journey
	if err := json.Unmarshal(data, &journeys); err == nil {
		return journeys, nil
	}
	var wrapped struct {
		Journeys []domain.Journey `json:"journeys"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode journeys: %w", err)
	}
	return wrapped.Journeys, nil
}

func readSpend(path string) (map[string]float64, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spend: %w", err)
	}
	var spend map[string]float64
	if err := json.Unmarshal(data, &spend); err != nil {
		return nil, fmt.Errorf("decode spend %s: %w", path, err)
	}
	return spend, nil
}

func parseModels(list string) ([]domain.ModelKind, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var out []domain.ModelKind
	for _, s := range strings.Split(list, ",") {
		kind := domain.ModelKind(strings.TrimSpace(s))
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownModelKind, kind)
		}
		out = append(out, kind)
	}
	return out, nil
}
