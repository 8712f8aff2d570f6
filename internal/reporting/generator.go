package reporting

import (
	"fmt"
	"sort"
	"time"

	"marketing-attribution/internal/domain"
	"marketing-attribution/internal/engine"
	"marketing-attribution/internal/metrics"
)

// Input is the batch a report is generated from.
type Input struct {
	Journeys      []domain.Journey
	ChannelSpend  map[string]float64
	CampaignSpend map[string]float64
	Models        []domain.ModelKind // empty means every model
	Options       domain.Options
}

// Generator produces reports by running the engine over a batch.
type Generator struct {
	engine *engine.Engine
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(e *engine.Engine) *Generator {
	return &Generator{
		engine: e,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate attributes in.Journeys under each requested model and rolls the
// credit up by channel and campaign.
func (g *Generator) Generate(in Input) (*Report, error) {
	models := in.Models
	if len(models) == 0 {
		models = domain.AllModelKinds
	}

	index, err := metrics.IndexJourneys(in.Journeys)
	if err != nil {
		return nil, err
	}
	report := &Report{
		GeneratedAt: g.now(),
		Journeys:    len(in.Journeys),
		Summary:     metrics.Summarize(in.Journeys),
	}

	for _, kind := range models {
		results, err := g.engine.ComputeBatch(in.Journeys, kind, in.Options)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		channels, err := metrics.Aggregate(results, index, in.ChannelSpend)
		if err != nil {
			return nil, fmt.Errorf("%s channels: %w", kind, err)
		}
		campaigns, err := metrics.AggregateCampaigns(results, index, in.CampaignSpend)
		if err != nil {
			return nil, fmt.Errorf("%s campaigns: %w", kind, err)
		}
		report.Models = append(report.Models, ModelSection{
			Kind:           kind,
			MeanConfidence: metrics.MeanConfidence(results),
			Channels:       channels,
			Campaigns:      campaigns,
		})
	}

	report.Comparison = compare(report.Models)
	return report, nil
}

// compare pivots channel revenue into one row per channel. Channels a model
// did not credit show 0 for that model.
func compare(sections []ModelSection) []ComparisonRow {
	byChannel := make(map[string][]float64)
	for i, s := range sections {
		for _, m := range s.Channels {
			row, ok := byChannel[m.Channel]
			if !ok {
				row = make([]float64, len(sections))
				byChannel[m.Channel] = row
			}
			row[i] = m.AttributedRevenue
		}
	}

	rows := make([]ComparisonRow, 0, len(byChannel))
	for ch, revenue := range byChannel {
		lo, hi := revenue[0], revenue[0]
		for _, v := range revenue[1:] {
			lo = min(lo, v)
			hi = max(hi, v)
		}
		rows = append(rows, ComparisonRow{Channel: ch, Revenue: revenue, Spread: hi - lo})
	}

	// Sort by spread descending, then channel for determinism
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Spread != rows[j].Spread {
			return rows[i].Spread > rows[j].Spread
		}
		return rows[i].Channel < rows[j].Channel
	})
	return rows
}
