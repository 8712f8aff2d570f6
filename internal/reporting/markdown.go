package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Attribution Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Journeys: %d | Models: %d\n\n", r.Journeys, len(r.Models)))

	// Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Revenue | %.2f |\n", s.TotalRevenue))
	sb.WriteString(fmt.Sprintf("| Conversions | %d |\n", s.TotalConversions))
	sb.WriteString(fmt.Sprintf("| Touchpoints | %d |\n", s.TotalTouchpoints))
	sb.WriteString(fmt.Sprintf("| Avg Journey Length | %.2f |\n", s.AverageJourneyLength))
	sb.WriteString(fmt.Sprintf("| Cross-Device Conversions | %d |\n", s.CrossDeviceConversions))
	sb.WriteString(fmt.Sprintf("| WhatsApp Conversions | %d |\n", s.WhatsAppConversions))
	sb.WriteString("\n")

	for _, m := range r.Models {
		sb.WriteString(fmt.Sprintf("## %s\n\n", m.Kind))
		sb.WriteString(fmt.Sprintf("Mean confidence: %.2f\n\n", m.MeanConfidence))
		if len(m.Channels) == 0 {
			sb.WriteString("No channel metrics available.\n\n")
			continue
		}
		sb.WriteString("| Channel | Revenue | Conversions | Spend | ROAS |\n")
		sb.WriteString("|---------|---------|-------------|-------|------|\n")
		for _, c := range m.Channels {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %s |\n",
				c.Channel, c.AttributedRevenue, c.AttributedConversions, c.Spend, formatROAS(c.ROAS)))
		}
		sb.WriteString("\n")

		if len(m.Campaigns) > 0 {
			sb.WriteString("| Campaign | Revenue | Conversions | Spend | ROAS |\n")
			sb.WriteString("|----------|---------|-------------|-------|------|\n")
			for _, c := range m.Campaigns {
				sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %s |\n",
					c.CampaignID, c.AttributedRevenue, c.AttributedConversions, c.Spend, formatROAS(c.ROAS)))
			}
			sb.WriteString("\n")
		}
	}

	// Model comparison
	sb.WriteString("## Model Comparison\n\n")
	if len(r.Comparison) == 0 {
		sb.WriteString("No comparison available.\n\n")
		return sb.String()
	}
	sb.WriteString("| Channel |")
	for _, m := range r.Models {
		sb.WriteString(fmt.Sprintf(" %s |", m.Kind))
	}
	sb.WriteString(" Spread |\n|---------|")
	sb.WriteString(strings.Repeat("------|", len(r.Models)+1))
	sb.WriteString("\n")
	for _, row := range r.Comparison {
		sb.WriteString(fmt.Sprintf("| %s |", row.Channel))
		for _, v := range row.Revenue {
			sb.WriteString(fmt.Sprintf(" %.2f |", v))
		}
		sb.WriteString(fmt.Sprintf(" %.2f |\n", row.Spread))
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatROAS(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
