package cli

import (
	"fmt"
	"strings"

	"github.com/sanchar-ai/hangout-planner/internal/models"
	"github.com/sanchar-ai/hangout-planner/internal/sharecode"
	"github.com/sanchar-ai/hangout-planner/internal/weather"
)

// renderPlan formats a plan for the terminal.
func renderPlan(title string, plan *models.Plan, wctx weather.Context) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if wctx.Condition != "" {
		b.WriteString(totalsStyle.Render(fmt.Sprintf("Weather: %s, %.1f°C", wctx.Condition, wctx.Temperature)))
		b.WriteString("\n")
	}
	if plan == nil {
		b.WriteString(itemStyle.Render("No plan yet."))
		b.WriteString("\n")
		return b.String()
	}
	if plan.Narration != "" {
		b.WriteString(narrationStyle.Render(plan.Narration))
		b.WriteString("\n\n")
	}
	b.WriteString(renderItems(plan.Itinerary))
	b.WriteString(totalsStyle.Render(fmt.Sprintf("Total: %.1f h, %.1f km", plan.TotalTimeHr, plan.TotalDistanceKm)))
	b.WriteString("\n")
	return b.String()
}

// renderSnapshot formats a decoded share snapshot. Shared links carry no
// narration or weather, just the itinerary.
func renderSnapshot(snap sharecode.Snapshot) string {
	var b strings.Builder
	title := snap.Title
	if title == "" {
		title = "Shared hangout plan"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if snap.Mood != "" || snap.Budget != "" {
		b.WriteString(totalsStyle.Render(fmt.Sprintf("Mood: %s  Budget: %s", snap.Mood, snap.Budget)))
		b.WriteString("\n")
	}
	b.WriteString(renderItems(snap.Places))
	return b.String()
}

func renderItems(items []models.PlanItem) string {
	var b strings.Builder
	for i, it := range items {
		line := fmt.Sprintf("%d. %s", i+1, it.PlaceName)
		if it.Category != "" {
			line += " (" + it.Category + ")"
		}
		line += fmt.Sprintf(" · %.1f km, %.1f h", it.DistanceKm, it.VisitTimeHr)
		if it.IsHiddenGem {
			line += " " + gemStyle.Render("✦ hidden gem")
		}
		b.WriteString(itemStyle.Render(line))
		b.WriteString("\n")
		if it.MapsURL != "" {
			b.WriteString(totalsStyle.Render("   " + it.MapsURL))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderMessages formats the refinement log, skipping typing placeholders.
func renderMessages(msgs []models.ChatMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.IsTyping {
			continue
		}
		switch m.Role {
		case models.RoleUser:
			b.WriteString(userStyle.Render("you: " + m.Text))
		default:
			b.WriteString(assistantStyle.Render("planner: " + m.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}
