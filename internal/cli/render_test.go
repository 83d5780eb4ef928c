package cli

import (
	"strings"
	"testing"

	"github.com/sanchar-ai/hangout-planner/internal/models"
	"github.com/sanchar-ai/hangout-planner/internal/sharecode"
	"github.com/sanchar-ai/hangout-planner/internal/weather"
)

func TestRenderPlan(t *testing.T) {
	plan := &models.Plan{Narration: "An easy evening."}
	plan.SetItinerary([]models.PlanItem{
		{PlaceName: "Cubbon Park", Category: "park", DistanceKm: 2, VisitTimeHr: 1.5, IsHiddenGem: true},
		{PlaceName: "Church Street", DistanceKm: 1, VisitTimeHr: 1},
	})

	out := renderPlan("Your hangout plan", plan, weather.Context{Condition: weather.ConditionClear, Temperature: 26})
	for _, want := range []string{"Your hangout plan", "An easy evening.", "Cubbon Park", "hidden gem", "Church Street", "2.5 h", "3.0 km", "clear"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderPlan output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPlan_NilPlan(t *testing.T) {
	out := renderPlan("Your hangout plan", nil, weather.Context{})
	if !strings.Contains(out, "No plan yet.") {
		t.Errorf("renderPlan(nil) = %q, want no-plan note", out)
	}
}

func TestRenderSnapshot(t *testing.T) {
	snap := sharecode.Snapshot{
		Title:  "Hangout plan near Koramangala",
		Mood:   "chill",
		Budget: "1500",
		Places: []models.PlanItem{{PlaceName: "Third Wave Coffee", DistanceKm: 1.2, VisitTimeHr: 1}},
	}
	out := renderSnapshot(snap)
	for _, want := range []string{"Hangout plan near Koramangala", "chill", "1500", "Third Wave Coffee"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderSnapshot output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderMessages_SkipsTypingPlaceholder(t *testing.T) {
	out := renderMessages([]models.ChatMessage{
		{Role: models.RoleAssistant, Text: "Your plan is ready!"},
		{Role: models.RoleUser, Text: "something cheaper"},
		{ID: "x", Role: models.RoleAssistant, IsTyping: true},
	})
	if !strings.Contains(out, "Your plan is ready!") || !strings.Contains(out, "something cheaper") {
		t.Errorf("renderMessages output missing expected lines:\n%s", out)
	}
	if strings.Count(out, "planner:") != 1 {
		t.Errorf("typing placeholder should not render:\n%s", out)
	}
}

func TestDecodeCmd_StripsLinkPrefix(t *testing.T) {
	token, err := sharecode.Encode(sharecode.Snapshot{Title: "t", Places: []models.PlanItem{{PlaceName: "p"}}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cmd := &DecodeCmd{Link: "https://hangout.example.com/plan/" + token}
	if err := cmd.Run(&Context{}); err != nil {
		t.Errorf("Run with full link: %v", err)
	}

	cmd = &DecodeCmd{Link: "garbage"}
	if err := cmd.Run(&Context{}); err == nil {
		t.Error("Run with garbage token expected error")
	}
}
