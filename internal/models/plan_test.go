package models

import "testing"

// TestSetItinerary_RecomputesTotals verifies that replacing the itinerary
// recomputes TotalTimeHr and TotalDistanceKm from the new list.
func TestSetItinerary_RecomputesTotals(t *testing.T) {
	var p Plan
	p.SetItinerary([]PlanItem{
		{PlaceName: "Cubbon Park", DistanceKm: 2.5, VisitTimeHr: 1.5},
		{PlaceName: "Church Street", DistanceKm: 1.0, VisitTimeHr: 2.0},
	})

	if p.TotalTimeHr != 3.5 {
		t.Errorf("TotalTimeHr = %v, want 3.5", p.TotalTimeHr)
	}
	if p.TotalDistanceKm != 3.5 {
		t.Errorf("TotalDistanceKm = %v, want 3.5", p.TotalDistanceKm)
	}

	p.SetItinerary([]PlanItem{{PlaceName: "Lalbagh", DistanceKm: 4, VisitTimeHr: 1}})
	if p.TotalTimeHr != 1 || p.TotalDistanceKm != 4 {
		t.Errorf("totals after replacement = (%v, %v), want (1, 4)", p.TotalTimeHr, p.TotalDistanceKm)
	}
	if len(p.Itinerary) != 1 {
		t.Errorf("itinerary length = %d, want 1", len(p.Itinerary))
	}
}

// TestSetItinerary_TruncatesToCap verifies that itineraries longer than
// MaxItineraryItems keep exactly the first MaxItineraryItems entries and
// that the totals cover only the kept entries.
func TestSetItinerary_TruncatesToCap(t *testing.T) {
	items := make([]PlanItem, 8)
	for i := range items {
		items[i] = PlanItem{PlaceName: string(rune('a' + i)), VisitTimeHr: 1, DistanceKm: 1}
	}

	var p Plan
	p.SetItinerary(items)

	if len(p.Itinerary) != MaxItineraryItems {
		t.Fatalf("itinerary length = %d, want %d", len(p.Itinerary), MaxItineraryItems)
	}
	for i := 0; i < MaxItineraryItems; i++ {
		if p.Itinerary[i].PlaceName != items[i].PlaceName {
			t.Errorf("item %d = %q, want %q (original order preserved)", i, p.Itinerary[i].PlaceName, items[i].PlaceName)
		}
	}
	if p.TotalTimeHr != float64(MaxItineraryItems) {
		t.Errorf("TotalTimeHr = %v, want %v", p.TotalTimeHr, float64(MaxItineraryItems))
	}
}

// TestCapItinerary_NilInput verifies that a nil itinerary caps to an empty
// non-nil slice so downstream JSON encodes [] rather than null.
func TestCapItinerary_NilInput(t *testing.T) {
	got := CapItinerary(nil)
	if got == nil {
		t.Fatal("CapItinerary(nil) = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

// TestCapItinerary_CopiesInput verifies the cap returns an independent copy.
func TestCapItinerary_CopiesInput(t *testing.T) {
	src := []PlanItem{{PlaceName: "MTR"}}
	got := CapItinerary(src)
	src[0].PlaceName = "changed"
	if got[0].PlaceName != "MTR" {
		t.Error("CapItinerary shares backing array with input")
	}
}
