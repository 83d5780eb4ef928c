package models

// MaxItineraryItems caps how many places a plan carries. Backend responses
// longer than this are truncated to the first MaxItineraryItems entries.
const MaxItineraryItems = 5

// Mood is the vibe the user asked for.
type Mood string

const (
	MoodChill     Mood = "chill"
	MoodFun       Mood = "fun"
	MoodRomantic  Mood = "romantic"
	MoodAdventure Mood = "adventure"
)

// Moods lists the accepted mood values in display order.
func Moods() []Mood {
	return []Mood{MoodChill, MoodFun, MoodRomantic, MoodAdventure}
}

// Preferences holds the wizard inputs. Immutable once a session is created;
// changing them means starting a new session.
type Preferences struct {
	Mood              Mood   `json:"mood"`
	Budget            string `json:"budget"`
	TimeAvailable     string `json:"time_available"`
	StartLocation     string `json:"start_location"`
	PreferredLocation string `json:"preferred_location,omitempty"`
}

// Coordinates is a resolved lat/lon pair from the geocoder.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PlanItem is one stop in the itinerary. Slice order is visit order.
type PlanItem struct {
	PlaceName   string  `json:"place_name"`
	Category    string  `json:"category,omitempty"`
	DistanceKm  float64 `json:"distance_km"`
	VisitTimeHr float64 `json:"visit_time_hr"`
	IsHiddenGem bool    `json:"is_hidden_gem"`
	MapsURL     string  `json:"maps_url,omitempty"`
}

// Plan is the renderable output of a session: a narration plus an ordered
// itinerary. TotalTimeHr and TotalDistanceKm are derived from Itinerary and
// must only change through SetItinerary so they never drift from the list.
type Plan struct {
	Narration       string     `json:"narration"`
	Itinerary       []PlanItem `json:"itinerary"`
	TotalTimeHr     float64    `json:"total_time_hr"`
	TotalDistanceKm float64    `json:"total_distance_km"`
}

// SetItinerary replaces the itinerary wholesale, truncating to
// MaxItineraryItems, and recomputes the derived totals.
func (p *Plan) SetItinerary(items []PlanItem) {
	p.Itinerary = CapItinerary(items)
	p.TotalTimeHr = 0
	p.TotalDistanceKm = 0
	for _, it := range p.Itinerary {
		p.TotalTimeHr += it.VisitTimeHr
		p.TotalDistanceKm += it.DistanceKm
	}
}

// CapItinerary returns a copy of items truncated to MaxItineraryItems.
// A nil input yields an empty, non-nil slice.
func CapItinerary(items []PlanItem) []PlanItem {
	n := len(items)
	if n > MaxItineraryItems {
		n = MaxItineraryItems
	}
	out := make([]PlanItem, n)
	copy(out, items[:n])
	return out
}

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry in the session's refinement log. IsTyping marks
// the transient placeholder shown while a refinement is in flight; it is
// removed once the real reply (or the apology) lands.
type ChatMessage struct {
	ID       string `json:"id,omitempty"`
	Role     Role   `json:"role"`
	Text     string `json:"text"`
	IsTyping bool   `json:"is_typing,omitempty"`
}
