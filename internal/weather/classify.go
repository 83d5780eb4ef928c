package weather

// Condition is the coarse weather bucket the planner feeds to the backend.
type Condition string

const (
	ConditionClear  Condition = "clear"
	ConditionRainy  Condition = "rainy"
	ConditionCloudy Condition = "cloudy"
	ConditionHot    Condition = "hot"
)

// hotThresholdC is the temperature above which the condition is forced to
// hot, whatever the weather code said.
const hotThresholdC = 32.0

// rainyCodes are the WMO drizzle/rain codes the planner treats as rainy.
var rainyCodes = map[int]struct{}{
	51: {}, 53: {}, 55: {}, 61: {}, 63: {}, 65: {},
}

// cloudyCodes are the WMO partly-cloudy/overcast codes.
var cloudyCodes = map[int]struct{}{
	2: {}, 3: {},
}

// Classify buckets a WMO weather code and a temperature into a Condition.
// The temperature check runs last and overrides the code-derived result.
func Classify(code int, temperatureC float64) Condition {
	condition := ConditionClear

	if _, ok := rainyCodes[code]; ok {
		condition = ConditionRainy
	} else if _, ok := cloudyCodes[code]; ok {
		condition = ConditionCloudy
	}

	if temperatureC > hotThresholdC {
		condition = ConditionHot
	}

	return condition
}
