package weather

import "testing"

// TestClassify verifies the code-to-condition mapping and that the hot
// override always wins when the temperature exceeds the threshold.
func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code int
		temp float64
		want Condition
	}{
		{name: "clear sky mild", code: 0, temp: 24, want: ConditionClear},
		{name: "drizzle light", code: 51, temp: 20, want: ConditionRainy},
		{name: "drizzle moderate", code: 53, temp: 20, want: ConditionRainy},
		{name: "drizzle dense", code: 55, temp: 20, want: ConditionRainy},
		{name: "rain slight", code: 61, temp: 18, want: ConditionRainy},
		{name: "rain moderate", code: 63, temp: 18, want: ConditionRainy},
		{name: "rain heavy", code: 65, temp: 18, want: ConditionRainy},
		{name: "partly cloudy", code: 2, temp: 25, want: ConditionCloudy},
		{name: "overcast", code: 3, temp: 25, want: ConditionCloudy},
		{name: "unknown code defaults clear", code: 95, temp: 25, want: ConditionClear},
		{name: "hot overrides clear", code: 0, temp: 33, want: ConditionHot},
		{name: "hot overrides rainy", code: 61, temp: 35, want: ConditionHot},
		{name: "hot overrides cloudy", code: 3, temp: 40, want: ConditionHot},
		{name: "boundary 32 is not hot", code: 0, temp: 32, want: ConditionClear},
		{name: "just above boundary", code: 2, temp: 32.1, want: ConditionHot},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.code, tc.temp); got != tc.want {
				t.Errorf("Classify(%d, %v) = %q, want %q", tc.code, tc.temp, got, tc.want)
			}
		})
	}
}
