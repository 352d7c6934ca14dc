package factory

// Phase1JSON is the first challenge phase: twelve days starting Monday,
// weekdays at 1000 except the last two, weekend days at 150. Total 8600.
const Phase1JSON = `{
	"id": "phase1",
	"name": "Phase 1",
	"version": 1,
	"start_weekday": "monday",
	"schedule": [
		{"count": 5, "target": 1000},
		{"count": 2, "target": 150},
		{"count": 3, "target": 1000},
		{"count": 2, "target": 150}
	]
}`

// Phase2JSON is the verification phase: twelve days at 400 with a 100
// weekend. Total 4200.
const Phase2JSON = `{
	"id": "phase2",
	"name": "Phase 2",
	"version": 1,
	"start_weekday": "monday",
	"schedule": [
		{"count": 5, "target": 400},
		{"count": 2, "target": 100},
		{"count": 5, "target": 400}
	]
}`

// SprintJSON is the short five-day variant. Total 2500.
const SprintJSON = `{
	"id": "sprint",
	"name": "Sprint",
	"version": 1,
	"start_weekday": "monday",
	"schedule": [
		{"count": 5, "target": 500}
	]
}`

var presets = map[string]string{
	"phase1": Phase1JSON,
	"phase2": Phase2JSON,
	"sprint": SprintJSON,
}

// PresetIDs lists the built-in template ids.
func PresetIDs() []string {
	return []string{"phase1", "phase2", "sprint"}
}
