package summary

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intentRecord(name, catalogID, status string, updates ...map[string]any) map[string]any {
	list := make([]any, 0, len(updates))
	for _, u := range updates {
		list = append(list, u)
	}
	return map[string]any{
		"target":        map[string]any{"name": name, "rso": map[string]any{"catalogId": catalogID}},
		"currentStatus": status,
		"updateList":    list,
		"priority":      1,
		"intentObservationParameters": map[string]any{
			"frameType": "SIDEREAL", "numFrames": 3, "integrationTimeS": 0.5, "trackType": "RATE",
		},
		"createdAt": "2024-01-01T00:00:00Z",
	}
}

func update(status, createdAt string) map[string]any {
	return map[string]any{"updateType": "STATUS", "updateReason": "r", "status": status, "createdAt": createdAt}
}

func TestSummarizeIntents_FromFile(t *testing.T) {
	report, err := SummarizeIntents(filepath.Join("testdata", "intents.json"))
	require.NoError(t, err)
	require.Len(t, report, 2)

	a, ok := report["SAT-A (Catalog ID: 12345)"]
	require.True(t, ok, "missing SAT-A group: %v", report)
	want := IntentSummary{
		TotalIntents:          2,
		StatusCounts:          map[string]int{"COMPLETED": 1, "FAILED": 1},
		UpdateTypeCounts:      map[string]int{"STATUS": 4},
		UpdateReasonCounts:    map[string]int{"collected": 1, "created": 2, "weather": 1},
		MostCommonProgression: []string{"SCHEDULED", "COMPLETED"},
		PriorityCounts:        map[string]int{"1": 1, "2": 1},
		FrameTypeCounts:       map[string]int{"SIDEREAL": 2},
		NumFramesCounts:       map[string]int{"10": 2},
		IntegrationTimeCounts: map[string]int{"1.5": 1, "2": 1},
		TrackTypeCounts:       map[string]int{"RATE": 2},
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Fatalf("SAT-A summary mismatch (-want +got):\n%s", diff)
	}

	b := report["SAT-B (Catalog ID: 999)"]
	assert.Equal(t, 1, b.TotalIntents)
	assert.Equal(t, []string{}, b.MostCommonProgression)
	assert.Empty(t, b.UpdateTypeCounts)
}

func TestSummarizeIntents_ProgressionIsChronological(t *testing.T) {
	doc := []any{intentRecord("X", "1", "SCHEDULED",
		update("B", "2024-01-02T00:00:00Z"),
		update("A", "2024-01-01T00:00:00Z"),
	)}
	report, err := SummarizeIntents(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, report["X (Catalog ID: 1)"].MostCommonProgression)
}

func TestSummarizeIntents_MostCommonProgression(t *testing.T) {
	doc := []any{
		intentRecord("X", "1", "S", update("A", "2024-01-01T00:00:00Z")),
		intentRecord("X", "1", "S", update("A", "2024-01-01T00:00:00Z"), update("B", "2024-01-01T01:00:00Z")),
		intentRecord("X", "1", "S", update("A", "2024-01-01T00:00:00Z"), update("B", "2024-01-01T01:00:00Z")),
	}
	report, err := SummarizeIntents(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, report["X (Catalog ID: 1)"].MostCommonProgression)
}

func TestProgressionCounter_TieBreakFirstInserted(t *testing.T) {
	p := newProgressionCounter()
	p.add([]string{"A", "C"})
	p.add([]string{"A", "B"})
	p.add([]string{"A", "B"})
	p.add([]string{"A", "C"})
	assert.Equal(t, []string{"A", "C"}, p.mostCommon())

	// [] and [""] are distinct sequences.
	q := newProgressionCounter()
	q.add([]string{})
	q.add([]string{""})
	q.add([]string{""})
	assert.Equal(t, []string{""}, q.mostCommon())
}

func TestSummarizeIntents_Grouping(t *testing.T) {
	doc := []any{
		intentRecord("X", "1", "S"),
		intentRecord("X", "1", "S"),
		intentRecord("X", "2", "S"),
		intentRecord("Y", "1", "S"),
	}
	report, err := SummarizeIntents(doc)
	require.NoError(t, err)
	require.Len(t, report, 3)
	assert.Equal(t, 2, report["X (Catalog ID: 1)"].TotalIntents)
	assert.Equal(t, 1, report["X (Catalog ID: 2)"].TotalIntents)
	assert.Equal(t, 1, report["Y (Catalog ID: 1)"].TotalIntents)
}

func TestSummarizeIntents_TallyConservation(t *testing.T) {
	report, err := SummarizeIntents(filepath.Join("testdata", "intents.json"))
	require.NoError(t, err)
	sum := func(m map[string]int) int {
		n := 0
		for _, v := range m {
			n += v
		}
		return n
	}
	for key, s := range report {
		for name, m := range map[string]map[string]int{
			"status":      s.StatusCounts,
			"priority":    s.PriorityCounts,
			"frame_type":  s.FrameTypeCounts,
			"num_frames":  s.NumFramesCounts,
			"integration": s.IntegrationTimeCounts,
			"track_type":  s.TrackTypeCounts,
		} {
			assert.Equal(t, s.TotalIntents, sum(m), "%s %s tally", key, name)
		}
	}
}

func TestSummarizeIntents_Idempotent(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "intents.json"))
	require.NoError(t, err)
	first, err := SummarizeIntents(raw)
	require.NoError(t, err)
	second, err := SummarizeIntents(raw)
	require.NoError(t, err)
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.JSONEq(t, string(a), string(b))
}

func TestSummarizeIntents_CompletionDurations(t *testing.T) {
	path := filepath.Join("testdata", "intents.json")

	plain, err := SummarizeIntents(path)
	require.NoError(t, err)
	b, err := json.Marshal(plain)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "completion_durations_seconds")

	withDur, err := SummarizeIntents(path, WithCompletionDurations())
	require.NoError(t, err)
	assert.Equal(t, []float64{7200}, withDur["SAT-A (Catalog ID: 12345)"].CompletionDurationsSeconds)
}

func TestSummarizeIntents_InputErrors(t *testing.T) {
	_, err := SummarizeIntents(42)
	assert.True(t, errors.Is(err, ErrInputType), "got %v", err)

	_, err = SummarizeIntents("")
	assert.True(t, errors.Is(err, ErrInputType), "got %v", err)

	_, err = SummarizeIntents([]byte(`"just a string"`))
	assert.True(t, errors.Is(err, ErrInputType), "got %v", err)

	_, err = SummarizeIntents(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSummarizeIntents_MissingFieldFailsWholeCall(t *testing.T) {
	bad := intentRecord("X", "1", "S")
	delete(bad["target"].(map[string]any), "rso")
	report, err := SummarizeIntents([]any{intentRecord("X", "1", "S"), bad})
	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecord), "got %v", err)
	assert.Contains(t, err.Error(), "/1/target")
}

func TestSummarizeIntents_UnparseableCompletionTimestamp(t *testing.T) {
	rec := intentRecord("X", "1", "COMPLETED", update(StatusCompleted, "yesterday"))
	_, err := SummarizeIntents([]any{rec})
	assert.True(t, errors.Is(err, ErrInvalidRecord), "got %v", err)
}

func TestSummarizeIntents_SingleMappingIsOneRecord(t *testing.T) {
	report, err := SummarizeIntents(intentRecord("X", "1", "S"))
	require.NoError(t, err)
	assert.Equal(t, 1, report["X (Catalog ID: 1)"].TotalIntents)
}

func TestSummarizeIntents_TypedInput(t *testing.T) {
	in := []Intent{{
		Target:        Target{Name: "T", RSO: RSO{CatalogID: "7"}},
		CurrentStatus: "SCHEDULED",
		Priority:      json.Number("4"),
		IntentObservationParameters: ObservationParameters{
			FrameType: "F", NumFrames: "1", IntegrationTimeS: "1", TrackType: "R",
		},
	}}
	report, err := SummarizeIntents(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"4": 1}, report["T (Catalog ID: 7)"].PriorityCounts)
}

func TestAccumulateIntents_KeysFirstSeenOrder(t *testing.T) {
	intents, err := LoadIntents([]any{intentRecord("B", "2", "S"), intentRecord("A", "1", "S"), intentRecord("B", "2", "S")})
	require.NoError(t, err)
	g, err := AccumulateIntents(intents)
	require.NoError(t, err)
	assert.Equal(t, []string{"B (Catalog ID: 2)", "A (Catalog ID: 1)"}, g.Keys())
}

func TestParseInstant(t *testing.T) {
	for _, s := range []string{
		"2024-01-01T00:00:00Z",
		"2024-01-01T00:00:00.123456+02:00",
		"2024-01-01T00:00:00",
		"2024-01-01 00:00:00",
	} {
		_, err := parseInstant(s)
		assert.NoError(t, err, s)
	}
	_, err := parseInstant("01/02/2024")
	assert.Error(t, err)
}

func TestGroupKey(t *testing.T) {
	assert.Equal(t, "Hubble (Catalog ID: 20580)", GroupKey("Hubble", "20580"))
	in := Intent{Target: Target{Name: "ISS", RSO: RSO{CatalogID: "25544"}}}
	assert.Equal(t, "ISS (Catalog ID: 25544)", in.Key())
}

func TestSummarizeIntents_EqualNumbersShareTallyKey(t *testing.T) {
	a := intentRecord("SAT", "1", "SCHEDULED")
	a["priority"] = json.Number("1")
	a["intentObservationParameters"].(map[string]any)["integrationTimeS"] = json.Number("2")
	b := intentRecord("SAT", "1", "SCHEDULED")
	b["priority"] = json.Number("1.0")
	b["intentObservationParameters"].(map[string]any)["integrationTimeS"] = json.Number("2.0")
	b["intentObservationParameters"].(map[string]any)["numFrames"] = json.Number("3.00")

	report, err := SummarizeIntents([]any{a, b})
	require.NoError(t, err)
	s := report["SAT (Catalog ID: 1)"]
	assert.Equal(t, map[string]int{"1": 2}, s.PriorityCounts)
	assert.Equal(t, map[string]int{"2": 2}, s.IntegrationTimeCounts)
	assert.Equal(t, map[string]int{"3": 2}, s.NumFramesCounts)
}

func TestNumberKey(t *testing.T) {
	cases := map[string]string{
		"2":                   "2",
		"2.0":                 "2",
		"1.50":                "1.5",
		"-0.25":               "-0.25",
		"1e3":                 "1000",
		"9007199254740993":    "9007199254740993",
		"12345678901234567.5": "12345678901234568",
	}
	for in, want := range cases {
		if got := numberKey(json.Number(in)); got != want {
			t.Fatalf("numberKey(%q)=%q want %q", in, got, want)
		}
	}
}
