package summary

import (
	"fmt"
	"sort"
)

// IntentSummary is the display-ready summary of one intent group.
type IntentSummary struct {
	TotalIntents          int            `json:"total_intents"`
	StatusCounts          map[string]int `json:"status_counts"`
	UpdateTypeCounts      map[string]int `json:"update_type_counts"`
	UpdateReasonCounts    map[string]int `json:"update_reason_counts"`
	MostCommonProgression []string       `json:"most_common_progression"`
	PriorityCounts        map[string]int `json:"priority_counts"`
	FrameTypeCounts       map[string]int `json:"frame_type_counts"`
	NumFramesCounts       map[string]int `json:"num_frames_counts"`
	IntegrationTimeCounts map[string]int `json:"integration_time_counts"`
	TrackTypeCounts       map[string]int `json:"track_type_counts"`
	// Only set with WithCompletionDurations.
	CompletionDurationsSeconds []float64 `json:"completion_durations_seconds,omitempty"`
}

// IntentReport maps group keys to their summaries.
type IntentReport map[string]IntentSummary

type intentGroup struct {
	total            int
	statuses         tally
	updateTypes      tally
	updateReasons    tally
	progressions     progressionCounter
	priorities       tally
	frameTypes       tally
	numFrames        tally
	integrationTimes tally
	trackTypes       tally
	durations        []float64
}

func newIntentGroup() *intentGroup {
	return &intentGroup{
		statuses:         tally{},
		updateTypes:      tally{},
		updateReasons:    tally{},
		progressions:     newProgressionCounter(),
		priorities:       tally{},
		frameTypes:       tally{},
		numFrames:        tally{},
		integrationTimes: tally{},
		trackTypes:       tally{},
	}
}

// IntentGroups holds the per-key accumulators of one summarization call.
type IntentGroups struct {
	order  []string
	groups map[string]*intentGroup
}

// Keys returns the group keys in first-seen order.
func (g *IntentGroups) Keys() []string { return append([]string(nil), g.order...) }

func (g *IntentGroups) getOrInsert(key string) *intentGroup {
	grp, ok := g.groups[key]
	if !ok {
		grp = newIntentGroup()
		g.groups[key] = grp
		g.order = append(g.order, key)
	}
	return grp
}

// intentTrace is everything derived from one intent before it touches a group.
type intentTrace struct {
	progression []string
	completed   bool
	duration    float64
}

// traceIntent orders the updates chronologically and, for completed intents,
// measures creation to last update.
func traceIntent(in Intent) (intentTrace, error) {
	updates := append([]Update(nil), in.UpdateList...)
	// ISO-8601 strings in one zone order lexicographically.
	sort.SliceStable(updates, func(a, b int) bool { return updates[a].CreatedAt < updates[b].CreatedAt })

	tr := intentTrace{progression: make([]string, 0, len(updates))}
	for _, u := range updates {
		tr.progression = append(tr.progression, u.Status)
	}
	if n := len(updates); n > 0 && updates[n-1].Status == StatusCompleted {
		end, err := parseInstant(updates[n-1].CreatedAt)
		if err != nil {
			return tr, err
		}
		start, err := parseInstant(in.CreatedAt)
		if err != nil {
			return tr, err
		}
		tr.completed = true
		tr.duration = end.Sub(start).Seconds()
	}
	return tr, nil
}

// AccumulateIntents groups intents and fills the per-group accumulators in a
// single pass. A record is traced fully before its group is mutated.
func AccumulateIntents(intents []Intent) (*IntentGroups, error) {
	g := &IntentGroups{groups: map[string]*intentGroup{}}
	for idx, in := range intents {
		tr, err := traceIntent(in)
		if err != nil {
			return nil, fmt.Errorf("%w: intent %d: %v", ErrInvalidRecord, idx, err)
		}

		grp := g.getOrInsert(in.Key())
		grp.total++
		grp.statuses.add(in.CurrentStatus)
		for _, u := range in.UpdateList {
			grp.updateTypes.add(u.UpdateType)
			grp.updateReasons.add(u.UpdateReason)
		}
		grp.progressions.add(tr.progression)
		if tr.completed {
			grp.durations = append(grp.durations, tr.duration)
		}

		p := in.IntentObservationParameters
		grp.priorities.addNumber(in.Priority)
		grp.frameTypes.add(p.FrameType)
		grp.numFrames.addNumber(p.NumFrames)
		grp.integrationTimes.addNumber(p.IntegrationTimeS)
		grp.trackTypes.add(p.TrackType)
	}
	return g, nil
}

// FormatIntents derives the display values of every group.
func FormatIntents(g *IntentGroups, opts ...Option) IntentReport {
	o := applyOptions(opts)
	out := make(IntentReport, len(g.groups))
	for key, grp := range g.groups {
		s := IntentSummary{
			TotalIntents:          grp.total,
			StatusCounts:          grp.statuses.snapshot(),
			UpdateTypeCounts:      grp.updateTypes.snapshot(),
			UpdateReasonCounts:    grp.updateReasons.snapshot(),
			MostCommonProgression: grp.progressions.mostCommon(),
			PriorityCounts:        grp.priorities.snapshot(),
			FrameTypeCounts:       grp.frameTypes.snapshot(),
			NumFramesCounts:       grp.numFrames.snapshot(),
			IntegrationTimeCounts: grp.integrationTimes.snapshot(),
			TrackTypeCounts:       grp.trackTypes.snapshot(),
		}
		if o.completionDurations {
			s.CompletionDurationsSeconds = append([]float64(nil), grp.durations...)
		}
		out[key] = s
	}
	return out
}

// SummarizeIntents loads, groups and formats intents in one call. input may
// be a path, raw JSON, a decoded list or mapping, or []Intent.
func SummarizeIntents(input any, opts ...Option) (IntentReport, error) {
	intents, err := LoadIntents(input)
	if err != nil {
		return nil, err
	}
	g, err := AccumulateIntents(intents)
	if err != nil {
		return nil, err
	}
	return FormatIntents(g, opts...), nil
}
