package summary

import (
	"fmt"
	"sort"
)

// CollectSummary is the display-ready summary of one collect-request group.
type CollectSummary struct {
	TotalRequests         int            `json:"total_requests"`
	CompletedRequests     int            `json:"completed_requests"`
	CompletionRate        string         `json:"completion_rate"`
	EarliestStart         string         `json:"earliest_start"`
	LatestEnd             string         `json:"latest_end"`
	AverageDuration       string         `json:"average_duration"`
	StatusCounts          map[string]int `json:"status_counts"`
	PriorityCounts        map[string]int `json:"priority_counts"`
	FrameTypeCounts       map[string]int `json:"frame_type_counts"`
	NumFramesCounts       map[string]int `json:"num_frames_counts"`
	IntegrationTimeCounts map[string]int `json:"integration_time_counts"`
	TrackTypeCounts       map[string]int `json:"track_type_counts"`
	SensorNames           []string       `json:"sensor_names"`
	SensorLocations       []string       `json:"sensor_locations"`
}

// CollectReport maps group keys to their summaries.
type CollectReport map[string]CollectSummary

type collectGroup struct {
	total            int
	completed        int
	starts           []string
	ends             []string
	durations        []float64
	statuses         tally
	priorities       tally
	frameTypes       tally
	numFrames        tally
	integrationTimes tally
	trackTypes       tally
	sensorNames      map[string]struct{}
	sensorLocations  map[string]struct{}
}

func newCollectGroup() *collectGroup {
	return &collectGroup{
		statuses:         tally{},
		priorities:       tally{},
		frameTypes:       tally{},
		numFrames:        tally{},
		integrationTimes: tally{},
		trackTypes:       tally{},
		sensorNames:      map[string]struct{}{},
		sensorLocations:  map[string]struct{}{},
	}
}

// CollectGroups holds the per-key accumulators of one summarization call.
type CollectGroups struct {
	order  []string
	groups map[string]*collectGroup
}

// Keys returns the group keys in first-seen order.
func (g *CollectGroups) Keys() []string { return append([]string(nil), g.order...) }

func (g *CollectGroups) getOrInsert(key string) *collectGroup {
	grp, ok := g.groups[key]
	if !ok {
		grp = newCollectGroup()
		g.groups[key] = grp
		g.order = append(g.order, key)
	}
	return grp
}

// AccumulateCollectRequests groups collect requests in a single pass.
func AccumulateCollectRequests(reqs []CollectRequest) (*CollectGroups, error) {
	g := &CollectGroups{groups: map[string]*collectGroup{}}
	for idx, cr := range reqs {
		dur, err := cr.DurationS.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: collect request %d: durationS: %v", ErrInvalidRecord, idx, err)
		}

		grp := g.getOrInsert(cr.Key())
		grp.total++
		if cr.Intent.CurrentStatus == StatusCompleted {
			grp.completed++
		}
		grp.starts = append(grp.starts, cr.StartDateTime)
		grp.ends = append(grp.ends, cr.EndDateTime)
		grp.durations = append(grp.durations, dur)

		p := cr.Intent.IntentObservationParameters
		grp.statuses.add(cr.Intent.CurrentStatus)
		grp.priorities.addNumber(cr.Priority)
		grp.frameTypes.add(cr.FrameType)
		grp.numFrames.addNumber(p.NumFrames)
		grp.integrationTimes.addNumber(p.IntegrationTimeS)
		grp.trackTypes.add(p.TrackType)

		s := cr.Instrument.Sensor
		grp.sensorNames[s.Name] = struct{}{}
		grp.sensorLocations[s.location()] = struct{}{}
	}
	return g, nil
}

// completionRate renders completed/total as a percentage with two decimals.
func completionRate(completed, total int) (string, error) {
	if total == 0 {
		return "", fmt.Errorf("%w: completion rate over zero requests", ErrDegenerateStatistic)
	}
	return fmt.Sprintf("%.2f%%", float64(completed)/float64(total)*100), nil
}

// averageDuration renders the arithmetic mean of durations in seconds.
func averageDuration(durations []float64) (string, error) {
	if len(durations) == 0 {
		return "", fmt.Errorf("%w: average of zero durations", ErrDegenerateStatistic)
	}
	var sum float64
	for _, d := range durations {
		sum += d
	}
	return fmt.Sprintf("%.2f seconds", sum/float64(len(durations))), nil
}

// minString and maxString compare ISO-8601 strings lexicographically.
func minString(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxString(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FormatCollectRequests derives the display values of every group. It fails
// rather than emit a percentage or mean over an empty group.
func FormatCollectRequests(g *CollectGroups) (CollectReport, error) {
	out := make(CollectReport, len(g.groups))
	for _, key := range g.order {
		grp := g.groups[key]
		rate, err := completionRate(grp.completed, grp.total)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		avg, err := averageDuration(grp.durations)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = CollectSummary{
			TotalRequests:         grp.total,
			CompletedRequests:     grp.completed,
			CompletionRate:        rate,
			EarliestStart:         minString(grp.starts),
			LatestEnd:             maxString(grp.ends),
			AverageDuration:       avg,
			StatusCounts:          grp.statuses.snapshot(),
			PriorityCounts:        grp.priorities.snapshot(),
			FrameTypeCounts:       grp.frameTypes.snapshot(),
			NumFramesCounts:       grp.numFrames.snapshot(),
			IntegrationTimeCounts: grp.integrationTimes.snapshot(),
			TrackTypeCounts:       grp.trackTypes.snapshot(),
			SensorNames:           sortedSet(grp.sensorNames),
			SensorLocations:       sortedSet(grp.sensorLocations),
		}
	}
	return out, nil
}

// SummarizeCollectRequests loads, groups and formats collect requests in one
// call. input may be a path, raw JSON, a decoded list or mapping, or
// []CollectRequest.
func SummarizeCollectRequests(input any) (CollectReport, error) {
	reqs, err := LoadCollectRequests(input)
	if err != nil {
		return nil, err
	}
	g, err := AccumulateCollectRequests(reqs)
	if err != nil {
		return nil, err
	}
	return FormatCollectRequests(g)
}
