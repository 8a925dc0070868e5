package utils

import (
	"fmt"
	"strings"

	"market-confluence/src/macro"
	"market-confluence/src/micro"
	"market-confluence/src/models"
)

// escalationFloor is the weakest cluster intensity worth an event.
const escalationFloor = models.IntensityModerate

// -----------------------------------------------------------------------------

// Diff lists what changed between two consecutive snapshots. The first
// snapshot (prev == nil) is a baseline and yields nothing.
func Diff(prev, cur *models.MConfluenceSnapshot) []models.MConfluenceEvent {
	events := []models.MConfluenceEvent{}
	if prev == nil || cur == nil {
		return events
	}

	sameDate := prev.Clock.Local.DateKey == cur.Clock.Local.DateKey

	if prev.Clock.Phase != cur.Clock.Phase {
		events = append(events, models.MConfluenceEvent{
			Kind:       models.EventPhaseChange,
			OccurredAt: cur.Clock.Instant,
			DateKey:    cur.Clock.Local.DateKey,
			Impact:     string(models.ImpactNone),
			Timeframes: []string{},
			Message:    fmt.Sprintf("%s -> %s", prev.Clock.Phase, cur.Clock.Phase),
		})
	}

	if sameDate && cur.Clock.Day.IsTradingDay {
		events = append(events, intradayCloses(prev.Clock, cur.Clock)...)
	}

	if ev, ok := clusterEscalation(prev, cur, sameDate); ok {
		events = append(events, ev)
	}

	// the session that prev was in has closed
	if prev.Clock.Phase == models.PhaseRegular && (cur.Clock.Phase != models.PhaseRegular || !sameDate) {
		if today := prev.TodayMacro; macro.Notable(today) {
			labels := models.Labels(today.ClosingCycles)
			events = append(events, models.MConfluenceEvent{
				Kind:       models.EventMacroClose,
				OccurredAt: cur.Clock.Instant,
				DateKey:    today.DateKey,
				Impact:     string(today.ImpactLevel),
				Score:      float64(today.ConfluenceScore),
				Timeframes: labels,
				Message:    fmt.Sprintf("macro close %s: %s", today.DateKey, strings.Join(labels, ", ")),
			})
		}
	}

	return events
}

// -----------------------------------------------------------------------------

// intradayCloses reports every whole-minute offset crossed between the two
// clocks whose closing set is rated medium or better. Offsets clamp to the
// session, so crossing the close reports the session close.
func intradayCloses(prev, cur models.MMarketClock) []models.MConfluenceEvent {
	length := cur.Day.SessionLengthMinutes
	lo := clampOffset(prev.MinutesSinceOpen, length)
	hi := clampOffset(cur.MinutesSinceOpen, length)

	out := []models.MConfluenceEvent{}
	for m := lo + 1; m <= hi; m++ {
		conf := micro.ClosingAt(m, length)
		if !micro.AtLeast(conf.ImpactLevel, models.ImpactMedium) {
			continue
		}
		labels := models.Labels(conf.AllClosing)
		out = append(out, models.MConfluenceEvent{
			Kind:       models.EventIntradayClose,
			OccurredAt: cur.Instant,
			DateKey:    cur.Local.DateKey,
			Impact:     string(conf.ImpactLevel),
			Score:      float64(conf.ConfluenceScore),
			Timeframes: labels,
			Message:    fmt.Sprintf("minute %d of session: %s", m, strings.Join(labels, ", ")),
		})
	}
	return out
}

func clampOffset(minutesSinceOpen float64, length int) int {
	m := int(minutesSinceOpen)
	if m < 0 {
		return 0
	}
	if m > length {
		return length
	}
	return m
}

// clusterEscalation fires when the dominant cluster reaches a stronger
// intensity than the previous snapshot's within the same regular session.
// The first tick of a session only sets the baseline; the phase change
// already reports the open.
func clusterEscalation(prev, cur *models.MConfluenceSnapshot, sameDate bool) (models.MConfluenceEvent, bool) {
	top := cur.MainCluster
	if !cur.Clock.IsRegular() || !top.Active || top.Intensity < escalationFloor {
		return models.MConfluenceEvent{}, false
	}
	if !sameDate || !prev.Clock.IsRegular() {
		return models.MConfluenceEvent{}, false
	}

	baseline := models.IntensityQuiet
	if prev.MainCluster.Active {
		baseline = prev.MainCluster.Intensity
	}
	if top.Intensity <= baseline {
		return models.MConfluenceEvent{}, false
	}

	labels := models.Labels(top.Members)
	return models.MConfluenceEvent{
		Kind:       models.EventClusterEscalated,
		OccurredAt: cur.Clock.Instant,
		DateKey:    cur.Clock.Local.DateKey,
		Impact:     top.Intensity.String(),
		Score:      top.WeightedScore,
		Timeframes: labels,
		Message: fmt.Sprintf("%s cluster of %d closing in %.1f min: %s",
			top.Intensity, top.Size, top.CenterMinutesToClose, strings.Join(labels, ", ")),
	}, true
}
