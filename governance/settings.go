package governance

import (
	"fmt"

	"govexec-project/events"
	"govexec-project/models"
)

// validateSettings enforces the ratio and duration bounds
func validateSettings(s *models.Settings) error {
	if uint64(s.SupportThreshold) >= models.RatioBase {
		return &RatioOutOfBoundsError{
			Field:  "support_threshold",
			Limit:  models.RatioBase - 1,
			Actual: uint64(s.SupportThreshold),
		}
	}
	if uint64(s.MinParticipation) > models.RatioBase {
		return &RatioOutOfBoundsError{
			Field:  "min_participation",
			Limit:  models.RatioBase,
			Actual: uint64(s.MinParticipation),
		}
	}
	if s.MinVoteDuration < models.MinDuration || s.MinVoteDuration > models.MaxDuration {
		return &DurationOutOfBoundsError{
			Field:  "min_vote_duration",
			Min:    models.MinDuration,
			Max:    models.MaxDuration,
			Actual: s.MinVoteDuration,
		}
	}
	if s.MinTallyDuration < models.MinDuration || s.MinTallyDuration > models.MaxDuration {
		return &DurationOutOfBoundsError{
			Field:  "min_tally_duration",
			Min:    models.MinDuration,
			Max:    models.MaxDuration,
			Actual: s.MinTallyDuration,
		}
	}
	return nil
}

// UpdateSettings validates and stores new governance settings
func (e *Engine) UpdateSettings(s *models.Settings) error {
	e.mux.Lock()
	defer e.mux.Unlock()

	tick := e.clock.CurrentTick()
	if e.settingsTick == tick {
		return ErrSettingsChangedTooRecently
	}

	next := normalizeSettings(s.Copy())
	if err := validateSettings(next); err != nil {
		return err
	}
	// raising the approval floor above the roster size would make it unreachable
	if int(next.MinTallyApprovals) > e.committee.Size() {
		return ErrBelowMinApprovals
	}

	rec := &models.SettingsRecord{Settings: next, LastChangedTick: tick}
	if err := e.repo.PutSettings(rec); err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}
	e.settings = next
	e.settingsTick = tick

	if e.metrics != nil {
		e.metrics.SettingsUpdates.Inc()
	}
	e.publish(events.TypeSettingsUpdated, events.SettingsUpdatedData{Settings: next.Copy()})
	return nil
}
