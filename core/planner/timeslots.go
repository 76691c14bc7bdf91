package planner

import (
	"context"

	"github.com/trezcool/cuaderno/core"
)

var reorderText = core.Texts{"en": "cannot move the time slot in that direction", "es": "no se puede mover la franja en esa dirección"}

// TimeSlots returns the slots in display order.
func (svc *Service) TimeSlots() []TimeSlot {
	var slots []TimeSlot
	svc.state.view(func(s *Snapshot) {
		slots = append(make([]TimeSlot, 0, len(s.TimeSlots)), s.TimeSlots...)
	})
	return slots
}

// AddTimeSlot appends a slot after the last one (order = max order + 1, 0 for the first).
func (svc *Service) AddTimeSlot(ctx context.Context, nt NewTimeSlot) (TimeSlot, error) {
	nt.clean()
	if err := svc.validate.Struct(nt); err != nil {
		return TimeSlot{}, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var ts TimeSlot
	_ = svc.state.update(func(s *Snapshot) error {
		order := 0
		if len(s.TimeSlots) > 0 {
			order = s.TimeSlots[0].Order
			for _, t := range s.TimeSlots[1:] {
				if t.Order > order {
					order = t.Order
				}
			}
			order++
		}
		ts = TimeSlot{ID: newID(), Label: nt.Label, Order: order}
		s.TimeSlots = append(s.TimeSlots, ts)
		return nil
	})

	svc.persist(ctx, "SaveTimeSlot", func(ctx context.Context) error {
		_, err := svc.repo.SaveTimeSlot(ctx, ts)
		return err
	})
	return ts, nil
}

// RenameTimeSlot changes the label of a slot and moves the schedule cells of the old label to the new one.
func (svc *Service) RenameTimeSlot(ctx context.Context, id string, nt NewTimeSlot) (TimeSlot, error) {
	nt.clean()
	if err := svc.validate.Struct(nt); err != nil {
		return TimeSlot{}, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var (
		ts      TimeSlot
		changed bool
		moved   = map[string]string{} // old key: new key
	)
	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.timeSlot(id)
		if !ok {
			return ErrTimeSlotNotFound
		}
		oldLabel := s.TimeSlots[i].Label
		if oldLabel == nt.Label {
			ts = s.TimeSlots[i]
			return nil
		}
		changed = true
		s.TimeSlots[i].Label = nt.Label
		ts = s.TimeSlots[i]

		for key, activityID := range s.Schedule {
			day, label := SplitScheduleKey(key)
			if label != oldLabel {
				continue
			}
			newKey := ScheduleKey(day, nt.Label)
			delete(s.Schedule, key)
			s.Schedule[newKey] = activityID
			moved[key] = newKey
		}
		return nil
	})
	if err != nil || !changed {
		return ts, err
	}

	snap := svc.state.Snapshot()
	svc.persist(ctx, "RenameTimeSlot", func(ctx context.Context) error {
		if _, err := svc.repo.SaveTimeSlot(ctx, ts); err != nil {
			return err
		}
		for oldKey, newKey := range moved {
			if err := svc.repo.SetScheduleSlot(ctx, newKey, snap.Schedule[newKey]); err != nil {
				return err
			}
			if err := svc.repo.SetScheduleSlot(ctx, oldKey, ""); err != nil {
				return err
			}
		}
		return nil
	})
	return ts, nil
}

// DeleteTimeSlot removes a slot; schedule cells using its label are kept.
func (svc *Service) DeleteTimeSlot(ctx context.Context, id string) error {
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.timeSlot(id)
		if !ok {
			return ErrTimeSlotNotFound
		}
		s.TimeSlots = append(s.TimeSlots[:i], s.TimeSlots[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	svc.persist(ctx, "DeleteTimeSlot", func(ctx context.Context) error {
		return svc.repo.DeleteTimeSlot(ctx, id)
	})
	return nil
}

// ReorderTimeSlot swaps the slot at index with its neighbour and renumbers every order.
func (svc *Service) ReorderTimeSlot(ctx context.Context, rt ReorderTimeSlot) ([]TimeSlot, error) {
	if err := svc.validate.Struct(rt); err != nil {
		return nil, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var slots []TimeSlot
	err := svc.state.update(func(s *Snapshot) error {
		other := rt.Index + 1
		if rt.Direction == DirectionUp {
			other = rt.Index - 1
		}
		if rt.Index >= len(s.TimeSlots) || other < 0 || other >= len(s.TimeSlots) {
			return core.NewValidationError(nil, core.NewFieldError("index", reorderText))
		}
		s.TimeSlots[rt.Index], s.TimeSlots[other] = s.TimeSlots[other], s.TimeSlots[rt.Index]
		for i := range s.TimeSlots {
			s.TimeSlots[i].Order = i
		}
		slots = append(make([]TimeSlot, 0, len(s.TimeSlots)), s.TimeSlots...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.persist(ctx, "ReorderTimeSlot", func(ctx context.Context) error {
		for _, ts := range slots {
			if _, err := svc.repo.SaveTimeSlot(ctx, ts); err != nil {
				return err
			}
		}
		return nil
	})
	return slots, nil
}

// GenerateTimeSlots replaces every slot with a generated school day.
func (svc *Service) GenerateTimeSlots(ctx context.Context, gt GenerateTimeSlots) ([]TimeSlot, error) {
	gt.clean()
	if err := svc.validate.Struct(gt); err != nil {
		return nil, err
	}
	slots, err := GenerateSlots(gt)
	if err != nil {
		return nil, core.NewValidationError(err)
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var old []TimeSlot
	_ = svc.state.update(func(s *Snapshot) error {
		old = s.TimeSlots
		s.TimeSlots = append(make([]TimeSlot, 0, len(slots)), slots...)
		return nil
	})

	svc.persist(ctx, "GenerateTimeSlots", func(ctx context.Context) error {
		for _, ts := range old {
			if err := svc.repo.DeleteTimeSlot(ctx, ts.ID); err != nil {
				return err
			}
		}
		for _, ts := range slots {
			if _, err := svc.repo.SaveTimeSlot(ctx, ts); err != nil {
				return err
			}
		}
		return nil
	})
	return slots, nil
}
