package planner

import (
	"context"
)

// Schedule returns a copy of the base weekly schedule.
func (svc *Service) Schedule() map[string]string {
	sched := make(map[string]string)
	svc.state.view(func(s *Snapshot) {
		for k, v := range s.Schedule {
			sched[k] = v
		}
	})
	return sched
}

func (svc *Service) Overrides() []ScheduleOverride {
	var ovs []ScheduleOverride
	svc.state.view(func(s *Snapshot) {
		ovs = append(make([]ScheduleOverride, 0, len(s.ScheduleOverrides)), s.ScheduleOverrides...)
	})
	return ovs
}

// SetScheduleSlot puts an activity in a day/slot cell of the base schedule; an empty activity frees it.
func (svc *Service) SetScheduleSlot(ctx context.Context, ss ScheduleSlot) (map[string]string, error) {
	ss.clean()
	if err := svc.validate.Struct(ss); err != nil {
		return nil, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	key := ScheduleKey(ss.Day, ss.Time)
	err := svc.state.update(func(s *Snapshot) error {
		if ss.ActivityID == "" {
			delete(s.Schedule, key)
			return nil
		}
		if _, ok := s.activity(ss.ActivityID); !ok {
			return ErrActivityNotFound
		}
		s.Schedule[key] = ss.ActivityID
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.persist(ctx, "SetScheduleSlot", func(ctx context.Context) error {
		return svc.repo.SetScheduleSlot(ctx, key, ss.ActivityID)
	})
	return svc.Schedule(), nil
}

// AddOverride substitutes an activity into a day/slot cell between two dates (both included).
func (svc *Service) AddOverride(ctx context.Context, no NewOverride) (ScheduleOverride, error) {
	no.clean()
	if err := svc.validate.Struct(no); err != nil {
		return ScheduleOverride{}, err
	}
	if err := checkDateOrder(no.StartDate, no.EndDate, "endDate"); err != nil {
		return ScheduleOverride{}, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	ov := ScheduleOverride{
		ID:         newID(),
		Day:        no.Day,
		Time:       no.Time,
		ActivityID: no.ActivityID,
		StartDate:  no.StartDate,
		EndDate:    no.EndDate,
	}
	err := svc.state.update(func(s *Snapshot) error {
		if _, ok := s.activity(no.ActivityID); !ok {
			return ErrActivityNotFound
		}
		s.ScheduleOverrides = append(s.ScheduleOverrides, ov)
		return nil
	})
	if err != nil {
		return ScheduleOverride{}, err
	}

	svc.persist(ctx, "SaveOverride", func(ctx context.Context) error {
		_, err := svc.repo.SaveOverride(ctx, ov)
		return err
	})
	return ov, nil
}

func (svc *Service) DeleteOverride(ctx context.Context, id string) error {
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.override(id)
		if !ok {
			return ErrOverrideNotFound
		}
		s.ScheduleOverrides = append(s.ScheduleOverrides[:i], s.ScheduleOverrides[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	svc.persist(ctx, "DeleteOverride", func(ctx context.Context) error {
		return svc.repo.DeleteOverride(ctx, id)
	})
	return nil
}
