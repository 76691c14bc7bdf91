package planner

import (
	"context"

	"github.com/trezcool/cuaderno/core"
)

func (svc *Service) Activities(orderings ...core.DBOrdering) []Activity {
	var activities []Activity
	svc.state.view(func(s *Snapshot) {
		activities = make([]Activity, 0, len(s.Activities))
		for _, a := range s.Activities {
			activities = append(activities, a.clone())
		}
	})
	core.SortBy(len(activities),
		func(i, j int) { activities[i], activities[j] = activities[j], activities[i] },
		func(i int, field string) string {
			switch field {
			case "name":
				return activities[i].Name
			case "type":
				return activities[i].Type
			case "start_date", "startDate":
				return activities[i].StartDate
			}
			return ""
		},
		orderings...,
	)
	return activities
}

func (svc *Service) Activity(id string) (Activity, error) {
	var (
		act   Activity
		found bool
	)
	svc.state.view(func(s *Snapshot) {
		var i int
		if i, found = s.activity(id); found {
			act = s.Activities[i].clone()
		}
	})
	if !found {
		return Activity{}, ErrActivityNotFound
	}
	return act, nil
}

// AddActivity creates an activity with the next free palette color, bounded by the course dates.
func (svc *Service) AddActivity(ctx context.Context, na NewActivity) (Activity, error) {
	na.clean()
	if err := svc.validate.Struct(na); err != nil {
		return Activity{}, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var act Activity
	_ = svc.state.update(func(s *Snapshot) error {
		act = Activity{
			ID:         newID(),
			Name:       na.Name,
			Type:       na.Type,
			Color:      pickColor(s.Activities),
			StartDate:  s.CourseStartDate,
			EndDate:    s.CourseEndDate,
			StudentIDs: []string{},
		}
		s.Activities = append(s.Activities, act)
		return nil
	})

	svc.persist(ctx, "SaveActivity", func(ctx context.Context) error {
		_, err := svc.repo.SaveActivity(ctx, act)
		return err
	})
	return act.clone(), nil
}

// UpdateActivity renames an activity (a blank name keeps the current one) and replaces its dates.
func (svc *Service) UpdateActivity(ctx context.Context, id string, ua UpdateActivity) (Activity, error) {
	ua.clean()
	if err := svc.validate.Struct(ua); err != nil {
		return Activity{}, err
	}
	if err := checkDateOrder(ua.StartDate, ua.EndDate, "endDate"); err != nil {
		return Activity{}, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var act Activity
	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.activity(id)
		if !ok {
			return ErrActivityNotFound
		}
		if ua.Name != "" {
			s.Activities[i].Name = ua.Name
		}
		s.Activities[i].StartDate = ua.StartDate
		s.Activities[i].EndDate = ua.EndDate
		act = s.Activities[i].clone()
		return nil
	})
	if err != nil {
		return Activity{}, err
	}

	svc.persist(ctx, "UpdateActivity", func(ctx context.Context) error {
		_, err := svc.repo.SaveActivity(ctx, act)
		return err
	})
	return act, nil
}

func (svc *Service) SetActivityColor(ctx context.Context, id string, ac ActivityColor) (Activity, error) {
	ac.Color = core.CleanString(ac.Color)
	if err := svc.validate.Struct(ac); err != nil {
		return Activity{}, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var act Activity
	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.activity(id)
		if !ok {
			return ErrActivityNotFound
		}
		s.Activities[i].Color = ac.Color
		act = s.Activities[i].clone()
		return nil
	})
	if err != nil {
		return Activity{}, err
	}

	svc.persist(ctx, "SetActivityColor", func(ctx context.Context) error {
		_, err := svc.repo.SaveActivity(ctx, act)
		return err
	})
	return act, nil
}

// DeleteActivity removes the activity only: schedule cells, overrides and class entries
// pointing to it are kept (the history shows them as a deleted class).
func (svc *Service) DeleteActivity(ctx context.Context, id string) error {
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.activity(id)
		if !ok {
			return ErrActivityNotFound
		}
		s.Activities = append(s.Activities[:i], s.Activities[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	svc.persist(ctx, "DeleteActivity", func(ctx context.Context) error {
		return svc.repo.DeleteActivity(ctx, id)
	})
	return nil
}
