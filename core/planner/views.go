package planner

import (
	"sort"
	"strings"
)

type (
	ClassView struct {
		Activity Activity  `json:"activity"`
		Students []Student `json:"students"`
	}

	AnnotationItem struct {
		EntryKey      string `json:"entryKey"`
		Date          string `json:"date"`
		ActivityID    string `json:"activityId"`
		ActivityName  string `json:"activityName"`
		ActivityColor string `json:"activityColor"`
		Annotation    string `json:"annotation"`
	}

	StudentDetail struct {
		Student Student          `json:"student"`
		Classes []Activity       `json:"classes"`
		History []AnnotationItem `json:"history"`
	}
)

// Classes lists the class activities with their enrolled students.
func (svc *Service) Classes() []ClassView {
	views := make([]ClassView, 0)
	svc.state.view(func(s *Snapshot) {
		for _, a := range s.Activities {
			if !a.IsClass() {
				continue
			}
			cv := ClassView{Activity: a.clone(), Students: []Student{}}
			for _, st := range s.Students {
				if a.HasStudent(st.ID) {
					cv.Students = append(cv.Students, st)
				}
			}
			views = append(views, cv)
		}
	})
	return views
}

// StudentDetail returns a student, the classes it attends and its annotation history (newest first).
func (svc *Service) StudentDetail(id string) (StudentDetail, error) {
	var (
		sd    StudentDetail
		found bool
	)
	svc.state.view(func(s *Snapshot) {
		var i int
		if i, found = s.student(id); !found {
			return
		}
		sd = s.studentDetail(s.Students[i])
	})
	if !found {
		return StudentDetail{}, ErrStudentNotFound
	}
	return sd, nil
}

func (s *Snapshot) studentDetail(st Student) StudentDetail {
	sd := StudentDetail{Student: st, Classes: []Activity{}, History: []AnnotationItem{}}
	for _, a := range s.Activities {
		if a.IsClass() && a.HasStudent(st.ID) {
			sd.Classes = append(sd.Classes, a.clone())
		}
	}

	for key, e := range s.ClassEntries {
		ann := e.Annotations[st.ID]
		if strings.TrimSpace(ann) == "" {
			continue
		}
		activityID, date := SplitEntryKey(key)
		item := AnnotationItem{
			EntryKey:      key,
			Date:          date,
			ActivityID:    activityID,
			ActivityName:  DeletedActivityName,
			ActivityColor: DeletedActivityColor,
			Annotation:    ann,
		}
		if i, ok := s.activity(activityID); ok {
			item.ActivityName = s.Activities[i].Name
			item.ActivityColor = s.Activities[i].Color
		}
		sd.History = append(sd.History, item)
	}
	sort.Slice(sd.History, func(i, j int) bool {
		if sd.History[i].Date != sd.History[j].Date {
			return sd.History[i].Date > sd.History[j].Date
		}
		return sd.History[i].EntryKey < sd.History[j].EntryKey
	})
	return sd
}
