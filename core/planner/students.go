package planner

import (
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/cuaderno/core"
)

// SimilarNameRatio is the similarity above which an imported name is reported as a possible duplicate.
const SimilarNameRatio = .85

var noNamesText = core.Texts{"en": "no student names found", "es": "no se ha encontrado ningún nombre de alumno"}

type (
	SimilarName struct {
		Name      string  `json:"name"`
		StudentID string  `json:"studentId"`
		Existing  string  `json:"existing"`
		Ratio     float64 `json:"ratio"`
	}

	ImportResult struct {
		Created  []Student     `json:"created"`
		Enrolled []Student     `json:"enrolled"`
		Similar  []SimilarName `json:"similar"`
	}
)

func (svc *Service) Students(orderings ...core.DBOrdering) []Student {
	var students []Student
	svc.state.view(func(s *Snapshot) {
		students = append(make([]Student, 0, len(s.Students)), s.Students...)
	})
	core.SortBy(len(students),
		func(i, j int) { students[i], students[j] = students[j], students[i] },
		func(i int, field string) string {
			switch field {
			case "name":
				return students[i].Name
			case "id":
				return students[i].ID
			}
			return ""
		},
		orderings...,
	)
	return students
}

func (svc *Service) Student(id string) (Student, error) {
	var (
		st    Student
		found bool
	)
	svc.state.view(func(s *Snapshot) {
		var i int
		if i, found = s.student(id); found {
			st = s.Students[i]
		}
	})
	if !found {
		return Student{}, ErrStudentNotFound
	}
	return st, nil
}

// enrollByName reuses the student whose name matches case-insensitively (creating it otherwise)
// and adds it to the activity once. The returned bool reports whether the student was created.
func enrollByName(s *Snapshot, actIdx int, name string) (Student, bool) {
	var (
		st      Student
		created bool
	)
	if i, ok := s.studentByName(name); ok {
		st = s.Students[i]
	} else {
		st = Student{ID: newID(), Name: name}
		s.Students = append(s.Students, st)
		created = true
	}
	if !s.Activities[actIdx].HasStudent(st.ID) {
		s.Activities[actIdx].StudentIDs = append(s.Activities[actIdx].StudentIDs, st.ID)
	}
	return st, created
}

// AddStudentToClass enrolls a student by name in an activity, creating the student when no one has that name.
func (svc *Service) AddStudentToClass(ctx context.Context, activityID string, sn StudentName) (Student, error) {
	sn.clean()
	if err := svc.validate.Struct(sn); err != nil {
		return Student{}, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var (
		st      Student
		created bool
		act     Activity
	)
	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.activity(activityID)
		if !ok {
			return ErrActivityNotFound
		}
		st, created = enrollByName(s, i, sn.Name)
		act = s.Activities[i].clone()
		return nil
	})
	if err != nil {
		return Student{}, err
	}

	svc.persist(ctx, "AddStudentToClass", func(ctx context.Context) error {
		if created {
			if _, err := svc.repo.SaveStudent(ctx, st); err != nil {
				return err
			}
		}
		_, err := svc.repo.SaveActivity(ctx, act)
		return err
	})
	return st, nil
}

// EnrollStudent adds an existing student to an activity (no-op when already enrolled).
func (svc *Service) EnrollStudent(ctx context.Context, activityID, studentID string) (Activity, error) {
	return svc.updateEnrollment(ctx, "EnrollStudent", activityID, studentID, func(a *Activity) bool {
		if a.HasStudent(studentID) {
			return false
		}
		a.StudentIDs = append(a.StudentIDs, studentID)
		return true
	})
}

// UnenrollStudent removes a student from an activity; the student itself is kept.
func (svc *Service) UnenrollStudent(ctx context.Context, activityID, studentID string) (Activity, error) {
	return svc.updateEnrollment(ctx, "UnenrollStudent", activityID, studentID, func(a *Activity) bool {
		ids := make([]string, 0, len(a.StudentIDs))
		for _, id := range a.StudentIDs {
			if id != studentID {
				ids = append(ids, id)
			}
		}
		changed := len(ids) != len(a.StudentIDs)
		a.StudentIDs = ids
		return changed
	})
}

func (svc *Service) updateEnrollment(ctx context.Context, op, activityID, studentID string, fn func(a *Activity) bool) (Activity, error) {
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var (
		act     Activity
		changed bool
	)
	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.activity(activityID)
		if !ok {
			return ErrActivityNotFound
		}
		if _, ok := s.student(studentID); !ok {
			return ErrStudentNotFound
		}
		changed = fn(&s.Activities[i])
		act = s.Activities[i].clone()
		return nil
	})
	if err != nil || !changed {
		return act, err
	}

	svc.persist(ctx, op, func(ctx context.Context) error {
		_, err := svc.repo.SaveActivity(ctx, act)
		return err
	})
	return act, nil
}

// UpdateStudent changes the name and/or the general notes of a student.
func (svc *Service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	us.clean()
	if err := svc.validate.Struct(us); err != nil {
		return Student{}, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var st Student
	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.student(id)
		if !ok {
			return ErrStudentNotFound
		}
		if us.Name != nil {
			s.Students[i].Name = *us.Name
		}
		if us.GeneralNotes != nil {
			s.Students[i].GeneralNotes = *us.GeneralNotes
		}
		st = s.Students[i]
		return nil
	})
	if err != nil {
		return Student{}, err
	}

	svc.persist(ctx, "UpdateStudent", func(ctx context.Context) error {
		_, err := svc.repo.SaveStudent(ctx, st)
		return err
	})
	return st, nil
}

// DeleteStudent removes a student and unenrolls it from every activity.
func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var touched []Activity
	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.student(id)
		if !ok {
			return ErrStudentNotFound
		}
		s.Students = append(s.Students[:i], s.Students[i+1:]...)
		for j := range s.Activities {
			if !s.Activities[j].HasStudent(id) {
				continue
			}
			ids := make([]string, 0, len(s.Activities[j].StudentIDs))
			for _, sid := range s.Activities[j].StudentIDs {
				if sid != id {
					ids = append(ids, sid)
				}
			}
			s.Activities[j].StudentIDs = ids
			touched = append(touched, s.Activities[j].clone())
		}
		return nil
	})
	if err != nil {
		return err
	}

	svc.persist(ctx, "DeleteStudent", func(ctx context.Context) error {
		for _, a := range touched {
			if _, err := svc.repo.SaveActivity(ctx, a); err != nil {
				return err
			}
		}
		return svc.repo.DeleteStudent(ctx, id)
	})
	return nil
}

// ImportStudents enrolls one student per non-blank line of the text, with the same reuse rules as
// AddStudentToClass. Names close to (but not equal to) an existing student are reported.
func (svc *Service) ImportStudents(ctx context.Context, in ImportStudents) (ImportResult, error) {
	if err := svc.validate.Struct(in); err != nil {
		return ImportResult{}, err
	}
	names := parseNameList(in.Text)
	if len(names) == 0 {
		return ImportResult{}, core.NewValidationError(nil, core.NewFieldError("text", noNamesText))
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	res := ImportResult{Created: []Student{}, Enrolled: []Student{}, Similar: []SimilarName{}}
	var act Activity
	err := svc.state.update(func(s *Snapshot) error {
		i, ok := s.activity(in.ActivityID)
		if !ok {
			return ErrActivityNotFound
		}
		existing := append(make([]Student, 0, len(s.Students)), s.Students...)
		for _, name := range names {
			if _, known := s.studentByName(name); !known {
				if sim, ok := mostSimilar(name, existing); ok {
					res.Similar = append(res.Similar, sim)
				}
			}
			st, created := enrollByName(s, i, name)
			if created {
				res.Created = append(res.Created, st)
			}
			res.Enrolled = append(res.Enrolled, st)
		}
		act = s.Activities[i].clone()
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	svc.persist(ctx, "ImportStudents", func(ctx context.Context) error {
		for _, st := range res.Created {
			if _, err := svc.repo.SaveStudent(ctx, st); err != nil {
				return err
			}
		}
		_, err := svc.repo.SaveActivity(ctx, act)
		return err
	})
	return res, nil
}

func parseNameList(text string) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := core.CleanString(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// mostSimilar finds the existing student whose name is the closest to name, if above SimilarNameRatio.
func mostSimilar(name string, students []Student) (SimilarName, bool) {
	var best SimilarName
	lname := strings.ToLower(name)
	for _, st := range students {
		ratio := difflib.NewMatcher(strings.Split(lname, ""), strings.Split(strings.ToLower(st.Name), "")).Ratio()
		if ratio >= SimilarNameRatio && ratio > best.Ratio {
			best = SimilarName{Name: name, StudentID: st.ID, Existing: st.Name, Ratio: ratio}
		}
	}
	return best, best.StudentID != ""
}

// SetSessionAnnotation edits an annotation from the student history; the class entry must exist.
func (svc *Service) SetSessionAnnotation(ctx context.Context, entryKey, studentID, text string) (ClassEntry, error) {
	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var entry ClassEntry
	err := svc.state.update(func(s *Snapshot) error {
		e, ok := s.ClassEntries[entryKey]
		if !ok {
			return ErrEntryNotFound
		}
		if e.Annotations == nil {
			e.Annotations = map[string]string{}
		}
		e.Annotations[studentID] = text
		s.ClassEntries[entryKey] = e
		entry = e.clone()
		return nil
	})
	if err != nil {
		return ClassEntry{}, err
	}

	svc.persist(ctx, "SetSessionAnnotation", func(ctx context.Context) error {
		return svc.repo.SaveClassEntry(ctx, entryKey, entry)
	})
	return entry, nil
}
