package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/subkeeper-api/internal/models"
)

// memStore is an in-memory stand-in for the PostgreSQL schema, including the
// unique constraints and ON DELETE CASCADE behaviour.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]models.User
	semesters   map[int64]models.Semester
	subjects    map[int64]models.Subject
	assignments map[int64]models.Assignment
	failWith    error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int64]models.User{},
		semesters:   map[int64]models.Semester{},
		subjects:    map[int64]models.Subject{},
		assignments: map[int64]models.Assignment{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505"}
}

func (m *memStore) Users() *memUsers { return &memUsers{m} }
func (m *memStore) Semesters() *memSemesters { return &memSemesters{m} }
func (m *memStore) Subjects() *memSubjects { return &memSubjects{m} }
func (m *memStore) Assignments() *memAssignments { return &memAssignments{m} }

// seed helpers

func (m *memStore) addUser(name string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: m.id(), Name: name}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addSemester(userID int64, name string) models.Semester {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := models.Semester{ID: m.id(), UserID: userID, Name: name}
	m.semesters[s.ID] = s
	return s
}

func (m *memStore) addSubject(semesterID int64, name string) models.Subject {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := models.Subject{ID: m.id(), SemesterID: semesterID, Name: name}
	m.subjects[s.ID] = s
	return s
}

func (m *memStore) addAssignment(subjectID int64, name string, due *time.Time, category models.Category, state models.CompletionState) models.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := models.Assignment{ID: m.id(), SubjectID: subjectID, Name: name, DueAt: due, Category: category, State: state}
	m.assignments[a.ID] = a
	return a
}

func (m *memStore) assignment(id int64) (models.Assignment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	return a, ok
}

func (m *memStore) counts() (int, int, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), len(m.semesters), len(m.subjects), len(m.assignments)
}

type memUsers struct{ *memStore }

func (r *memUsers) FindByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (r *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email != nil && *u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memUsers) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.Email != nil {
		for _, u := range r.users {
			if u.Email != nil && *u.Email == *user.Email {
				return uniqueViolation()
			}
		}
	}
	user.ID = r.id()
	r.users[user.ID] = *user
	return nil
}

type memSemesters struct{ *memStore }

func (r *memSemesters) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.semesters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r *memSemesters) ListByUser(ctx context.Context, userID int64) ([]models.Semester, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Semester
	for _, s := range r.semesters {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memSemesters) FindLatestByUser(ctx context.Context, userID int64) (*models.Semester, error) {
	list, _ := r.ListByUser(ctx, userID)
	if len(list) == 0 {
		return nil, sql.ErrNoRows
	}
	return &list[0], nil
}

func (r *memSemesters) ExistsByName(ctx context.Context, userID int64, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.semesters {
		if s.UserID == userID && s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSemesters) Create(ctx context.Context, semester *models.Semester) error {
	if exists, _ := r.ExistsByName(ctx, semester.UserID, semester.Name); exists {
		return uniqueViolation()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	semester.ID = r.id()
	r.semesters[semester.ID] = *semester
	return nil
}

func (r *memSemesters) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.semesters[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.semesters, id)
	for subID, sub := range r.subjects {
		if sub.SemesterID == id {
			r.deleteSubjectLocked(subID)
		}
	}
	return nil
}

func (m *memStore) deleteSubjectLocked(id int64) {
	delete(m.subjects, id)
	for aID, a := range m.assignments {
		if a.SubjectID == id {
			delete(m.assignments, aID)
		}
	}
}

type memSubjects struct{ *memStore }

func (r *memSubjects) FindWithOwner(ctx context.Context, id int64) (*models.SubjectOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.SubjectOwner{Subject: sub, UserID: r.semesters[sub.SemesterID].UserID}, nil
}

func (r *memSubjects) ListBySemester(ctx context.Context, semesterID int64) ([]models.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subject
	for _, s := range r.subjects {
		if s.SemesterID == semesterID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSubjects) ExistsByName(ctx context.Context, semesterID int64, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subjects {
		if s.SemesterID == semesterID && s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSubjects) Create(ctx context.Context, subject *models.Subject) error {
	if exists, _ := r.ExistsByName(ctx, subject.SemesterID, subject.Name); exists {
		return uniqueViolation()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	subject.ID = r.id()
	r.subjects[subject.ID] = *subject
	return nil
}

func (r *memSubjects) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	r.deleteSubjectLocked(id)
	return nil
}

type memAssignments struct{ *memStore }

func (r *memAssignments) FindWithOwner(ctx context.Context, id int64) (*models.AssignmentOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	sem := r.semesters[r.subjects[a.SubjectID].SemesterID]
	return &models.AssignmentOwner{Assignment: a, UserID: sem.UserID}, nil
}

func (r *memAssignments) Create(ctx context.Context, assignment *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subjects[assignment.SubjectID]; !ok {
		return errors.New("foreign key violation")
	}
	assignment.ID = r.id()
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *memAssignments) UpdateState(ctx context.Context, id int64, next func(current models.Assignment) models.CompletionState) (*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	a.State = next(a)
	r.assignments[id] = a
	return &a, nil
}

func (r *memAssignments) UpdateFields(ctx context.Context, id int64, patch models.AssignmentPatch) (*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.SubjectID != nil {
		a.SubjectID = *patch.SubjectID
	}
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.DueAt != nil {
		a.DueAt = patch.DueAt
	}
	if patch.Category != nil {
		a.Category = *patch.Category
	}
	r.assignments[id] = a
	return &a, nil
}

func (r *memAssignments) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.assignments, id)
	return nil
}

func (r *memAssignments) inSemester(semesterID int64) []models.Assignment {
	var out []models.Assignment
	for _, a := range r.assignments {
		if r.subjects[a.SubjectID].SemesterID == semesterID {
			out = append(out, a)
		}
	}
	return out
}

func (r *memAssignments) ListForDashboard(ctx context.Context, semesterID int64, filter models.AssignmentFilter) ([]models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Assignment
	for _, a := range r.inSemester(semesterID) {
		if filter.SubjectID != nil && a.SubjectID != *filter.SubjectID {
			continue
		}
		if len(filter.Categories) > 0 && !containsCategory(filter.Categories, a.Category) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DueAt, out[j].DueAt
		switch {
		case di == nil && dj == nil:
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.After(*dj)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memAssignments) ListCalendar(ctx context.Context, semesterID int64) ([]models.CalendarEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.inSemester(semesterID)
	sort.Slice(list, func(i, j int) bool {
		di, dj := list[i].DueAt, list[j].DueAt
		switch {
		case di == nil && dj == nil:
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.Before(*dj)
		}
		return list[i].ID < list[j].ID
	})
	out := make([]models.CalendarEntry, 0, len(list))
	for _, a := range list {
		out = append(out, models.CalendarEntry{
			ID: a.ID, SubjectID: a.SubjectID, SubjectName: r.subjects[a.SubjectID].Name,
			Name: a.Name, DueAt: a.DueAt, Category: a.Category, State: a.State,
		})
	}
	return out, nil
}

func (r *memAssignments) PromoteDueSoon(ctx context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	var changed int64
	for id, a := range r.assignments {
		if a.State != models.StateIncomplete || a.DueAt == nil {
			continue
		}
		due := a.DueAt.Truncate(time.Microsecond)
		if due.Before(from) || due.After(to) {
			continue
		}
		a.State = models.StateDueSoon
		r.assignments[id] = a
		changed++
	}
	return changed, nil
}

func containsCategory(list []models.Category, c models.Category) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}
	return false
}
