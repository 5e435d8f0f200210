package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return appErrors.FromError(err).Code
}

func ptrInt(v int) *int {
	return &v
}

func ptrFloat(v float64) *float64 {
	return &v
}

func sampleSubject() *models.Subject {
	return &models.Subject{
		ID:        "sub-1",
		TeacherID: "t1",
		Name:      "Physics",
		Classes:   pq.StringArray{"10A", "10B"},
		StartYear: 2023,
		EndYear:   2024,
		Papers:    pq.StringArray{"P1", "P2"},
		MaxMarks:  pq.Int64Array{50, 50},
	}
}

type mockSubjectRepo struct {
	subjects  map[string]*models.Subject
	created   []*models.Subject
	deleted   []string
	createErr error
}

func newMockSubjectRepo(subjects ...*models.Subject) *mockSubjectRepo {
	repo := &mockSubjectRepo{subjects: map[string]*models.Subject{}}
	for _, s := range subjects {
		repo.subjects[s.ID] = s
	}
	return repo
}

func (m *mockSubjectRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Subject, error) {
	var result []models.Subject
	for _, s := range m.subjects {
		if s.TeacherID == teacherID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	if m.createErr != nil {
		return m.createErr
	}
	subject.ID = "sub-new"
	m.created = append(m.created, subject)
	m.subjects[subject.ID] = subject
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id, teacherID string) error {
	s, ok := m.subjects[id]
	if !ok || s.TeacherID != teacherID {
		return sql.ErrNoRows
	}
	delete(m.subjects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockClassRepo struct {
	mu        sync.Mutex
	classes   []models.Class
	createErr error
	// lateClass appears only after a failed create, simulating a concurrent writer.
	lateClass *models.Class
	creates   int
}

func (m *mockClassRepo) List(ctx context.Context) ([]models.Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Class(nil), m.classes...), nil
}

func (m *mockClassRepo) FindByName(ctx context.Context, name string) (*models.Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.classes {
		if strings.EqualFold(c.Name, name) {
			found := c
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		if m.lateClass != nil {
			m.classes = append(m.classes, *m.lateClass)
		}
		return m.createErr
	}
	class.ID = "class-" + strings.ToLower(class.Name)
	m.classes = append(m.classes, *class)
	return nil
}

type mockStudentRepo struct {
	mu       sync.Mutex
	students map[string]*models.Student
	entries  map[string][]models.ExamEntry
	order    []string
	bulk     []models.Student
	listErr  error
	onList   func()
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: map[string]*models.Student{}, entries: map[string][]models.ExamEntry{}}
}

func (m *mockStudentRepo) add(student models.Student, entries ...models.ExamEntry) {
	m.students[student.ID] = &student
	m.entries[student.ID] = entries
	m.order = append(m.order, student.ID)
}

func (m *mockStudentRepo) ListBySubject(ctx context.Context, subjectID string) ([]models.StudentWithEntries, error) {
	if m.onList != nil {
		m.onList()
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.StudentWithEntries
	for _, id := range m.order {
		s := m.students[id]
		if s.SubjectID == subjectID {
			result = append(result, models.StudentWithEntries{Student: *s, Entries: m.entries[id]})
		}
	}
	return result, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.students[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	student.ID = "st-" + strings.ToLower(strings.ReplaceAll(student.Name, " ", "-"))
	m.add(*student)
	return nil
}

func (m *mockStudentRepo) BulkCreate(ctx context.Context, students []models.Student) error {
	m.bulk = append(m.bulk, students...)
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	return nil
}

type mockEntryRepo struct {
	calls []models.ExamEntry
}

func (m *mockEntryRepo) UpsertMark(ctx context.Context, studentID, sessionName, subjectID string, paperIndex int, value float64) (*models.ExamEntry, error) {
	entry := models.ExamEntry{ID: "e1", StudentID: studentID, SessionName: sessionName, SubjectID: subjectID}
	v := value
	switch paperIndex {
	case 0:
		entry.P1 = &v
	case 1:
		entry.P2 = &v
	case 2:
		entry.P3 = &v
	case 3:
		entry.P4 = &v
	}
	m.calls = append(m.calls, entry)
	return &entry, nil
}

type mockProgressRepo struct {
	rows     map[string][]byte
	upserted map[string][]byte
}

func newMockProgressRepo() *mockProgressRepo {
	return &mockProgressRepo{rows: map[string][]byte{}, upserted: map[string][]byte{}}
}

func (m *mockProgressRepo) ListBySubject(ctx context.Context, subjectID string) ([]models.ProgressRow, error) {
	var rows []models.ProgressRow
	for id, raw := range m.rows {
		rows = append(rows, models.ProgressRow{StudentID: id, Progress: raw})
	}
	return rows, nil
}

func (m *mockProgressRepo) FindByStudentSubject(ctx context.Context, studentID, subjectID string) (*models.ProgressRow, error) {
	raw, ok := m.rows[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ProgressRow{StudentID: studentID, Progress: raw}, nil
}

func (m *mockProgressRepo) Upsert(ctx context.Context, studentID, subjectID string, payload []byte) error {
	m.upserted[studentID] = payload
	m.rows[studentID] = payload
	return nil
}

type mockCacheRepo struct {
	mu      sync.Mutex
	data    map[string]interface{}
	sets    int
	deletes []string
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{data: map[string]interface{}{}}
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if out, ok := dest.(*[]models.RankedStudent); ok {
		*out = value.([]models.RankedStudent)
	}
	return nil
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingNotifier) SubjectChanged(ctx context.Context, subjectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subjectID)
}

type mockTeacherRepo struct {
	teachers map[string]*models.Teacher
	themes   map[string]string
}

func newMockTeacherRepo(teachers ...*models.Teacher) *mockTeacherRepo {
	repo := &mockTeacherRepo{teachers: map[string]*models.Teacher{}, themes: map[string]string{}}
	for _, t := range teachers {
		repo.teachers[t.ID] = t
	}
	return repo
}

func (m *mockTeacherRepo) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	for _, t := range m.teachers {
		if strings.EqualFold(t.Email, email) {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	for _, t := range m.teachers {
		if strings.EqualFold(t.Email, teacher.Email) {
			return repository.ErrDuplicate
		}
	}
	teacher.ID = "t-new"
	m.teachers[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) UpdateTheme(ctx context.Context, id, theme string) error {
	t, ok := m.teachers[id]
	if !ok {
		return sql.ErrNoRows
	}
	m.themes[id] = theme
	t.Theme = &theme
	return nil
}
