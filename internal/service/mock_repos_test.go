package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"

	"course-planner/internal/model"
	"course-planner/internal/repository"
	pkgerrors "course-planner/pkg/errors"
)

// ── Mock TimetableRepository ──
//
// 行为对齐数据库实现：按 (user, year, semester, title) 唯一，
// ConditionalReplace 按 version 条件写入；存取均深拷贝。

type mockTimetableRepo struct {
	mu         sync.Mutex
	timetables map[string]*model.Timetable
	seq        int

	// staleWrites 接下来 N 次 ConditionalReplace 模拟版本冲突
	staleWrites int
	writes      int
	replaceErr  error
}

func newMockTimetableRepo() *mockTimetableRepo {
	return &mockTimetableRepo{timetables: make(map[string]*model.Timetable)}
}

func (m *mockTimetableRepo) titleTaken(t *model.Timetable) bool {
	for _, existing := range m.timetables {
		if existing.TimetableID != t.TimetableID && existing.UserID == t.UserID &&
			existing.Year == t.Year && existing.Semester == t.Semester && existing.Title == t.Title {
			return true
		}
	}
	return false
}

func (m *mockTimetableRepo) Create(_ context.Context, timetable *model.Timetable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if timetable.TimetableID == "" {
		m.seq++
		timetable.TimetableID = fmt.Sprintf("tt-%d", m.seq)
	}
	if m.titleTaken(timetable) {
		return gorm.ErrDuplicatedKey
	}
	if timetable.Version == 0 {
		timetable.Version = 1
	}
	m.timetables[timetable.TimetableID] = timetable.Clone()
	return nil
}

func (m *mockTimetableRepo) GetByID(_ context.Context, userID, id string) (*model.Timetable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timetables[id]; ok && t.UserID == userID {
		return t.Clone(), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) GetByTitle(_ context.Context, userID string, year, semester int, title string) (*model.Timetable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timetables {
		if t.UserID == userID && t.Year == year && t.Semester == semester && t.Title == title {
			return t.Clone(), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) list(match func(*model.Timetable) bool) []model.Timetable {
	var result []model.Timetable
	for _, t := range m.timetables {
		if match(t) {
			result = append(result, *t.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result
}

func (m *mockTimetableRepo) ListByUser(_ context.Context, userID string) ([]model.Timetable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(t *model.Timetable) bool { return t.UserID == userID }), nil
}

func (m *mockTimetableRepo) ListByUserAndSemester(_ context.Context, userID string, year, semester int) ([]model.Timetable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(t *model.Timetable) bool {
		return t.UserID == userID && t.Year == year && t.Semester == semester
	}), nil
}

func (m *mockTimetableRepo) GetRecent(_ context.Context, userID string) (*model.Timetable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recent *model.Timetable
	for _, t := range m.timetables {
		if t.UserID == userID && (recent == nil || t.UpdatedAt.After(recent.UpdatedAt)) {
			recent = t
		}
	}
	if recent == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return recent.Clone(), nil
}

func (m *mockTimetableRepo) ConditionalReplace(_ context.Context, timetable *model.Timetable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	if m.staleWrites > 0 {
		m.staleWrites--
		return pkgerrors.ErrOptimisticLock
	}
	current, ok := m.timetables[timetable.TimetableID]
	if !ok || current.UserID != timetable.UserID || current.Version != timetable.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if m.titleTaken(timetable) {
		return gorm.ErrDuplicatedKey
	}
	timetable.Version++
	m.timetables[timetable.TimetableID] = timetable.Clone()
	m.writes++
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timetables[id]; !ok || t.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(m.timetables, id)
	return nil
}

// stored 直接读取落库值（测试断言用）
func (m *mockTimetableRepo) stored(id string) *model.Timetable {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timetables[id]; ok {
		return t.Clone()
	}
	return nil
}

// ── Mock CatalogLectureRepository ──

type mockCatalogLectureRepo struct {
	lectures map[string]*model.CatalogLecture
	calls    int
}

func newMockCatalogLectureRepo() *mockCatalogLectureRepo {
	return &mockCatalogLectureRepo{lectures: make(map[string]*model.CatalogLecture)}
}

func (m *mockCatalogLectureRepo) GetByID(_ context.Context, id string) (*model.CatalogLecture, error) {
	m.calls++
	if l, ok := m.lectures[id]; ok {
		cp := *l
		cp.Lecture = l.Lecture.Clone()
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogLectureRepo) GetByIdentity(_ context.Context, year, semester int, courseNumber, lectureNumber string) (*model.CatalogLecture, error) {
	m.calls++
	for _, l := range m.lectures {
		if l.Year == year && l.Semester == semester && l.CourseNumber == courseNumber && l.LectureNumber == lectureNumber {
			cp := *l
			cp.Lecture = l.Lecture.Clone()
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogLectureRepo) ListBySemester(_ context.Context, year, semester int) ([]model.CatalogLecture, error) {
	m.calls++
	var result []model.CatalogLecture
	for _, l := range m.lectures {
		if l.Year == year && l.Semester == semester {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseNumber < result[j].CourseNumber })
	return result, nil
}

func (m *mockCatalogLectureRepo) BatchCreate(_ context.Context, lectures []model.CatalogLecture) error {
	for i := range lectures {
		l := lectures[i]
		if l.LectureID == "" {
			l.LectureID = fmt.Sprintf("cat-%d", len(m.lectures)+1)
		}
		m.lectures[l.LectureID] = &l
	}
	return nil
}

// ── Mock CourseBookRepository ──

type mockCourseBookRepo struct {
	books []model.CourseBook
}

func newMockCourseBookRepo() *mockCourseBookRepo {
	return &mockCourseBookRepo{}
}

func (m *mockCourseBookRepo) GetRecent(_ context.Context) (*model.CourseBook, error) {
	if len(m.books) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	recent := m.books[0]
	for _, b := range m.books[1:] {
		if b.Year > recent.Year || (b.Year == recent.Year && b.Semester > recent.Semester) {
			recent = b
		}
	}
	return &recent, nil
}

func (m *mockCourseBookRepo) List(_ context.Context) ([]model.CourseBook, error) {
	return append([]model.CourseBook(nil), m.books...), nil
}

func (m *mockCourseBookRepo) Upsert(_ context.Context, book *model.CourseBook) error {
	for i := range m.books {
		if m.books[i].Year == book.Year && m.books[i].Semester == book.Semester {
			m.books[i] = *book
			return nil
		}
	}
	m.books = append(m.books, *book)
	return nil
}

// ── Mock TimetableChangeLogRepository ──

type mockChangeLogRepo struct {
	mu   sync.Mutex
	logs []model.TimetableChangeLog
	err  error
}

func newMockChangeLogRepo() *mockChangeLogRepo {
	return &mockChangeLogRepo{}
}

func (m *mockChangeLogRepo) Create(_ context.Context, log *model.TimetableChangeLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	log.ChangeLogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockChangeLogRepo) ListByTimetable(_ context.Context, timetableID string, offset, limit int) ([]model.TimetableChangeLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []model.TimetableChangeLog
	for _, l := range m.logs {
		if l.TimetableID == timetableID {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.TimetableChangeLog{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockChangeLogRepo) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		kinds = append(kinds, l.Kind)
	}
	return kinds
}

// ── 聚合 ──

type testRepos struct {
	timetable *mockTimetableRepo
	catalog   *mockCatalogLectureRepo
	books     *mockCourseBookRepo
	changes   *mockChangeLogRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	repos := &testRepos{
		timetable: newMockTimetableRepo(),
		catalog:   newMockCatalogLectureRepo(),
		books:     newMockCourseBookRepo(),
		changes:   newMockChangeLogRepo(),
	}
	return &repository.Repository{
		Timetable:          repos.timetable,
		CatalogLecture:     repos.catalog,
		CourseBook:         repos.books,
		TimetableChangeLog: repos.changes,
	}, repos
}

// ── Mock RandSource ──

// fixedRand 依次返回预设值（越界时取模）
type fixedRand struct {
	values []int
	calls  int
}

func (r *fixedRand) IntN(n int) int {
	v := 0
	if len(r.values) > 0 {
		v = r.values[r.calls%len(r.values)]
	}
	r.calls++
	return v % n
}
