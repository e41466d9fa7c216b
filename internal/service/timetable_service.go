package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-planner/config"
	"course-planner/internal/dto"
	"course-planner/internal/model"
	"course-planner/internal/repository"
	pkgerrors "course-planner/pkg/errors"
)

// ── 时间表模块业务错误 ──

var (
	// 校验类
	ErrInvalidTimeMask         = model.ErrInvalidTimeMask
	ErrNoLectureTitle          = errors.New("课程名称不能为空")
	ErrNotCustomLecture        = errors.New("自定义课程不能携带课程号或分班号")
	ErrAttemptToModifyIdentity = errors.New("不允许修改课程号或分班号")
	ErrInvalidColor            = errors.New("课程颜色无效")
	ErrTimetableParamsMissing  = errors.New("学年、学期与标题均不能为空")

	// 冲突类
	ErrLectureTimeOverlap      = errors.New("上课时间与已有课程冲突")
	ErrDuplicateLecture        = errors.New("时间表中已存在该课程")
	ErrDuplicateTimetableTitle = errors.New("同一学期已存在同名时间表")
	ErrWrongSemester           = errors.New("课程与时间表不属于同一学期")
	ErrIsCustomLecture         = errors.New("自定义课程无法与目录同步")

	// 不存在
	ErrTimetableNotFound = errors.New("时间表不存在")
	ErrLectureNotFound   = errors.New("课程条目不存在")

	// 并发与重试
	ErrConcurrentModification   = errors.New("时间表正在被修改，请稍后重试")
	ErrTitleGenerationExhausted = errors.New("无法生成不重复的时间表标题")
)

// ── TimetableService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 所有写操作按 "加锁(时间表 ID) → 读取 → 计算新值 → 按版本号条件写入" 执行，
//     版本冲突时重读重算，最多 MaxWriteRetries 次。
//   - 计算阶段只修改读取结果的深拷贝，任何校验失败都不会产生部分写入。
//   - 所有操作按 userID 隔离，他人的时间表视为不存在。
//   - 条目变更在写入成功后通知 ChangeNotifier。
// ─────────────────────────────────────────────────────────────

// TimetableService 时间表模块业务接口
type TimetableService interface {
	// Create 创建空时间表
	Create(ctx context.Context, userID string, req *dto.CreateTimetableRequest) (*dto.TimetableResponse, error)
	// CreateDefault 按最新课程手册创建默认时间表
	CreateDefault(ctx context.Context, userID string) (*dto.TimetableResponse, error)
	// Get 获取时间表
	Get(ctx context.Context, userID, timetableID string) (*dto.TimetableResponse, error)
	// ListByUser 列出用户全部时间表摘要
	ListByUser(ctx context.Context, userID string) ([]dto.TimetableSummaryResponse, error)
	// ListBySemester 列出用户某学期的时间表
	ListBySemester(ctx context.Context, userID string, year, semester int) ([]dto.TimetableResponse, error)
	// GetRecent 最近修改的时间表
	GetRecent(ctx context.Context, userID string) (*dto.TimetableResponse, error)
	// Rename 修改标题
	Rename(ctx context.Context, userID, timetableID, title string) (*dto.TimetableResponse, error)
	// Copy 复制时间表，标题自动追加 " (n)"
	Copy(ctx context.Context, userID, timetableID string) (*dto.TimetableResponse, error)
	// Delete 删除时间表
	Delete(ctx context.Context, userID, timetableID string) error

	// AddFromCatalog 从目录添加课程
	AddFromCatalog(ctx context.Context, userID, timetableID, catalogLectureID string) (*dto.TimetableResponse, error)
	// AddCustom 添加自定义课程
	AddCustom(ctx context.Context, userID, timetableID string, req *dto.CreateCustomLectureRequest) (*dto.TimetableResponse, error)
	// ImportICS 从 iCalendar 导入自定义课程（全部成功或全部失败）
	ImportICS(ctx context.Context, userID, timetableID string, reader io.Reader) (*dto.ImportICSResponse, error)
	// UpdateEntry 部分更新课程条目
	UpdateEntry(ctx context.Context, userID, timetableID, entryID string, req *dto.UpdateLectureRequest) (*dto.TimetableResponse, error)
	// ResetEntry 将目录课程条目同步为目录当前值
	ResetEntry(ctx context.Context, userID, timetableID, entryID string) (*dto.TimetableResponse, error)
	// DeleteEntry 删除课程条目
	DeleteEntry(ctx context.Context, userID, timetableID, entryID string) (*dto.TimetableResponse, error)
	// FindEntryID 按课程号 + 分班号查找条目 ID
	FindEntryID(ctx context.Context, userID, timetableID, courseNumber, lectureNumber string) (string, error)

	// ListChanges 条目变更记录（分页）
	ListChanges(ctx context.Context, userID, timetableID string, page *dto.PaginationRequest) ([]dto.ChangeLogResponse, int64, error)
}

type timetableService struct {
	repo     *repository.Repository
	catalog  CatalogGateway
	colors   *ColorAllocator
	locker   Locker
	notifier ChangeNotifier
	cfg      config.EngineConfig
	icsLoc   *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(
	repo *repository.Repository,
	catalog CatalogGateway,
	colors *ColorAllocator,
	locker Locker,
	notifier ChangeNotifier,
	cfg config.EngineConfig,
	icsLoc *time.Location,
	logger *zap.Logger,
) TimetableService {
	if icsLoc == nil {
		icsLoc = time.UTC
	}
	return &timetableService{
		repo:     repo,
		catalog:  catalog,
		colors:   colors,
		locker:   locker,
		notifier: notifier,
		cfg:      cfg,
		icsLoc:   icsLoc,
		now:      time.Now,
		logger:   logger,
	}
}

// ═══════════════════════════════════════════════════════════
// 读写骨架
// ═══════════════════════════════════════════════════════════

// mutation 在时间表副本上计算新值，返回是否需要写入
type mutation func(tt *model.Timetable) (bool, error)

// mutate 加锁后执行 读取 → 计算 → 条件写入，版本冲突时重试
func (s *timetableService) mutate(ctx context.Context, userID, timetableID string, fn mutation) (*model.Timetable, bool, error) {
	unlock, err := s.locker.Lock(ctx, "timetable:"+timetableID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			return nil, false, ErrConcurrentModification
		}
		return nil, false, err
	}
	defer unlock()

	for attempt := 0; attempt <= s.cfg.MaxWriteRetries; attempt++ {
		current, err := s.loadTimetable(ctx, userID, timetableID)
		if err != nil {
			return nil, false, err
		}

		next := current.Clone()
		changed, err := fn(next)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return current, false, nil
		}

		next.UpdatedAt = s.now()
		err = s.repo.Timetable.ConditionalReplace(ctx, next)
		switch {
		case err == nil:
			return next, true, nil
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			s.logger.Warn("时间表版本冲突，重试写入",
				zap.String("timetable_id", timetableID),
				zap.Int("attempt", attempt+1),
			)
			continue
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, false, ErrDuplicateTimetableTitle
		default:
			s.logger.Error("写入时间表失败", zap.String("timetable_id", timetableID), zap.Error(err))
			return nil, false, fmt.Errorf("写入时间表失败: %w", err)
		}
	}

	s.logger.Warn("时间表写入重试耗尽", zap.String("timetable_id", timetableID))
	return nil, false, ErrConcurrentModification
}

// loadTimetable 读取用户拥有的时间表
func (s *timetableService) loadTimetable(ctx context.Context, userID, timetableID string) (*model.Timetable, error) {
	tt, err := s.repo.Timetable.GetByID(ctx, userID, timetableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, fmt.Errorf("查询时间表失败: %w", err)
	}
	return tt, nil
}

func (s *timetableService) notify(ctx context.Context, tt *model.Timetable, entryID, kind string) {
	s.notifier.Notify(ctx, TimetableChange{
		TimetableID: tt.TimetableID,
		UserID:      tt.UserID,
		EntryID:     entryID,
		Kind:        kind,
	})
}

// ═══════════════════════════════════════════════════════════
// 时间表生命周期
// ═══════════════════════════════════════════════════════════

func (s *timetableService) Create(ctx context.Context, userID string, req *dto.CreateTimetableRequest) (*dto.TimetableResponse, error) {
	title := strings.TrimSpace(req.Title)
	if req.Year <= 0 || !model.ValidSemester(req.Semester) || title == "" {
		return nil, ErrTimetableParamsMissing
	}
	tt, err := s.insertTimetable(ctx, &model.Timetable{
		UserID:   userID,
		Year:     req.Year,
		Semester: req.Semester,
		Title:    title,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewTimetableResponse(tt), nil
}

func (s *timetableService) CreateDefault(ctx context.Context, userID string) (*dto.TimetableResponse, error) {
	book, err := s.catalog.RecentCourseBook(ctx)
	if err != nil {
		return nil, err
	}
	tt, err := s.insertTimetable(ctx, &model.Timetable{
		UserID:   userID,
		Year:     book.Year,
		Semester: book.Semester,
		Title:    fmt.Sprintf("%d-%s", book.Year, model.SemesterLabel(book.Semester)),
	})
	if err != nil {
		return nil, err
	}
	return dto.NewTimetableResponse(tt), nil
}

// insertTimetable 检查标题唯一后插入；唯一索引兜底并发创建
func (s *timetableService) insertTimetable(ctx context.Context, tt *model.Timetable) (*model.Timetable, error) {
	if _, err := s.repo.Timetable.GetByTitle(ctx, tt.UserID, tt.Year, tt.Semester, tt.Title); err == nil {
		return nil, ErrDuplicateTimetableTitle
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询时间表失败: %w", err)
	}

	now := s.now()
	tt.CreatedAt = now
	tt.UpdatedAt = now
	if err := s.repo.Timetable.Create(ctx, tt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateTimetableTitle
		}
		s.logger.Error("创建时间表失败", zap.String("user_id", tt.UserID), zap.Error(err))
		return nil, fmt.Errorf("创建时间表失败: %w", err)
	}
	return tt, nil
}

func (s *timetableService) Get(ctx context.Context, userID, timetableID string) (*dto.TimetableResponse, error) {
	tt, err := s.loadTimetable(ctx, userID, timetableID)
	if err != nil {
		return nil, err
	}
	return dto.NewTimetableResponse(tt), nil
}

func (s *timetableService) ListByUser(ctx context.Context, userID string) ([]dto.TimetableSummaryResponse, error) {
	list, err := s.repo.Timetable.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询时间表列表失败: %w", err)
	}
	items := make([]dto.TimetableSummaryResponse, 0, len(list))
	for i := range list {
		items = append(items, dto.NewTimetableSummaryResponse(&list[i]))
	}
	return items, nil
}

func (s *timetableService) ListBySemester(ctx context.Context, userID string, year, semester int) ([]dto.TimetableResponse, error) {
	list, err := s.repo.Timetable.ListByUserAndSemester(ctx, userID, year, semester)
	if err != nil {
		return nil, fmt.Errorf("查询时间表列表失败: %w", err)
	}
	items := make([]dto.TimetableResponse, 0, len(list))
	for i := range list {
		items = append(items, *dto.NewTimetableResponse(&list[i]))
	}
	return items, nil
}

func (s *timetableService) GetRecent(ctx context.Context, userID string) (*dto.TimetableResponse, error) {
	tt, err := s.repo.Timetable.GetRecent(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, fmt.Errorf("查询时间表失败: %w", err)
	}
	return dto.NewTimetableResponse(tt), nil
}

func (s *timetableService) Rename(ctx context.Context, userID, timetableID, title string) (*dto.TimetableResponse, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTimetableParamsMissing
	}

	tt, _, err := s.mutate(ctx, userID, timetableID, func(tt *model.Timetable) (bool, error) {
		if tt.Title == title {
			return false, nil
		}
		_, err := s.repo.Timetable.GetByTitle(ctx, userID, tt.Year, tt.Semester, title)
		if err == nil {
			return false, ErrDuplicateTimetableTitle
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("查询时间表失败: %w", err)
		}
		tt.Title = title
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewTimetableResponse(tt), nil
}

// copySuffix 匹配 "标题 (n)"
var copySuffix = regexp.MustCompile(`^(.*) \((\d+)\)$`)

func (s *timetableService) Copy(ctx context.Context, userID, timetableID string) (*dto.TimetableResponse, error) {
	src, err := s.loadTimetable(ctx, userID, timetableID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.repo.Timetable.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询时间表列表失败: %w", err)
	}
	taken := make(map[string]bool)
	for i := range siblings {
		if siblings[i].Year == src.Year && siblings[i].Semester == src.Semester {
			taken[siblings[i].Title] = true
		}
	}

	// 复制 "Fall (1)" 时，若 "Fall" 仍存在则继续编号为 "Fall (2)"
	base := src.Title
	if m := copySuffix.FindStringSubmatch(src.Title); m != nil && taken[m[1]] {
		base = m[1]
	}

	entries := src.Clone().LectureList
	for n := 1; n <= s.cfg.MaxCopyAttempts; n++ {
		title := copyTitle(base, n)
		if taken[title] {
			continue
		}
		created, err := s.insertTimetable(ctx, &model.Timetable{
			UserID:      userID,
			Year:        src.Year,
			Semester:    src.Semester,
			Title:       title,
			LectureList: entries,
		})
		if errors.Is(err, ErrDuplicateTimetableTitle) {
			taken[title] = true
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("复制时间表",
			zap.String("source_id", src.TimetableID),
			zap.String("timetable_id", created.TimetableID),
			zap.String("title", title),
		)
		return dto.NewTimetableResponse(created), nil
	}
	return nil, ErrTitleGenerationExhausted
}

// copyTitle "base (n)"，base 按字符截断以保证总长不超过 MaxTitleLength
func copyTitle(base string, n int) string {
	suffix := " (" + strconv.Itoa(n) + ")"
	limit := model.MaxTitleLength - utf8.RuneCountInString(suffix)
	if utf8.RuneCountInString(base) > limit {
		base = string([]rune(base)[:limit])
	}
	return base + suffix
}

func (s *timetableService) Delete(ctx context.Context, userID, timetableID string) error {
	unlock, err := s.locker.Lock(ctx, "timetable:"+timetableID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			return ErrConcurrentModification
		}
		return err
	}
	defer unlock()

	if err := s.repo.Timetable.Delete(ctx, userID, timetableID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimetableNotFound
		}
		s.logger.Error("删除时间表失败", zap.String("timetable_id", timetableID), zap.Error(err))
		return fmt.Errorf("删除时间表失败: %w", err)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// 课程条目
// ═══════════════════════════════════════════════════════════

func (s *timetableService) AddFromCatalog(ctx context.Context, userID, timetableID, catalogLectureID string) (*dto.TimetableResponse, error) {
	ref, err := s.catalog.GetEntry(ctx, catalogLectureID)
	if err != nil {
		return nil, err
	}
	entryID := uuid.NewString()

	tt, _, err := s.mutate(ctx, userID, timetableID, func(tt *model.Timetable) (bool, error) {
		if ref.Year != tt.Year || ref.Semester != tt.Semester {
			return false, ErrWrongSemester
		}
		entry := model.NewEntryFromCatalog(ref)
		entry.EntryID = entryID
		if err := entry.SetTimeMask(); err != nil {
			return false, err
		}
		entry.ColorIndex = s.colors.PickColor(tt.LectureList)
		return true, s.appendEntry(tt, &entry)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tt, entryID, model.ChangeKindAdded)
	return dto.NewTimetableResponse(tt), nil
}

func (s *timetableService) AddCustom(ctx context.Context, userID, timetableID string, req *dto.CreateCustomLectureRequest) (*dto.TimetableResponse, error) {
	entry := req.ToEntry()
	if err := s.prepareCustom(&entry); err != nil {
		return nil, err
	}
	entry.EntryID = uuid.NewString()

	tt, _, err := s.mutate(ctx, userID, timetableID, func(tt *model.Timetable) (bool, error) {
		candidate := entry.Clone()
		if candidate.Color == nil && candidate.ColorIndex == 0 {
			candidate.ColorIndex = s.colors.PickColor(tt.LectureList)
		}
		return true, s.appendEntry(tt, &candidate)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tt, entry.EntryID, model.ChangeKindAdded)
	return dto.NewTimetableResponse(tt), nil
}

func (s *timetableService) ImportICS(ctx context.Context, userID, timetableID string, reader io.Reader) (*dto.ImportICSResponse, error) {
	entries, err := ParseICSLectures(reader, s.icsLoc)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if err := s.prepareCustom(&entries[i]); err != nil {
			return nil, err
		}
		entries[i].EntryID = uuid.NewString()
	}

	tt, _, err := s.mutate(ctx, userID, timetableID, func(tt *model.Timetable) (bool, error) {
		for i := range entries {
			candidate := entries[i].Clone()
			candidate.ColorIndex = s.colors.PickColor(tt.LectureList)
			if err := s.appendEntry(tt, &candidate); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	for i := range entries {
		s.notify(ctx, tt, entries[i].EntryID, model.ChangeKindAdded)
	}
	return &dto.ImportICSResponse{
		Imported:  len(entries),
		Timetable: dto.NewTimetableResponse(tt),
	}, nil
}

// prepareCustom 自定义课程的写入前校验（与时间表状态无关的部分）
func (s *timetableService) prepareCustom(entry *model.TimetableEntry) error {
	if err := entry.SetSubmittedTimeMask(); err != nil {
		return err
	}
	if strings.TrimSpace(entry.CourseTitle) == "" {
		return ErrNoLectureTitle
	}
	if !entry.IsCustom() {
		return ErrNotCustomLecture
	}
	return nil
}

// appendEntry 重复 → 冲突 → 颜色 依次校验后追加
func (s *timetableService) appendEntry(tt *model.Timetable, entry *model.TimetableEntry) error {
	if tt.HasDuplicate(entry) {
		return ErrDuplicateLecture
	}
	if tt.Conflicts(entry.Mask(), entry.EntryID) {
		return ErrLectureTimeOverlap
	}
	if !entry.ColorValid(s.colors.NumColors()) {
		return ErrInvalidColor
	}
	now := s.now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	tt.LectureList = append(tt.LectureList, *entry)
	return nil
}

func (s *timetableService) UpdateEntry(ctx context.Context, userID, timetableID, entryID string, req *dto.UpdateLectureRequest) (*dto.TimetableResponse, error) {
	patch := req.ToPatch()
	tt, changed, err := s.mutate(ctx, userID, timetableID, func(tt *model.Timetable) (bool, error) {
		return s.applyPatch(tt, entryID, patch)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.notify(ctx, tt, entryID, model.ChangeKindUpdated)
	}
	return dto.NewTimetableResponse(tt), nil
}

func (s *timetableService) ResetEntry(ctx context.Context, userID, timetableID, entryID string) (*dto.TimetableResponse, error) {
	var ref *model.CatalogLecture
	tt, changed, err := s.mutate(ctx, userID, timetableID, func(tt *model.Timetable) (bool, error) {
		idx := tt.IndexOfEntry(entryID)
		if idx < 0 {
			return false, ErrLectureNotFound
		}
		entry := &tt.LectureList[idx]
		if entry.IsCustom() {
			return false, ErrIsCustomLecture
		}
		if ref == nil {
			found, err := s.catalog.FindEntryFresh(ctx, tt.Year, tt.Semester, entry.CourseNumber, entry.LectureNumber)
			if err != nil {
				return false, err
			}
			ref = found
		}
		return s.applyPatch(tt, entryID, model.PatchFromCatalog(ref))
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.notify(ctx, tt, entryID, model.ChangeKindUpdated)
	}
	return dto.NewTimetableResponse(tt), nil
}

// applyPatch 校验并合并补丁，返回条目是否变化
func (s *timetableService) applyPatch(tt *model.Timetable, entryID string, patch model.LecturePatch) (bool, error) {
	idx := tt.IndexOfEntry(entryID)
	if idx < 0 {
		return false, ErrLectureNotFound
	}
	if patch.TouchesIdentity() {
		return false, ErrAttemptToModifyIdentity
	}
	if patch.CourseTitle != nil && strings.TrimSpace(*patch.CourseTitle) == "" {
		return false, ErrNoLectureTitle
	}
	if patch.ClassTimeJSON != nil {
		mask, err := model.ComputeTimeMask(*patch.ClassTimeJSON)
		if err != nil {
			return false, err
		}
		if tt.Conflicts(mask, entryID) {
			return false, ErrLectureTimeOverlap
		}
	}

	entry := &tt.LectureList[idx]
	if patch.TouchesColor() {
		candidate := entry.Clone()
		if patch.Color != nil {
			color := *patch.Color
			candidate.Color = &color
		}
		if patch.ColorIndex != nil {
			candidate.ColorIndex = *patch.ColorIndex
		}
		if !candidate.ColorValid(s.colors.NumColors()) {
			return false, ErrInvalidColor
		}
	}

	changed, err := entry.Apply(patch)
	if err != nil {
		return false, err
	}
	if changed {
		entry.UpdatedAt = s.now()
	}
	return changed, nil
}

func (s *timetableService) DeleteEntry(ctx context.Context, userID, timetableID, entryID string) (*dto.TimetableResponse, error) {
	tt, _, err := s.mutate(ctx, userID, timetableID, func(tt *model.Timetable) (bool, error) {
		idx := tt.IndexOfEntry(entryID)
		if idx < 0 {
			return false, ErrLectureNotFound
		}
		tt.LectureList = append(tt.LectureList[:idx], tt.LectureList[idx+1:]...)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tt, entryID, model.ChangeKindRemoved)
	return dto.NewTimetableResponse(tt), nil
}

func (s *timetableService) FindEntryID(ctx context.Context, userID, timetableID, courseNumber, lectureNumber string) (string, error) {
	tt, err := s.loadTimetable(ctx, userID, timetableID)
	if err != nil {
		return "", err
	}
	entry := tt.FindEntryByIdentity(courseNumber, lectureNumber)
	if entry == nil {
		return "", ErrLectureNotFound
	}
	return entry.EntryID, nil
}

// ═══════════════════════════════════════════════════════════
// 变更记录
// ═══════════════════════════════════════════════════════════

func (s *timetableService) ListChanges(ctx context.Context, userID, timetableID string, page *dto.PaginationRequest) ([]dto.ChangeLogResponse, int64, error) {
	if _, err := s.loadTimetable(ctx, userID, timetableID); err != nil {
		return nil, 0, err
	}
	logs, total, err := s.repo.TimetableChangeLog.ListByTimetable(ctx, timetableID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, fmt.Errorf("查询变更记录失败: %w", err)
	}
	items := make([]dto.ChangeLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, dto.ChangeLogResponse{
			ID:          l.ChangeLogID,
			TimetableID: l.TimetableID,
			EntryID:     l.EntryID,
			Kind:        l.Kind,
			CreatedAt:   l.CreatedAt,
		})
	}
	return items, total, nil
}
