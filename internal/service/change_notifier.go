package service

import (
	"context"

	"go.uber.org/zap"

	"course-planner/internal/model"
	"course-planner/internal/repository"
)

// TimetableChange 一次已提交的条目变更
type TimetableChange struct {
	TimetableID string
	UserID      string
	EntryID     string
	Kind        string // model.ChangeKind*
}

// ChangeNotifier 条目变更通知。只在写入成功后调用，失败不影响已提交的修改。
type ChangeNotifier interface {
	Notify(ctx context.Context, change TimetableChange)
}

type changeLogNotifier struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewChangeLogNotifier 将变更写入 timetable_change_logs 并记录日志
func NewChangeLogNotifier(repo *repository.Repository, logger *zap.Logger) ChangeNotifier {
	return &changeLogNotifier{repo: repo, logger: logger}
}

func (n *changeLogNotifier) Notify(ctx context.Context, change TimetableChange) {
	fields := []zap.Field{
		zap.String("timetable_id", change.TimetableID),
		zap.String("user_id", change.UserID),
		zap.String("entry_id", change.EntryID),
		zap.String("kind", change.Kind),
	}

	entry := &model.TimetableChangeLog{
		TimetableID: change.TimetableID,
		UserID:      change.UserID,
		EntryID:     change.EntryID,
		Kind:        change.Kind,
	}
	if err := n.repo.TimetableChangeLog.Create(ctx, entry); err != nil {
		n.logger.Warn("记录时间表变更失败", append(fields, zap.Error(err))...)
		return
	}
	n.logger.Info("时间表条目变更", fields...)
}
