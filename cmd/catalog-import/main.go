package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"course-planner/config"
	"course-planner/internal/repository"
	"course-planner/internal/service"
	"course-planner/pkg/database"
	applogger "course-planner/pkg/logger"
	"course-planner/pkg/redis"
)

var (
	configFlag   string
	fileFlag     string
	yearFlag     int
	semesterFlag int
	dryRunFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "catalog-import",
	Short: "import a course book spreadsheet into the lecture catalog",
	Long: `Reads an .xlsx course book (first row is the header) and writes its lectures
into catalog_lectures for the given year and semester. Lectures that already
exist for that semester are skipped; the course book is registered either way.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "config file path (default ./config/config.yaml)")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "course book .xlsx file")
	rootCmd.Flags().IntVarP(&yearFlag, "year", "y", 0, "academic year, e.g. 2024")
	rootCmd.Flags().IntVarP(&semesterFlag, "semester", "s", 0, "semester: 1=spring 2=summer 3=fall 4=winter")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "parse and validate only")
	rootCmd.MarkFlagRequired("file")
	rootCmd.MarkFlagRequired("year")
	rootCmd.MarkFlagRequired("semester")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := os.Open(fileFlag)
	if err != nil {
		return fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()

	// 解析阶段不需要数据库
	rows, err := service.NewCatalogImporter(nil, nil, logger).ParseCatalogFile(f)
	if err != nil {
		return err
	}
	logger.Info("课程手册解析完成", zap.String("file", fileFlag), zap.Int("rows", len(rows)))
	if dryRunFlag {
		return nil
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	if sqlDB, _ := db.DB(); sqlDB != nil {
		defer sqlDB.Close()
	}
	if err := database.RunMigrations(db, cfg.Database.Driver, logger); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	// 服务端的目录缓存需在导入后失效；Redis 不可用时仅告警
	var cache service.JSONCache
	if rdb, err := redis.NewClient(&cfg.Redis, logger); err != nil {
		logger.Warn("Redis 连接失败，跳过目录缓存失效", zap.Error(err))
	} else {
		defer rdb.Close()
		cache = rdb
	}

	importer := service.NewCatalogImporter(repository.NewRepository(db), cache, logger)
	resp, err := importer.Import(ctx, yearFlag, semesterFlag, rows)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
