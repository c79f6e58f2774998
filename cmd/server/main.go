package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/affiliate-engine/internal/app"
	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiCyan   = "\033[36m"
	ansiYellow = "\033[33m"

	minSecretLength = 32
)

var weakSecretMarkers = []string{"change-me", "change-in-production", "your-secret-key", "secret123"}

func main() {
	modeFlag := flag.String("mode", app.ModeAll, "run mode: all | api | worker")
	flag.Parse()

	mode, err := app.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	printBanner(mode)

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if err := checkSecrets(cfg); err != nil {
		stdLog.Fatalf("密钥检查失败: %v", err)
	}
	if err := prepareDatabase(cfg); err != nil {
		stdLog.Fatalf("数据库准备失败: %v", err)
	}
	if cfg.Server.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

// checkSecrets 生产模式下拒绝弱密钥，其余模式仅告警
func checkSecrets(cfg *config.Config) error {
	secrets := map[string]string{
		"jwt.secret":               cfg.JWT.SecretKey,
		"user_jwt.secret":          cfg.UserJWT.SecretKey,
		"affiliate.session_secret": cfg.Affiliate.SessionSecret,
		"webhook.secret":           cfg.Webhook.Secret,
	}
	var weak []string
	for name, secret := range secrets {
		if isWeakSecret(secret) {
			weak = append(weak, name)
		}
	}
	if len(weak) == 0 {
		return nil
	}
	sort.Strings(weak)
	if cfg.Server.IsRelease() {
		return fmt.Errorf("weak secrets in release mode: %s", strings.Join(weak, ", "))
	}
	logger.Warnw("config_weak_secrets", "keys", weak)
	return nil
}

// prepareDatabase 连接、迁移并在空库时创建默认管理员
func prepareDatabase(cfg *config.Config) error {
	if err := models.InitDB(cfg.Database.ToDBOptions()); err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return err
	}

	username := os.Getenv("AFF_DEFAULT_ADMIN_USERNAME")
	password := os.Getenv("AFF_DEFAULT_ADMIN_PASSWORD")
	if cfg.Server.IsRelease() && password == "" {
		logger.Warnw("default_admin_skipped", "reason", "AFF_DEFAULT_ADMIN_PASSWORD not set")
		return nil
	}
	if _, err := models.EnsureDefaultAdmin(models.DB, username, password); err != nil {
		return errors.Join(errors.New("create default admin"), err)
	}
	return nil
}

func isWeakSecret(secret string) bool {
	if len(secret) < minSecretLength {
		return true
	}
	lowered := strings.ToLower(secret)
	for _, marker := range weakSecretMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func printBanner(mode string) {
	fmt.Println(ansiCyan + ansiBold + "affiliate-engine" + ansiReset + " · clicks · referrals · commissions · payouts")
	fmt.Println(ansiYellow + "mode: " + mode + ansiReset)
}
