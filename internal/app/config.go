package app

import (
	"time"

	"github.com/fairwaylabs/swingsense-backend/internal/feedback"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/envutil"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/rubric"
	"github.com/fairwaylabs/swingsense-backend/internal/services"
)

type Config struct {
	Addr string

	AdminJWTSecret string

	FeedbackCooldown time.Duration
	FeedbackWindow   time.Duration

	AnalyzeTimeout time.Duration
	RubricTimeout  time.Duration

	JitterEnabled bool

	RedisAddr     string
	RedisPassword string

	BucketEnabled bool
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Addr:             ":" + envutil.Str("PORT", "8080"),
		AdminJWTSecret:   envutil.Str("ADMIN_JWT_SECRET", ""),
		FeedbackCooldown: envutil.Seconds("FEEDBACK_COOLDOWN_SECONDS", feedback.DefaultCooldown),
		FeedbackWindow:   envutil.Seconds("FEEDBACK_WINDOW_SECONDS", feedback.DefaultConfig().Window),
		AnalyzeTimeout:   envutil.Seconds("SCORE_ANALYZE_TIMEOUT_SECONDS", services.DefaultAnalyzeTimeout),
		RubricTimeout:    envutil.Seconds("RUBRIC_EXTRACT_TIMEOUT_SECONDS", rubric.DefaultTimeout),
		JitterEnabled:    envutil.Bool("SCORE_JITTER_ENABLED", true),
		RedisAddr:        envutil.Str("REDIS_ADDR", ""),
		RedisPassword:    envutil.Str("REDIS_PASSWORD", ""),
		BucketEnabled:    envutil.Str("SWING_GCS_BUCKET_NAME", "") != "",
	}
	if cfg.AdminJWTSecret == "" {
		log.Warn("ADMIN_JWT_SECRET not set; admin surface will reject all requests")
	}
	return cfg
}
