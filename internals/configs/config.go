package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/engine"
	"absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/features/attendance/sessions/service"
	"absensiku_backend/internals/helpers/dbtime"

	"github.com/joho/godotenv"
)

var (
	JWTSecret string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	} else {
		log.Println("✅ JWT_SECRET berhasil dimuat.")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func GetEnvInt(key string, def int) (int, error) {
	v := GetEnv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q bukan angka", key, v)
	}
	return n, nil
}

func GetEnvFloat(key string, def float64) (float64, error) {
	v := GetEnv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q bukan angka", key, v)
	}
	return f, nil
}

func GetEnvBool(key string, def bool) bool {
	switch strings.ToLower(GetEnv(key)) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func GetEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := GetEnv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q bukan durasi (contoh 5m, 24h)", key, v)
	}
	return d, nil
}

// GetEnvList: "a, b,,c" → [a b c]
func GetEnvList(key string) []string {
	var out []string
	for _, p := range strings.Split(GetEnv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// =======================
// APP CONFIG
// =======================
type AppConfig struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseDSN    string
	DBAutoMigrate  bool
	DBSeed         bool
	SeedUsersFile  string
	Store          string // postgres | memory
	RedisURL       string
	CORSOrigins    []string
	SweepCron      string
	SweepEnabled   bool
	Policy         engine.Policy
	RecorderConfig service.RecorderConfig
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

func Load() (*AppConfig, error) {
	policy, err := LoadAttendancePolicy()
	if err != nil {
		return nil, err
	}
	rc, err := LoadRecorderConfig()
	if err != nil {
		return nil, err
	}

	store := strings.ToLower(GetEnv("ATTENDANCE_STORE", StorePostgres))
	if store != StorePostgres && store != StoreMemory {
		return nil, fmt.Errorf("ATTENDANCE_STORE: %q tidak dikenal (postgres|memory)", store)
	}

	cfg := &AppConfig{
		Port:           GetEnv("PORT", "3000"),
		Environment:    GetEnv("APP_ENV", "development"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		DatabaseDSN:    DatabaseDSN(),
		DBAutoMigrate:  GetEnvBool("DB_AUTO_MIGRATE", true),
		DBSeed:         GetEnvBool("DB_SEED", false),
		SeedUsersFile:  GetEnv("DB_SEED_USERS_FILE"),
		Store:          store,
		RedisURL:       GetEnv("REDIS_URL"),
		CORSOrigins:    GetEnvList("CORS_ALLOW_ORIGINS"),
		SweepCron:      GetEnv("ATTENDANCE_SWEEP_CRON", "*/15 * * * *"),
		SweepEnabled:   GetEnvBool("ATTENDANCE_SWEEP_ENABLED", true),
		Policy:         policy,
		RecorderConfig: rc,
	}
	return cfg, nil
}

// DatabaseDSN: DATABASE_URL kalau ada, selain itu dirakit dari DB_*.
func DatabaseDSN() string {
	if url := GetEnv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=absensiku",
		GetEnv("DB_USER"),
		GetEnv("DB_PASSWORD"),
		GetEnv("DB_HOST", "localhost"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_NAME"),
		GetEnv("DB_SSLMODE", "require"),
	)
}

// LoadAttendancePolicy membaca ATTENDANCE_* lalu memvalidasi.
// Policy tidak valid → startup gagal.
func LoadAttendancePolicy() (engine.Policy, error) {
	var p engine.Policy
	var err error

	tz := GetEnv("ATTENDANCE_TIMEZONE", "Asia/Jakarta")
	if p.Location, err = time.LoadLocation(tz); err != nil {
		return p, fmt.Errorf("ATTENDANCE_TIMEZONE: %w", err)
	}
	if p.GraceMinutes, err = GetEnvInt("ATTENDANCE_GRACE_MINUTES", 10); err != nil {
		return p, err
	}
	if p.ExpectedCheckIn, err = dbtime.Parse(GetEnv("ATTENDANCE_EXPECTED_CHECKIN", "09:00")); err != nil {
		return p, fmt.Errorf("ATTENDANCE_EXPECTED_CHECKIN: %w", err)
	}
	if p.MinFullDayHours, err = GetEnvFloat("ATTENDANCE_MIN_FULL_DAY_HOURS", 8); err != nil {
		return p, err
	}
	if p.OvertimeHours, err = GetEnvFloat("ATTENDANCE_OVERTIME_HOURS", 10); err != nil {
		return p, err
	}
	if p.SweepCutoff, err = dbtime.Parse(GetEnv("ATTENDANCE_SWEEP_CUTOFF", "23:59")); err != nil {
		return p, fmt.Errorf("ATTENDANCE_SWEEP_CUTOFF: %w", err)
	}
	for _, s := range GetEnvList("ATTENDANCE_LATE_EXEMPT_LOCATIONS") {
		wl, err := model.ParseWorkLocation(s)
		if err != nil {
			return p, fmt.Errorf("ATTENDANCE_LATE_EXEMPT_LOCATIONS: %w", err)
		}
		p.LateExemptLocations = append(p.LateExemptLocations, wl)
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("attendance policy: %w", err)
	}
	return p, nil
}

func LoadRecorderConfig() (service.RecorderConfig, error) {
	rc := service.DefaultRecorderConfig
	var err error
	if rc.MaxFutureSkew, err = GetEnvDuration("ATTENDANCE_MAX_FUTURE_SKEW", rc.MaxFutureSkew); err != nil {
		return rc, err
	}
	if rc.MaxBackdate, err = GetEnvDuration("ATTENDANCE_MAX_BACKDATE", rc.MaxBackdate); err != nil {
		return rc, err
	}
	if rc.MaxFutureSkew < 0 || rc.MaxBackdate < 0 {
		return rc, fmt.Errorf("ATTENDANCE_MAX_FUTURE_SKEW / ATTENDANCE_MAX_BACKDATE tidak boleh negatif")
	}
	return rc, nil
}
