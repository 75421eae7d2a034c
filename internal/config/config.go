// internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// StoreConfig は永続化ストアの種類 (memory / gorm / redis)
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type ContentConfig struct {
	QuestionBankPath string `mapstructure:"question_bank_path"`
}

// ExamConfig は認定試験のルール
type ExamConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	PassingScore  int           `mapstructure:"passing_score"`
	ValidityYears int           `mapstructure:"validity_years"`
	TimeLimit     time.Duration `mapstructure:"time_limit"`
	QuestionCount int           `mapstructure:"question_count"`
	PassBonusXP   int           `mapstructure:"pass_bonus_xp"`
}

// EngineConfig は進捗・認定エンジンのルール
type EngineConfig struct {
	DailyQuestionCount int        `mapstructure:"daily_question_count"`
	XPPerCorrectAnswer int        `mapstructure:"xp_per_correct_answer"`
	StreakRewards      []int      `mapstructure:"streak_rewards"`
	Timezone           string     `mapstructure:"timezone"`
	Exam               ExamConfig `mapstructure:"exam"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Content  ContentConfig  `mapstructure:"content"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

var Cfg Config

func LoadConfig(path string) error {
	// .env があれば環境変数として読み込む (無くてもエラーにしない)
	if err := godotenv.Load(); err == nil {
		log.Println(".env file loaded")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("auth.enabled", "AUTH_ENABLED")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("redis.addr", "REDIS_ADDR")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	if !viper.IsSet("auth.enabled") {
		log.Println("Auth enabled flag not set, defaulting to true (enabled)")
		Cfg.Auth.Enabled = true
	}
	Cfg.ApplyDefaults()

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Store Driver: %s", Cfg.Store.Driver)
	log.Printf("Auth Enabled: %t", Cfg.Auth.Enabled)
	log.Printf("Exam: max_attempts=%d passing_score=%d", Cfg.Engine.Exam.MaxAttempts, Cfg.Engine.Exam.PassingScore)

	return nil
}

// ApplyDefaults は未設定・不正な値をデフォルト値で埋めます。
// テストでは LoadConfig を通さずに直接呼び出せます。
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		log.Printf("Server port not set, using default '%s'", DefaultServerPort)
		c.Server.Port = DefaultServerPort
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultStoreDriver
	}
	// ロックは保持中に延長されるため、TTL はプロセス停止時にロックが残る時間の上限になる
	if c.Redis.LockTTL <= 0 {
		c.Redis.LockTTL = DefaultRedisLockTTL
	} else if c.Redis.LockTTL < MinRedisLockTTL {
		log.Printf("Redis lock_ttl %s is too short, using %s", c.Redis.LockTTL, MinRedisLockTTL)
		c.Redis.LockTTL = MinRedisLockTTL
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Store.Driver == StoreDriverGorm && c.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}

	e := &c.Engine
	if e.DailyQuestionCount <= 0 {
		e.DailyQuestionCount = DefaultDailyQuestionCount
	}
	if e.XPPerCorrectAnswer < 0 || (e.XPPerCorrectAnswer == 0 && !viper.IsSet("engine.xp_per_correct_answer")) {
		e.XPPerCorrectAnswer = DefaultXPPerCorrectAnswer
	}
	if e.StreakRewards == nil {
		e.StreakRewards = append([]int(nil), DefaultStreakRewards...)
	}
	if e.Timezone == "" {
		e.Timezone = DefaultTimezone
	}
	if e.Exam.MaxAttempts <= 0 {
		e.Exam.MaxAttempts = DefaultExamMaxAttempts
	}
	if e.Exam.PassingScore <= 0 || e.Exam.PassingScore > 100 {
		e.Exam.PassingScore = DefaultExamPassingScore
	}
	if e.Exam.ValidityYears <= 0 {
		e.Exam.ValidityYears = DefaultExamValidityYears
	}
	if e.Exam.TimeLimit < 0 {
		e.Exam.TimeLimit = 0
	} else if e.Exam.TimeLimit == 0 && !viper.IsSet("engine.exam.time_limit") {
		e.Exam.TimeLimit = DefaultExamTimeLimit
	}
	if e.Exam.QuestionCount <= 0 {
		e.Exam.QuestionCount = DefaultExamQuestionCount
	}
	if e.Exam.PassBonusXP < 0 || (e.Exam.PassBonusXP == 0 && !viper.IsSet("engine.exam.pass_bonus_xp")) {
		e.Exam.PassBonusXP = DefaultExamPassBonusXP
	}
}

// Location は「今日」を決めるタイムゾーンを返します。不正な値は UTC。
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to UTC", c.Engine.Timezone)
		return time.UTC
	}
	return loc
}
