package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"系统管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host           string `env:"HOST" envDefault:"localhost"`
		Port           int    `env:"PORT" envDefault:"6379"`
		Password       string `env:"PASSWORD,required"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	// 劳动法硬约束，排班器生成的结果必须全部满足
	Labor struct {
		MaxHoursPerDay     float64 `env:"MAX_HOURS_PER_DAY" envDefault:"8"`
		MaxHoursPerWeek    float64 `env:"MAX_HOURS_PER_WEEK" envDefault:"40"`
		MinRestHours       float64 `env:"MIN_REST_HOURS" envDefault:"11"`
		MaxConsecutiveDays int     `env:"MAX_CONSECUTIVE_DAYS" envDefault:"6"`
	} `envPrefix:"LABOR_"`
	Shift struct {
		DefaultMinHeadcount int32 `env:"DEFAULT_MIN_HEADCOUNT" envDefault:"2"`
		DefaultMaxHeadcount int32 `env:"DEFAULT_MAX_HEADCOUNT" envDefault:"10"`
		HardMinHeadcount    bool  `env:"HARD_MIN_HEADCOUNT" envDefault:"false"`
		LookaheadDays       int   `env:"LOOKAHEAD_DAYS" envDefault:"14"`
	} `envPrefix:"SHIFT_"`
	Optimizer struct {
		SolveTimeout   int `env:"SOLVE_TIMEOUT" envDefault:"10"`
		LockExpiration int `env:"LOCK_EXPIRATION" envDefault:"60"`
	} `envPrefix:"OPTIMIZER_"`
	NewWorker struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_WORKER_"`
	Seed struct {
		Worker struct {
			Password    string `env:"PASSWORD,required"`
			EmailDomain string `env:"EMAIL_DOMAIN" envDefault:"example.com"`
		} `envPrefix:"WORKER_"`
	} `envPrefix:"SEED_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
	}

	return cfg, nil
}
