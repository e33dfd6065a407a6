package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string `mapstructure:"appName" validate:"required"`
		Build        string `mapstructure:"build"`
		Env          string `mapstructure:"-"`
		Debug        bool   `mapstructure:"debug"`
		TestMode     bool   `mapstructure:"testMode"`
		RollbarToken string `mapstructure:"rollbarToken"`

		Gateway GatewayConfig `mapstructure:"gateway"`
		Console ConsoleConfig `mapstructure:"console"`
		Mail    MailConfig    `mapstructure:"mail"`
		Sandbox SandboxConfig `mapstructure:"sandbox"`
	}

	GatewayConfig struct {
		BaseURL string        `mapstructure:"baseURL" json:"gateway.baseURL" validate:"required,url"`
		Token   string        `mapstructure:"token"`
		Timeout time.Duration `mapstructure:"timeout" json:"gateway.timeout" validate:"gt=0"`
	}

	ConsoleConfig struct {
		PageSize int    `mapstructure:"pageSize" json:"console.pageSize" validate:"gt=0"`
		Operator string `mapstructure:"operator"`
	}

	MailConfig struct {
		From           string `mapstructure:"from" json:"mail.from" validate:"required,email"`
		SendgridAPIKey string `mapstructure:"sendgridApiKey"`
		ReportTo       string `mapstructure:"reportTo" json:"mail.reportTo" validate:"omitempty,email"` // mailed a digest of a session's failures
	}

	SandboxConfig struct {
		Address            string        `mapstructure:"address" json:"sandbox.address" validate:"required"`
		SecretKey          string        `mapstructure:"secretKey" json:"sandbox.secretKey" validate:"required"`
		JWTExpirationDelta time.Duration `mapstructure:"jwtExpirationDelta" json:"sandbox.jwtExpirationDelta" validate:"gt=0"`
		ShutdownTimeout    time.Duration `mapstructure:"shutdownTimeout"`
		SeedCount          int           `mapstructure:"seedCount" json:"sandbox.seedCount" validate:"gte=0"`
	}
)

// NewConfig loads the configuration of the current environment.
// ENV selects the environment: DEV (local; default), TEST, QA, PROD.
// Values come from defaults, then config/.env.<env> (if it exists), then <ENV>_* variables.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Masomo")
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("gateway.baseURL", "http://localhost:8000")
	v.SetDefault("gateway.token", "")
	v.SetDefault("gateway.timeout", 15*time.Second)
	v.SetDefault("console.pageSize", 10)
	v.SetDefault("console.operator", "")
	v.SetDefault("mail.from", "no-reply@masomo.app")
	v.SetDefault("mail.sendgridApiKey", "")
	v.SetDefault("mail.reportTo", "")
	v.SetDefault("sandbox.address", ":8000")
	v.SetDefault("sandbox.secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("sandbox.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("sandbox.shutdownTimeout", 5*time.Second)
	v.SetDefault("sandbox.seedCount", 25)

	env := strings.ToUpper(CleanString(os.Getenv("ENV")))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	conf.Env = env
	return conf, nil
}

// Validate checks that the loaded settings are usable.
func (conf *Config) Validate(validate *validator.Validate) error {
	return validate.Struct(conf)
}
