package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Browser BrowserConfig `mapstructure:"browser"`
	Tutor   TutorConfig   `mapstructure:"tutor"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
	// Origins allowed to reach the control API.
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
	ApiKey         string   `mapstructure:"apiKey"`
}

type BrowserConfig struct {
	ExecutablePath  string        `mapstructure:"executablePath"`
	Headless        bool          `mapstructure:"headless"`
	UserDataDir     string        `mapstructure:"userDataDir"`
	WindowWidth     int           `mapstructure:"windowWidth"`
	WindowHeight    int           `mapstructure:"windowHeight"`
	WaitTimeout     time.Duration `mapstructure:"waitTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	MaxSessions     int           `mapstructure:"maxSessions"`
}

// TutorConfig holds the target deployment and the per-role test accounts.
type TutorConfig struct {
	// ServerURL is the Tutor deployment under test, e.g. https://tutor-qa.openstax.org.
	ServerURL string      `mapstructure:"serverUrl"`
	Teacher   Credentials `mapstructure:"teacher"`
	Student   Credentials `mapstructure:"student"`
	Admin     Credentials `mapstructure:"admin"`
	Content   Credentials `mapstructure:"content"`
	Email     EmailConfig `mapstructure:"email"`
}

type Credentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// TOTPSecret enables the verification-code step at login when the
	// account has two-step sign-in turned on.
	TOTPSecret string `mapstructure:"totpSecret"`
}

// EmailConfig describes the shared inbox used for enrollment and
// notification checks during unattended runs.
type EmailConfig struct {
	Account  string `mapstructure:"account"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// Role names accepted by the control API and the env-var loader.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleAdmin   = "admin"
	RoleContent = "content"
)

// ParseRole normalizes a role name to one of the Role constants.
func ParseRole(role string) (string, error) {
	switch strings.ToLower(role) {
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleStudent:
		return RoleStudent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleContent, "content-qa", "contentqa":
		return RoleContent, nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

// ForRole returns the credentials configured for a role name.
func (t TutorConfig) ForRole(role string) (Credentials, error) {
	name, err := ParseRole(role)
	if err != nil {
		return Credentials{}, err
	}
	switch name {
	case RoleTeacher:
		return t.Teacher, nil
	case RoleStudent:
		return t.Student, nil
	case RoleAdmin:
		return t.Admin, nil
	default:
		return t.Content, nil
	}
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "15s")
	v.SetDefault("server.writeTimeout", "15s")
	v.SetDefault("server.idleTimeout", "60s")
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.apiKey", "")

	v.SetDefault("browser.executablePath", "") // auto-detect when empty
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.userDataDir", "") // empty means temporary profile
	v.SetDefault("browser.windowWidth", 1300)
	v.SetDefault("browser.windowHeight", 768)
	v.SetDefault("browser.waitTimeout", "15s")
	v.SetDefault("browser.shutdownTimeout", "10s")
	v.SetDefault("browser.maxSessions", 4)

	v.SetDefault("tutor.serverUrl", "https://tutor-qa.openstax.org")

	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.staxing")
		v.AddConfigPath("/etc/staxing")
	}

	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("STAXING")

	// The historical unattended-run variables keep their bare names so
	// existing CI environments keep working unchanged.
	bindings := map[string]string{
		"tutor.serverUrl":        "SERVER_URL",
		"tutor.teacher.username": "TEACHER_USER",
		"tutor.teacher.password": "TEACHER_PASSWORD",
		"tutor.student.username": "STUDENT_USER",
		"tutor.student.password": "STUDENT_PASSWORD",
		"tutor.admin.username":   "ADMIN_USER",
		"tutor.admin.password":   "ADMIN_PASSWORD",
		"tutor.content.username": "CONTENT_USER",
		"tutor.content.password": "CONTENT_PASSWORD",
		"tutor.email.account":    "TEST_EMAIL_ACCOUNT",
		"tutor.email.username":   "TEST_EMAIL_USER",
		"tutor.email.password":   "TEST_EMAIL_PASSWORD",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
