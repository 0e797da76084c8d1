package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend describes the compose service that hosts the application under
// management.
type Backend struct {
	// ComposeFile is the docker compose file used to resolve services.
	// Empty means compose picks it up from the working directory.
	ComposeFile string `yaml:"compose_file" json:"compose_file"`
	// Service is the compose service name of the backend container.
	Service string `yaml:"service" json:"service"`
	// WorkDir is the working directory inside the container where the
	// migration tool is invoked from.
	WorkDir string `yaml:"work_dir" json:"work_dir"`
	// MinDockerVersion is the lowest docker engine version the tool accepts.
	MinDockerVersion string `yaml:"min_docker_version" json:"min_docker_version"`
}

var defaultBackend = Backend{
	Service:          "backend",
	WorkDir:          "/app",
	MinDockerVersion: "20.10.0",
}

func (b *Backend) verify() error {
	if b == nil {
		return nil
	}
	if b.Service == "" {
		return errors.New("backend service name cannot be empty")
	}
	return nil
}

// Migrations locates the versioned migration files on both sides of the
// container boundary.
type Migrations struct {
	// HostVersionsDir is the host-side directory committed to version control.
	HostVersionsDir string `yaml:"host_versions_dir" json:"host_versions_dir"`
	// ContainerVersionsDir is the directory inside the backend container the
	// migration tool writes generated revisions to.
	ContainerVersionsDir string `yaml:"container_versions_dir" json:"container_versions_dir"`
}

var defaultMigrations = Migrations{
	HostVersionsDir:      filepath.Join("backend", "app", "alembic", "versions"),
	ContainerVersionsDir: "/app/app/alembic/versions",
}

func (m *Migrations) verify() error {
	if m == nil {
		return nil
	}
	if m.HostVersionsDir == "" {
		return errors.New("host versions directory cannot be empty")
	}
	if m.ContainerVersionsDir == "" {
		return errors.New("container versions directory cannot be empty")
	}
	return nil
}

// Database holds the connection settings used for the readiness wait.
// Values left empty are filled from the backend's .env file (POSTGRES_* keys).
type Database struct {
	// Service is the compose service name of the database container; its
	// docker health status gates the readiness wait. Empty skips the gate.
	Service  string `yaml:"service" json:"service"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Name     string `yaml:"name" json:"name"`
	// WaitInterval is the delay between readiness probes.
	WaitInterval time.Duration `yaml:"wait_interval" json:"wait_interval"`
	// WaitTimeout bounds the whole readiness wait. The original CI workflow
	// polled forever; a bounded wait turns a hung database into an error.
	WaitTimeout time.Duration `yaml:"wait_timeout" json:"wait_timeout"`
}

var defaultDatabase = Database{
	Service:      "db",
	Host:         "localhost",
	Port:         5432,
	WaitInterval: time.Second,
	WaitTimeout:  2 * time.Minute,
}

func (d *Database) verify() error {
	if d == nil {
		return nil
	}
	if d.WaitInterval <= 0 {
		return errors.New("database wait interval must be positive")
	}
	if d.WaitTimeout <= 0 {
		return errors.New("database wait timeout must be positive")
	}
	return nil
}

// DSN renders a lib/pq connection string.
func (d *Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

type Log struct {
	OutPutFolder string `yaml:"out_put_folder" json:"out_put_folder"`
	SaveEveryLog bool   `yaml:"save_every_log" json:"save_every_log"`
}

var defaultLog = Log{
	OutPutFolder: "",
	SaveEveryLog: false,
}

type Notify struct {
	Email Email `yaml:"email" json:"email"`
}

type Email struct {
	Enable         bool   `yaml:"enable" json:"enable"`
	SMTPHost       string `yaml:"smtpHost" json:"smtpHost"`
	SMTPPort       int    `yaml:"smtpPort" json:"smtpPort"`
	SenderEmail    string `yaml:"senderEmail" json:"senderEmail"`
	SenderPassword string `yaml:"senderPassword" json:"senderPassword"`
	RecipientEmail string `yaml:"recipientEmail" json:"recipientEmail"`
}

func (e *Email) verify() error {
	if e == nil || !e.Enable {
		return nil
	}
	if e.SMTPHost == "" || e.SMTPPort == 0 {
		return errors.New("email notification requires smtpHost and smtpPort")
	}
	if e.SenderEmail == "" || e.RecipientEmail == "" {
		return errors.New("email notification requires senderEmail and recipientEmail")
	}
	return nil
}

type Sentry struct {
	Enable bool `yaml:"enable" json:"enable"`
}

// State configures the local sqlite audit database.
type State struct {
	// DBPath is the sqlite file recording tool runs and the revision ledger.
	DBPath string `yaml:"db_path" json:"db_path"`
}

var defaultState = State{
	DBPath: filepath.Join(".sashakt", "ops.db"),
}

type Config struct {
	File string `yaml:"-" json:"-"`

	Debug      bool       `yaml:"debug" json:"debug"`
	Backend    Backend    `yaml:"backend" json:"backend"`
	Migrations Migrations `yaml:"migrations" json:"migrations"`
	Database   Database   `yaml:"database" json:"database"`
	Log        Log        `yaml:"log" json:"log"`
	Notify     Notify     `yaml:"notify" json:"notify"`
	Sentry     Sentry     `yaml:"sentry" json:"sentry"`
	State      State      `yaml:"state" json:"state"`
}

// NewConfig returns a config populated with defaults only.
func NewConfig() *Config {
	return &Config{
		Backend:    defaultBackend,
		Migrations: defaultMigrations,
		Database:   defaultDatabase,
		Log:        defaultLog,
		State:      defaultState,
	}
}

// NewConfigWithFile loads a yaml config file on top of the defaults.
func NewConfigWithFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config := NewConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	config.File = path
	return config, nil
}

// LoadEnv overlays database settings from a dotenv file. The backend keeps
// its PostgreSQL settings in .env, so the tool reads the same source of truth
// instead of duplicating credentials in its own config.
// A missing file is not an error; explicit yaml values win over .env values.
func (c *Config) LoadEnv(path string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	if c.Database.Host == defaultDatabase.Host || c.Database.Host == "" {
		if v, ok := env["POSTGRES_SERVER"]; ok && v != "" {
			c.Database.Host = v
		}
	}
	if c.Database.Port == defaultDatabase.Port || c.Database.Port == 0 {
		if v, ok := env["POSTGRES_PORT"]; ok && v != "" {
			var port int
			if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
				c.Database.Port = port
			}
		}
	}
	if c.Database.User == "" {
		c.Database.User = env["POSTGRES_USER"]
	}
	if c.Database.Password == "" {
		c.Database.Password = env["POSTGRES_PASSWORD"]
	}
	if c.Database.Name == "" {
		c.Database.Name = env["POSTGRES_DB"]
	}
	return nil
}

// Verify checks the whole config. It is called once after loading; commands
// rely on a verified config and do not re-validate.
func (c *Config) Verify() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Backend.verify(); err != nil {
		return err
	}
	if err := c.Migrations.verify(); err != nil {
		return err
	}
	if err := c.Database.verify(); err != nil {
		return err
	}
	if err := c.Notify.Email.verify(); err != nil {
		return err
	}
	if c.Log.OutPutFolder != "" {
		info, err := os.Stat(c.Log.OutPutFolder)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("log output folder does not exist: %s", c.Log.OutPutFolder)
		}
	}
	if c.State.DBPath == "" {
		return errors.New("state db path cannot be empty")
	}
	return nil
}
