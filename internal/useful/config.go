package useful

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/usefulapp/useful/internal/calendar"
)

type config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		BaseURL string `yaml:"base-url"`
	} `yaml:"server"`

	Auth struct {
		Users map[string]*user `yaml:"users"`
	} `yaml:"auth"`

	Calendar struct {
		FirstDayOfWeek *weekdayField  `yaml:"first-day-of-week"`
		Locale         *localeField   `yaml:"locale"`
		Timezone       *timezoneField `yaml:"timezone"`
		Events         []string       `yaml:"events"`
	} `yaml:"calendar"`

	Lifestyle struct {
		ItemsFile string `yaml:"items-file"`
	} `yaml:"lifestyle"`

	// directory relative data file paths are resolved against
	baseDir string `yaml:"-"`
}

type user struct {
	PasswordHashString string `yaml:"password-hash"`
	PasswordHash       []byte `yaml:"-"`
}

func newConfig() *config {
	c := &config{}
	c.Server.Port = 8080

	return c
}

func newConfigFromYAML(contents []byte) (*config, error) {
	c := newConfig()

	if err := yaml.Unmarshal(contents, c); err != nil {
		return nil, err
	}

	if err := isConfigStateValid(c); err != nil {
		return nil, err
	}

	for _, u := range c.Auth.Users {
		u.PasswordHash = []byte(u.PasswordHashString)
	}

	return c, nil
}

func parseConfigFile(path string) (*config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	c, err := newConfigFromYAML(contents)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	c.baseDir = filepath.Dir(absPath)

	return c, nil
}

func isConfigStateValid(c *config) error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	for username, u := range c.Auth.Users {
		if username == "" {
			return errors.New("user with empty name")
		}

		if u == nil || u.PasswordHashString == "" {
			return fmt.Errorf("user %s has no password-hash", username)
		}

		if _, err := bcrypt.Cost([]byte(u.PasswordHashString)); err != nil {
			return fmt.Errorf("user %s: password-hash is not a bcrypt hash: %v", username, err)
		}
	}

	for i, path := range c.Calendar.Events {
		if path == "" {
			return fmt.Errorf("calendar event source %d has an empty path", i+1)
		}
	}

	return nil
}

// firstWeekday prefers an explicit first-day-of-week over the locale's convention.
func (c *config) firstWeekday() time.Weekday {
	if c.Calendar.FirstDayOfWeek != nil {
		return time.Weekday(*c.Calendar.FirstDayOfWeek)
	}

	if c.Calendar.Locale != nil {
		return calendar.FirstWeekdayForLocale(c.Calendar.Locale.Tag)
	}

	return time.Monday
}

// location is resolved once here and handed to the calendar builder, which
// never reads the process zone on its own.
func (c *config) location() *time.Location {
	if c.Calendar.Timezone != nil && c.Calendar.Timezone.Location != nil {
		return c.Calendar.Timezone.Location
	}

	return time.Local
}

func (c *config) resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}

	return filepath.Join(c.baseDir, path)
}

// watchConfigFile calls onChange with every successfully parsed revision of
// the file. The directory is watched so editors that replace the file on save
// are picked up too.
func watchConfigFile(configPath string, onChange func(*config)) (func() error, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching config directory: %w", err)
	}

	const debounce = 300 * time.Millisecond

	// mu guards pending and stopped; reloads run while holding it so that a
	// closed watcher never calls onChange again.
	var mu sync.Mutex
	var pending *time.Timer
	var stopped bool

	reload := func() {
		mu.Lock()
		defer mu.Unlock()

		if stopped {
			return
		}

		c, err := parseConfigFile(absPath)
		if err != nil {
			slog.Error("Failed to reload config, keeping the previous one", "error", err)
			return
		}

		onChange(c)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != absPath {
					continue
				}

				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				mu.Lock()
				if pending != nil {
					pending.Stop()
				}

				if !stopped {
					pending = time.AfterFunc(debounce, reload)
				}
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				slog.Error("Config watcher error", "error", err)
			}
		}
	}()

	stop := func() error {
		mu.Lock()
		stopped = true
		if pending != nil {
			pending.Stop()
		}
		mu.Unlock()

		return watcher.Close()
	}

	return stop, nil
}
