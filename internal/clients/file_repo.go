package clients

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/kdudkov/geogate/pkg/model"
)

// FileRepository keeps the API clients from a yaml file and reloads them when the file is written.
type FileRepository struct {
	file    string
	logger  *slog.Logger
	clients map[string]*model.Client

	watcher *fsnotify.Watcher

	mx sync.RWMutex
}

func NewFileRepository(file string) *FileRepository {
	r := &FileRepository{
		logger:  slog.Default().With("logger", "clients"),
		file:    file,
		clients: make(map[string]*model.Client),
	}

	if err := r.load(); err != nil {
		r.logger.Error("error loading clients file", slog.Any("error", err))
	}

	if r.Count() == 0 {
		r.logger.Warn("no api clients in " + file + ", every request will be rejected")
	}

	return r
}

func (r *FileRepository) load() error {
	if _, err := os.Lstat(r.file); os.IsNotExist(err) {
		f, err := os.Create(r.file)
		if err != nil {
			return err
		}

		return f.Close()
	}

	clients, err := ReadFile(r.file)
	if err != nil {
		return err
	}

	m := make(map[string]*model.Client, len(clients))

	for _, c := range clients {
		if c.Login != "" {
			m[c.Login] = c
		}
	}

	r.mx.Lock()
	r.clients = m
	r.mx.Unlock()

	return nil
}

func (r *FileRepository) Start() error {
	var err error

	r.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := r.watcher.Add(r.file); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-r.watcher.Events:
				if !ok {
					return
				}

				r.logger.Debug(fmt.Sprintf("event: %v", event))

				if event.Has(fsnotify.Write) && event.Name == r.file {
					r.logger.Info("clients file is modified, reloading")

					if err := r.load(); err != nil {
						r.logger.Error("error", slog.Any("error", err))
					}
				}
			case err, ok := <-r.watcher.Errors:
				if !ok {
					return
				}

				r.logger.Error("error", slog.Any("error", err))
			}
		}
	}()

	return nil
}

func (r *FileRepository) Stop() {
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}

func (r *FileRepository) CheckAuth(login, password string) bool {
	r.mx.RLock()
	c, ok := r.clients[login]
	r.mx.RUnlock()

	return ok && c.CheckPassword(password)
}

func (r *FileRepository) Count() int {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return len(r.clients)
}

// ReadFile returns nil, nil when the file does not exist.
func ReadFile(fn string) ([]*model.Client, error) {
	dat, err := os.ReadFile(fn)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	clients := make([]*model.Client, 0)
	if err := yaml.Unmarshal(dat, &clients); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}

	return clients, nil
}

func WriteFile(fn string, clients []*model.Client) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}

	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	return enc.Encode(clients)
}

// Upsert sets the password of an existing client or appends a new one.
func Upsert(clients []*model.Client, login, password string) ([]*model.Client, error) {
	for _, c := range clients {
		if c.Login == login {
			return clients, c.SetPassword(password)
		}
	}

	c := &model.Client{Login: login}
	if err := c.SetPassword(password); err != nil {
		return clients, err
	}

	return append(clients, c), nil
}
