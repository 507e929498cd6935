package job

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sceneforge/internal/pkg/errors"
	"sceneforge/internal/pkg/logger"
)

// Store is the durable job record interface shared by the orchestrator, the
// HTTP layer and the reaper.
type Store interface {
	Put(j Job)
	Get(id string) (Job, error)
	Delete(id string)
	List() []Job
}

// FileStore keeps jobs in memory and mirrors every mutation to one JSON
// record per job on disk. Disk write failures are logged and do not fail the
// in-memory mutation.
type FileStore struct {
	dir string
	log *logger.Logger

	mu   sync.RWMutex
	jobs map[string]Job
}

func NewFileStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{
		dir:  dir,
		log:  log.WithComponent("jobstore"),
		jobs: make(map[string]Job),
	}
}

// LoadAll reads every persisted record into memory. Called once at startup
// before the service accepts work; unreadable records are logged and skipped.
func (s *FileStore) LoadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		j, err := s.readRecord(id)
		if err != nil {
			s.log.Error("skipping unreadable job record", "id", id, "error", err.Error())
			continue
		}
		s.jobs[id] = j
		loaded++
	}

	s.log.Info("loaded persisted jobs", "count", loaded)
	return nil
}

func (s *FileStore) Put(j Job) {
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()

	if err := s.writeRecord(j); err != nil {
		s.log.Error("failed to persist job record", "id", j.ID, "error", err.Error())
	}
}

// Get returns the job, lazily loading from disk on a memory miss before
// reporting not-found.
func (s *FileStore) Get(id string) (Job, error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if ok {
		return j, nil
	}

	j, err := s.readRecord(id)
	if err != nil {
		return Job{}, errors.NotFound("job", id)
	}

	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()

	s.log.Debug("loaded job record from disk on demand", "id", id)
	return j, nil
}

func (s *FileStore) Delete(id string) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()

	if err := os.Remove(s.recordPath(id)); err != nil && !os.IsNotExist(err) {
		s.log.Error("failed to remove job record", "id", id, "error", err.Error())
	}
}

func (s *FileStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) readRecord(id string) (Job, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		return Job{}, err
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, err
	}
	if j.ID == "" {
		j.ID = id
	}
	return j, nil
}

func (s *FileStore) writeRecord(j Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return err
	}
	tmp := s.recordPath(j.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.recordPath(j.ID))
}
