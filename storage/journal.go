package storage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	log "github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/bin3/toyml/model"
)

const (
	KindIteration  = "iteration"
	KindCheckpoint = "checkpoint"

	headerKey = "header"
)

var (
	ErrNoRun       = errors.New("storage: journal run not started")
	ErrRunNotFound = errors.New("storage: journal run not found")
)

// RunHeader describes one training run.
type RunHeader struct {
	Run          string            `json:"run"`
	Model        string            `json:"model"`
	Started      time.Time         `json:"started"`
	Fingerprints map[string]uint32 `json:"fingerprints"`
	Options      model.Options     `json:"options"`
}

// Entry is one journal record: an EM step or Gibbs sweep, or a
// checkpoint write.
type Entry struct {
	Run           string    `json:"run"`
	Kind          string    `json:"kind"`
	Model         string    `json:"model"`
	Iteration     int       `json:"iteration"`
	LogLikelihood float64   `json:"log_likelihood,omitempty"`
	Delta         float64   `json:"delta,omitempty"`
	DurationMs    float64   `json:"duration_ms,omitempty"`
	Suffix        string    `json:"suffix,omitempty"`
	OK            bool      `json:"ok"`
	Error         string    `json:"error,omitempty"`
	Time          time.Time `json:"time"`
}

// Journal records training progress into a Storage. It implements
// model.Observer; write failures are logged and kept for Err.
type Journal struct {
	db Storage

	mu          sync.Mutex
	run         string
	checkpoints int
	err         error
}

var _ model.Observer = (*Journal)(nil)

// OpenJournal opens the journal at path with the given storage engine.
func OpenJournal(path, engine string) (*Journal, error) {
	db, err := OpenStorage(path, engine)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return NewJournal(db), nil
}

func NewJournal(db Storage) *Journal {
	return &Journal{db: db}
}

func runKey(run string, parts ...string) []byte {
	return []byte(run + "/" + strings.Join(parts, "/"))
}

func seqKey(run, kind string, seq int) []byte {
	return runKey(run, kind, fmt.Sprintf("%010d", seq))
}

// Begin starts a new run and stores its header. Later callbacks are
// recorded under the returned run id.
func (j *Journal) Begin(modelName string, opts model.Options, fingerprints map[string]uint32) (string, error) {
	header := RunHeader{
		Run:          uuid.New().String(),
		Model:        modelName,
		Started:      time.Now(),
		Fingerprints: fingerprints,
		Options:      opts,
	}
	value, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	if err := j.db.Set(runKey(header.Run, headerKey), value); err != nil {
		return "", fmt.Errorf("write run header: %w", err)
	}

	j.mu.Lock()
	j.run = header.Run
	j.checkpoints = 0
	j.mu.Unlock()
	log.Infof("journal run %s started for %s", header.Run, modelName)
	return header.Run, nil
}

func (j *Journal) OnIteration(stat model.IterationStat) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.put(KindIteration, stat.Iteration, Entry{
		Kind:          KindIteration,
		Model:         stat.Model,
		Iteration:     stat.Iteration,
		LogLikelihood: stat.LogLikelihood,
		Delta:         stat.Delta,
		DurationMs:    float64(stat.Duration) / float64(time.Millisecond),
		OK:            true,
	})
}

func (j *Journal) OnCheckpoint(stat model.CheckpointStat) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e := Entry{
		Kind:   KindCheckpoint,
		Model:  stat.Model,
		Suffix: stat.Suffix,
		OK:     stat.Err == nil,
	}
	if stat.Err != nil {
		e.Error = stat.Err.Error()
	}
	j.put(KindCheckpoint, j.checkpoints, e)
	j.checkpoints += 1
}

// put must be called with mu held.
func (j *Journal) put(kind string, seq int, e Entry) {
	if j.run == "" {
		j.fail(ErrNoRun)
		return
	}
	e.Run = j.run
	e.Time = time.Now()
	value, err := json.Marshal(e)
	if err != nil {
		j.fail(fmt.Errorf("encode %s entry: %w", kind, err))
		return
	}
	if err := j.db.Set(seqKey(j.run, kind, seq), value); err != nil {
		j.fail(fmt.Errorf("write %s entry: %w", kind, err))
	}
}

func (j *Journal) fail(err error) {
	log.Errorf("journal: %v", err)
	j.err = err
}

// Err returns the last write failure.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Journal) Header(run string) (RunHeader, error) {
	var header RunHeader
	value, err := j.db.Get(runKey(run, headerKey))
	if err != nil {
		return header, err
	}
	if value == nil {
		return header, fmt.Errorf("%w: %s", ErrRunNotFound, run)
	}
	err = json.Unmarshal(value, &header)
	return header, err
}

// Runs lists the headers of every recorded run in key order.
func (j *Journal) Runs() ([]RunHeader, error) {
	suffix := []byte("/" + headerKey)
	var headers []RunHeader
	err := j.db.ForEach(func(k, v []byte) error {
		if !bytes.HasSuffix(k, suffix) {
			return nil
		}
		var header RunHeader
		if err := json.Unmarshal(v, &header); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		headers = append(headers, header)
		return nil
	})
	return headers, err
}

// Entries returns the records of run in key order: checkpoints first,
// then iterations, each in the order they were written.
func (j *Journal) Entries(run string) ([]Entry, error) {
	prefix := []byte(run + "/")
	header := runKey(run, headerKey)
	var entries []Entry
	err := j.db.ForEach(func(k, v []byte) error {
		if !bytes.HasPrefix(k, prefix) || bytes.Equal(k, header) {
			return nil
		}
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

func (j *Journal) Close() error {
	return j.db.Close()
}
