package repository

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no homework has the requested ID.
	ErrNotFound = errors.New("homework not found")
	// ErrInvalidHomework is returned when a required field is empty.
	ErrInvalidHomework = errors.New("homework subject and assignment are required")
)

// Repository stores homework.
type Repository interface {
	// Get is the get-by-id shortcut.
	Get(ctx context.Context, id string) (Homework, error)
	List(ctx context.Context) ([]Homework, error)
	Insert(ctx context.Context, homework Homework) (Homework, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes every homework expired at now and returns them.
	DeleteExpired(ctx context.Context, now time.Time) ([]Homework, error)
}

// Homework is a single assignment for a subject.
type Homework struct {
	ID             string     `json:"id"`
	Subject        string     `json:"subject"`
	Assignment     string     `json:"assignment"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// Validate checks required fields.
func (h Homework) Validate() error {
	if strings.TrimSpace(h.Subject) == "" || strings.TrimSpace(h.Assignment) == "" {
		return ErrInvalidHomework
	}
	return nil
}

// Expired reports whether the homework has an expiration date at or before now.
func (h Homework) Expired(now time.Time) bool {
	return h.ExpirationDate != nil && !h.ExpirationDate.After(now)
}

// SortHomeworks orders by expiration (soonest first, no expiration last),
// then by subject.
func SortHomeworks(homeworks []Homework) {
	sort.SliceStable(homeworks, func(i, j int) bool {
		a, b := homeworks[i].ExpirationDate, homeworks[j].ExpirationDate
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return homeworks[i].Subject < homeworks[j].Subject
	})
}

func newID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "unable to generate homework id")
	}
	return id.String(), nil
}

type jsonRepository struct {
	filename string

	lock sync.Mutex
}

// NewJSONRepository returns a Repository backed by a single JSON file.
func NewJSONRepository(filename string) (Repository, error) {
	return &jsonRepository{
		filename: filename,
	}, nil
}

func (r *jsonRepository) read() ([]Homework, error) {
	f, err := os.OpenFile(r.filename, os.O_RDONLY, 0775)
	if err != nil {
		if os.IsNotExist(err) {
			return []Homework{}, nil
		}
		return nil, errors.Wrap(err, "error opening repository file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading repository file")
	}
	if len(data) == 0 {
		return []Homework{}, nil
	}
	var out []Homework
	err = json.Unmarshal(data, &out)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding repository file")
	}

	return out, nil
}

func (r *jsonRepository) write(homeworks []Homework) error {
	f, err := os.OpenFile(r.filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0775)
	if err != nil {
		return errors.Wrap(err, "error opening repository file")
	}
	defer f.Close()

	data, err := json.Marshal(homeworks)
	if err != nil {
		return errors.Wrap(err, "error encoding repository file")
	}

	n, err := f.Write(data)
	if err != nil {
		return errors.Wrap(err, "error writing data to repository file")
	}
	if n != len(data) {
		return errors.Errorf("wrote less bytes (%d) than should (%d)", n, len(data))
	}

	return nil
}

func (r *jsonRepository) Get(_ context.Context, id string) (Homework, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	homeworks, err := r.read()
	if err != nil {
		return Homework{}, err
	}
	for _, homework := range homeworks {
		if homework.ID == id {
			return homework, nil
		}
	}
	return Homework{}, ErrNotFound
}

func (r *jsonRepository) List(_ context.Context) ([]Homework, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	homeworks, err := r.read()
	if err != nil {
		return nil, err
	}
	SortHomeworks(homeworks)
	return homeworks, nil
}

func (r *jsonRepository) Insert(_ context.Context, homework Homework) (Homework, error) {
	if err := homework.Validate(); err != nil {
		return Homework{}, err
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	homeworks, err := r.read()
	if err != nil {
		return Homework{}, errors.Wrap(err, "error reading current saved homework")
	}
	homework.ID, err = newID()
	if err != nil {
		return Homework{}, err
	}
	homeworks = append(homeworks, homework)
	if err := r.write(homeworks); err != nil {
		return Homework{}, err
	}
	return homework, nil
}

func (r *jsonRepository) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	homeworks, err := r.read()
	if err != nil {
		return errors.Wrap(err, "error reading current saved homework")
	}
	for i, homework := range homeworks {
		if homework.ID == id {
			homeworks = append(homeworks[:i], homeworks[i+1:]...)
			return r.write(homeworks)
		}
	}
	return ErrNotFound
}

func (r *jsonRepository) DeleteExpired(_ context.Context, now time.Time) ([]Homework, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	homeworks, err := r.read()
	if err != nil {
		return nil, errors.Wrap(err, "error reading current saved homework")
	}
	var keep, expired []Homework
	for _, homework := range homeworks {
		if homework.Expired(now) {
			expired = append(expired, homework)
			continue
		}
		keep = append(keep, homework)
	}
	if len(expired) == 0 {
		return nil, nil
	}
	if keep == nil {
		keep = []Homework{}
	}
	return expired, r.write(keep)
}
