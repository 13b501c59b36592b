package repository

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// BBoltRepository is a Repository that must be closed.
type BBoltRepository interface {
	Repository
	io.Closer
}

type bboltRepository struct {
	db *bolt.DB
}

var homeworksBucket = []byte("homeworks")

// NewBBoltRepository opens (or creates) the bbolt database file.
func NewBBoltRepository(databaseFile string) (BBoltRepository, error) {
	db, err := bolt.Open(databaseFile, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open DB file: %s", databaseFile)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(homeworksBucket)
		if err != nil {
			return errors.Wrap(err, "unable to create homeworks bucket")
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.WithStack(err)
	}

	return &bboltRepository{
		db: db,
	}, nil
}

func (r *bboltRepository) Close() error {
	return r.db.Close()
}

func (r *bboltRepository) Get(_ context.Context, id string) (Homework, error) {
	var homework Homework
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(homeworksBucket)

		data := b.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		err := json.Unmarshal(data, &homework)
		if err != nil {
			return errors.Wrapf(err, "error unmarshaling homework: %s", string(data))
		}

		return nil
	})

	return homework, err
}

func (r *bboltRepository) List(_ context.Context) ([]Homework, error) {
	out := []Homework{}

	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(homeworksBucket)

		return b.ForEach(func(k, v []byte) error {
			var homework Homework
			err := json.Unmarshal(v, &homework)
			if err != nil {
				return errors.Wrapf(err, "unable to unmarshal homework: %s", string(k))
			}
			out = append(out, homework)

			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "error reading repository")
	}

	SortHomeworks(out)
	return out, nil
}

func (r *bboltRepository) Insert(_ context.Context, homework Homework) (Homework, error) {
	if err := homework.Validate(); err != nil {
		return Homework{}, err
	}
	id, err := newID()
	if err != nil {
		return Homework{}, err
	}
	homework.ID = id

	err = r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(homeworksBucket)
		data, err := json.Marshal(&homework)
		if err != nil {
			return errors.Wrapf(err, "unable to marshal homework: %+v", homework)
		}
		err = b.Put([]byte(homework.ID), data)
		if err != nil {
			return errors.Wrapf(err, "unable to Put homework: %+v", homework)
		}
		return nil
	})
	if err != nil {
		return Homework{}, errors.Wrap(err, "unable to insert homework")
	}
	return homework, nil
}

func (r *bboltRepository) Delete(_ context.Context, id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(homeworksBucket)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		err := b.Delete([]byte(id))
		if err != nil {
			return errors.Wrapf(err, "unable to delete homework: %s", id)
		}
		return nil
	})
}

func (r *bboltRepository) DeleteExpired(_ context.Context, now time.Time) ([]Homework, error) {
	var expired []Homework

	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(homeworksBucket)

		// Keys are collected first, deleting inside ForEach is not allowed.
		var deleteKeys [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var homework Homework
			err := json.Unmarshal(v, &homework)
			if err != nil {
				return errors.Wrapf(err, "unable to unmarshal homework: %s", string(k))
			}
			if homework.Expired(now) {
				expired = append(expired, homework)
				deleteKeys = append(deleteKeys, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, deleteKey := range deleteKeys {
			err := b.Delete(deleteKey)
			if err != nil {
				return errors.Wrapf(err, "unable to delete: %s", string(deleteKey))
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to delete expired homework")
	}
	return expired, nil
}
