// Package store is the process-wide key/value store shared by the listing
// context and the job contexts: form status, pagination state, the running
// flag and the selected résumé.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go-autoapply/internal/models"
)

var ErrNotFound = errors.New("store: key not found")

// Store holds string values under string keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	KeyCurrentJob    = "currentJobInfo"
	KeyCurrentResume = "currentResumeId"
)

// Keys are the per-site record names.
type Keys struct {
	FormStatus string
	RunState   string
	Running    string
}

func KeysFor(site models.Site) Keys {
	prefix := string(site)
	return Keys{
		FormStatus: prefix + "FormStatus",
		RunState:   prefix + "PaginationState",
		Running:    prefix + "AutoApplyRunning",
	}
}

// GetJSON decodes the value under key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// State wraps a Store with the typed records of one site.
type State struct {
	Store Store
	Keys  Keys
}

func NewState(s Store, site models.Site) *State {
	return &State{Store: s, Keys: KeysFor(site)}
}

// FormStatus returns the last status written by a job context. ok is false
// when no status is present.
func (st *State) FormStatus(ctx context.Context) (models.FormStatus, bool, error) {
	var fs models.FormStatus
	err := GetJSON(ctx, st.Store, st.Keys.FormStatus, &fs)
	if errors.Is(err, ErrNotFound) {
		return fs, false, nil
	}
	return fs, err == nil, err
}

func (st *State) SetFormStatus(ctx context.Context, fs models.FormStatus) error {
	return SetJSON(ctx, st.Store, st.Keys.FormStatus, fs)
}

func (st *State) ClearFormStatus(ctx context.Context) error {
	return st.Store.Delete(ctx, st.Keys.FormStatus)
}

func (st *State) RunState(ctx context.Context) (models.RunState, bool, error) {
	var rs models.RunState
	err := GetJSON(ctx, st.Store, st.Keys.RunState, &rs)
	if errors.Is(err, ErrNotFound) {
		return rs, false, nil
	}
	return rs, err == nil, err
}

func (st *State) SetRunState(ctx context.Context, rs models.RunState) error {
	return SetJSON(ctx, st.Store, st.Keys.RunState, rs)
}

func (st *State) ClearRunState(ctx context.Context) error {
	return st.Store.Delete(ctx, st.Keys.RunState)
}

func (st *State) Running(ctx context.Context) (bool, error) {
	var running bool
	err := GetJSON(ctx, st.Store, st.Keys.Running, &running)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return running, err
}

func (st *State) SetRunning(ctx context.Context, running bool) error {
	return SetJSON(ctx, st.Store, st.Keys.Running, running)
}

func (st *State) SetCurrentJob(ctx context.Context, job models.JobDescriptor) error {
	return SetJSON(ctx, st.Store, KeyCurrentJob, job)
}

func (st *State) CurrentJob(ctx context.Context) (models.JobDescriptor, error) {
	var job models.JobDescriptor
	err := GetJSON(ctx, st.Store, KeyCurrentJob, &job)
	return job, err
}

// ResumeID returns the selected résumé, or "" when none is selected.
func (st *State) ResumeID(ctx context.Context) (string, error) {
	id, err := st.Store.Get(ctx, KeyCurrentResume)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return id, err
}

func (st *State) SetResumeID(ctx context.Context, id string) error {
	return st.Store.Set(ctx, KeyCurrentResume, id)
}
