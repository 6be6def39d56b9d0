package deployments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// Source is the backend the store reads from and mutates in live mode.
type Source interface {
	Deployments(ctx context.Context) ([]types.Deployment, error)
	CreateDeployment(ctx context.Context, spec types.DeploymentSpec) error
	DeleteDeployment(ctx context.Context, key types.DeploymentKey) error
	DeploymentLogs(ctx context.Context, key types.DeploymentKey) ([]string, error)
}

// Observer receives mutation outcomes and simulated transitions.
type Observer interface {
	ObserveMutation(operation, source string, err error)
	ObserveTransition()
}

// EventKind describes a store change.
type EventKind string

const (
	EventReplaced     EventKind = "replaced"
	EventCreated      EventKind = "created"
	EventDeleted      EventKind = "deleted"
	EventSelected     EventKind = "selected"
	EventTransitioned EventKind = "transitioned"
)

// Event is published after every change. Subscribers re-pull List and
// Selected on notification.
type Event struct {
	Kind EventKind           `json:"kind"`
	Key  types.DeploymentKey `json:"key,omitempty"`
}

// Options configures defaults applied to deploy specs.
type Options struct {
	DefaultNamespace string
	Observer         Observer
}

// Store is the in-memory collection of deployments with a selection
// pointer. All state is guarded by mu; subscribers are notified after the
// lock is released.
type Store struct {
	src       Source
	mode      mode.Reader
	lifecycle *Lifecycle
	opts      Options

	mu          sync.Mutex
	records     []types.Deployment
	selected    *types.DeploymentKey
	subscribers map[string]func(Event)
}

// NewStore creates an empty Store.
func NewStore(src Source, m mode.Reader, lc *Lifecycle, opts Options) *Store {
	if opts.DefaultNamespace == "" {
		opts.DefaultNamespace = "default"
	}
	return &Store{
		src:         src,
		mode:        m,
		lifecycle:   lc,
		opts:        opts,
		subscribers: make(map[string]func(Event)),
	}
}

// Subscribe registers fn for change events and returns a function that
// removes the registration.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := uuid.NewString()
	s.mu.Lock()
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) publish(ev Event) {
	s.mu.Lock()
	subs := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// List returns a copy of the records in display order.
func (s *Store) List() []types.Deployment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Deployment, len(s.records))
	copy(out, s.records)
	return out
}

// Selected returns the selected record, if any.
func (s *Store) Selected() (types.Deployment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return types.Deployment{}, false
	}
	if i := s.indexLocked(*s.selected); i >= 0 {
		return s.records[i], true
	}
	return types.Deployment{}, false
}

// Get returns the record identified by key.
func (s *Store) Get(key types.DeploymentKey) (types.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(key); i >= 0 {
		return s.records[i], nil
	}
	return types.Deployment{}, ErrNotFound
}

// Select points the selection at key. No I/O is performed.
func (s *Store) Select(key types.DeploymentKey) error {
	s.mu.Lock()
	if s.indexLocked(key) < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.selected = &key
	s.mu.Unlock()

	s.publish(Event{Kind: EventSelected, Key: key})
	return nil
}

// UpsertFromFetch replaces the whole collection. The selection follows its
// key into the new list, falls back to the first record when the key is
// gone, and is cleared when the list is empty. Every pending simulated
// transition is cancelled: the records they were scheduled for are gone,
// even when a fetched record shares their key.
func (s *Store) UpsertFromFetch(list []types.Deployment) {
	s.mu.Lock()
	s.records = make([]types.Deployment, len(list))
	copy(s.records, list)
	s.reselectLocked()
	dropped := s.lifecycle.detachExcept(nil)
	s.mu.Unlock()

	stopAll(dropped)
	if len(dropped) > 0 {
		slog.Debug("dropped simulated transitions for replaced deployments", "count", len(dropped))
	}
	s.publish(Event{Kind: EventReplaced})
}

// reselectLocked repoints the selection after the record set changed.
func (s *Store) reselectLocked() {
	if s.selected != nil && s.indexLocked(*s.selected) >= 0 {
		return
	}
	if len(s.records) == 0 {
		s.selected = nil
		return
	}
	first := s.records[0].Key()
	s.selected = &first
}

// Refresh fetches the current list through the source and replaces the
// collection. On failure the store is left untouched.
func (s *Store) Refresh(ctx context.Context) error {
	list, err := s.src.Deployments(ctx)
	if err != nil {
		return err
	}
	s.UpsertFromFetch(list)
	return nil
}

// Create deploys spec. In live mode the spec is sent to the backend and the
// list re-fetched; in mock mode a Creating record is prepended locally and
// a simulated transition to Running is scheduled.
func (s *Store) Create(ctx context.Context, spec types.DeploymentSpec) (types.Deployment, error) {
	spec, err := s.normalize(spec)
	if err != nil {
		return types.Deployment{}, err
	}

	if s.mode.UsesMockData() {
		return s.createMock(spec)
	}
	return s.createLive(ctx, spec)
}

// normalize validates spec and fills the form defaults.
func (s *Store) normalize(spec types.DeploymentSpec) (types.DeploymentSpec, error) {
	spec.Name = strings.TrimSpace(spec.Name)
	spec.ModelURI = strings.TrimSpace(spec.ModelURI)
	if spec.Name == "" {
		return spec, &ValidationFailed{Field: "name", Reason: "must not be empty"}
	}
	if spec.ModelURI == "" {
		return spec, &ValidationFailed{Field: "model_uri", Reason: "must not be empty"}
	}
	if spec.Namespace == "" {
		spec.Namespace = s.opts.DefaultNamespace
	}
	if spec.Framework == "" {
		spec.Framework = types.FrameworkTensorFlow
	}
	if !spec.Framework.Valid() {
		return spec, &ValidationFailed{Field: "framework", Reason: fmt.Sprintf("unsupported framework %q", spec.Framework)}
	}
	spec.Framework = types.Framework(strings.ToLower(string(spec.Framework)))
	if spec.Replicas == 0 {
		spec.Replicas = 1
	}
	if spec.Replicas < 0 {
		return spec, &ValidationFailed{Field: "replicas", Reason: "must be positive"}
	}
	if spec.Resources.CPU == "" {
		spec.Resources.CPU = "1"
	}
	if spec.Resources.Memory == "" {
		spec.Resources.Memory = "2Gi"
	}
	return spec, nil
}

func (s *Store) createMock(spec types.DeploymentSpec) (types.Deployment, error) {
	d := types.Deployment{
		Name:               spec.Name,
		Namespace:          spec.Namespace,
		ModelURI:           spec.ModelURI,
		Framework:          spec.Framework,
		Replicas:           spec.Replicas,
		Resources:          spec.Resources,
		ServiceAccountName: spec.ServiceAccountName,
		Status:             types.StatusCreating,
		Endpoint:           fmt.Sprintf("http://%s.%s.example.com/v1/models/%s", spec.Name, spec.Namespace, spec.Name),
		Created:            s.lifecycle.Now().UTC(),
		Traffic:            100,
		Version:            "1",
	}
	key := d.Key()

	s.mu.Lock()
	if s.indexLocked(key) >= 0 {
		s.mu.Unlock()
		err := &ValidationFailed{Field: "name", Reason: fmt.Sprintf("deployment %s already exists", key)}
		s.observeMutation(OpCreate, err)
		return types.Deployment{}, err
	}
	s.records = append([]types.Deployment{d}, s.records...)
	if s.selected == nil {
		s.selected = &key
	}
	entry, prev := s.lifecycle.register(key)
	s.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	s.lifecycle.arm(key, entry, func() { s.completeCreation(key) })
	s.observeMutation(OpCreate, nil)
	slog.Info("mock deployment created", "name", d.Name, "namespace", d.Namespace, "delay", s.lifecycle.Delay())
	s.publish(Event{Kind: EventCreated, Key: key})
	return d, nil
}

func (s *Store) createLive(ctx context.Context, spec types.DeploymentSpec) (types.Deployment, error) {
	if err := s.src.CreateDeployment(ctx, spec); err != nil {
		s.observeMutation(OpCreate, err)
		return types.Deployment{}, &MutationFailed{Operation: OpCreate, Cause: err}
	}
	s.observeMutation(OpCreate, nil)
	slog.Info("deployment created", "name", spec.Name, "namespace", spec.Namespace)

	key := types.DeploymentKey{Name: spec.Name, Namespace: spec.Namespace}
	if err := s.Refresh(ctx); err != nil {
		return types.Deployment{}, err
	}
	if d, err := s.Get(key); err == nil {
		return d, nil
	}
	// The backend accepted the spec but has not listed it yet.
	return types.Deployment{
		Name:               spec.Name,
		Namespace:          spec.Namespace,
		ModelURI:           spec.ModelURI,
		Framework:          spec.Framework,
		Replicas:           spec.Replicas,
		Resources:          spec.Resources,
		ServiceAccountName: spec.ServiceAccountName,
		Status:             types.StatusCreating,
	}, nil
}

// completeCreation flips a still-Creating record to Running. It is a no-op
// once the record is gone or no longer Creating. The mode is not consulted:
// a record created in mock mode must leave Creating even after a switch to
// live data whose fetch has not replaced it yet.
func (s *Store) completeCreation(key types.DeploymentKey) {
	s.mu.Lock()
	i := s.indexLocked(key)
	if i < 0 || s.records[i].Status != types.StatusCreating {
		s.mu.Unlock()
		return
	}
	s.records[i].Status = types.StatusRunning
	s.mu.Unlock()

	if s.opts.Observer != nil {
		s.opts.Observer.ObserveTransition()
	}
	slog.Info("mock deployment running", "name", key.Name, "namespace", key.Namespace)
	s.publish(Event{Kind: EventTransitioned, Key: key})
}

// Delete removes the deployment identified by key. In mock mode the record
// is dropped immediately and its pending transition cancelled; in live mode
// the backend delete is issued and the list re-fetched.
func (s *Store) Delete(ctx context.Context, key types.DeploymentKey) error {
	if key.Namespace == "" {
		key.Namespace = s.opts.DefaultNamespace
	}
	if s.mode.UsesMockData() {
		return s.deleteMock(key)
	}

	if err := s.src.DeleteDeployment(ctx, key); err != nil {
		s.observeMutation(OpDelete, err)
		return &MutationFailed{Operation: OpDelete, Cause: err}
	}
	s.observeMutation(OpDelete, nil)
	slog.Info("deployment deleted", "name", key.Name, "namespace", key.Namespace)
	return s.Refresh(ctx)
}

func (s *Store) deleteMock(key types.DeploymentKey) error {
	s.mu.Lock()
	i := s.indexLocked(key)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	s.reselectLocked()
	pending := s.lifecycle.detach(key)
	s.mu.Unlock()

	if pending != nil {
		pending.stop()
	}
	s.observeMutation(OpDelete, nil)
	slog.Info("mock deployment deleted", "name", key.Name, "namespace", key.Namespace)
	s.publish(Event{Kind: EventDeleted, Key: key})
	return nil
}

// Logs returns the log lines of the deployment identified by key: the
// canned transcript for its status in mock mode, the backend's lines
// verbatim in live mode.
func (s *Store) Logs(ctx context.Context, key types.DeploymentKey) ([]string, error) {
	if s.mode.UsesMockData() {
		d, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		return Transcript(d), nil
	}
	return s.src.DeploymentLogs(ctx, key)
}

// Close cancels every pending simulated transition.
func (s *Store) Close() {
	s.lifecycle.Stop()
}

func (s *Store) indexLocked(key types.DeploymentKey) int {
	for i := range s.records {
		if s.records[i].Name == key.Name && s.records[i].Namespace == key.Namespace {
			return i
		}
	}
	return -1
}

func (s *Store) observeMutation(op Operation, err error) {
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveMutation(string(op), string(mode.SourceOf(s.mode)), err)
	}
}
