// Package resources binds the review API's read operations to cache keys
// and keeps them consistent after mutations.
package resources

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justifica/datacache"
	"github.com/justifica/datacache/internal/remote"
)

// API is the subset of the remote client the resources use.
type API interface {
	JustificationStats(ctx context.Context) (remote.JustificationStats, error)
	Justifications(ctx context.Context) ([]remote.Justification, error)
	StudentStats(ctx context.Context) (remote.StudentStats, error)
	Students(ctx context.Context, q remote.StudentQuery) ([]remote.Student, error)
	CreateStudent(ctx context.Context, s remote.NewStudent) error
	UpdateStudent(ctx context.Context, id int, s remote.NewStudent) error
	DeleteStudent(ctx context.Context, id int) error
	RestoreStudent(ctx context.Context, id int) error
	ImportStudents(ctx context.Context, students []remote.NewStudent) error
	ApproveJustification(ctx context.Context, id, adminID int) error
	RejectJustification(ctx context.Context, id, adminID int) error
}

var _ API = (*remote.Client)(nil)

// Set holds the typed resources of the review client.
type Set struct {
	Dashboard      *datacache.Resource[Dashboard]
	Students       *datacache.Resource[[]remote.Student]
	Justifications *datacache.Resource[[]remote.Justification]

	store  *datacache.Store
	api    API
	logger *zap.Logger
}

// New binds the dashboard, students and justifications keys of store to
// api. The resource options apply to all three resources.
func New(store *datacache.Store, api API, logger *zap.Logger, opts ...datacache.ResourceOption) (*Set, error) {
	if store == nil {
		return nil, errors.New("resources: nil store")
	}
	if api == nil {
		return nil, errors.New("resources: nil API")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dashboard, err := datacache.NewResource(store, datacache.KeyDashboard, fetchDashboard(api), opts...)
	if err != nil {
		return nil, fmt.Errorf("binding dashboard: %w", err)
	}
	students, err := datacache.NewResource(store, datacache.KeyStudents, func(ctx context.Context) ([]remote.Student, error) {
		return api.Students(ctx, remote.StudentQuery{IncludeInactive: true})
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("binding students: %w", err)
	}
	justifications, err := datacache.NewResource(store, datacache.KeyJustifications, api.Justifications, opts...)
	if err != nil {
		return nil, fmt.Errorf("binding justifications: %w", err)
	}

	return &Set{
		Dashboard:      dashboard,
		Students:       students,
		Justifications: justifications,
		store:          store,
		api:            api,
		logger:         logger.Named("resources"),
	}, nil
}

// fetchDashboard issues the three dashboard calls concurrently.
func fetchDashboard(api API) datacache.Fetcher[Dashboard] {
	return func(ctx context.Context) (Dashboard, error) {
		var (
			js  remote.JustificationStats
			all []remote.Justification
			ss  remote.StudentStats
		)
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			js, err = api.JustificationStats(ctx)
			return err
		})
		g.Go(func() (err error) {
			all, err = api.Justifications(ctx)
			return err
		})
		g.Go(func() (err error) {
			ss, err = api.StudentStats(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return Dashboard{}, fmt.Errorf("fetching dashboard: %w", err)
		}
		return BuildDashboard(js, all, ss), nil
	}
}

// Activate performs the initial read of every resource.
func (s *Set) Activate(ctx context.Context) error {
	_, derr := s.Dashboard.Activate(ctx)
	_, serr := s.Students.Activate(ctx)
	_, jerr := s.Justifications.Activate(ctx)
	return errors.Join(derr, serr, jerr)
}

// Lookup reads the resource bound to key. It reports false for keys the
// set does not bind.
func (s *Set) Lookup(ctx context.Context, key datacache.Key, force bool) (any, bool, error) {
	var (
		v   any
		err error
	)
	switch key {
	case datacache.KeyDashboard:
		v, err = s.Dashboard.Read(ctx, force)
	case datacache.KeyStudents:
		v, err = s.Students.Read(ctx, force)
	case datacache.KeyJustifications:
		v, err = s.Justifications.Read(ctx, force)
	default:
		return nil, false, nil
	}
	return v, true, err
}

// BoundKeys returns the keys a Set binds, in a stable order.
func BoundKeys() []datacache.Key {
	return []datacache.Key{datacache.KeyDashboard, datacache.KeyStudents, datacache.KeyJustifications}
}

// Bound returns BoundKeys.
func (s *Set) Bound() []datacache.Key {
	return BoundKeys()
}

// refresh invalidates keys and re-reads the bound resources among them.
// Refresh failures are logged and published on the resource state; the
// mutation that triggered them has already succeeded.
func (s *Set) refresh(ctx context.Context, keys ...datacache.Key) {
	for _, k := range keys {
		s.store.Invalidate(k)
	}
	for _, k := range keys {
		if _, bound, err := s.Lookup(ctx, k, true); bound && err != nil {
			s.logger.Warn("refresh after mutation failed", zap.String("key", string(k)), zap.Error(err))
		}
	}
}
