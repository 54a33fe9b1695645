// Package mocks provides testify mocks for the sync collaborator.
package mocks

import (
	"context"

	"github.com/serbi2012/time-manager/internal/domain/worklog"
	"github.com/serbi2012/time-manager/internal/syncer"
	"github.com/stretchr/testify/mock"
)

// Syncer is a mock for syncer.Syncer.
type Syncer struct {
	mock.Mock
}

func (m *Syncer) SyncRecord(ctx context.Context, rec worklog.WorkRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *Syncer) SyncDeleteRecord(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Syncer) SyncTemplate(ctx context.Context, tpl worklog.WorkTemplate) error {
	args := m.Called(ctx, tpl)
	return args.Error(0)
}

func (m *Syncer) SyncDeleteTemplate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Syncer) SyncSettings(ctx context.Context, settings worklog.Settings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *Syncer) SyncTimer(ctx context.Context, timer syncer.TimerSnapshot) error {
	args := m.Called(ctx, timer)
	return args.Error(0)
}

// Loader is a mock for syncer.Loader.
type Loader struct {
	mock.Mock
}

func (m *Loader) Load(ctx context.Context) (*syncer.Snapshot, error) {
	args := m.Called(ctx)
	if snap, ok := args.Get(0).(*syncer.Snapshot); ok {
		return snap, args.Error(1)
	}
	return nil, args.Error(1)
}
