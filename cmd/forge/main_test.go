package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/fs"
	"go.trai.ch/forge/internal/adapters/telemetry"
	"go.trai.ch/forge/internal/adapters/testreport"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type mainTestMocks struct {
	loader   *mocks.MockConfigLoader
	executor *mocks.MockExecutor
	logger   *mocks.MockLogger
}

// setupMainTest wires a real App around mocked ports and returns a provider
// that stands in for the Graft-backed one in main.
func setupMainTest(t *testing.T) (componentsProvider, mainTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := mainTestMocks{
		loader:   mocks.NewMockConfigLoader(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
	}
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	m.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	m.logger.EXPECT().Error(gomock.Any()).AnyTimes()

	matcher := mocks.NewMockPathMatcher(ctrl)
	toolchain := mocks.NewMockToolchainResolver(ctrl)
	toolchain.EXPECT().Environment(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	store := mocks.NewMockFingerprintStore(ctrl)
	store.EXPECT().Get(gomock.Any()).Return(nil, nil).AnyTimes()
	store.EXPECT().Put(gomock.Any()).Return(nil).AnyTimes()

	sched := scheduler.NewScheduler(m.executor, mocks.NewMockFileStater(ctrl), telemetry.NewNoOp(), m.logger)
	application := app.New(m.loader, matcher, toolchain, store,
		fs.NewHasher(), testreport.NewParser(), sched, m.logger)

	provider := func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{App: application, Logger: m.logger}, func() {}, nil
	}
	return provider, m
}

func TestRun_Success(t *testing.T) {
	provider, _ := setupMainTest(t)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, exitOK, exitCode)
}

func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, exitUsage, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

func TestRun_BuildFailure(t *testing.T) {
	provider, m := setupMainTest(t)

	reg := domain.NewRegistry()
	require.NoError(t, reg.Register(&domain.Target{
		Name:    domain.NewInternedString("compile"),
		Command: []string{"cc"},
		Phony:   true,
	}))
	m.loader.EXPECT().Load(".").Return(reg, []byte("raw"), nil)
	m.executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(zerr.New("exit 1"))

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"run", "compile"}, stderr, provider)

	assert.Equal(t, exitBuildFailure, exitCode)
}

func TestRun_LoadError(t *testing.T) {
	provider, m := setupMainTest(t)
	m.loader.EXPECT().Load(".").Return(nil, nil, errors.New("no rules file"))

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"build"}, stderr, provider)

	assert.Equal(t, exitUsage, exitCode)
}

func TestRun_UnknownCommand(t *testing.T) {
	provider, _ := setupMainTest(t)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"frobnicate"}, stderr, provider)

	assert.Equal(t, exitUsage, exitCode)
}
