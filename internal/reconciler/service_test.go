package reconciler

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"photobook-order-bot/internal/file"
	"photobook-order-bot/internal/order"
	"photobook-order-bot/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrders struct {
	order.Service
	live []string
	err  error
}

func (s *stubOrders) GetLiveFolders(context.Context) ([]string, error) {
	return s.live, s.err
}

type stubActive []string

func (s stubActive) ActiveFolders() []string {
	return s
}

func setupFolders(t *testing.T, files *file.DefaultService, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, files.CreateFolder(name))
	}
}

func TestReconcile(t *testing.T) {
	files := file.NewDefaultService(&config.FileServiceCfg{DirPath: t.TempDir()})
	setupFolders(t, files, "paid", "open_receipt", "orphan", "fresh_orphan")

	old := time.Now().Add(-48 * time.Hour)
	for _, name := range []string{"paid", "open_receipt", "orphan"} {
		require.NoError(t, os.Chtimes(files.Path(name), old, old))
	}

	svc := NewDefaultService(
		&stubOrders{live: []string{"paid"}},
		files,
		stubActive{"open_receipt"},
		&config.ReconcilerCfg{Interval: time.Hour, MinAge: 24 * time.Hour},
	)

	assert.Equal(t, 1, svc.Reconcile(context.Background()))

	folders, err := files.ListFolders()
	require.NoError(t, err)
	var names []string
	for _, f := range folders {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"paid", "open_receipt", "fresh_orphan"}, names)
}

func TestReconcile_KeepsEverythingWhenOrdersUnavailable(t *testing.T) {
	files := file.NewDefaultService(&config.FileServiceCfg{DirPath: t.TempDir()})
	setupFolders(t, files, "orphan")

	svc := NewDefaultService(&stubOrders{err: errors.New("db down")}, files, nil, &config.ReconcilerCfg{Interval: time.Hour})
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	assert.Zero(t, svc.Reconcile(context.Background()))
	_, err := os.Stat(files.Path("orphan"))
	assert.NoError(t, err)
}

func TestReconcile_UsesClock(t *testing.T) {
	files := file.NewDefaultService(&config.FileServiceCfg{DirPath: t.TempDir()})
	setupFolders(t, files, "orphan")

	svc := NewDefaultService(&stubOrders{}, files, nil, &config.ReconcilerCfg{Interval: time.Hour, MinAge: time.Hour})
	assert.Zero(t, svc.Reconcile(context.Background()))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.Equal(t, 1, svc.Reconcile(context.Background()))
}

func TestService_StartStop(t *testing.T) {
	files := file.NewDefaultService(&config.FileServiceCfg{DirPath: t.TempDir()})
	setupFolders(t, files, "orphan")

	svc := NewDefaultService(&stubOrders{}, files, nil, &config.ReconcilerCfg{Interval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	require.Eventually(t, func() bool {
		_, err := os.Stat(files.Path("orphan"))
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	assert.NoError(t, svc.Stop(stopCtx))
}
