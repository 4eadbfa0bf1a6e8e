package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDesk/internal/domain"
)

type captureDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *captureDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *captureDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsGeneralPipeline(t *testing.T) {
	store := newMemStore()
	source := &fakeSource{articles: []domain.RawArticle{rawArticle(1, "world")}, categories: []string{"world"}}
	driver := &captureDriver{}

	s := NewScheduler(driver, newTestPipeline(store, source, nil, nil), nil)
	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(fixedNow)
	require.Len(t, source.scopes, 1)
	assert.True(t, source.scopes[0].Homepage())
	assert.Len(t, store.articles, 1)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriver(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
