package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/i474232898/lawn-manager/internal/weather"
)

type fakeRefresher struct {
	mu        sync.Mutex
	locs      []weather.Location
	listErr   error
	refreshed []string
	published int
}

func (f *fakeRefresher) WeatherLocations(context.Context) ([]weather.Location, error) {
	return f.locs, f.listErr
}

func (f *fakeRefresher) RefreshWeather(ctx context.Context, loc weather.Location) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("refresh without deadline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, loc.Key())
	if loc.City == "Fail" {
		return errors.New("provider down")
	}
	return nil
}

func (f *fakeRefresher) PublishSummaries(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published++
	return nil
}

func TestRunOnceRefreshesThenPublishes(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &fakeRefresher{locs: []weather.Location{
		{City: "Austin", Country: "US"},
		{City: "Fail", Country: "US"},
		{EntityID: "weather.home"},
	}}
	s := New(r, time.Minute, nil)

	s.runOnce(context.Background())

	sort.Strings(r.refreshed)
	assert.Equal(t, []string{"austin:us", "entity:weather.home", "fail:us"}, r.refreshed)
	assert.Equal(t, 1, r.published)
}

func TestRunOnceStopsWhenLocationsFail(t *testing.T) {
	r := &fakeRefresher{listErr: errors.New("db closed")}
	New(r, time.Minute, nil).runOnce(context.Background())
	assert.Empty(t, r.refreshed)
	assert.Zero(t, r.published)
}

func TestRunOnceBoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak atomic.Int32
	r := &gatedRefresher{fakeRefresher: &fakeRefresher{}, inFlight: &inFlight, peak: &peak}
	for i := range 10 {
		r.locs = append(r.locs, weather.Location{City: fmt.Sprintf("City%d", i)})
	}

	New(r, time.Minute, nil).runOnce(context.Background())

	assert.Len(t, r.refreshed, 10)
	assert.LessOrEqual(t, peak.Load(), int32(maxConcurrentFetches))
	assert.Equal(t, 1, r.published)
}

type gatedRefresher struct {
	*fakeRefresher
	inFlight, peak *atomic.Int32
}

func (g *gatedRefresher) RefreshWeather(ctx context.Context, loc weather.Location) error {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return g.fakeRefresher.RefreshWeather(ctx, loc)
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(&fakeRefresher{}, 0, nil)
	assert.Equal(t, DefaultInterval, s.interval)
}

func TestStartRunsImmediately(t *testing.T) {
	r := &fakeRefresher{}
	s := New(r, time.Hour, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.published == 1
	}, 2*time.Second, 10*time.Millisecond)
}
