package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	reports []Report
	err     error
}

func (f fakeProvider) HealthCheck(ctx context.Context) ([]Report, error) {
	return f.reports, f.err
}

func TestAggregator_AllHealthyYieldsHealthy(t *testing.T) {
	a := NewAggregator()
	a.Register("db", fakeProvider{reports: []Report{{Component: "db", Status: StatusHealthy}}})
	a.Register("cache", fakeProvider{reports: []Report{{Component: "cache", Status: StatusHealthy}}})

	got := a.Collect(context.Background())
	assert.Equal(t, StatusHealthy, got.Status)
	assert.Len(t, got.Reports, 2)
}

func TestAggregator_OneUnhealthyDominates(t *testing.T) {
	a := NewAggregator()
	a.Register("db", fakeProvider{reports: []Report{{Component: "db", Status: StatusHealthy}}})
	a.Register("queue", fakeProvider{reports: []Report{{Component: "queue", Status: StatusUnhealthy}}})

	got := a.Collect(context.Background())
	assert.Equal(t, StatusUnhealthy, got.Status)
}

func TestAggregator_ProviderErrorBecomesUnhealthyReport(t *testing.T) {
	a := NewAggregator()
	a.Register("flaky", fakeProvider{err: errors.New("boom")})

	got := a.Collect(context.Background())
	assert.Equal(t, StatusUnhealthy, got.Status)
	assert.Equal(t, "boom", got.Reports[0].Message)
}

func TestAggregator_Unregister(t *testing.T) {
	a := NewAggregator()
	a.Register("db", fakeProvider{reports: []Report{{Component: "db", Status: StatusUnhealthy}}})
	a.Unregister("db")

	got := a.Collect(context.Background())
	assert.Equal(t, StatusHealthy, got.Status)
	assert.Empty(t, got.Reports)
}
