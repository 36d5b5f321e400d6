package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fleet-dashboard/internal/config"
	"fleet-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGenerator is a mock implementation of Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func maintenanceRecords(n int) []models.MaintenanceRecord {
	records := make([]models.MaintenanceRecord, n)
	for i := range records {
		records[i] = models.MaintenanceRecord{
			ID:               fmt.Sprintf("m-%d", i),
			VehicleID:        "1",
			Date:             "2024-01-01",
			Type:             models.ServiceAnnualInspection,
			MileageAtService: i,
		}
	}
	return records
}

func snapshot(maintenance int) models.Snapshot {
	return models.Snapshot{
		Vehicles:    models.DefaultVehicles(),
		Maintenance: maintenanceRecords(maintenance),
	}
}

func TestNewRequest(t *testing.T) {
	req := NewRequest(models.DefaultVehicles(), maintenanceRecords(8))

	require.Len(t, req.Vehicles, 3)
	assert.Equal(t, VehicleSummary{
		Model:       "Tesla Model 3",
		Mileage:     12500,
		LastService: "2023-11-15",
		Status:      models.StatusActive,
	}, req.Vehicles[0])

	require.Len(t, req.Maintenance, RecentMaintenanceLimit)
	assert.Equal(t, "m-0", req.Maintenance[0].ID)
	assert.Equal(t, "m-4", req.Maintenance[4].ID)
}

func TestNewRequest_FewRecords(t *testing.T) {
	req := NewRequest(nil, maintenanceRecords(2))

	assert.Empty(t, req.Vehicles)
	assert.Len(t, req.Maintenance, 2)
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(NewRequest(models.DefaultVehicles(), maintenanceRecords(6)))
	require.NoError(t, err)

	assert.Contains(t, prompt, `"model":"Mercedes-Benz Sprinter"`)
	assert.Contains(t, prompt, `"lastService":"2024-01-20"`)
	assert.Contains(t, prompt, `"status":"MAINTENANCE"`)
	assert.Contains(t, prompt, `"id":"m-4"`)
	assert.NotContains(t, prompt, `"id":"m-5"`)
	assert.Contains(t, prompt, "Markdown")
}

func TestRequestInsight_Success(t *testing.T) {
	generator := &MockGenerator{}
	generator.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Tesla Model 3")
	})).Return("## Fleet health\n- all good", nil).Once()

	service := NewService(generator, time.Second)
	report := service.RequestInsight(context.Background(), snapshot(1))

	assert.Equal(t, "## Fleet health\n- all good", report.Content)
	assert.False(t, report.Fallback)
	assert.False(t, report.GeneratedAt.IsZero())
	generator.AssertExpectations(t)

	latest, ok := service.Latest()
	require.True(t, ok)
	assert.Equal(t, report, latest)
}

func TestRequestInsight_FailuresResolveToFallback(t *testing.T) {
	tests := []struct {
		name      string
		generator Generator
	}{
		{"Error", generatorFunc(func(context.Context, string) (string, error) {
			return "", errors.New("quota exceeded")
		})},
		{"Panic", generatorFunc(func(context.Context, string) (string, error) {
			panic("network stack exploded")
		})},
		{"EmptyText", generatorFunc(func(context.Context, string) (string, error) {
			return "  \n", nil
		})},
		{"Unconfigured", unconfigured{}},
		{"NilGenerator", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(tt.generator, time.Second)

			var report Report
			assert.NotPanics(t, func() {
				report = service.RequestInsight(context.Background(), snapshot(3))
			})
			assert.Equal(t, FallbackMessage, report.Content)
			assert.True(t, report.Fallback)
		})
	}
}

func TestRequestInsight_Timeout(t *testing.T) {
	generator := generatorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	service := NewService(generator, 20*time.Millisecond)
	report := service.RequestInsight(context.Background(), snapshot(0))

	assert.True(t, report.Fallback)
}

func TestRequestInsight_PassesOnlyRecentMaintenance(t *testing.T) {
	var captured string
	generator := generatorFunc(func(_ context.Context, prompt string) (string, error) {
		captured = prompt
		return "ok", nil
	})

	NewService(generator, 0).RequestInsight(context.Background(), snapshot(12))

	assert.Equal(t, RecentMaintenanceLimit, strings.Count(captured, `"vehicleId":"1"`))
}

func TestRequestInsightAsync(t *testing.T) {
	release := make(chan struct{})
	generator := generatorFunc(func(context.Context, string) (string, error) {
		<-release
		return "async report", nil
	})
	service := NewService(generator, time.Second)

	result := service.RequestInsightAsync(context.Background(), snapshot(1))

	_, ok := service.Latest()
	assert.False(t, ok)

	close(release)
	select {
	case report := <-result:
		assert.Equal(t, "async report", report.Content)
	case <-time.After(time.Second):
		t.Fatal("insight request did not resolve")
	}

	_, open := <-result
	assert.False(t, open)

	latest, ok := service.Latest()
	require.True(t, ok)
	assert.Equal(t, "async report", latest.Content)
}

func TestRequestInsightAsync_LastResolutionWins(t *testing.T) {
	var mu sync.Mutex
	gates := map[string]chan struct{}{}
	gate := func(name string) chan struct{} {
		mu.Lock()
		defer mu.Unlock()
		if gates[name] == nil {
			gates[name] = make(chan struct{})
		}
		return gates[name]
	}

	calls := make(chan struct{}, 2)
	names := []string{"first", "second"}
	var next int
	generator := generatorFunc(func(context.Context, string) (string, error) {
		mu.Lock()
		name := names[next]
		next++
		mu.Unlock()
		calls <- struct{}{}
		<-gate(name)
		return name, nil
	})
	service := NewService(generator, time.Second)

	first := service.RequestInsightAsync(context.Background(), snapshot(0))
	<-calls
	second := service.RequestInsightAsync(context.Background(), snapshot(0))
	<-calls

	close(gate("second"))
	<-second
	close(gate("first"))
	<-first

	latest, ok := service.Latest()
	require.True(t, ok)
	assert.Equal(t, "first", latest.Content)
}

func TestNewGenerator_WithoutKey(t *testing.T) {
	generator := NewGenerator(context.Background(), config.InsightConfig{})

	_, err := generator.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "")
	assert.Error(t, err)
}
