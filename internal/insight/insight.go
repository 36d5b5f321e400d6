// Package insight asks a text generator for a narrative report on the fleet.
// A request never fails: any generator failure resolves to FallbackMessage.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fleet-dashboard/internal/models"

	log "github.com/sirupsen/logrus"
)

// FallbackMessage replaces the report whenever generation fails.
const FallbackMessage = "The insight report is temporarily unavailable. Please check your network connection or API configuration."

// RecentMaintenanceLimit bounds how many maintenance records go into a prompt.
const RecentMaintenanceLimit = 5

// Generator turns a prompt into markup-bearing prose.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VehicleSummary is the reduced vehicle shape sent to the generator.
type VehicleSummary struct {
	Model       string               `json:"model"`
	Mileage     int                  `json:"mileage"`
	LastService string               `json:"lastService"`
	Status      models.VehicleStatus `json:"status"`
}

// Request is the generator input built from a snapshot.
type Request struct {
	Vehicles    []VehicleSummary           `json:"vehicles"`
	Maintenance []models.MaintenanceRecord `json:"maintenance"`
}

// NewRequest summarizes every vehicle and keeps the most recent maintenance
// records. Maintenance is expected newest first, as the store keeps it.
func NewRequest(vehicles []models.Vehicle, maintenance []models.MaintenanceRecord) Request {
	summaries := make([]VehicleSummary, 0, len(vehicles))
	for _, v := range vehicles {
		summaries = append(summaries, VehicleSummary{
			Model:       v.DisplayName(),
			Mileage:     v.Mileage,
			LastService: v.LastServiceDate,
			Status:      v.Status,
		})
	}

	recent := maintenance
	if len(recent) > RecentMaintenanceLimit {
		recent = recent[:RecentMaintenanceLimit]
	}
	return Request{
		Vehicles:    summaries,
		Maintenance: models.CloneMaintenance(recent),
	}
}

const promptTemplate = `Analyse the following fleet data and give the fleet manager professional, strategic insights.
Focus on:
1. Maintenance priority (which vehicles need urgent attention?).
2. Estimated risk factors based on mileage and service history.
3. Recommendations for cost control and operational optimisation.

Data:
Vehicles: %s
Recent maintenance records: %s

Respond in clear Markdown with headings and lists. Keep it concise and insightful.`

// BuildPrompt embeds the request as JSON into the analysis instructions.
func BuildPrompt(req Request) (string, error) {
	vehicles, err := json.Marshal(req.Vehicles)
	if err != nil {
		return "", fmt.Errorf("failed to encode vehicle summaries: %w", err)
	}
	maintenance, err := json.Marshal(req.Maintenance)
	if err != nil {
		return "", fmt.Errorf("failed to encode maintenance records: %w", err)
	}
	return fmt.Sprintf(promptTemplate, vehicles, maintenance), nil
}

// Report is a resolved insight request.
type Report struct {
	Content     string    `json:"content"`
	Fallback    bool      `json:"fallback"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Service runs insight requests and remembers the latest resolved report.
type Service struct {
	generator Generator
	timeout   time.Duration

	latest    *Report
	latestMux sync.RWMutex
}

// NewService wraps generator. A timeout of zero leaves requests bounded only
// by the caller's context.
func NewService(generator Generator, timeout time.Duration) *Service {
	return &Service{generator: generator, timeout: timeout}
}

// RequestInsight generates a report for the given snapshot. It always
// returns a report; failures produce FallbackMessage.
func (s *Service) RequestInsight(ctx context.Context, snapshot models.Snapshot) Report {
	content, err := s.generate(ctx, NewRequest(snapshot.Vehicles, snapshot.Maintenance))

	report := Report{Content: content, GeneratedAt: time.Now()}
	if err != nil {
		log.WithError(err).Warn("Insight generation failed, using fallback")
		report.Content = FallbackMessage
		report.Fallback = true
	}

	s.latestMux.Lock()
	s.latest = &report
	s.latestMux.Unlock()
	return report
}

// RequestInsightAsync starts a request and returns immediately. The channel
// receives exactly one report and is then closed. Requests are independent;
// whichever resolves last becomes Latest.
func (s *Service) RequestInsightAsync(ctx context.Context, snapshot models.Snapshot) <-chan Report {
	result := make(chan Report, 1)
	go func() {
		defer close(result)
		result <- s.RequestInsight(ctx, snapshot)
	}()
	return result
}

// Latest returns the most recently resolved report, if any.
func (s *Service) Latest() (Report, bool) {
	s.latestMux.RLock()
	defer s.latestMux.RUnlock()

	if s.latest == nil {
		return Report{}, false
	}
	return *s.latest, true
}

func (s *Service) generate(ctx context.Context, req Request) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("insight generator panicked: %v", r)
		}
	}()

	if s.generator == nil {
		return "", ErrNotConfigured
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	content, err = s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.New("insight generator returned no text")
	}
	return content, nil
}
