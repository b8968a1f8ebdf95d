package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app.Frontend != nil {
		status.Components["frontend"] = "ok"
	} else {
		status.Status = "degraded"
		status.Components["frontend"] = "missing"
	}

	reader, err := s.app.OpenReader(ctx)
	if err != nil {
		status.Status = "degraded"
		status.Components["symbol_index"] = err.Error()
		return status
	}
	defer reader.Close()

	files, err := reader.Files(ctx)
	if err != nil {
		status.Status = "degraded"
		status.Components["symbol_index"] = err.Error()
		return status
	}
	status.Components["symbol_index"] = fmt.Sprintf("ok (%d files)", len(files))
	return status
}
