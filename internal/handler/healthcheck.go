package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/config"
	"github.com/metinatakli/cinema-seat-booking/internal/jsonutil"
	"github.com/metinatakli/cinema-seat-booking/internal/vcs"
)

const (
	statusUp       = "UP"
	statusDegraded = "DEGRADED"
	probeTimeout   = 2 * time.Second
)

// Probe checks one backing service, e.g. a database ping.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthcheckHandler struct {
	cfg    config.Config
	probes []Probe
}

func NewHealthcheckHandler(cfg config.Config, probes ...Probe) *HealthcheckHandler {
	return &HealthcheckHandler{
		cfg:    cfg,
		probes: slices.Clone(probes),
	}
}

// With returns a handler that also runs probe.
func (h *HealthcheckHandler) With(probe Probe) *HealthcheckHandler {
	return NewHealthcheckHandler(h.cfg, append(slices.Clone(h.probes), probe)...)
}

// GetHealth reports 503 with status DEGRADED when any probe fails.
func (h *HealthcheckHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthcheckResponse{
		Status: statusUp,
		SystemInfo: api.SystemInfo{
			Version:     vcs.Version(),
			Environment: h.cfg.Env,
		},
	}

	code := http.StatusOK

	if len(h.probes) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		resp.Dependencies = make(map[string]string, len(h.probes))

		for _, p := range h.probes {
			if err := p.Check(ctx); err != nil {
				resp.Dependencies[p.Name] = err.Error()
				resp.Status = statusDegraded
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[p.Name] = statusUp
		}
	}

	jsonutil.WriteJSON(w, code, resp, nil)
}
