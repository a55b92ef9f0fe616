package server

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kabumemo/kabumemo/internal/config"
	"github.com/kabumemo/kabumemo/internal/database"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/httputil"
	"github.com/kabumemo/kabumemo/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// CollectionCounter reports record counts per collection.
type CollectionCounter interface {
	Counts() (map[string]int, error)
}

// JobRunner runs a job outside its schedule.
type JobRunner interface {
	RunNow(job scheduler.Job) error
}

// SystemHandlers handles system monitoring and maintenance endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	cfg         *config.Config
	startupTime time.Time
	counter     CollectionCounter
	mirrorDB    *database.DB
	runner      JobRunner
	jobs        map[string]scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	cfg *config.Config,
	counter CollectionCounter,
	mirrorDB *database.DB,
	runner JobRunner,
	jobs map[string]scheduler.Job,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		cfg:         cfg,
		startupTime: time.Now(),
		counter:     counter,
		mirrorDB:    mirrorDB,
		runner:      runner,
		jobs:        jobs,
	}
}

// DirectoriesInfo lists the configured data locations.
type DirectoriesInfo struct {
	Data   string `json:"data"`
	JSON   string `json:"json"`
	SQLite string `json:"sqlite"`
	Dist   string `json:"dist,omitempty"`
}

// DiskInfo is usage of the filesystem holding the data directory.
type DiskInfo struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string          `json:"status"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Counts        map[string]int  `json:"counts"`
	Directories   DirectoriesInfo `json:"directories"`
	Disk          *DiskInfo       `json:"disk"`
	MemoryPercent *float64        `json:"memory_percent"`
	Mirror        *database.Stats `json:"mirror"`
	Jobs          []string        `json:"jobs"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.counter.Counts()
	if err != nil {
		httputil.WriteError(w, err, h.log)
		return
	}

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		Counts:        counts,
		Directories: DirectoriesInfo{
			Data:   h.cfg.DataDir,
			JSON:   h.cfg.JSONDir,
			SQLite: h.cfg.SQLiteDir,
			Dist:   h.cfg.DistDir,
		},
		Jobs: h.jobNames(),
	}

	// Host metrics are best effort.
	if usage, err := disk.Usage(h.cfg.DataDir); err == nil {
		response.Disk = &DiskInfo{
			TotalMB:     float64(usage.Total) / 1024 / 1024,
			FreeMB:      float64(usage.Free) / 1024 / 1024,
			UsedPercent: usage.UsedPercent,
		}
	} else {
		h.log.Warn().Err(err).Str("dir", h.cfg.DataDir).Msg("Failed to get disk usage")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		response.MemoryPercent = &vm.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	if h.mirrorDB != nil {
		if stats, err := h.mirrorDB.GetStats(); err == nil {
			response.Mirror = stats
		} else {
			h.log.Warn().Err(err).Msg("Failed to get mirror stats")
		}
	}

	httputil.WriteJSON(w, http.StatusOK, response, h.log)
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok || h.runner == nil {
		httputil.WriteError(w, domain.NewNotFoundError("job", name), h.log)
		return
	}

	if err := h.runner.RunNow(job); err != nil {
		httputil.WriteError(w, fmt.Errorf("job %s failed: %w", name, err), h.log)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"job": name, "status": "completed"}, h.log)
}

func (h *SystemHandlers) jobNames() []string {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
