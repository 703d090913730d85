// Package server is the HTTP API layer: a thin echo front over the
// sampler, the recorder, and the report builder.
package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeffypooo/hostwatch/internal/metrics"
	"github.com/jeffypooo/hostwatch/internal/promexport"
	"github.com/jeffypooo/hostwatch/internal/recorder"
	"github.com/jeffypooo/hostwatch/internal/report"
)

// Sampler is satisfied by *metrics.Sampler.
type Sampler interface {
	Sample() (metrics.ResourceSnapshot, error)
}

type Server struct {
	echo      *echo.Echo
	sampler   Sampler
	recorder  *recorder.Recorder
	procs     *metrics.ProcessTracker
	renderer  *report.HTMLRenderer
	procLimit int
}

func New(sampler Sampler, rec *recorder.Recorder, procs *metrics.ProcessTracker, procLimit int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)

	s := &Server{
		echo:      e,
		sampler:   sampler,
		recorder:  rec,
		procs:     procs,
		renderer:  report.NewHTMLRenderer(),
		procLimit: procLimit,
	}

	e.GET("/api/resources", s.liveResources)
	e.POST("/api/start-recording", s.startRecording)
	e.POST("/api/stop-recording", s.stopRecording)
	e.GET("/api/recording-status", s.recordingStatus)
	e.POST("/api/generate-report", s.generateReport)
	e.GET("/api/report.json", s.reportJSON)
	e.GET("/api/processes", s.processes)

	registry := prometheus.NewRegistry()
	registry.MustRegister(promexport.NewCollector(sampler))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return s
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Logger() echo.Logger {
	return s.echo.Logger
}

type liveResponse struct {
	metrics.ResourceSnapshot
	Recording          bool `json:"recording"`
	RecordedCount      int  `json:"recorded_count"`
	RecordingDuration  int  `json:"recording_duration"`
	RecordingElapsed   int  `json:"recording_elapsed,omitempty"`
	RecordingRemaining int  `json:"recording_remaining,omitempty"`
}

func (s *Server) liveResources(c echo.Context) error {
	snap, err := s.sampler.Sample()
	if err != nil {
		// Partial snapshots are still served; the failed subsystem
		// carries zero values.
		c.Logger().Warnf("live sample incomplete: %v", err)
	}

	st := s.recorder.Status()
	resp := liveResponse{
		ResourceSnapshot:  snap,
		Recording:         st.Active,
		RecordedCount:     st.SampleCount,
		RecordingDuration: st.DurationSeconds,
	}
	if st.Active {
		resp.RecordingElapsed = st.ElapsedSeconds
		resp.RecordingRemaining = st.RemainingSeconds
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) startRecording(c echo.Context) error {
	st, err := s.recorder.Start()
	if errors.Is(err, recorder.ErrAlreadyRecording) {
		return c.JSON(http.StatusConflict, echo.Map{
			"status":  "already_recording",
			"samples": st.SampleCount,
		})
	}
	c.Logger().Infof("recording started, limit %ds", st.DurationSeconds)
	return c.JSON(http.StatusOK, echo.Map{
		"status":     "started",
		"start_time": st.StartedAt,
		"duration":   st.DurationSeconds,
	})
}

func (s *Server) stopRecording(c echo.Context) error {
	st, err := s.recorder.Stop()
	if errors.Is(err, recorder.ErrNotRecording) {
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "not_recording",
			"samples": st.SampleCount,
		})
	}
	c.Logger().Infof("recording stopped with %d samples", st.SampleCount)
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "stopped",
		"samples": st.SampleCount,
	})
}

func (s *Server) recordingStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.recorder.Status())
}

func (s *Server) buildAggregate() (*report.Aggregate, error) {
	samples := s.recorder.Snapshots()
	var start, end string
	if len(samples) > 0 {
		start = timeLabel(samples[0].Timestamp)
		end = timeLabel(samples[len(samples)-1].Timestamp)
	}
	return report.Build(samples, start, end)
}

func (s *Server) generateReport(c echo.Context) error {
	agg, err := s.buildAggregate()
	if err != nil {
		return reportError(c, err)
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, agg); err != nil {
		c.Logger().Errorf("report rendering failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report rendering failed"})
	}

	filename := "system_report_" + time.Now().Format("20060102_150405") + ".html"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) reportJSON(c echo.Context) error {
	agg, err := s.buildAggregate()
	if err != nil {
		return reportError(c, err)
	}
	return c.JSON(http.StatusOK, agg)
}

func reportError(c echo.Context, err error) error {
	var insufficient *report.InsufficientDataError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("report build failed: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
}

func (s *Server) processes(c echo.Context) error {
	limit := s.procLimit
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	sortBy := metrics.ProcSort(c.QueryParam("sort"))
	if sortBy == "" {
		sortBy = metrics.ProcSortCpu
	}
	dir := metrics.SortDirection(c.QueryParam("dir"))
	if dir == "" {
		dir = metrics.SortDirectionDesc
	}

	procs, err := s.procs.Top(limit, sortBy, dir)
	if err != nil {
		c.Logger().Errorf("process listing failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, procs)
}

func timeLabel(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
