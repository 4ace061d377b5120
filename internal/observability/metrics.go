package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for the simulation server and
// provides helpers to wire them into HTTP handlers.
type SimCollector struct {
	gatherer prometheus.Gatherer

	StepsTotal    *prometheus.CounterVec
	StepDurations *prometheus.HistogramVec
	Population    *prometheus.GaugeVec
}

// NewSimCollector registers simulation Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when
// nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_steps_total",
		Help: "Total number of completed simulation steps, labeled by simulation.",
	}, []string{"simulation"})
	steps, err := registerCounterVec(reg, steps, "sim_steps_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sim_step_duration_seconds",
		Help:    "Wall-clock duration of one simulation step in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"simulation"})
	durations, err = registerHistogramVec(reg, durations, "sim_step_duration_seconds")
	if err != nil {
		return nil, err
	}

	population := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_population",
		Help: "Current live population, labeled by simulation and species.",
	}, []string{"simulation", "species"})
	population, err = registerGaugeVec(reg, population, "sim_population")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:      gatherer,
		StepsTotal:    steps,
		StepDurations: durations,
		Population:    population,
	}, nil
}

// ObserveStep records one completed step and its duration.
func (c *SimCollector) ObserveStep(simulation string, d time.Duration) {
	if c == nil {
		return
	}
	if c.StepsTotal != nil {
		c.StepsTotal.WithLabelValues(simulation).Inc()
	}
	if c.StepDurations != nil {
		c.StepDurations.WithLabelValues(simulation).Observe(d.Seconds())
	}
}

// SetPopulation updates the live population gauge for one species.
func (c *SimCollector) SetPopulation(simulation, species string, n int) {
	if c == nil || c.Population == nil {
		return
	}
	c.Population.WithLabelValues(simulation, species).Set(float64(n))
}

// DeleteSimulation drops all metric series belonging to a simulation.
func (c *SimCollector) DeleteSimulation(simulation string) {
	if c == nil {
		return
	}
	labels := prometheus.Labels{"simulation": simulation}
	if c.StepsTotal != nil {
		c.StepsTotal.DeletePartialMatch(labels)
	}
	if c.StepDurations != nil {
		c.StepDurations.DeletePartialMatch(labels)
	}
	if c.Population != nil {
		c.Population.DeletePartialMatch(labels)
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
