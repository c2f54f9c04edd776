// Package metrics exposes Prometheus counters for claims, pledges and verification.
package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services depend on; Nop satisfies it in tests.
type Recorder interface {
	RecordClaim(outcome string)
	RecordSponsorship(bags int)
	RecordVerification(result string)
	RecordHTTPStatus(statusCode int)
}

type Collector struct {
	claims        *prometheus.CounterVec
	sponsorships  prometheus.Counter
	bagsPledged   prometheus.Counter
	verifications *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "totes_claims_total",
			Help: "Claim attempts by outcome",
		}, []string{"outcome"}),
		sponsorships: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "totes_sponsorships_total",
			Help: "Sponsorships created",
		}),
		bagsPledged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "totes_bags_pledged_total",
			Help: "Bags pledged across all sponsorships",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "totes_verifications_total",
			Help: "Verification challenge and submit results",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "totes_http_status_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
	}

	reg.MustRegister(c.claims, c.sponsorships, c.bagsPledged, c.verifications, c.httpStatus)
	return c
}

func (c *Collector) RecordClaim(outcome string) {
	c.claims.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSponsorship(bags int) {
	c.sponsorships.Inc()
	c.bagsPledged.Add(float64(bags))
}

func (c *Collector) RecordVerification(result string) {
	c.verifications.WithLabelValues(result).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Middleware counts response status codes. Chain errors are rendered through
// the app's ErrorHandler first so the recorded status is the one sent.
func Middleware(rec Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		rec.RecordHTTPStatus(c.Response().StatusCode())
		return nil
	}
}

// Handler serves the Prometheus scrape endpoint through fiber.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

type Nop struct{}

func (Nop) RecordClaim(string)        {}
func (Nop) RecordSponsorship(int)     {}
func (Nop) RecordVerification(string) {}
func (Nop) RecordHTTPStatus(int)      {}
