package api

import (
	"errors"
	"sync/atomic"

	"github.com/mdrdcalc/mdrdcalc/server/internal/egfr"
	"github.com/mdrdcalc/mdrdcalc/server/internal/metrics"
)

// Policy is the validation and rounding behaviour applied to every request.
type Policy struct {
	Bounds   egfr.Bounds
	Rounding egfr.Rounding
}

// Service validates raw request fields and evaluates the MDRD equation.
// It is shared by the HTTP handlers and the WebSocket hub, and is safe for
// concurrent use; SetPolicy may be called while requests are in flight.
type Service struct {
	policy  atomic.Pointer[Policy]
	metrics *metrics.Registry
}

// NewService creates a Service with the initial policy p.
func NewService(p Policy, reg *metrics.Registry) *Service {
	s := &Service{metrics: reg}
	s.SetPolicy(p)
	return s
}

// SetPolicy replaces the active policy for subsequent calculations.
func (s *Service) SetPolicy(p Policy) {
	s.policy.Store(&p)
}

// Policy returns the active policy.
func (s *Service) Policy() Policy {
	return *s.policy.Load()
}

// Calculate validates f against the active bounds and returns the rounded
// eGFR. Validation failures are returned as *egfr.ValidationError and the
// equation is not evaluated.
func (s *Service) Calculate(f egfr.Fields) (float64, error) {
	p := s.policy.Load()

	in, err := p.Bounds.Parse(f)
	if err != nil {
		var verr *egfr.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Fields {
				s.metrics.ObserveValidationFailure(fe.Field, fe.Constraint)
			}
		}
		return 0, err
	}

	v := egfr.ComputeWith(in, p.Rounding)
	s.metrics.ObserveEGFR(v)
	return v, nil
}
