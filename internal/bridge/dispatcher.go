package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/metrics"
)

// Method is a bridge method name.
type Method string

// MethodScanFile asks the platform to index a single file.
const MethodScanFile Method = "scanFile"

// Methods lists every method the bridge defines.
var Methods = []Method{MethodScanFile}

// MethodNames returns Methods as strings, for metric labels.
func MethodNames() []string {
	names := make([]string, len(Methods))
	for i, m := range Methods {
		names[i] = string(m)
	}
	return names
}

// ScanAction makes a file visible to the platform media catalog.
type ScanAction interface {
	Scan(ctx context.Context, path string) error
}

// Handler serves one method. A non-nil error is an unhandled failure: the
// caller gets no outcome and the transport reports a generic failure.
type Handler func(ctx context.Context, call MethodCall) (Outcome, error)

// FailurePolicy decides what a scan action failure turns into.
type FailurePolicy string

const (
	// PolicyReport converts scan failures into a SCAN_FAILED error outcome.
	PolicyReport FailurePolicy = "report"
	// PolicyPropagate returns scan failures as unhandled errors.
	PolicyPropagate FailurePolicy = "propagate"
)

// ParseFailurePolicy validates a policy name. Empty means PolicyReport.
func ParseFailurePolicy(name string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return PolicyReport, nil
	case PolicyReport, PolicyPropagate:
		return p, nil
	default:
		return "", fmt.Errorf("unknown scan failure policy %q (want report or propagate)", name)
	}
}

// Dispatcher routes invocations to method handlers. It holds no mutable
// state after construction, so Dispatch is safe for concurrent use.
type Dispatcher struct {
	handlers map[Method]Handler
	policy   FailurePolicy
	log      *logging.Logger
}

// NewDispatcher builds a dispatcher around scan. A nil scan registers no
// scanFile handler, so scanFile answers NotImplemented.
func NewDispatcher(scan ScanAction, policy FailurePolicy) *Dispatcher {
	if policy == "" {
		policy = PolicyReport
	}

	d := &Dispatcher{
		handlers: make(map[Method]Handler),
		policy:   policy,
		log:      logging.New("bridge"),
	}
	if scan != nil {
		d.handlers[MethodScanFile] = d.scanFileHandler(scan)
	}
	return d
}

// Policy returns the configured failure policy.
func (d *Dispatcher) Policy() FailurePolicy {
	return d.policy
}

// Supports reports whether method has a handler.
func (d *Dispatcher) Supports(method Method) bool {
	_, ok := d.handlers[method]
	return ok
}

// Dispatch runs the handler for call.Method. Unknown methods produce
// NotImplemented. The error return is non-nil only for unhandled failures.
func (d *Dispatcher) Dispatch(ctx context.Context, call MethodCall) (Outcome, error) {
	start := time.Now()
	method := Method(call.Method)

	handler, ok := d.handlers[method]
	if !ok {
		d.record(call.Method, metrics.OutcomeNotImplemented, start)
		d.log.Debug("%s: not implemented", call.Method)
		return NotImplemented(), nil
	}

	outcome, err := handler(ctx, call)
	switch {
	case err != nil:
		d.record(call.Method, metrics.OutcomeFailure, start)
		d.log.Warn("%s: unhandled failure: %v", call.Method, err)
		return Outcome{}, err
	case outcome.Kind == KindError:
		d.record(call.Method, metrics.OutcomeError, start)
		if outcome.Err != nil {
			metrics.BridgeErrorsTotal.WithLabelValues(outcome.Err.Code).Inc()
		}
		d.log.Debug("%s: %s", call.Method, outcome)
	default:
		d.record(call.Method, metrics.OutcomeSuccess, start)
		d.log.Debug("%s: %s", call.Method, outcome)
	}
	return outcome, nil
}

func (d *Dispatcher) scanFileHandler(scan ScanAction) Handler {
	return func(ctx context.Context, call MethodCall) (Outcome, error) {
		req, invalid := ParseScanFileRequest(call.Args)
		if invalid != nil {
			return Failed(invalid), nil
		}

		if err := scan.Scan(ctx, req.Path); err != nil {
			if d.policy == PolicyPropagate {
				return Outcome{}, fmt.Errorf("scan %q: %w", req.Path, err)
			}
			return Failed(&Error{Code: CodeScanFailed, Message: err.Error()}), nil
		}
		return Success(), nil
	}
}

// record keeps the method label bounded: names without a handler are
// counted as "unknown".
func (d *Dispatcher) record(method, outcome string, start time.Time) {
	label := "unknown"
	for _, m := range Methods {
		if string(m) == method {
			label = method
			break
		}
	}
	metrics.BridgeInvocationsTotal.WithLabelValues(label, outcome).Inc()
	metrics.BridgeInvocationDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
}
