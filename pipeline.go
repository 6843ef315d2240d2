package formz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// input is what the validation pipeline sees of a store: the value and the
// two flags that gate eligibility. seq identifies the store revision that
// produced it.
type input[V any] struct {
	seq       uint64
	value     V
	isDirty   bool
	isTouched bool
}

// outcome is a validator invocation reporting back to the loop.
type outcome struct {
	gen      uint64
	seq      uint64
	result   Result
	err      error
	panicked bool
	elapsed  time.Duration
}

// pipeline turns store inputs into validation results. It owns a single
// loop goroutine: debounce timers, validator completions and publication
// are all serialized there. At most one validator invocation is current;
// superseded invocations are cancelled and their results discarded.
type pipeline[V any] struct {
	validator            Validator[V]
	validateWhenPristine bool
	debounceValue        time.Duration
	debounceResult       time.Duration

	clock   clockz.Clock
	metrics MetricsProvider
	history *ring[error]
	storeID string
	element string

	// publish delivers a result for the input with the given seq.
	publish func(seq uint64, r Result)

	mu     sync.Mutex
	latest input[V]
	has    bool
	notify chan struct{}
}

func newPipeline[V any](
	validator Validator[V],
	validateWhenPristine bool,
	debounceValue, debounceResult time.Duration,
	create CreateOptions,
	history *ring[error],
	storeID, element string,
	publish func(seq uint64, r Result),
) *pipeline[V] {
	return &pipeline[V]{
		validator:            validator,
		validateWhenPristine: validateWhenPristine,
		debounceValue:        debounceValue,
		debounceResult:       debounceResult,
		clock:                create.Clock,
		metrics:              create.Metrics,
		history:              history,
		storeID:              storeID,
		element:              element,
		publish:              publish,
		notify:               make(chan struct{}, 1),
	}
}

// push parks the latest input in the mailbox. It never blocks; only the
// newest input is kept. Inputs pushed before run starts are held until it does.
func (p *pipeline[V]) push(in input[V]) {
	p.mu.Lock()
	p.latest = in
	p.has = true
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *pipeline[V]) take() (input[V], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	in, ok := p.latest, p.has
	p.has = false
	return in, ok
}

// eligible reports whether an input needs the validator at all.
func (p *pipeline[V]) eligible(in input[V]) bool {
	if !in.isTouched {
		return false
	}
	return in.isDirty || p.validateWhenPristine
}

// run is the pipeline loop. It exits when ctx is done.
func (p *pipeline[V]) run(ctx context.Context) {
	var (
		current  input[V]
		gen      uint64
		inflight bool
		cancel   context.CancelFunc = func() {}

		valueTimer clockz.Timer
		valueC     <-chan time.Time
		holdTimer  clockz.Timer
		holdC      <-chan time.Time
		held       Result
		heldSeq    uint64
	)
	outcomes := make(chan outcome)

	stopValue := func() {
		if valueTimer != nil {
			valueTimer.Stop()
			valueTimer, valueC = nil, nil
		}
	}
	stopHold := func() {
		if holdTimer != nil {
			holdTimer.Stop()
			holdTimer, holdC = nil, nil
		}
	}
	defer func() {
		cancel()
		stopValue()
		stopHold()
	}()

	// emit publishes r once it has been the latest output for debounceResult.
	emit := func(seq uint64, r Result) {
		if p.debounceResult <= 0 {
			p.publish(seq, r)
			return
		}
		stopHold()
		held, heldSeq = r, seq
		holdTimer = p.clock.NewTimer(p.debounceResult)
		holdC = holdTimer.C()
	}

	evaluate := func(in input[V]) {
		if !p.eligible(in) {
			emit(in.seq, Success())
			return
		}
		emit(in.seq, Inconclusive())

		vctx, vcancel := context.WithCancel(ctx)
		cancel = vcancel
		inflight = true

		p.metrics.OnValidationStarted()
		capitan.Emit(ctx, ValidationStarted,
			KeyStoreID.Field(p.storeID),
			KeyElement.Field(p.element),
		)
		go p.invoke(vctx, gen, in, outcomes)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-p.notify:
			in, ok := p.take()
			if !ok {
				continue
			}
			gen++
			if inflight {
				cancel()
				inflight = false
				p.metrics.OnValidationCancelled()
				capitan.Emit(ctx, ValidationCancelled,
					KeyStoreID.Field(p.storeID),
					KeyElement.Field(p.element),
				)
			}
			stopValue()
			stopHold()
			current = in

			if p.debounceValue > 0 {
				valueTimer = p.clock.NewTimer(p.debounceValue)
				valueC = valueTimer.C()
				continue
			}
			evaluate(current)

		case <-valueC:
			valueTimer, valueC = nil, nil
			evaluate(current)

		case out := <-outcomes:
			if out.gen != gen || !inflight {
				continue
			}
			inflight = false
			cancel()
			p.settled(ctx, out)
			emit(out.seq, out.result)

		case <-holdC:
			holdTimer, holdC = nil, nil
			p.publish(heldSeq, held)
		}
	}
}

// invoke runs the validator and reports back unless the invocation has
// been superseded.
func (p *pipeline[V]) invoke(ctx context.Context, gen uint64, in input[V], out chan<- outcome) {
	start := p.clock.Now()
	o := outcome{gen: gen, seq: in.seq}

	func() {
		defer func() {
			if r := recover(); r != nil {
				msg := fmt.Sprint(r)
				o.result = Failure(msg)
				o.err = fmt.Errorf("validator panic: %s", msg)
				o.panicked = true
			}
		}()
		err := p.validator.Validate(ctx, in.value)
		o.result = resultOf(err)
		o.err = err
	}()
	o.elapsed = p.clock.Since(start)

	select {
	case out <- o:
	case <-ctx.Done():
	}
}

// settled records observability for a current outcome.
func (p *pipeline[V]) settled(ctx context.Context, out outcome) {
	p.metrics.OnValidationSettled(out.result.Verdict, out.elapsed)

	if out.panicked {
		p.history.push(fmt.Errorf("%s: %w", p.element, out.err))
		capitan.Emit(ctx, ValidationPanicked,
			KeyStoreID.Field(p.storeID),
			KeyElement.Field(p.element),
			KeyError.Field(out.err.Error()),
		)
	} else if out.err != nil {
		p.history.push(fmt.Errorf("%s: %w", p.element, out.err))
	}

	errMsg := ""
	if out.err != nil {
		errMsg = out.err.Error()
	}
	capitan.Emit(ctx, ValidationSettled,
		KeyStoreID.Field(p.storeID),
		KeyElement.Field(p.element),
		KeyVerdict.Field(out.result.Verdict.String()),
		KeyDuration.Field(out.elapsed),
		KeyError.Field(errMsg),
	)
}
