package countdown

import (
	"context"
	"time"

	"github.com/good-yellow-bee/countdown/internal/models"
)

// Frame is what a frontend draws for one tick.
type Frame struct {
	State   State
	Visible bool
	// Text is the HH:MM:SS remaining time, empty while hidden.
	Text  string
	Label string
	// Urgent is the sticky urgency marker.
	Urgent    bool
	Animation Animation
}

// Line returns the label and remaining time as one line.
func (f Frame) Line() string {
	return f.Label + f.Text
}

// Widget is one rendering instance of a timer. Its window is fixed at
// construction and only the wall clock drives it afterwards. A Widget is not
// safe for concurrent use.
type Widget struct {
	timer        models.PublicTimer
	start, end   time.Time
	presentation Presentation

	now      func() time.Time
	interval time.Duration

	urgent  bool
	expired bool
}

// WidgetOption configures a Widget.
type WidgetOption func(*widgetOptions)

type widgetOptions struct {
	loc      *time.Location
	now      func() time.Time
	interval time.Duration
}

// InLocation interprets the timer's civil window in loc.
func InLocation(loc *time.Location) WidgetOption {
	return func(o *widgetOptions) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) WidgetOption {
	return func(o *widgetOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTickInterval replaces TickInterval.
func WithTickInterval(d time.Duration) WidgetOption {
	return func(o *widgetOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// NewWidget prepares a widget for t. A window that cannot be parsed yields a
// MalformedResponseError.
func NewWidget(t models.PublicTimer, opts ...WidgetOption) (*Widget, error) {
	o := widgetOptions{loc: time.Local, now: time.Now, interval: TickInterval}
	for _, opt := range opts {
		opt(&o)
	}

	start, end, err := t.Window(o.loc)
	if err != nil {
		return nil, &MalformedResponseError{Reason: "invalid timer window: " + err.Error()}
	}

	return &Widget{
		timer:        t,
		start:        start,
		end:          end,
		presentation: NewPresentation(t),
		now:          o.now,
		interval:     o.interval,
	}, nil
}

// Timer returns the payload the widget renders.
func (w *Widget) Timer() models.PublicTimer {
	return w.timer
}

// Presentation returns the static styling.
func (w *Widget) Presentation() Presentation {
	return w.presentation
}

// Window returns the fixed start and end instants.
func (w *Widget) Window() (start, end time.Time) {
	return w.start, w.end
}

// Done reports whether the widget has expired.
func (w *Widget) Done() bool {
	return w.expired
}

// Tick evaluates the widget at now. Once Expired, every later tick is Expired.
func (w *Widget) Tick(now time.Time) Frame {
	if w.expired {
		return Frame{State: Expired}
	}

	state := Evaluate(w.start, w.end, now)
	switch state {
	case Expired:
		w.expired = true
		return Frame{State: Expired}
	case Pending:
		return Frame{State: Pending}
	case Urgent:
		w.urgent = true
	case Running:
		if w.urgent {
			state = Urgent
		}
	}

	f := Frame{
		State:   state,
		Visible: true,
		Text:    FormatRemaining(w.end.Sub(now)),
		Label:   w.presentation.Label,
		Urgent:  w.urgent,
	}
	if w.urgent {
		f.Animation = w.presentation.Animation
	}
	return f
}

// Run evaluates the widget immediately and then once per tick interval,
// passing each frame to render. It returns nil once the widget expires, or
// the context error if ctx ends first. Late ticks are dropped, not queued.
func (w *Widget) Run(ctx context.Context, render func(Frame)) error {
	frame := w.Tick(w.now())
	render(frame)
	if frame.State == Expired {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			frame := w.Tick(w.now())
			render(frame)
			if frame.State == Expired {
				return nil
			}
		}
	}
}
