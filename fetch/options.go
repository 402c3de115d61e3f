package fetch

import "time"

const (
	DefaultCacheDuration = 5 * time.Minute
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// Observer receives controller lifecycle callbacks. Implementations must be
// safe for concurrent use.
type Observer interface {
	Hit(name string)
	Miss(name string)
	Retry(name string, attempt int)
	Failure(name string, err error)
}

type Options struct {
	// Name labels the controller in logs and metrics.
	Name string

	CacheDuration time.Duration
	RetryAttempts int
	RetryDelay    time.Duration

	// DisableCache makes every Request invoke the producer.
	DisableCache bool

	Now      func() time.Time
	Observer Observer
}

func DefaultOptions(name string) Options {
	return Options{
		Name:          name,
		CacheDuration: DefaultCacheDuration,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelay:    DefaultRetryDelay,
	}
}

func (o Options) normalized() Options {
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}

type nopObserver struct{}

func (nopObserver) Hit(string) {}

func (nopObserver) Miss(string) {}

func (nopObserver) Retry(string, int) {}

func (nopObserver) Failure(string, error) {}
