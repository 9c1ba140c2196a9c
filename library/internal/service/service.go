package service

import (
	"time"
)

type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

type Option func(o *options)

type options struct {
	clock   Clock
	metrics LendingRecorder
}

func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func WithMetrics(m LendingRecorder) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opts []Option) options {
	o := options{clock: utcNow, metrics: nopRecorder{}}
	for _, op := range opts {
		op(&o)
	}
	return o
}

type LendingRecorder interface {
	Lending(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) Lending(string, string) {}
