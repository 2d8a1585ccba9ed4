package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/logging"
)

type dispatcherFunc func(ctx context.Context, a formflow.Action) error

func (f dispatcherFunc) Dispatch(ctx context.Context, a formflow.Action) error { return f(ctx, a) }

func TestEveryRegistersAndUnsubscribes(t *testing.T) {
	s := New(dispatcherFunc(func(context.Context, formflow.Action) error { return nil }), WithLogger(logging.Nop{}))

	sub, err := s.Every("*/5 * * * *", formflow.RequestSchema{ID: "shipments"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Zero(t, s.Len())
}

func TestEveryRejectsBadInput(t *testing.T) {
	s := New(dispatcherFunc(func(context.Context, formflow.Action) error { return nil }), WithLogger(logging.Nop{}))

	_, err := s.Every("not a cron", formflow.ValidateForm{})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CRON_EXPRESSION", formflow.ErrorCode(err))

	_, err = s.Every("@hourly")
	require.Error(t, err)

	_, err = s.Every("*/5 * * * * *", formflow.ValidateForm{})
	assert.Error(t, err, "seconds field needs the seconds parser")

	sec := New(dispatcherFunc(func(context.Context, formflow.Action) error { return nil }), WithParser(SecondsParser))
	_, err = sec.Every("*/5 * * * * *", formflow.ValidateForm{})
	assert.NoError(t, err)
}

func TestRunDispatchesInOrderAndStopsOnError(t *testing.T) {
	var got []formflow.Kind
	var reported error
	boom := errors.New("boom")

	s := New(dispatcherFunc(func(_ context.Context, a formflow.Action) error {
		got = append(got, a.Kind())
		if a.Kind() == formflow.KindValidateForm {
			return boom
		}
		return nil
	}), WithLogger(logging.Nop{}), WithErrorHandler(func(err error) { reported = err }))

	s.run("@hourly", []formflow.Action{formflow.RequestSchema{ID: "s"}, formflow.ValidateForm{}, formflow.Submit{}})

	assert.Equal(t, []formflow.Kind{formflow.KindRequestSchema, formflow.KindValidateForm}, got)
	assert.ErrorIs(t, reported, boom)
}

func TestScheduledJobFires(t *testing.T) {
	var mu sync.Mutex
	fired := 0
	s := New(dispatcherFunc(func(context.Context, formflow.Action) error {
		mu.Lock()
		defer mu.Unlock()
		fired++
		return nil
	}), WithLogger(logging.Nop{}), WithParser(SecondsParser))

	_, err := s.Every("* * * * * *", formflow.RequestSchema{ID: "s"})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.Next().IsZero())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired > 0
	}, 3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestRunRecoversPanics(t *testing.T) {
	s := New(dispatcherFunc(func(context.Context, formflow.Action) error { panic("dispatch exploded") }), WithLogger(logging.Nop{}))
	assert.NotPanics(t, func() {
		s.run("@hourly", []formflow.Action{formflow.Clear{}})
	})
}
