package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wazeroc/wazeroc/api"
)

type recordingListener struct {
	entered, exited int
	lastErr         error
}

func (r *recordingListener) Before(context.Context, api.Module, api.FunctionDefinition, []uint64) {
	r.entered++
}

func (r *recordingListener) After(_ context.Context, _ api.Module, _ api.FunctionDefinition, _ []uint64, err error) {
	r.exited++
	r.lastErr = err
}

func TestNopListenerIsSafeToCall(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop.Before(context.Background(), nil, nil, nil)
		Nop.After(context.Background(), nil, nil, nil, nil)
	})
}
