package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/colorfulnotion/rollup/chainspecs"
	"github.com/colorfulnotion/rollup/statedb"
)

func TestNoOpTracing(t *testing.T) {
	tr, err := InitTracing(context.Background(), "")
	require.NoError(t, err)
	require.False(t, tr.Enabled())
	require.NoError(t, tr.Shutdown(context.Background()))
}

func TestBlockBuildingSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tr := NewTracing(sdktrace.WithSpanProcessor(recorder))
	require.True(t, tr.Enabled())
	defer tr.Shutdown(context.Background())

	spec, err := chainspecs.ReadSpec("dev")
	require.NoError(t, err)
	state, err := spec.Genesis()
	require.NoError(t, err)
	proposed, err := state.ProposeBlock(nil, state.Tip().Timestamp()+spec.BlockInterval)
	require.NoError(t, err)
	_, err = statedb.BuildProvenBlock(context.Background(), statedb.BuilderConfig{Parallel: true}, proposed)
	require.NoError(t, err)

	names := make(map[string]bool)
	var root sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		names[s.Name()] = true
		if s.Name() == "BuildProvenBlock" {
			root = s
		}
	}
	for _, name := range []string{"BuildProvenBlock", "ComputeAccountRoot", "ComputeNullifierRoot", "ComputeNoteRoot", "ComputeChainCommitment"} {
		require.True(t, names[name], name)
	}
	require.NotNil(t, root)
	for _, s := range recorder.Ended() {
		if s.Name() != "BuildProvenBlock" {
			require.Equal(t, root.SpanContext().SpanID(), s.Parent().SpanID())
		}
	}
}
