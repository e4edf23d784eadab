package sz

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/szsafe/szsafe-go/pkg/sz/mocksz"
)

func drain(t *testing.T, x *Export) []string {
	t.Helper()
	var chunks []string
	for {
		chunk, err := x.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
}

func TestExportCursor(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)
	loadRecords(t, eng)

	x, err := eng.ExportJSONEntityReport(ctx, ExportDefaultFlags)
	require.NoError(t, err)
	require.Equal(t, ExportDefaultFlags.Native(), lib.LastFlags("Engine.ExportJSONEntityReport"))

	chunks := drain(t, x)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		require.True(t, strings.HasSuffix(c, "\n"))
		require.Contains(t, c, "RESOLVED_ENTITY")
	}

	_, err = x.Next(ctx)
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, x.Close())
	require.NoError(t, x.Close())
	require.Equal(t, 1, lib.Calls("Engine.CloseExport"))
	require.Equal(t, 1, lib.Closed(mocksz.FamilyExport))

	_, err = x.Next(ctx)
	require.ErrorIs(t, err, ErrExportClosed)
	require.Zero(t, lib.OpenHandles())
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	env, _ := newEnv(t)
	eng := engineOf(t, env)
	loadRecords(t, eng)

	x, err := eng.ExportCSVEntityReport(ctx, "*", NoFlags)
	require.NoError(t, err)
	defer x.Close()

	chunks := drain(t, x)
	require.Len(t, chunks, 3)
	require.Equal(t, "RESOLVED_ENTITY_ID,DATA_SOURCE,RECORD_ID\n", chunks[0])
}

func TestStreamClosesCursor(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)
	lib.SetExportChunks("a", "b", "c")

	var got []string
	err := eng.StreamJSONEntityReport(ctx, NoFlags, func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Equal(t, 1, lib.Opened(mocksz.FamilyExport))
	require.Equal(t, 1, lib.Closed(mocksz.FamilyExport))

	stop := errors.New("stop")
	err = eng.StreamCSVEntityReport(ctx, "*", NoFlags, func(string) error { return stop })
	require.ErrorIs(t, err, stop)
	require.Equal(t, 2, lib.Closed(mocksz.FamilyExport))
	require.Zero(t, lib.OpenHandles())
}

func TestStreamHoldsOffDestroy(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)
	lib.SetExportChunks("a", "b", "c")

	destroyed := make(chan error, 1)
	var got []string
	err := eng.StreamJSONEntityReport(ctx, NoFlags, func(chunk string) error {
		if len(got) == 0 {
			go func() { destroyed <- env.Destroy() }()
			require.Eventually(t, func() bool { return env.State() == StateDestroying },
				time.Second, time.Millisecond)
		}
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-destroyed)

	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Equal(t, StateDestroyed, env.State())
	require.Equal(t, 1, lib.Opened(mocksz.FamilyExport))
	require.Equal(t, lib.Opened(mocksz.FamilyExport), lib.Closed(mocksz.FamilyExport))
	require.Equal(t, 1, lib.Calls("Engine.CloseExport"))
	require.Zero(t, lib.OpenHandles())
}

func TestStreamFetchFailureWinsOverCloseFailure(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)
	lib.SetExportChunks("a", "b")

	lib.FailNext("Engine.FetchNext", mocksz.CodeInvalidHandle, "fetch failed")
	lib.FailNext("Engine.CloseExport", 9000, "close failed")
	err := eng.StreamJSONEntityReport(ctx, NoFlags, func(string) error { return nil })
	require.ErrorIs(t, err, ErrBadInput)
	require.NotErrorIs(t, err, ErrLicense)
	require.Equal(t, 1, lib.Calls("Engine.CloseExport"))
	require.Zero(t, lib.PendingErrors())
}

func TestStreamOpenFailureClosesNothing(t *testing.T) {
	env, lib := newEnv(t)
	eng := engineOf(t, env)

	lib.FailNext("Engine.ExportJSONEntityReport", 9000, "no license")
	err := eng.StreamJSONEntityReport(context.Background(), NoFlags, func(string) error { return nil })
	require.ErrorIs(t, err, ErrLicense)
	require.Zero(t, lib.Calls("Engine.FetchNext"))
	require.Zero(t, lib.Calls("Engine.CloseExport"))
}

func TestExportDoesNotBlockDestroy(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)
	loadRecords(t, eng)

	x, err := eng.ExportJSONEntityReport(ctx, NoFlags)
	require.NoError(t, err)
	_, err = x.Next(ctx)
	require.NoError(t, err)

	require.NoError(t, env.Destroy())

	_, err = x.Next(ctx)
	require.ErrorIs(t, err, ErrDestroyed)
	require.ErrorIs(t, x.Close(), ErrDestroyed)
	require.NoError(t, x.Close())
	require.Zero(t, lib.OpenHandles())
}

func TestRawExportHandles(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)
	lib.SetExportChunks("only")

	x, err := eng.ExportJSONEntityReport(ctx, NoFlags)
	require.NoError(t, err)
	h := x.handle

	chunk, err := eng.FetchNext(ctx, h)
	require.NoError(t, err)
	require.Equal(t, "only", chunk)
	chunk, err = eng.FetchNext(ctx, h)
	require.NoError(t, err)
	require.Empty(t, chunk)

	require.NoError(t, x.Close())
	require.ErrorIs(t, eng.CloseExport(ctx, h), ErrBadInput)
}
