package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cscanfuse/internal/models"
	"cscanfuse/pkg/parser"
)

const goodScan = "Operator=test\nmm\t0\t1\t2\n0\t1\t2\t3\n1\t4\tND\t6\n"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessSkipsMalformedFile(t *testing.T) {
	files := []RawFile{
		{Name: "first.txt", Content: goodScan},
		{Name: "broken.txt", Content: "Operator=test\nmm\t0\t1\n"},
		{Name: "third.csv", Content: "Scan,0,1\n0,5,6\n1,7,8\n"},
	}

	var mu sync.Mutex
	var calls [][2]int
	progress := func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{completed, total})
	}

	var logs bytes.Buffer
	p := NewProcessor(
		WithWorkers(3),
		WithProgress(progress),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	result, err := p.Process(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "first.txt", result.Records[0].Filename)
	assert.Equal(t, "third.csv", result.Records[1].Filename)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "broken.txt", result.Failures[0].Name)
	var perr *parser.ParseError
	assert.True(t, errors.As(result.Failures[0].Err, &perr))

	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
	assert.Contains(t, logs.String(), "file=broken.txt")
}

func TestProcessKeepsInputOrder(t *testing.T) {
	var files []RawFile
	for i := 0; i < 20; i++ {
		files = append(files, RawFile{Name: fmt.Sprintf("scan_%02d.txt", i), Content: goodScan})
	}

	result, err := NewProcessor(WithWorkers(4), WithLogger(quietLogger())).Process(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, result.Records, len(files))

	ids := map[string]bool{}
	for i, rec := range result.Records {
		assert.Equal(t, files[i].Name, rec.Filename)
		assert.False(t, ids[rec.ID], "duplicate id %s", rec.ID)
		ids[rec.ID] = true
	}
}

func TestProcessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	p := NewProcessor(WithProgress(func(int, int) { calls++ }), WithLogger(quietLogger()))

	result, err := p.Process(ctx, []RawFile{{Name: "a.txt", Content: goodScan}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Records)
	assert.Equal(t, 0, calls)
}

func TestProcessCustomParser(t *testing.T) {
	custom := parser.New(parser.GenericStrategy{})

	p := NewProcessor(WithParser(custom.Parse), WithLogger(quietLogger()))
	result, err := p.Process(context.Background(), []RawFile{
		// The metadata-header layout is not recognised without its strategy,
		// so the marker row is read as a generic label row
		{Name: "a.txt", Content: "mm,0,1\n0,1,2\n"},
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, []float64{0, 1}, result.Records[0].XAxis)
}

func TestProcessEmptyBatch(t *testing.T) {
	result, err := NewProcessor().Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Failures)
}

func TestParseAll(t *testing.T) {
	slog.SetDefault(quietLogger())

	calls := 0
	records := ParseAll([]RawFile{
		{Name: "a.txt", Content: goodScan},
		{Name: "b.txt", Content: ""},
	}, func(int, int) { calls++ })

	assert.Len(t, records, 1)
	assert.Equal(t, 2, calls)
}

func TestResultComposite(t *testing.T) {
	result := Result{}
	_, ok := result.Composite()
	assert.False(t, ok)

	a, err := parser.Parse("a.txt", "mm,0,1\n0,10,10\n")
	require.NoError(t, err)
	b, err := parser.Parse("b.txt", "mm,0,1\n0,20,20\n")
	require.NoError(t, err)

	result.Records = []*models.ScanRecord{a, b}
	out, ok := result.Composite()
	require.True(t, ok)
	assert.True(t, out.IsComposite)
	assert.Equal(t, 15.0, out.Data[0][0].Value)
}
