package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvagent/src/datamodels"
)

func makeSample(id string, simTimestamp int64, holdingsValue float64) datamodels.HistorySample {
	return datamodels.HistorySample{
		SampleId:          id,
		AgentID:           "0",
		SimTimestamp:      simTimestamp,
		Time:              time.Now(),
		HoldingsValue:     holdingsValue,
		Cash:              300,
		AllocatedCash:     200,
		ExpectedReturn:    1.2,
		PortfolioVariance: 0.5,
		Shares:            []int{5, 0},
		Prices:            []float64{100, 100},
	}
}

func TestRecorderBuffersSamplesInOrder(t *testing.T) {
	recorder := NewRecorder()
	ctx := context.Background()

	require.NoError(t, recorder.RecordSample(ctx, makeSample("a", 1, 1000)))
	require.NoError(t, recorder.RecordSample(ctx, makeSample("b", 2, 1100)))

	samples := recorder.Samples()
	require.Len(t, samples, 2)
	assert.Equal(t, "a", samples[0].SampleId)
	assert.Equal(t, "b", samples[1].SampleId)

	latest, ok := recorder.LatestSample()
	require.True(t, ok)
	assert.Equal(t, "b", latest.SampleId)
}

func TestRecorderTracksTradesWithoutDatabase(t *testing.T) {
	recorder := NewRecorder()
	ctx := context.Background()

	require.NoError(t, recorder.RecordTrade(ctx, datamodels.AgentTradeRecord{
		AgentID: "0", Venue: "ASSET0", OrderID: 1, Direction: datamodels.OrderDirectionBuy, Price: 100,
	}))
	require.NoError(t, recorder.RecordTerminal(ctx, datamodels.TerminalSnapshotRecord{AgentID: "0"}))

	assert.Len(t, recorder.Trades(), 1)
	terminal, ok := recorder.Terminal()
	require.True(t, ok)
	assert.Equal(t, "0", terminal.AgentID)
}

func TestFileHistoryWriterCSV(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewFileHistoryWriter(dir, FormatCSV)
	require.NoError(t, err)
	defer writer.Close()

	ctx := context.Background()
	require.NoError(t, writer.Write(ctx, makeSample("a", 1, 1000)))
	require.NoError(t, writer.Write(ctx, makeSample("b", 2, 1100)))
	require.NoError(t, writer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3) // header plus two rows
	assert.Contains(t, lines[0], "holdings_value")
	assert.Contains(t, lines[1], "1000")
}

func TestFileHistoryWriterJSON(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewFileHistoryWriter(dir, FormatJSON)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, writer.Write(ctx, makeSample("a", 1, 1000)))
	require.NoError(t, writer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var decoded datamodels.HistorySample
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &decoded))
	assert.Equal(t, "a", decoded.SampleId)
	assert.Equal(t, []int{5, 0}, decoded.Shares)
}

func TestBuildHistoryWriterSharesWebsocketStream(t *testing.T) {
	dir := t.TempDir()
	multi, wsStream, err := BuildHistoryWriter(&datamodels.HistoryWriterConfig{
		WsWriter:   true,
		FileWriter: true,
		FilePath:   dir,
		FileFormat: string(FormatJSON),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, wsStream)

	// the fan-out holds the very stream the server attaches clients to
	require.Len(t, multi.writers, 2)
	assert.Same(t, wsStream, multi.writers[0])
	require.NoError(t, multi.Close())
}

func TestBuildHistoryWriterWithoutWebsocket(t *testing.T) {
	dir := t.TempDir()
	multi, wsStream, err := BuildHistoryWriter(&datamodels.HistoryWriterConfig{
		FileWriter: true,
		FilePath:   dir,
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, wsStream)
	require.Len(t, multi.writers, 1)
	require.NoError(t, multi.Close())
}

func TestMultiWriterFansOut(t *testing.T) {
	dir := t.TempDir()
	fileWriter, err := NewFileHistoryWriter(dir, FormatJSON)
	require.NoError(t, err)

	multi := NewMultiHistoryWriter(fileWriter)
	multi.AddWriter(NewWebSocketHistoryWriter())

	require.NoError(t, multi.Write(context.Background(), makeSample("a", 1, 1000)))
	require.NoError(t, multi.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
