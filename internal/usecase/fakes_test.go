package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"FinTrain/internal/domain/models"
	"FinTrain/internal/domain/service"
	"FinTrain/internal/services/failures"
	applogger "FinTrain/pkg/logger"
)

type fakeHistory struct {
	candles []models.Candle
	err     error
	panics  string
}

func (f *fakeHistory) GetHistory(context.Context, string, string) ([]models.Candle, error) {
	if f.panics != "" {
		panic(f.panics)
	}
	return f.candles, f.err
}

type fakeEngineer struct {
	table models.FeatureTable
	err   error
}

func (f *fakeEngineer) ComputeFeatures(context.Context, string, []models.Candle, string) (models.FeatureTable, error) {
	return f.table, f.err
}

type fakeWindows struct {
	window int
	err    error
}

func (f *fakeWindows) FindBestWindow(context.Context, string, string) (int, error) {
	return f.window, f.err
}

type fakeBuilder struct {
	samples []models.LabeledSample
	err     error
	gotRows []models.FeatureRow
}

func (f *fakeBuilder) CreateDataset(rows []models.FeatureRow, _ int, _ string) ([]models.LabeledSample, error) {
	f.gotRows = rows
	return f.samples, f.err
}

type fakeCorrective struct {
	samples  []models.LabeledSample
	err      error
	storeErr error
	mu       sync.Mutex
	stored   []models.WrongPrediction
	fps      []string
}

func (f *fakeCorrective) LoadCorrectiveSamples(context.Context, string, string, int, int) ([]models.LabeledSample, error) {
	return f.samples, f.err
}

func (f *fakeCorrective) StoreWrongPrediction(_ context.Context, wp models.WrongPrediction, fp string) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, wp)
	f.fps = append(f.fps, fp)
	return nil
}

type fakeFailures struct {
	known    []string
	counts   map[string]int
	err      error
	recorded []string
}

func (f *fakeFailures) KnownFailures(context.Context) ([]string, error) { return f.known, f.err }

func (f *fakeFailures) PatternCounts(context.Context) (map[string]int, error) { return f.counts, f.err }

func (f *fakeFailures) RecordFailure(_ context.Context, fp string) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, fp)
	return nil
}

type fakeResults struct {
	mu      sync.Mutex
	entries []models.TrainingLogEntry
	err     error
}

func (f *fakeResults) LogTrainingResult(_ context.Context, e models.TrainingLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return f.err
}

func (f *fakeResults) labels() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Label)
	}
	return out
}

type memArtifacts struct {
	mu      sync.Mutex
	states  map[string][]byte
	metas   map[string]models.ModelMeta
	loadErr error
	saveErr error
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{states: map[string][]byte{}, metas: map[string]models.ModelMeta{}}
}

func (a *memArtifacts) Load(_ context.Context, key string) ([]byte, bool, error) {
	if a.loadErr != nil {
		return nil, false, a.loadErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.states[key]
	return b, ok, nil
}

func (a *memArtifacts) Save(_ context.Context, key string, state []byte) error {
	if a.saveErr != nil {
		return a.saveErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.states[key] = state
	return nil
}

func (a *memArtifacts) SaveMeta(_ context.Context, key string, meta models.ModelMeta) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metas[key] = meta
	return nil
}

func (a *memArtifacts) LoadMeta(_ context.Context, key string) (models.ModelMeta, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.metas[key]
	return m, ok, nil
}

// oracleModel predicts the class stored in column 0 of the last row.
type oracleModel struct {
	kind       string
	input      int
	nanLoss    bool
	panics     bool
	steps      int
	batches    [][]models.LabeledSample
	restored   bool
	restoreErr error
}

func (m *oracleModel) Kind() string   { return m.kind }
func (m *oracleModel) InputSize() int { return m.input }

func (m *oracleModel) Logits(w models.FeatureWindow) []float64 {
	out := make([]float64, models.NumClasses)
	idx := int(w[len(w)-1][0])
	if idx >= 0 && idx < len(out) {
		out[idx] = 10
	}
	return out
}

func (m *oracleModel) Backward(batch []models.LabeledSample) (float64, func()) {
	if m.panics {
		panic("boom")
	}
	m.batches = append(m.batches, batch)
	if m.nanLoss {
		return math.NaN(), func() { m.steps++ }
	}
	return 0.5, func() { m.steps++ }
}

func (m *oracleModel) MarshalState() ([]byte, error) {
	return json.Marshal(map[string]string{"kind": m.kind})
}

func (m *oracleModel) UnmarshalState([]byte) error {
	if m.restoreErr != nil {
		return m.restoreErr
	}
	m.restored = true
	return nil
}

type fakeFactory struct {
	mu         sync.Mutex
	panicArch  string
	nanLoss    bool
	restoreErr error
	made       []*oracleModel
}

func (f *fakeFactory) New(arch string, inputSize, _ int) (service.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &oracleModel{
		kind:       arch,
		input:      inputSize,
		panics:     arch == f.panicArch,
		nanLoss:    f.nanLoss,
		restoreErr: f.restoreErr,
	}
	f.made = append(f.made, m)
	return m, nil
}

func (f *fakeFactory) last(arch string) *oracleModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.made) - 1; i >= 0; i-- {
		if f.made[i].kind == arch {
			return f.made[i]
		}
	}
	return nil
}

// sample builds a 3x2 window carrying label in column 0 and id in column 1.
func sample(label int, id float64) models.LabeledSample {
	w := make(models.FeatureWindow, 3)
	for t := range w {
		w[t] = []float64{float64(label), id}
	}
	return models.LabeledSample{Window: w, Label: label}
}

// dataset returns train samples followed by samples with the given tail labels.
func dataset(train int, tail ...int) []models.LabeledSample {
	out := make([]models.LabeledSample, 0, train+len(tail))
	for i := 0; i < train; i++ {
		out = append(out, sample(i%4, float64(i)))
	}
	for i, l := range tail {
		out = append(out, sample(l, float64(train+i)))
	}
	return out
}

func featureTable(n int) models.FeatureTable {
	rows := make([]models.FeatureRow, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = models.FeatureRow{Time: base.Add(time.Duration(i) * time.Hour), Close: 100, Values: []float64{0.1, 0.2}}
	}
	return models.FeatureTable{Columns: []string{"a", "b"}, Rows: rows}
}

type curatorDeps struct {
	history    *fakeHistory
	engineer   *fakeEngineer
	windows    *fakeWindows
	builder    *fakeBuilder
	corrective *fakeCorrective
	failures   *fakeFailures
}

func newCuratorDeps(samples []models.LabeledSample) *curatorDeps {
	return &curatorDeps{
		history:    &fakeHistory{candles: []models.Candle{{Symbol: "BTCUSDT", Close: 1}}},
		engineer:   &fakeEngineer{table: featureTable(40)},
		windows:    &fakeWindows{window: 3},
		builder:    &fakeBuilder{samples: samples},
		corrective: &fakeCorrective{},
		failures:   &fakeFailures{counts: map[string]int{}},
	}
}

func (d *curatorDeps) curator(cfg Config) *Curator {
	l := applogger.NewNop()
	return NewCurator(d.history, d.engineer, d.windows, d.builder, d.corrective, failures.NewMemory(d.failures, l), cfg, l)
}

var errBoom = errors.New("boom")

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	errors   int
}

func (m *countingMetrics) RecordOutcome(_, _, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[status]++
}

func (m *countingMetrics) RecordValidation(string, string, string, float64, float64, float64) {}
func (m *countingMetrics) RecordCorrective(string, string, int)                               {}
func (m *countingMetrics) RecordLatency(string, float64)                                      {}

func (m *countingMetrics) RecordError(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}
