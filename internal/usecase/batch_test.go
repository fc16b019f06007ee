package usecase

import (
	"context"
	"sync"
	"testing"

	"FinTrain/internal/domain/models"
)

type recordingTrainer struct {
	mu      sync.Mutex
	units   []models.TrainingUnit
	panicOn string
}

func (r *recordingTrainer) TrainUnit(ctx context.Context, u models.TrainingUnit) []models.TrainingOutcome {
	r.mu.Lock()
	r.units = append(r.units, u)
	r.mu.Unlock()
	if u.Symbol == r.panicOn {
		panic("unit exploded")
	}
	return []models.TrainingOutcome{{Unit: u, Architecture: models.ArchLSTM, Status: models.StatusTrained}}
}

type capturePublisher struct {
	mu   sync.Mutex
	outs []models.TrainingOutcome
}

func (c *capturePublisher) PublishOutcome(_ context.Context, o models.TrainingOutcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outs = append(c.outs, o)
	return nil
}

func (c *capturePublisher) NotifyOutcome(o models.TrainingOutcome) {
	_ = c.PublishOutcome(context.Background(), o)
}

var (
	symbols  = []string{"BTCUSDT", "ETHUSDT"}
	horizons = []string{"short", "medium", "long"}
)

func TestTrainAllVisitsEveryPairInOrder(t *testing.T) {
	for _, workers := range []int{1, 3} {
		tr := &recordingTrainer{}
		d := NewBatchDriver(tr, symbols, horizons, nil, WithWorkers(workers))
		report := d.TrainAll(context.Background())

		if len(tr.units) != 6 {
			t.Fatalf("workers=%d: %d units attempted", workers, len(tr.units))
		}
		seen := map[models.TrainingUnit]int{}
		for _, u := range tr.units {
			seen[u]++
		}
		for u, n := range seen {
			if n != 1 {
				t.Fatalf("workers=%d: %s attempted %d times", workers, u, n)
			}
		}
		want := d.Units()
		if want[0] != (models.TrainingUnit{Symbol: "BTCUSDT", Horizon: "short"}) || want[1].Symbol != "ETHUSDT" {
			t.Fatalf("horizon must be the outer loop: %v", want)
		}
		for i, o := range report.Outcomes {
			if o.Unit != want[i] {
				t.Fatalf("workers=%d: outcome %d is %s, want %s", workers, i, o.Unit, want[i])
			}
			if o.RunID != report.RunID || report.RunID == "" {
				t.Fatalf("run id not stamped")
			}
		}
	}
}

func TestTrainAllSurvivesPanickingUnit(t *testing.T) {
	tr := &recordingTrainer{panicOn: "ETHUSDT"}
	pub := &capturePublisher{}
	d := NewBatchDriver(tr, symbols, horizons, nil, WithOutcomePublisher(pub))
	report := d.TrainAll(context.Background())

	if len(report.Outcomes) != 6 {
		t.Fatalf("expected 6 outcomes, got %d", len(report.Outcomes))
	}
	if report.Count(models.StatusFailed) != 3 || report.Count(models.StatusTrained) != 3 {
		t.Fatalf("unexpected counts: failed %d trained %d", report.Count(models.StatusFailed), report.Count(models.StatusTrained))
	}
	if len(pub.outs) != 6 {
		t.Fatalf("published %d outcomes", len(pub.outs))
	}
	if report.Finished.Before(report.Started) {
		t.Fatalf("report times inverted")
	}
}

type failingTrainer struct {
	recordingTrainer
	failed []error
}

func (f *failingTrainer) FailUnit(ctx context.Context, u models.TrainingUnit, err error) models.TrainingOutcome {
	f.mu.Lock()
	f.failed = append(f.failed, err)
	f.mu.Unlock()
	return models.TrainingOutcome{RunID: RunIDFrom(ctx), Unit: u, Status: models.StatusFailed, Err: err.Error()}
}

func TestPanickingUnitUsesTrainerFailurePath(t *testing.T) {
	tr := &failingTrainer{recordingTrainer: recordingTrainer{panicOn: "ETHUSDT"}}
	d := NewBatchDriver(tr, symbols, []string{"short"}, nil)
	report := d.TrainAll(context.Background())

	if len(tr.failed) != 1 || tr.failed[0].Error() != "panic: unit exploded" {
		t.Fatalf("failure path not used: %v", tr.failed)
	}
	if report.Count(models.StatusFailed) != 1 || len(report.Outcomes) != 2 {
		t.Fatalf("unexpected outcomes %+v", report.Outcomes)
	}
	for _, o := range report.Outcomes {
		if o.Status == models.StatusFailed && (o.RunID != report.RunID || o.Unit.Symbol != "ETHUSDT") {
			t.Fatalf("failed outcome not stamped: %+v", o)
		}
	}
}

func TestTrainOne(t *testing.T) {
	tr := &recordingTrainer{}
	n := &capturePublisher{}
	d := NewBatchDriver(tr, symbols, horizons, nil, WithNotifier(n))

	report, err := d.TrainOne(context.Background(), "SOLUSDT", "long")
	if err != nil {
		t.Fatalf("train one: %v", err)
	}
	if len(tr.units) != 1 || tr.units[0].Symbol != "SOLUSDT" || len(report.Outcomes) != 1 || len(n.outs) != 1 {
		t.Fatalf("unexpected run: %v %v", tr.units, report.Outcomes)
	}
	if _, err := d.TrainOne(context.Background(), "SOLUSDT", "weekly"); err == nil {
		t.Fatalf("unknown horizon accepted")
	}
	if _, err := d.TrainOne(context.Background(), "", "long"); err == nil {
		t.Fatalf("empty symbol accepted")
	}
}

func TestRunIDContext(t *testing.T) {
	if RunIDFrom(context.Background()) != "" {
		t.Fatalf("expected empty run id")
	}
	if RunIDFrom(WithRunID(context.Background(), "r1")) != "r1" {
		t.Fatalf("run id lost")
	}
}
