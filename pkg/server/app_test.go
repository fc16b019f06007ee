package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinTrain/internal/domain/models"
	"FinTrain/pkg/config"
)

type fakeRunner struct {
	all     int
	symbol  string
	horizon string
	err     error
}

func (r *fakeRunner) TrainAll(context.Context) models.BatchReport {
	r.all++
	return models.BatchReport{RunID: "all"}
}

func (r *fakeRunner) TrainOne(_ context.Context, symbol, horizon string) (models.BatchReport, error) {
	r.symbol, r.horizon = symbol, horizon
	return models.BatchReport{RunID: "one"}, r.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		horizon string
		runErr  error
		wantRun string
		wantErr bool
	}{
		{name: "all units", wantRun: "all"},
		{name: "single unit", symbol: "BTCUSDT", horizon: "short", wantRun: "one"},
		{name: "runner error", symbol: "BTCUSDT", horizon: "bogus", runErr: errors.New("invalid horizon"), wantRun: "one", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{err: tt.runErr}
			closed := 0
			app := New(testConfig(), nil,
				WithRunner(r),
				WithClosers(NamedCloser{Name: "x", Close: func() error { closed++; return nil }}),
			)

			rep, err := app.RunOnce(context.Background(), tt.symbol, tt.horizon)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if rep.RunID != tt.wantRun {
				t.Fatalf("run = %q, want %q", rep.RunID, tt.wantRun)
			}
			if tt.symbol != "" && (r.symbol != tt.symbol || r.horizon != tt.horizon) {
				t.Fatalf("unit not passed through: %s/%s", r.symbol, r.horizon)
			}
			if closed != 1 {
				t.Fatalf("closers ran %d times, want 1", closed)
			}
		})
	}
}

func TestRunOnceWithoutRunner(t *testing.T) {
	app := New(testConfig(), nil)
	if _, err := app.RunOnce(context.Background(), "", ""); err == nil {
		t.Fatal("expected error without a runner")
	}
}

type stubHub struct{ stopped chan struct{} }

func (h *stubHub) Run(ctx context.Context) {
	<-ctx.Done()
	close(h.stopped)
}

func TestShutdownStopsHub(t *testing.T) {
	hub := &stubHub{stopped: make(chan struct{})}
	app := New(testConfig(), nil, WithHub(hub))
	if err := app.start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := app.shutdown(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-hub.stopped:
	case <-time.After(time.Second):
		t.Fatal("hub still running after shutdown")
	}
}
