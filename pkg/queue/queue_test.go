package queue

import (
	"context"
	"encoding/json"
	"testing"

	"FinTrain/pkg/logger"
)

type trainPayload struct {
	Symbol  string `json:"symbol"`
	Horizon string `json:"horizon"`
}

type recordingJob struct {
	got []trainPayload
}

func (j *recordingJob) Name() string { return "recording" }
func (j *recordingJob) Type() string { return "train" }

func (j *recordingJob) Handle(_ context.Context, payload json.RawMessage) error {
	p, err := ParsePayload[trainPayload](payload)
	if err != nil {
		return err
	}
	j.got = append(j.got, *p)
	return nil
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[trainPayload](json.RawMessage(`{"symbol":"BTCUSDT","horizon":"short"}`))
	if err != nil || p.Symbol != "BTCUSDT" || p.Horizon != "short" {
		t.Fatalf("unexpected %+v %v", p, err)
	}
	empty, err := ParsePayload[trainPayload](nil)
	if err != nil || empty.Symbol != "" {
		t.Fatalf("empty payload should decode to zero value, got %+v %v", empty, err)
	}
	if _, err := ParsePayload[trainPayload](json.RawMessage(`[`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestProcessMessageDispatchesByType(t *testing.T) {
	q := NewRedisQueue(logger.NewNop(), nil, nil)
	job := &recordingJob{}
	q.RegisterJob(job)

	ok := q.processMessage(Message{ID: "1", Type: "train", Payload: json.RawMessage(`{"symbol":"ETHUSDT","horizon":"long"}`)})
	if !ok || len(job.got) != 1 || job.got[0].Symbol != "ETHUSDT" {
		t.Fatalf("job not dispatched: ok=%v got=%v", ok, job.got)
	}
	if q.processMessage(Message{ID: "2", Type: "unknown"}) {
		t.Fatalf("unknown type must not succeed")
	}
}

func TestEnqueueRejectsUnknownType(t *testing.T) {
	q := NewRedisQueue(logger.NewNop(), nil, nil)
	if _, err := q.Enqueue(context.Background(), "nope", nil); err == nil {
		t.Fatalf("expected error")
	}
}
