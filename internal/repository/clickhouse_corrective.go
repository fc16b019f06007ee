package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	pkgch "FinTrain/pkg/clickhouse"
	applogger "FinTrain/pkg/logger"
)

// CHCorrectiveStore keeps wrong predictions in ClickHouse. Windows are
// stored as JSON so rows of any shape fit one table.
type CHCorrectiveStore struct {
	db    *sql.DB
	table string
	clock func() time.Time
	l     *applogger.Logger
}

func NewCHCorrectiveStore(ch *pkgch.Client, l *applogger.Logger) *CHCorrectiveStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHCorrectiveStore{
		db:    ch.DB(),
		table: ch.Database() + "." + pkgch.TableWrongPredictions,
		clock: time.Now,
		l:     l,
	}
}

// LoadCorrectiveSamples returns stored samples whose window is exactly
// window x inputWidth, oldest first. Undecodable rows are skipped.
func (s *CHCorrectiveStore) LoadCorrectiveSamples(ctx context.Context, symbol, horizon string, inputWidth, window int) ([]models.LabeledSample, error) {
	q := fmt.Sprintf(`
        SELECT features, label
        FROM %s
        WHERE symbol = ? AND horizon = ? AND window = ? AND input_size = ?
        ORDER BY created_at ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, horizon, window, inputWidth)
	if err != nil {
		return nil, fmt.Errorf("load corrective samples: %w", err)
	}
	defer rows.Close()

	var out []models.LabeledSample
	skipped := 0
	for rows.Next() {
		var raw string
		var label int32
		if err := rows.Scan(&raw, &label); err != nil {
			return nil, fmt.Errorf("scan corrective sample: %w", err)
		}
		sample, ok := decodeSample(raw, int(label), inputWidth, window)
		if !ok {
			skipped++
			continue
		}
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if skipped > 0 {
		s.l.Warn("corrective rows skipped",
			applogger.String("symbol", symbol),
			applogger.String("horizon", horizon),
			applogger.Int("skipped", skipped),
		)
	}
	return out, nil
}

// StoreWrongPrediction appends one wrong prediction.
func (s *CHCorrectiveStore) StoreWrongPrediction(ctx context.Context, wp models.WrongPrediction, fingerprint string) error {
	rowsN, width, ok := wp.Window.Shape()
	if !ok {
		return fmt.Errorf("wrong prediction window is not rectangular")
	}
	raw, err := json.Marshal(wp.Window)
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}
	created := wp.CreatedAt
	if created.IsZero() {
		created = s.clock()
	}
	q := fmt.Sprintf(`INSERT INTO %s (symbol, horizon, window, input_size, features, label, fingerprint, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	if _, err := s.db.ExecContext(ctx, q,
		wp.Symbol, wp.Horizon, uint32(rowsN), uint32(width), string(raw), int32(wp.Label), fingerprint, created,
	); err != nil {
		return fmt.Errorf("store wrong prediction: %w", err)
	}
	return nil
}

func decodeSample(raw string, label, width, window int) (models.LabeledSample, bool) {
	var w models.FeatureWindow
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return models.LabeledSample{}, false
	}
	r, c, ok := w.Shape()
	if !ok || r != window || c != width {
		return models.LabeledSample{}, false
	}
	return models.LabeledSample{Window: w, Label: label}, true
}

var _ domrepo.CorrectiveStore = (*CHCorrectiveStore)(nil)
