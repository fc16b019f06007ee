package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	pkgch "FinTrain/pkg/clickhouse"
)

// CHResultLog writes training results and feature importances.
type CHResultLog struct {
	db       *sql.DB
	logTable string
	impTable string
	clock    func() time.Time
}

func NewCHResultLog(ch *pkgch.Client) *CHResultLog {
	return &CHResultLog{
		db:       ch.DB(),
		logTable: ch.Database() + "." + pkgch.TableTrainingLog,
		impTable: ch.Database() + "." + pkgch.TableFeatureImportance,
		clock:    time.Now,
	}
}

func (s *CHResultLog) LogTrainingResult(ctx context.Context, e models.TrainingLogEntry) error {
	at := e.LoggedAt
	if at.IsZero() {
		at = s.clock()
	}
	q := fmt.Sprintf("INSERT INTO %s (run_id, symbol, horizon, label, accuracy, f1, loss, logged_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.logTable)
	if _, err := s.db.ExecContext(ctx, q, e.RunID, e.Symbol, e.Horizon, e.Label, e.Accuracy, e.F1, e.Loss, at); err != nil {
		return fmt.Errorf("log training result: %w", err)
	}
	return nil
}

// SaveFeatureImportance inserts all importances of one model in one statement.
func (s *CHResultLog) SaveFeatureImportance(ctx context.Context, symbol, horizon, arch string, imps []models.FeatureImportance) error {
	if len(imps) == 0 {
		return nil
	}
	now := s.clock()
	values := make([]string, 0, len(imps))
	args := make([]interface{}, 0, len(imps)*6)
	for _, imp := range imps {
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, symbol, horizon, arch, imp.Feature, imp.Importance, now)
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, horizon, model, feature, importance, computed_at) VALUES %s", s.impTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save feature importance: %w", err)
	}
	return nil
}

var (
	_ domrepo.ResultLogger   = (*CHResultLog)(nil)
	_ domrepo.ImportanceSink = (*CHResultLog)(nil)
)
