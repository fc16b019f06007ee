package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	pkgch "FinTrain/pkg/clickhouse"
	applogger "FinTrain/pkg/logger"
)

// CHMarketHistory reads candles for a unit from the horizon's candle table.
type CHMarketHistory struct {
	db       *sql.DB
	database string
	limit    int
	l        *applogger.Logger
}

func NewCHMarketHistory(ch *pkgch.Client, limit int, l *applogger.Logger) *CHMarketHistory {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHMarketHistory{db: ch.DB(), database: ch.Database(), limit: limit, l: l}
}

func tableForHorizon(horizon string) (string, error) {
	table, ok := pkgch.CandleTables[horizon]
	if !ok {
		return "", fmt.Errorf("unsupported horizon: %s", horizon)
	}
	return table, nil
}

// GetHistory returns the newest limit candles, oldest first.
func (s *CHMarketHistory) GetHistory(ctx context.Context, symbol, horizon string) ([]models.Candle, error) {
	start := time.Now()
	table, err := tableForHorizon(horizon)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT symbol, ts, open, high, low, close, volume
        FROM %s.%s
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.database, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, s.limit)
	if err != nil {
		s.l.Error("clickhouse get_history query error",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Candle, 0, s.limit)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Symbol, &c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverseCandles(tmp)

	s.l.Debug("clickhouse get_history ok",
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.String("horizon", horizon),
		applogger.Int("rows", len(tmp)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return tmp, nil
}

func reverseCandles(cs []models.Candle) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}

var _ domrepo.MarketHistory = (*CHMarketHistory)(nil)
