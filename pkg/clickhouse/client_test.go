package clickhouse

import (
	"strings"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  ClientConfig
		want string
	}{
		{
			name: "native no params",
			cfg:  ClientConfig{Host: "ch", Port: 9000, Database: "fintrain", User: "default"},
			want: "clickhouse://default:@ch:9000/fintrain",
		},
		{
			name: "http with timeouts",
			cfg: ClientConfig{
				Host: "ch", Port: 8123, Database: "db", User: "u", Password: "p", UseHTTP: true,
				DialTimeout: 5 * time.Second, MaxExecTime: time.Minute,
			},
			want: "clickhouse+http://u:p@ch:8123/db?dial_timeout=5s&max_execution_time=60",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := buildDSN(tc.cfg); got != tc.want {
				t.Fatalf("buildDSN = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSchemaCoversHorizonTables(t *testing.T) {
	all := strings.Join(Schema("fintrain"), "\n")
	for _, table := range CandleTables {
		if !strings.Contains(all, "fintrain."+table) {
			t.Fatalf("schema missing %s", table)
		}
	}
	for _, table := range []string{TableWrongPredictions, TableTrainingLog, TableFeatureImportance} {
		if !strings.Contains(all, "fintrain."+table) {
			t.Fatalf("schema missing %s", table)
		}
	}
}
