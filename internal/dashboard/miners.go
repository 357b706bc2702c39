package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"xelis-stats/internal/viewapi"
)

const (
	compareView   = "get_miners_blocks_time(*)"
	comparePeriod = Week
	compareLimit  = 10
)

// CompareMiners fetches the leading miners with leaders, then the weekly
// block history of each, merged into one row per time bucket:
// {time, m0_miner, m0_blocks, m1_miner, ...}. Rows are ascending by time.
func CompareMiners(ctx context.Context, f viewapi.Fetcher, leaders viewapi.Params) (*viewapi.Result, error) {
	top, err := f.FetchView(ctx, compareView, leaders)
	if err != nil {
		return nil, fmt.Errorf("fetch leading miners: %w", err)
	}

	histories := make([][]viewapi.Row, len(top.Rows))
	p := pool.New().WithErrors().WithContext(ctx)
	for i, row := range top.Rows {
		miner := row.String("miner")
		p.Go(func(ctx context.Context) error {
			res, err := f.FetchView(ctx, compareView, viewapi.Params{
				Count: true,
				Limit: compareLimit,
				Param: period(comparePeriod),
				Order: []string{"time::desc"},
				Where: []string{where("miner", miner)},
			})
			if err != nil {
				return fmt.Errorf("fetch miner %s: %w", miner, err)
			}
			histories[i] = res.Rows
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	rows := mergeByTime(histories)
	return &viewapi.Result{Rows: rows, Count: len(rows)}, nil
}

func mergeByTime(histories [][]viewapi.Row) []viewapi.Row {
	byTime := make(map[string]viewapi.Row)
	for i, rows := range histories {
		prefix := fmt.Sprintf("m%d_", i)
		for _, row := range rows {
			t := row.String("time")
			merged, ok := byTime[t]
			if !ok {
				merged = viewapi.Row{"time": t}
				byTime[t] = merged
			}
			merged[prefix+"miner"] = row["miner"]
			merged[prefix+"blocks"] = row["total_blocks"]
		}
	}

	out := make([]viewapi.Row, 0, len(byTime))
	for _, row := range byTime {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].String("time"), out[j].String("time")
		ta, okA := viewapi.ToFloat(a)
		tb, okB := viewapi.ToFloat(b)
		if okA && okB && ta != tb {
			return ta < tb
		}
		return strings.Compare(a, b) < 0
	})
	return out
}
