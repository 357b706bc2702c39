package stub

import (
	"fmt"
	"math/rand/v2"
	"time"

	"xelis-stats/internal/viewapi"
)

// Fixture sizes.
const (
	fixtureDays   = 30
	fixtureBlocks = 60
)

var fixtureMiners = []string{
	"xel:qze8k8v0nhxc0wmtx3jq6yqkq0hz7c7kc2ts2m6c5n0m2ek4y9zsqhz0q7a",
	"xel:ys4peuzztwl67rzhsdu0yxfzwcfmgt85uu53hycpeeary7n8qvysqmxznt0",
	"xel:vs3mfyywt0fjys0rgslue7mm4wr23xdgejsjk0ld7f2kxng4d4nqqnkdufz",
	"xel:8w4xqnv6f8r4u5zz9l3hmd3xuhryek3l4wq8tjk57wqc7ds6uk6sqfzq2dc",
}

var fixtureExchanges = []string{"tradeogre", "nonkyc", "xeggex"}

var fixtureAssets = []string{"USDT", "BTC"}

// Fixtures returns a backend preloaded with deterministic demo data for
// every view the catalog and the dashboards query. now anchors the daily
// series so "today" filters match.
func Fixtures(now time.Time) *Backend {
	b := NewBackend()
	rng := rand.New(rand.NewPCG(42, 1024))
	today := now.UTC().Truncate(24 * time.Hour)

	days := make([]time.Time, fixtureDays)
	for i := range days {
		days[i] = today.AddDate(0, 0, i-fixtureDays+1)
	}

	b.SetView("get_blocks_time(*)", blocksTime(rng, days))
	b.SetView("get_blocks_topo(*)", blocksTopo(rng))
	b.SetView("blocks", blocks(rng, now))
	b.SetView("accounts", accounts(now))
	b.SetView("get_accounts()", accountDetails(rng))
	b.SetView("transactions", transactions(rng))
	b.SetView("get_txs()", txs(rng, now))
	b.SetView("get_transfers()", transfers(rng, now))
	b.SetView("transaction_transfers", txTransfers(rng))
	b.SetView("get_stats()", []viewapi.Row{{
		"topoheight":         int64(1_250_000),
		"circulating_supply": int64(412_345_678_900_000),
		"account_count":      int64(18_250),
		"tx_count":           int64(96_430),
		"contract_count":     int64(12),
		"blockchain_size":    int64(3_221_225_472),
		"sum_fees":           int64(1_234_567_890),
	}})

	b.SetView("get_market_assets()", nameRows("asset", fixtureAssets))
	b.SetView("get_market_exchanges()", nameRows("exchange", fixtureExchanges))
	b.SetView("get_market_history_time(*)", marketHistory(rng, days, false))
	b.SetView("get_market_history_exchange_time(*)", marketHistory(rng, days, true))
	b.SetView("get_market_tickers_time(*)", marketTickers(rng, days, false))
	b.SetView("get_market_tickers_exchange_time(*)", marketTickers(rng, days, true))
	b.SetView("get_market_tickers_price_change(*)", priceChange(rng))

	b.SetView("get_txs_time(*)", series(days, func(i int) viewapi.Row {
		return viewapi.Row{"transfer_count": int64(200 + rng.IntN(300))}
	}))
	b.SetView("get_miners_count_time(*)", series(days, func(i int) viewapi.Row {
		return viewapi.Row{"miner_count": int64(40 + rng.IntN(20))}
	}))
	b.SetView("get_accounts_count_time(*)", cumulative(days, "account_count", "cumulative_account_count", 17_000, func() int64 {
		return int64(20 + rng.IntN(60))
	}))
	b.SetView("get_accounts_active_time(*)", series(days, func(i int) viewapi.Row {
		active := int64(800 + rng.IntN(400))
		return viewapi.Row{"active_accounts": active, "inactive_accounts": 18_000 - active}
	}))
	b.SetView("get_miners_blocks_time(*)", minersBlocksTime(rng, days))
	b.SetView("get_miners_blocks()", minersBlocks(rng))
	b.SetView("get_accounts_txs_time(*)", accountsTxsTime(rng, days))

	return b
}

func nameRows(key string, names []string) []viewapi.Row {
	rows := make([]viewapi.Row, len(names))
	for i, n := range names {
		rows[i] = viewapi.Row{key: n}
	}
	return rows
}

func series(days []time.Time, fn func(i int) viewapi.Row) []viewapi.Row {
	rows := make([]viewapi.Row, len(days))
	for i, d := range days {
		row := fn(i)
		row["time"] = d.Format(time.RFC3339)
		rows[i] = row
	}
	return rows
}

func cumulative(days []time.Time, key, cumKey string, start int64, next func() int64) []viewapi.Row {
	total := start
	return series(days, func(int) viewapi.Row {
		n := next()
		total += n
		return viewapi.Row{key: n, cumKey: total}
	})
}

func blocksTime(rng *rand.Rand, days []time.Time) []viewapi.Row {
	var cumBlocks, cumSync, cumSide, cumOrphaned, cumTx int64
	var cumFees, cumReward, cumSize int64
	supply := int64(300_000_000_000_000)

	return series(days, func(int) viewapi.Row {
		count := int64(5600 + rng.IntN(200))
		side := int64(rng.IntN(40))
		orphaned := int64(rng.IntN(10))
		sync := count - side - orphaned
		txs := int64(150 + rng.IntN(300))
		fees := txs * int64(25_000+rng.IntN(5_000))
		reward := count * 145_000_000
		size := count * int64(1_200+rng.IntN(400))
		diff := 1.8e10 + rng.Float64()*4e9
		spread := diff * 0.2

		cumBlocks += count
		cumSync += sync
		cumSide += side
		cumOrphaned += orphaned
		cumTx += txs
		cumFees += fees
		cumReward += reward
		cumSize += size
		supply += reward

		return viewapi.Row{
			"block_count":                     count,
			"cumulative_block_count":          cumBlocks,
			"sync_block_count":                sync,
			"cumulative_sync_block_count":     cumSync,
			"side_block_count":                side,
			"cumulative_side_block_count":     cumSide,
			"orphaned_block_count":            orphaned,
			"cumulative_orphaned_block_count": cumOrphaned,
			"sum_block_fees":                  fees,
			"avg_block_fees":                  fees / count,
			"cumulative_block_fees":           cumFees,
			"min_block_fees":                  int64(0),
			"max_block_fees":                  int64(250_000),
			"avg_block_reward":                reward / count,
			"sum_block_reward":                reward,
			"cumulative_block_reward":         cumReward,
			"avg_tx_count":                    float64(txs) / float64(count),
			"sum_tx_count":                    txs,
			"cumulative_tx_count":             cumTx,
			"min_tx_count":                    int64(0),
			"max_tx_count":                    int64(12),
			"avg_difficulty":                  diff,
			"min_difficulty":                  diff - spread,
			"max_difficulty":                  diff + spread,
			"first_difficulty":                diff - spread/2 + rng.Float64()*spread,
			"last_difficulty":                 diff - spread/2 + rng.Float64()*spread,
			"avg_block_size":                  size / count,
			"sum_block_size":                  size,
			"cumulative_block_size":           cumSize,
			"min_block_size":                  int64(124),
			"max_block_size":                  int64(48_000),
			"supply":                          supply,
			"block_time":                      float64(86_400_000) / float64(count),
		}
	})
}

func blocksTopo(rng *rand.Rand) []viewapi.Row {
	rows := make([]viewapi.Row, 20)
	for i := range rows {
		minTopo := int64(1_200_000 + i*1000)
		txs := int64(20 + rng.IntN(80))
		reward := int64(1000 * 145_000_000)
		fees := txs * 25_000
		rows[i] = viewapi.Row{
			"min_topo":         minTopo,
			"max_topo":         minTopo + 999,
			"avg_difficulty":   1.8e10 + rng.Float64()*4e9,
			"sum_tx_count":     txs,
			"avg_tx_count":     float64(txs) / 1000,
			"max_tx_count":     int64(10),
			"min_tx_count":     int64(0),
			"sum_block_reward": reward,
			"avg_block_reward": reward / 1000,
			"sum_block_size":   int64(1_300_000 + rng.IntN(200_000)),
			"avg_block_size":   int64(1_300 + rng.IntN(200)),
			"sum_total_fees":   fees,
			"avg_total_fees":   fees / 1000,
			"supply":           int64(400_000_000_000_000) + minTopo*145_000_000,
		}
	}
	return rows
}

func blocks(rng *rand.Rand, now time.Time) []viewapi.Row {
	rows := make([]viewapi.Row, fixtureBlocks)
	types := []string{"Sync", "Normal", "Side", "Orphaned"}
	for i := range rows {
		topo := int64(1_250_000 - fixtureBlocks + i + 1)
		txs := int64(rng.IntN(6))
		rows[i] = viewapi.Row{
			"hash":                  fmt.Sprintf("%064x", topo*7919),
			"topoheight":            topo,
			"height":                topo - 3_500,
			"timestamp":             now.Add(-time.Duration(fixtureBlocks-i) * 15 * time.Second).UnixMilli(),
			"block_type":            types[rng.IntN(len(types))],
			"cumulative_difficulty": fmt.Sprintf("%d", topo*20_000_000_000),
			"supply":                int64(400_000_000_000_000) + topo*145_000_000,
			"difficulty":            1.8e10 + rng.Float64()*4e9,
			"reward":                int64(145_000_000),
			"miner":                 fixtureMiners[rng.IntN(len(fixtureMiners))],
			"nonce":                 rng.Int64N(1 << 40),
			"total_fees":            txs * 25_000,
			"total_size_in_bytes":   int64(124 + txs*1_100),
			"tx_count":              txs,
			"version":               int64(1),
		}
	}
	return rows
}

func accounts(now time.Time) []viewapi.Row {
	rows := make([]viewapi.Row, len(fixtureMiners))
	for i, m := range fixtureMiners {
		rows[i] = viewapi.Row{
			"addr":       m,
			"timestamp":  now.AddDate(0, 0, -100+i).UnixMilli(),
			"topoheight": int64(100_000 * (i + 1)),
		}
	}
	return rows
}

func accountDetails(rng *rand.Rand) []viewapi.Row {
	rows := make([]viewapi.Row, len(fixtureMiners))
	for i, m := range fixtureMiners {
		mined := int64(1_000 + rng.IntN(50_000))
		rows[i] = viewapi.Row{
			"addr":         m,
			"total_txs":    int64(rng.IntN(500)),
			"mined_blocks": mined,
			"rewards":      mined * 145_000_000,
			"registered":   int64(100_000 * (i + 1)),
		}
	}
	return rows
}

func transactions(rng *rand.Rand) []viewapi.Row {
	rows := make([]viewapi.Row, 40)
	for i := range rows {
		rows[i] = viewapi.Row{
			"hash":              fmt.Sprintf("%064x", (i+1)*104729),
			"fee":               int64(25_000 + rng.IntN(5_000)),
			"nonce":             int64(i),
			"owner":             fixtureMiners[i%len(fixtureMiners)],
			"signature":         fmt.Sprintf("%0128x", (i+1)*15485863),
			"executed_in_block": fmt.Sprintf("%064x", (i+1)*7919),
			"version":           int64(0),
			"total_transfers":   int64(1 + rng.IntN(3)),
		}
	}
	return rows
}

func txs(rng *rand.Rand, now time.Time) []viewapi.Row {
	rows := make([]viewapi.Row, 40)
	for i := range rows {
		rows[i] = viewapi.Row{
			"hash":      fmt.Sprintf("%064x", (i+1)*104729),
			"source":    fixtureMiners[i%len(fixtureMiners)],
			"fee":       int64(25_000 + rng.IntN(5_000)),
			"nonce":     int64(i),
			"timestamp": now.Add(-time.Duration(40-i) * time.Minute).UnixMilli(),
		}
	}
	return rows
}

func transfers(rng *rand.Rand, now time.Time) []viewapi.Row {
	rows := make([]viewapi.Row, 40)
	for i := range rows {
		rows[i] = viewapi.Row{
			"tx_hash":   fmt.Sprintf("%064x", (i+1)*104729),
			"from":      fixtureMiners[i%len(fixtureMiners)],
			"to":        fixtureMiners[(i+1)%len(fixtureMiners)],
			"asset":     "0000000000000000000000000000000000000000000000000000000000000000",
			"amount":    int64(rng.IntN(1_000)) * 100_000_000,
			"timestamp": now.Add(-time.Duration(40-i) * time.Minute).UnixMilli(),
		}
	}
	return rows
}

func marketHistory(rng *rand.Rand, days []time.Time, perExchange bool) []viewapi.Row {
	exchanges := []string{""}
	if perExchange {
		exchanges = fixtureExchanges
	}

	var rows []viewapi.Row
	for _, asset := range fixtureAssets {
		for _, exchange := range exchanges {
			price := 12.0
			if asset == "BTC" {
				price = 0.0002
			}
			for _, d := range days {
				first := price
				last := price * (0.95 + rng.Float64()*0.1)
				high := max(first, last) * (1 + rng.Float64()*0.03)
				low := min(first, last) * (1 - rng.Float64()*0.03)
				qty := 5_000 + rng.Float64()*20_000
				trades := int64(50 + rng.IntN(200))
				row := viewapi.Row{
					"time":         d.Format(time.RFC3339),
					"asset":        asset,
					"first_price":  first,
					"last_price":   last,
					"min_price":    low,
					"max_price":    high,
					"avg_price":    (high + low) / 2,
					"min_quantity": qty / float64(trades) / 4,
					"max_quantity": qty / float64(trades) * 4,
					"avg_quantity": qty / float64(trades),
					"sum_quantity": qty,
					"trade_count":  trades,
					"total_price":  qty * (high + low) / 2,
				}
				if perExchange {
					row["exchange"] = exchange
				}
				rows = append(rows, row)
				price = last
			}
		}
	}
	return rows
}

func marketTickers(rng *rand.Rand, days []time.Time, perExchange bool) []viewapi.Row {
	exchanges := []string{""}
	if perExchange {
		exchanges = fixtureExchanges
	}

	var rows []viewapi.Row
	for _, asset := range fixtureAssets {
		for _, exchange := range exchanges {
			price := 12.0
			if asset == "BTC" {
				price = 0.0002
			}
			for _, d := range days {
				price *= 0.95 + rng.Float64()*0.1
				row := viewapi.Row{
					"time":   d.Format(time.RFC3339),
					"asset":  asset,
					"price":  price,
					"volume": 5_000 + rng.Float64()*20_000,
				}
				if perExchange {
					row["exchange"] = exchange
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func priceChange(rng *rand.Rand) []viewapi.Row {
	rows := make([]viewapi.Row, len(fixtureAssets))
	for i, asset := range fixtureAssets {
		rows[i] = viewapi.Row{
			"asset":        asset,
			"price":        12 * (0.9 + rng.Float64()*0.2),
			"price_change": -10 + rng.Float64()*20,
		}
	}
	return rows
}

func minersBlocksTime(rng *rand.Rand, days []time.Time) []viewapi.Row {
	var rows []viewapi.Row
	for _, d := range days {
		for _, m := range fixtureMiners {
			n := int64(500 + rng.IntN(1_500))
			rows = append(rows, viewapi.Row{
				"time":         d.Format(time.RFC3339),
				"miner":        m,
				"total_blocks": n,
				"total_reward": n * 145_000_000,
			})
		}
	}
	return rows
}

func minersBlocks(rng *rand.Rand) []viewapi.Row {
	rows := make([]viewapi.Row, len(fixtureMiners))
	for i, m := range fixtureMiners {
		n := int64(50_000 + rng.IntN(200_000))
		rows[i] = viewapi.Row{
			"miner":        m,
			"total_blocks": n,
			"total_reward": n * 145_000_000,
		}
	}
	return rows
}

func accountsTxsTime(rng *rand.Rand, days []time.Time) []viewapi.Row {
	var rows []viewapi.Row
	for _, d := range days {
		for _, m := range fixtureMiners {
			n := int64(rng.IntN(40))
			rows = append(rows, viewapi.Row{
				"time":       d.Format(time.RFC3339),
				"addr":       m,
				"total_txs":  n,
				"total_fees": n * 25_000,
			})
		}
	}
	return rows
}

func txTransfers(rng *rand.Rand) []viewapi.Row {
	var rows []viewapi.Row
	for i := range 40 {
		for j := range 1 + i%3 {
			rows = append(rows, viewapi.Row{
				"tx_hash": fmt.Sprintf("%064x", (i+1)*104729),
				"index":   int64(j),
				"asset":   "0000000000000000000000000000000000000000000000000000000000000000",
				"to":      fixtureMiners[(i+j+1)%len(fixtureMiners)],
				"amount":  int64(rng.IntN(1_000)) * 100_000_000,
			})
		}
	}
	return rows
}
