package source

import (
	"context"
	"slices"
	"strconv"

	"golang.org/x/text/message"

	"xelis-stats/internal/emission"
	"xelis-stats/internal/format"
	"xelis-stats/internal/i18n"
	"xelis-stats/internal/query"
	"xelis-stats/internal/viewapi"
)

// viewCall captures a view name and its static defaults. Query state
// overrides are applied per call.
type viewCall struct {
	view          string
	order         []string
	periodDefault string
	// whereKeys map extra query keys to where filters (asset, exchange).
	whereKeys []string
}

// Params builds fetch params for a query state.
func (c viewCall) Params(state query.State) viewapi.Params {
	p := viewapi.Params{
		Count:  true,
		Limit:  state.Limit(),
		Offset: state.Offset(),
		Order:  slices.Clone(c.order),
	}

	if c.periodDefault != "" {
		period := state.Period
		if period == "" {
			period = c.periodDefault
		}
		p.Param = []string{period}
	}

	if len(state.Order) > 0 {
		p.Order = query.OrderTokens(state.Order)
	}

	p.Where = query.FilterTokens(state.Where)
	for _, key := range c.whereKeys {
		if v := state.Get(key); v != "" {
			p.Where = append(p.Where, query.Filter{Field: key, Op: query.OpEq, Value: v}.String())
		}
	}
	return p
}

func (c viewCall) getData(f viewapi.Fetcher) GetDataFunc {
	return func(ctx context.Context, state query.State) (*viewapi.Result, error) {
		return f.FetchView(ctx, c.view, c.Params(state))
	}
}

func timeSeries(view string, whereKeys ...string) viewCall {
	return viewCall{
		view:          view,
		order:         []string{"time::desc"},
		periodDefault: DefaultTimePeriod,
		whereKeys:     whereKeys,
	}
}

// formatter adapts a single-value formatter.
func formatter(fn func(any) string) FormatFunc {
	return func(v any, _ viewapi.Row) string {
		return fn(v)
	}
}

// Catalog builds the XELIS data sources with display strings from p.
func Catalog(f viewapi.Fetcher, p *message.Printer) []*Source {
	t := func(s string) string { return i18n.T(p, s) }

	xel := formatter(format.XEL)
	hashRate := formatter(format.Difficulty)
	size := formatter(format.Size)
	ts := formatter(format.Time)
	num := func(v any, _ viewapi.Row) string { return format.Number(p, v) }
	ms := formatter(format.Duration)
	pct := formatter(format.Percent)
	timeKey := TimeKey("time")

	timeColumn := func(title string) Column {
		return Formatted("time", t(title), ts).TableOnly()
	}

	priceColumns := func() []Column {
		return []Column{
			Plain("first_price", t("Price (first)")),
			Plain("last_price", t("Price (last)")),
			Plain("min_price", t("Price (min)")),
			Plain("max_price", t("Price (max)")),
			Plain("avg_price", t("Price (avg)")),
			Plain("min_quantity", t("Volume (min)")),
			Plain("max_quantity", t("Volume (max)")),
			Plain("avg_quantity", t("Volume (avg)")),
			Plain("sum_quantity", t("Volume (sum)")),
			Plain("trade_count", t("Trade Count")),
			Plain("total_price", t("Total Price")),
			CandleColumn("price_candle", t("Price & Volume"), CandleMapping{
				HighKey: "max_price", LowKey: "min_price", OpenKey: "first_price", CloseKey: "last_price",
			}).WithBottomChart("sum_quantity"),
		}
	}

	identity := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	return []*Source{
		{
			Key:           "blocks",
			Title:         t("Blocks"),
			Description:   t("List all blocks."),
			RowKey:        FieldKey("topoheight"),
			GetData:       viewCall{view: "blocks", order: []string{"topoheight::desc"}}.getData(f),
			TimeFormatter: identity,
			Columns: []Column{
				Plain("hash", t("Hash")).TableOnly(),
				Plain("topoheight", t("Topoheight")).TableOnly(),
				Formatted("timestamp", t("Timestamp"), ts).TableOnly(),
				Plain("block_type", t("Block Type")).TableOnly(),
				Plain("cumulative_difficulty", t("Cumulative Difficulty")),
				Formatted("supply", t("Supply"), xel),
				Formatted("difficulty", t("Difficulty"), hashRate),
				Formatted("reward", t("Reward"), xel),
				Plain("height", t("Height")).TableOnly(),
				Plain("miner", t("Miner")).TableOnly(),
				Plain("nonce", t("Nonce")).TableOnly(),
				Formatted("total_fees", t("Total Fees"), xel),
				Formatted("total_size_in_bytes", t("Total Size"), size),
				Plain("tx_count", t("TX Count")),
				Plain("version", t("Version")).TableOnly(),
			},
		},
		{
			Key:         "accounts",
			Title:       t("Accounts"),
			Description: t("List all accounts."),
			GetData:     viewCall{view: "accounts", order: []string{"timestamp::desc"}}.getData(f),
			Columns: []Column{
				Plain("addr", t("Hash")).TableOnly(),
				Formatted("timestamp", t("Timestamp"), ts).TableOnly(),
				Plain("topoheight", t("Topoheight")).TableOnly(),
			},
		},
		{
			Key:           "transactions",
			Title:         t("Transactions"),
			Description:   t("List all transactions."),
			RowKey:        FieldKey("nonce"),
			GetData:       viewCall{view: "transactions", order: []string{"nonce::desc"}}.getData(f),
			TimeFormatter: identity,
			Columns: []Column{
				Plain("hash", t("Hash")).TableOnly(),
				Formatted("fee", t("Fee"), xel),
				Plain("nonce", t("Nonce")).TableOnly(),
				Plain("owner", t("Owner")).TableOnly(),
				Plain("signature", t("Signature")).TableOnly(),
				Plain("executed_in_block", t("Block")).TableOnly(),
				Plain("version", t("Version")).TableOnly(),
				Plain("total_transfers", t("Transfers")),
			},
		},
		{
			Key:         "blocks_by_time",
			Title:       t("Blocks (Time)"),
			Description: t("Aggregate data of blocks through time-based interval."),
			RowKey:      timeKey,
			GetData:     timeSeries("get_blocks_time(*)").getData(f),
			Filters:     []FilterSpec{TimePeriodFilter(p)},
			Columns: []Column{
				timeColumn("Period (Time)"),

				Formatted("block_count", t("Block Count (sum)"), num),
				Formatted("cumulative_block_count", t("Block Count (cumulative)"), num),
				Formatted("sync_block_count", t("Block Count (sync)"), num),
				Formatted("cumulative_sync_block_count", t("Block Count (sync | cumulative)"), num),
				Formatted("side_block_count", t("Block Count (side)"), num),
				Formatted("cumulative_side_block_count", t("Block Count (side | cumulative)"), num),
				Formatted("orphaned_block_count", t("Block Count (orphaned)"), num),
				Formatted("cumulative_orphaned_block_count", t("Block Count (orphaned | cumulative)"), num),

				Formatted("sum_block_fees", t("Block Fees (sum)"), xel),
				Formatted("avg_block_fees", t("Block Fees (avg)"), xel),
				Formatted("cumulative_block_fees", t("Block Fees (cumulative)"), xel),
				Formatted("min_block_fees", t("Block Fees (min)"), xel),
				Formatted("max_block_fees", t("Block Fees (max)"), xel),

				Formatted("avg_block_reward", t("Block Reward (avg)"), xel),
				Formatted("sum_block_reward", t("Block Reward (sum)"), xel),
				Formatted("cumulative_block_reward", t("Block Reward (cumulative)"), xel),

				Formatted("avg_tx_count", t("TX Count (avg)"), num),
				Formatted("sum_tx_count", t("TX Count (sum)"), num),
				Formatted("cumulative_tx_count", t("TX Count (cumulative)"), num),
				Formatted("min_tx_count", t("TX Count (min)"), num),
				Formatted("max_tx_count", t("TX Count (max)"), num),

				Formatted("avg_difficulty", t("Hash Rate (avg)"), hashRate),
				Formatted("min_difficulty", t("Hash Rate (min)"), hashRate),
				Formatted("max_difficulty", t("Hash Rate (max)"), hashRate),

				Formatted("avg_block_size", t("Block Size (avg)"), size),
				Formatted("sum_block_size", t("Block Size (sum)"), size),
				Formatted("cumulative_block_size", t("Block Size (cumulative)"), size),
				Formatted("min_block_size", t("Block Size (min)"), size),
				Formatted("max_block_size", t("Block Size (max)"), size),

				Formatted("supply", t("Supply"), xel),
				Formatted("block_time", t("Block Time (avg)"), ms),
				CandleColumn("diff_candle", t("Hash Rate"), CandleMapping{
					HighKey: "max_difficulty", LowKey: "min_difficulty", OpenKey: "first_difficulty", CloseKey: "last_difficulty",
				}).WithFormat(hashRate),
			},
		},
		{
			Key:           "blocks_by_range",
			Title:         t("Blocks (Topoheight)"),
			Description:   t("Aggregate data of blocks by topo height."),
			RowKey:        FieldKey("max_topo"),
			TimeFormatter: identity,
			Filters:       []FilterSpec{UnitPeriodFilter(p)},
			GetData: viewCall{
				view:          "get_blocks_topo(*)",
				order:         []string{"max_topo::desc"},
				periodDefault: DefaultUnitPeriod,
			}.getData(f),
			Columns: []Column{
				Formatted("topo_range", t("Period (Topo)"), func(_ any, row viewapi.Row) string {
					return row.String("min_topo") + " - " + row.String("max_topo")
				}).TableOnly(),

				Formatted("avg_difficulty", t("Hash Rate (avg)"), hashRate),

				Formatted("sum_tx_count", t("TX Count (sum)"), num),
				Formatted("avg_tx_count", t("TX Count (avg)"), num),

				Formatted("sum_block_reward", t("Block Reward (sum)"), xel),
				Formatted("avg_block_reward", t("Block Reward (avg)"), xel),

				Formatted("sum_block_size", t("Block Size (sum)"), size),
				Formatted("avg_block_size", t("Block Size (avg)"), size),

				Formatted("sum_total_fees", t("Block Fees (sum)"), xel),
				Formatted("avg_total_fees", t("Block Fees (avg)"), xel),

				Formatted("supply", t("Circulating Supply"), xel),
			},
		},
		{
			Key:         "market_history",
			Title:       t("Market History (Time)"),
			Description: t("Aggregate data of multiple market exchanges through time-based interval."),
			RowKey:      timeKey,
			Filters:     []FilterSpec{TimePeriodFilter(p), MarketAssetsFilter(p)},
			GetData:     timeSeries("get_market_history_time(*)", "asset").getData(f),
			Columns: append([]Column{
				timeColumn("Time"),
				Plain("asset", t("Asset")).TableOnly(),
			}, priceColumns()...),
		},
		{
			Key:         "supply_emission",
			Title:       t("Supply Emission (Simulation)"),
			Description: t("Circulating supply from start to end."),
			RowKey:      FieldKey("year"),
			GetData: func(context.Context, query.State) (*viewapi.Result, error) {
				rows := emission.Rows(emission.DefaultYears)
				return &viewapi.Result{Rows: rows, Count: len(rows)}, nil
			},
			TimeFormatter: func(v float64) string { return identity(v) + "y" },
			Columns: []Column{
				Plain("year", t("Year")).TableOnly(),
				Formatted("circulating_supply", t("Circulating Supply"), xel),
				Formatted("dev_supply", t("Dev Supply"), xel),
				Formatted("supply_left", t("Supply Left"), xel),
				Formatted("mined_percentage", t("Mined Percentage"), pct),
			},
		},
		{
			Key:         "get_market_history_exchange",
			Title:       t("Exchange History (Time)"),
			Description: t("Market history of a specific exchange through time-based interval."),
			RowKey:      timeKey,
			Filters:     []FilterSpec{TimePeriodFilter(p), MarketAssetsFilter(p), MarketExchangesFilter(p)},
			GetData:     timeSeries("get_market_history_exchange_time(*)", "asset", "exchange").getData(f),
			Columns: append([]Column{
				timeColumn("Time"),
				Plain("asset", t("Asset")).TableOnly(),
				Plain("exchange", t("Exchange")).TableOnly(),
			}, priceColumns()...),
		},
		{
			Key:         "get_txs_time",
			Title:       t("Transactions (Time)"),
			Description: t("Aggregate data of transactions through time-based interval."),
			RowKey:      timeKey,
			Filters:     []FilterSpec{TimePeriodFilter(p)},
			GetData:     timeSeries("get_txs_time(*)").getData(f),
			Columns: []Column{
				timeColumn("Time"),
				Formatted("transfer_count", t("Transfer Count"), num),
			},
		},
		{
			Key:         "get_miners_count_time",
			Title:       t("Total Miners (Time)"),
			Description: t("Number of miners through time-based interval."),
			RowKey:      timeKey,
			Filters:     []FilterSpec{TimePeriodFilter(p)},
			GetData:     timeSeries("get_miners_count_time(*)").getData(f),
			Columns: []Column{
				timeColumn("Time"),
				Formatted("miner_count", t("Miner Count"), num),
			},
		},
		{
			Key:         "get_miners_blocks_time",
			Title:       t("Miners Blocks (Time)"),
			Description: t("Miner data by address through time-based interval."),
			RowKey:      timeKey,
			Filters:     []FilterSpec{TimePeriodFilter(p)},
			GetData:     timeSeries("get_miners_blocks_time(*)").getData(f),
			Columns: []Column{
				timeColumn("Time"),
				Plain("miner", t("Miner")).TableOnly(),
				Formatted("total_blocks", t("Total Blocks"), num),
				Formatted("total_reward", t("Total Reward"), xel),
			},
		},
		{
			Key:         "get_accounts_count_time",
			Title:       t("Total Accounts (Time)"),
			Description: t("Number of accounts through time-based interval."),
			RowKey:      timeKey,
			Filters:     []FilterSpec{TimePeriodFilter(p)},
			GetData:     timeSeries("get_accounts_count_time(*)").getData(f),
			Columns: []Column{
				timeColumn("Time"),
				Formatted("account_count", t("Accounts"), num),
				Formatted("cumulative_account_count", t("Accounts (Cumulative)"), num),
			},
		},
		{
			Key:         "get_accounts_active_time",
			Title:       t("Active Accounts (Time)"),
			Description: t("Number of active/inactive accounts through time-based interval."),
			RowKey:      timeKey,
			Filters:     []FilterSpec{TimePeriodFilter(p)},
			GetData:     timeSeries("get_accounts_active_time(*)").getData(f),
			Columns: []Column{
				timeColumn("Time"),
				Formatted("active_accounts", t("Active Accounts"), num),
				Formatted("inactive_accounts", t("Inactive Accounts"), num),
			},
		},
		{
			Key:         "get_accounts_txs_time",
			Title:       t("Account Transactions (Time)"),
			Description: t("Account fees & transactions through time-based interval."),
			RowKey:      timeKey,
			Filters:     []FilterSpec{TimePeriodFilter(p)},
			GetData:     timeSeries("get_accounts_txs_time(*)").getData(f),
			Columns: []Column{
				timeColumn("Time"),
				Plain("addr", t("Address")).TableOnly(),
				Formatted("total_txs", t("Total Transactions"), num),
				Formatted("total_fees", t("Total Fees"), xel),
			},
		},
		{
			Key:         "market_tickers",
			Title:       t("Market Tickers (Time)"),
			Description: t("Ticker price and volume of an asset through time-based interval."),
			RowKey:      timeKey,
			Filters:     []FilterSpec{TimePeriodFilter(p), MarketAssetsFilter(p)},
			GetData:     timeSeries("get_market_tickers_time(*)", "asset").getData(f),
			Columns: []Column{
				timeColumn("Time"),
				Plain("asset", t("Asset")).TableOnly(),
				Plain("price", t("Price")),
				Plain("volume", t("Volume")),
			},
		},
	}
}
