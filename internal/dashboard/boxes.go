// Package dashboard builds the fixed dashboard, mining and account pages
// out of view loaders and keeps them refreshed.
package dashboard

import (
	"strconv"
	"time"

	"xelis-stats/internal/query"
	"xelis-stats/internal/viewapi"
)

// BoxKind selects how a box gets its rows.
type BoxKind string

const (
	// KindView fetches View with Params.
	KindView BoxKind = ""
	// KindTopMiners merges the weekly history of the leading miners. Params
	// select the leaders.
	KindTopMiners BoxKind = "top_miners"
	// KindSupply computes the emission schedule locally.
	KindSupply BoxKind = "supply"
)

// Box is one panel of a page.
type Box struct {
	Name   string         `json:"name" yaml:"name"`
	Title  string         `json:"title" yaml:"title"`
	Kind   BoxKind        `json:"kind,omitempty" yaml:"kind,omitempty"`
	View   string         `json:"view" yaml:"view"`
	Params viewapi.Params `json:"params" yaml:"params"`
	Link   string         `json:"link,omitempty" yaml:"link,omitempty"`
}

// Periods in seconds.
const (
	Day  = 86400
	Week = 7 * Day

	DefaultHashratePeriod = 14400
	DefaultMarketAsset    = "USDT"
	DefaultPageSize       = 20
)

const dateLayout = "2006-01-02"

func period(sec int) []string {
	return []string{strconv.Itoa(sec)}
}

// link returns the view page URL of a source with a query state.
func link(src string, s query.State) string {
	s.DataSource = ""
	if enc := s.String(); enc != "" {
		return "/views/" + src + "?" + enc
	}
	return "/views/" + src
}

func chartLink(src, key string, periodSec int) string {
	return link(src, query.State{
		View:      query.ViewChart,
		ChartView: query.ChartArea,
		ChartKey:  key,
		Period:    strconv.Itoa(periodSec),
		Order:     []query.Order{{Field: "time", Direction: query.Desc}},
	})
}

func where(field, value string) string {
	return query.Filter{Field: field, Op: query.OpEq, Value: value}.String()
}

// DashboardBoxes returns the home page boxes. now selects "today" for the
// daily distribution boxes.
func DashboardBoxes(now time.Time, asset string) []Box {
	if asset == "" {
		asset = DefaultMarketAsset
	}
	today := now.UTC().Format(dateLayout)

	return []Box{
		{
			Name:   "market_tickers_daily",
			Title:  "Price",
			View:   "get_market_tickers_time(*)",
			Params: viewapi.Params{Count: true, Limit: 24, Param: period(Day), Where: []string{where("asset", asset)}, Order: []string{"time::desc"}},
			Link:   chartLink("market_tickers", "price", Day),
		},
		{
			Name:   "market_price_change",
			Title:  "Price Change",
			View:   "get_market_tickers_price_change(*)",
			Params: viewapi.Params{Param: []string{asset}},
		},
		{
			Name:  "market_exchanges_daily",
			Title: "Exchanges",
			View:  "get_market_tickers_exchange_time(*)",
			Params: viewapi.Params{
				Count: true, Limit: 10, Param: period(Day),
				Where: []string{where("asset", asset), where("time", today)},
				Order: []string{"time::desc", "volume::desc"},
			},
		},
		{
			Name:   "recent_blocks",
			Title:  "Blocks",
			View:   "blocks",
			Params: viewapi.Params{Count: true, Limit: 5, Order: []string{"topoheight::desc"}},
			Link:   link("blocks_by_range", query.State{Period: "1", View: query.ViewTable}),
		},
		{
			Name:   "blocks_daily",
			Title:  "Blocks (daily)",
			View:   "get_blocks_time(*)",
			Params: viewapi.Params{Count: true, Limit: 20, Param: period(Day), Order: []string{"time::desc"}},
			Link:   chartLink("blocks_by_time", "block_count", Day),
		},
		{
			Name:  "stats",
			Title: "Stats",
			View:  "get_stats()",
		},
		{
			Name:   "miners_daily",
			Title:  "Miners",
			View:   "get_miners_blocks_time(*)",
			Params: viewapi.Params{Count: true, Limit: 5, Param: period(Day), Order: []string{"time::desc", "total_blocks::desc"}},
			Link: link("get_miners_blocks_time", query.State{
				Period: strconv.Itoa(Day), View: query.ViewTable,
				Order: []query.Order{{Field: "time", Direction: query.Desc}},
			}),
		},
		{
			Name:   "miners_count_daily",
			Title:  "Miners (daily)",
			View:   "get_miners_count_time(*)",
			Params: viewapi.Params{Count: true, Limit: 20, Param: period(Day), Order: []string{"time::desc"}},
			Link:   chartLink("get_miners_count_time", "miner_count", Day),
		},
		{
			Name:   "accounts_count_daily",
			Title:  "Accounts (daily)",
			View:   "get_accounts_count_time(*)",
			Params: viewapi.Params{Count: true, Limit: 20, Param: period(Day), Order: []string{"time::desc"}},
			Link:   chartLink("get_accounts_count_time", "cumulative_account_count", Day),
		},
		{
			Name:   "accounts_weekly",
			Title:  "Top Accounts (weekly)",
			View:   "get_accounts_txs_time(*)",
			Params: viewapi.Params{Count: true, Limit: 20, Param: period(Week), Order: []string{"time::desc", "total_txs::desc"}},
			Link: link("get_accounts_txs_time", query.State{
				Period: strconv.Itoa(Week), View: query.ViewTable,
				Order: []query.Order{{Field: "time", Direction: query.Desc}},
			}),
		},
		{
			Name:   "active_accounts_weekly",
			Title:  "Active Accounts (weekly)",
			View:   "get_accounts_active_time(*)",
			Params: viewapi.Params{Count: true, Limit: 20, Param: period(Week), Order: []string{"time::desc"}},
			Link:   chartLink("get_accounts_active_time", "account_count", Week),
		},
		{
			Name:   "txs_daily",
			Title:  "Transactions (daily)",
			View:   "get_txs_time(*)",
			Params: viewapi.Params{Count: true, Limit: 20, Param: period(Day), Order: []string{"time::desc"}},
			Link:   chartLink("get_txs_time", "tx_count", Day),
		},
		{
			Name:  "miners_distribution_daily",
			Title: "Mining Distribution",
			View:  "get_miners_blocks_time(*)",
			Params: viewapi.Params{
				Count: true, Limit: 100, Param: period(Day),
				Where: []string{where("time", today)},
				Order: []string{"total_blocks::desc"},
			},
			Link: link("get_miners_blocks_time", query.State{
				Period: strconv.Itoa(Day), View: query.ViewTable,
				Where: []query.Filter{{Field: "time", Op: query.OpEq, Value: today}},
				Order: []query.Order{{Field: "total_blocks", Direction: query.Desc}},
			}),
		},
		{
			Name:  "supply_emission",
			Title: "Supply Emission",
			Kind:  KindSupply,
			Link:  link("supply_emission", query.State{View: query.ViewTable}),
		},
	}
}

// MiningBoxes returns the mining page boxes. hashratePeriod is the bucket
// width of the hashrate chart; zero uses the default.
func MiningBoxes(now time.Time, hashratePeriod int) []Box {
	if hashratePeriod <= 0 {
		hashratePeriod = DefaultHashratePeriod
	}
	today := now.UTC().Format(dateLayout)
	yesterday := now.UTC().AddDate(0, 0, -1).Format(dateLayout)

	return []Box{
		{
			Name:   "hashrate",
			Title:  "Network Hashrate",
			View:   "get_blocks_time(*)",
			Params: viewapi.Params{Count: true, Param: period(hashratePeriod), Order: []string{"time::desc"}},
		},
		{
			Name:  "top_miners",
			Title: "Top Miners",
			Kind:  KindTopMiners,
			View:  "get_miners_blocks_time(*)",
			Params: viewapi.Params{
				Count: true, Limit: 6, Param: period(Day),
				Where: []string{where("time", yesterday)},
				Order: []string{"total_blocks::desc"},
			},
		},
		{
			Name:   "miners_blocks",
			Title:  "Miners (all time)",
			View:   "get_miners_blocks()",
			Params: viewapi.Params{Count: true, Limit: 100, Order: []string{"total_blocks::desc"}},
		},
		{
			Name:  "miners_today",
			Title: "Miners (today)",
			View:  "get_miners_blocks_time(*)",
			Params: viewapi.Params{
				Count: true, Limit: 100, Param: period(Day),
				Where: []string{where("time", today)},
				Order: []string{"time::desc", "total_blocks::desc"},
			},
		},
		{
			Name:   "blocks_recent_days",
			Title:  "Blocks (last days)",
			View:   "get_blocks_time(*)",
			Params: viewapi.Params{Limit: 4, Param: period(Day), Order: []string{"time::desc"}},
		},
	}
}

// AccountBoxes returns the account page boxes. page starts at 1.
func AccountBoxes(addr string, page, size int) []Box {
	if size <= 0 {
		size = DefaultPageSize
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * size
	}

	return []Box{
		{
			Name:   "account",
			Title:  "Account",
			View:   "get_accounts()",
			Params: viewapi.Params{Count: true, Limit: 20, Where: []string{where("addr", addr)}},
		},
		{
			Name:   "transfers",
			Title:  "Transfers",
			View:   "get_transfers()",
			Params: viewapi.Params{Count: true, Offset: offset, Limit: size, Order: []string{"timestamp::desc"}, Where: []string{where("to", addr)}},
		},
		{
			Name:   "mined_blocks",
			Title:  "Mined Blocks",
			View:   "blocks",
			Params: viewapi.Params{Count: true, Offset: offset, Limit: size, Order: []string{"timestamp::desc"}, Where: []string{where("miner", addr)}},
		},
		{
			Name:   "transactions",
			Title:  "Transactions",
			View:   "get_txs()",
			Params: viewapi.Params{Count: true, Offset: offset, Limit: size, Order: []string{"timestamp::desc"}, Where: []string{where("source", addr)}},
		},
	}
}

// TxTransfersBox lists the transfers of one transaction.
func TxTransfersBox(hash string) Box {
	return Box{
		Name:   "tx_transfers",
		Title:  "Transfers",
		View:   "transaction_transfers",
		Params: viewapi.Params{Where: []string{where("tx_hash", hash)}},
	}
}
