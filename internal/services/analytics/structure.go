package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/breaker"
)

// StructureColumns are the enriched columns sent to the structure service
// alongside OHLC.
var StructureColumns = []string{
	models.ColRSI14, models.ColMACD, models.ColMACDSignal,
	models.ColBBUpper, models.ColBBLower, models.ColVolatility,
	models.EMAColumn(21), models.SMAColumn(50),
}

// HTTPStructureAnalyzer asks a remote market-structure service (order blocks,
// fair value gaps, liquidity sweeps) for a directional opinion.
type HTTPStructureAnalyzer struct {
	base   *HTTPServiceBase
	window int
}

func NewHTTPStructureAnalyzer(baseURL string, cfg StructureConfig) *HTTPStructureAnalyzer {
	if cfg.Window <= 0 {
		cfg.Window = 200
	}
	return &HTTPStructureAnalyzer{
		base:   NewHTTPServiceBase(baseURL, cfg.Timeout, cfg.Retries, breaker.New("structure")),
		window: cfg.Window,
	}
}

type structureBar struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type structureRequest struct {
	Asset   string                `json:"asset"`
	Bars    []structureBar        `json:"bars"`
	Columns map[string][]*float64 `json:"columns"`
}

type structureResponse struct {
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
}

// Analyze returns nil when the service has no opinion.
func (a *HTTPStructureAnalyzer) Analyze(ctx context.Context, asset string, es *models.EnrichedSeries) (*models.DirectionalOpinion, error) {
	var resp structureResponse
	if err := a.base.PostJSON(ctx, "/structure/analyze", buildStructureRequest(asset, es, a.window), &resp); err != nil {
		return nil, fmt.Errorf("structure analyze: %w", err)
	}

	dir := models.Direction(strings.ToUpper(strings.TrimSpace(resp.Signal)))
	if !dir.Concrete() {
		return nil, nil
	}
	return &models.DirectionalOpinion{Direction: dir, Confidence: resp.Confidence}, nil
}

func buildStructureRequest(asset string, es *models.EnrichedSeries, window int) structureRequest {
	start := 0
	if n := es.Len(); n > window {
		start = n - window
	}
	bars := make([]structureBar, 0, es.Len()-start)
	for _, b := range es.Series[start:] {
		bars = append(bars, structureBar{T: b.Timestamp.Unix(), O: b.Open, H: b.High, L: b.Low, C: b.Close, V: b.Volume})
	}

	cols := make(map[string][]*float64, len(StructureColumns))
	for _, name := range StructureColumns {
		col := es.Column(name)
		if col == nil {
			continue
		}
		cols[name] = nullable(col[start:])
	}
	return structureRequest{Asset: asset, Bars: bars, Columns: cols}
}

// nullable maps warm-up NaN values to JSON null.
func nullable(col []float64) []*float64 {
	out := make([]*float64, len(col))
	for i := range col {
		if math.IsNaN(col[i]) || math.IsInf(col[i], 0) {
			continue
		}
		v := col[i]
		out[i] = &v
	}
	return out
}

var _ domsvc.StructureAnalyzer = (*HTTPStructureAnalyzer)(nil)
