package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/navflow-backend/internal/domain"
	"github.com/simaogato/navflow-backend/internal/usecase/analysis"
)

// DefaultYears is the horizon used when a compare request does not name one
const DefaultYears = 3.0

// Searcher is the catalog search use case
type Searcher interface {
	Search(ctx context.Context, keyword string, filter domain.SearchFilter) ([]domain.SchemeSummary, error)
}

// Comparer is the multi-scheme analysis use case
type Comparer interface {
	Compare(ctx context.Context, req analysis.Request) (map[string]*domain.AnalysisReport, error)
}

// Server implements the FundAnalyticsService gRPC server
type Server struct {
	Catalog          Searcher
	Analysis         Comparer
	DefaultBenchmark float64
}

// NewServer creates a new gRPC server instance
func NewServer(catalog Searcher, analyzer Comparer, defaultBenchmark float64) *Server {
	return &Server{
		Catalog:          catalog,
		Analysis:         analyzer,
		DefaultBenchmark: defaultBenchmark,
	}
}

// SearchFunds handles the SearchFunds RPC.
// Request: {"q": string, "filter": "direct-growth" | "regular" | ""}
// Response: {"results": [{"code": string, "name": string}]}
func (s *Server) SearchFunds(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	keyword, err := stringField(req, "q")
	if err != nil {
		return nil, err
	}
	rawFilter, err := stringField(req, "filter")
	if err != nil {
		return nil, err
	}

	filter, err := domain.ParseSearchFilter(rawFilter)
	if err != nil {
		return nil, mapError(err)
	}

	results, err := s.Catalog.Search(ctx, keyword, filter)
	if err != nil {
		return nil, mapError(err)
	}

	list := make([]interface{}, 0, len(results))
	for _, r := range results {
		list = append(list, map[string]interface{}{
			"code": r.Code,
			"name": r.Name,
		})
	}

	return newStruct(map[string]interface{}{"results": list})
}

// CompareFunds handles the CompareFunds RPC.
// Request: {"codes": [string] or "c1,c2", "years": number, "benchmark": number}
// Response: {"reports": {code: report}}
func (s *Server) CompareFunds(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	schemeCodes, err := codesField(req)
	if err != nil {
		return nil, err
	}
	years, err := numberField(req, "years", DefaultYears)
	if err != nil {
		return nil, err
	}
	benchmark, err := numberField(req, "benchmark", s.DefaultBenchmark)
	if err != nil {
		return nil, err
	}

	reports, err := s.Analysis.Compare(ctx, analysis.Request{
		Codes:     schemeCodes,
		Years:     years,
		Benchmark: benchmark,
	})
	if err != nil {
		return nil, mapError(err)
	}

	if len(reports) == 0 {
		return nil, status.Error(codes.NotFound, "no data found for the provided scheme codes")
	}

	out := make(map[string]interface{}, len(reports))
	for code, report := range reports {
		out[code] = reportToValue(report)
	}

	return newStruct(map[string]interface{}{"reports": out})
}

// reportToValue converts a domain AnalysisReport to its Struct representation
func reportToValue(r *domain.AnalysisReport) map[string]interface{} {
	series := make([]interface{}, 0, len(r.Series))
	for _, p := range r.Series {
		series = append(series, map[string]interface{}{
			"date":           p.Date.String(),
			"nav":            p.NAV,
			"rolling_return": p.Return,
		})
	}

	return map[string]interface{}{
		"name":           r.Name,
		"benchmark_used": r.BenchmarkUsed,
		"threshold":      r.Threshold,
		"observations":   float64(r.Observations),
		"metrics": map[string]interface{}{
			"mean":    r.Metrics.Mean,
			"max":     r.Metrics.Max,
			"min":     r.Metrics.Min,
			"median":  r.Metrics.Median,
			"std_dev": r.Metrics.StdDev,
		},
		"probabilities": map[string]interface{}{
			"negative":       r.Probabilities.Negative,
			"beat_benchmark": r.Probabilities.BeatBenchmark,
			"beat_threshold": r.Probabilities.BeatThreshold,
		},
		"series_data": series,
	}
}

func newStruct(m map[string]interface{}) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return st, nil
}

// stringField returns a string field, "" when absent
func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	case *structpb.Value_NullValue:
		return "", nil
	default:
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
	}
}

// numberField returns a numeric field, or def when absent or null.
// Numeric strings are accepted to match query-string style clients.
func numberField(req *structpb.Struct, name string, def float64) (float64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return def, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return kind.NumberValue, nil
	case *structpb.Value_NullValue:
		return def, nil
	case *structpb.Value_StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(kind.StringValue), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, status.Errorf(codes.InvalidArgument, "invalid %s %q", name, kind.StringValue)
		}
		return f, nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
}

// codesField reads "codes" as a list of strings or numbers, or as one comma-separated string
func codesField(req *structpb.Struct) ([]string, error) {
	v, ok := req.GetFields()["codes"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "codes is required")
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.Split(kind.StringValue, ","), nil
	case *structpb.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]string, 0, len(values))
		for i, item := range values {
			switch code := item.GetKind().(type) {
			case *structpb.Value_StringValue:
				out = append(out, code.StringValue)
			case *structpb.Value_NumberValue:
				out = append(out, strconv.FormatFloat(code.NumberValue, 'f', -1, 64))
			default:
				return nil, status.Errorf(codes.InvalidArgument, "codes[%d] must be a string or number", i)
			}
		}
		return out, nil
	default:
		return nil, status.Error(codes.InvalidArgument, "codes must be a list or a comma-separated string")
	}
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrStorage):
		return status.Errorf(codes.Unavailable, "%s", errorMsg)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", errorMsg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Error(codes.Internal, fmt.Sprintf("internal error: %s", errorMsg))
}
