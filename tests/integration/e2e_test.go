//go:build integration

package integration

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	grpcadapter "github.com/simaogato/navflow-backend/internal/adapter/grpc"
	"github.com/simaogato/navflow-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/navflow-backend/internal/app"
	"github.com/simaogato/navflow-backend/internal/config"
	"github.com/simaogato/navflow-backend/internal/domain"
	"github.com/simaogato/navflow-backend/internal/logging"
)

const apiToken = "integration-token"

var (
	db         *postgres.DB
	grpcClient *grpcadapter.FundAnalyticsClient
)

// TestMain starts PostgreSQL (or uses NAVFLOW_TEST_DB_CONN_STR), a fake NAV source and the gRPC server
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	// 1. Database
	dbConnStr := os.Getenv("NAVFLOW_TEST_DB_CONN_STR")
	if dbConnStr == "" {
		container, connStr, err := startPostgres(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start PostgreSQL container: %v\n", err)
			return 1
		}
		defer container.Terminate(ctx)
		dbConnStr = connStr
	}

	var err error
	db, err = postgres.NewDB(ctx, dbConnStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer db.Close()

	// 2. Fake NAV source
	source := httptest.NewServer(sourceHandler())
	defer source.Close()

	// 3. Application on the postgres store
	cfg := &config.Config{
		Store:               config.StorePostgres,
		DBConnStr:           dbConnStr,
		SourceBaseURL:       source.URL,
		SourceTimeout:       5 * time.Second,
		SourceRateLimit:     100,
		HighReturnThreshold: 0.12,
		MinHorizonYears:     0.5,
		TailPoints:          100,
		DefaultBenchmark:    0.06,
	}
	application, err := app.New(ctx, cfg, logging.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		return 1
	}
	defer application.Close()

	// 4. gRPC server and client
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcadapter.LoggingInterceptor(logging.Nop()),
		grpcadapter.AuthInterceptor(apiToken),
	))
	grpcadapter.RegisterFundAnalyticsServer(grpcServer,
		grpcadapter.NewServer(application.Catalog, application.Analysis, cfg.DefaultBenchmark))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to listen: %v\n", err)
		return 1
	}
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	defer grpcServer.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to gRPC server: %v\n", err)
		return 1
	}
	defer conn.Close()
	grpcClient = grpcadapter.NewFundAnalyticsClient(conn)

	return m.Run()
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "navflow",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, "", err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		container.Terminate(ctx)
		return nil, "", err
	}

	connStr := fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=navflow sslmode=disable", host, port.Port())
	return container, connStr, nil
}

// sourceHandler serves a small catalog and a 400-day history for scheme 9001
func sourceHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"schemeCode": 9001, "schemeName": "Integration Fund - Direct Plan - Growth"},
			{"schemeCode": 9002, "schemeName": "Integration Fund - Regular Plan - Growth"},
			{"schemeCode": 9003, "schemeName": "Integration Fund - Direct Plan - IDCW"}
		]`))
	})
	mux.HandleFunc("/mf/9001", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"meta": {"scheme_code": 9001, "scheme_name": "Integration Fund - Direct Plan - Growth"},
			"data": [
				{"date": "04-02-2021", "nav": "125.50"},
				{"date": "01-07-2020", "nav": "110.25"},
				{"date": "01-01-2020", "nav": "100.00"}
			],
			"status": "SUCCESS"
		}`))
	})
	return mux
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+apiToken)
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	st, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return st
}

func navRows(t *testing.T, code string) int {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM nav_history WHERE scheme_code = $1`, code).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestE2E_SearchFunds(t *testing.T) {
	resp, err := grpcClient.SearchFunds(authed(), mustStruct(t, map[string]interface{}{
		"q":      "Integration",
		"filter": "direct-growth",
	}))
	require.NoError(t, err)

	results := resp.GetFields()["results"].GetListValue().GetValues()
	require.Len(t, results, 1)
	assert.Equal(t, "9001", results[0].GetStructValue().GetFields()["code"].GetStringValue())

	resp, err = grpcClient.SearchFunds(authed(), mustStruct(t, map[string]interface{}{"q": "Integration"}))
	require.NoError(t, err)
	results = resp.GetFields()["results"].GetListValue().GetValues()
	require.Len(t, results, 3)
	// Direct plans first, growth before IDCW, then regular
	assert.Equal(t, "9001", results[0].GetStructValue().GetFields()["code"].GetStringValue())
	assert.Equal(t, "9003", results[1].GetStructValue().GetFields()["code"].GetStringValue())
	assert.Equal(t, "9002", results[2].GetStructValue().GetFields()["code"].GetStringValue())
}

func TestE2E_SearchOrdersNamesByByteValue(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewSchemeRepository(db)

	schemes := []domain.Scheme{
		{Code: "8001", Name: "alpha Fund - Direct Plan - Growth", IsDirect: true, IsGrowth: true},
		{Code: "8002", Name: "Beta Fund - Direct Plan - Growth", IsDirect: true, IsGrowth: true},
		{Code: "8003", Name: "_Gamma Fund - Direct Plan - Growth", IsDirect: true, IsGrowth: true},
	}
	require.NoError(t, repo.Replace(ctx, schemes, 1))
	// An empty catalog is stale, so the next search through the service rebuilds it
	t.Cleanup(func() {
		_ = repo.Replace(context.Background(), nil, 0)
	})

	results, err := repo.Search(ctx, "Fund", domain.FilterNone)
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Same order as the sqlite backend: uppercase, then underscore, then lowercase
	assert.Equal(t, "8002", results[0].Code)
	assert.Equal(t, "8003", results[1].Code)
	assert.Equal(t, "8001", results[2].Code)
}

func TestE2E_CompareFunds(t *testing.T) {
	req := mustStruct(t, map[string]interface{}{
		"codes":     []interface{}{"9001", "9002"},
		"years":     1,
		"benchmark": 0.08,
	})

	resp, err := grpcClient.CompareFunds(authed(), req)
	require.NoError(t, err)

	reports := resp.GetFields()["reports"].GetStructValue().GetFields()
	require.Len(t, reports, 1, "9002 has no history and must be omitted")
	report := reports["9001"].GetStructValue().GetFields()
	assert.Equal(t, 0.08, report["benchmark_used"].GetNumberValue())
	assert.Equal(t, 36.0, report["observations"].GetNumberValue())
	assert.Len(t, report["series_data"].GetListValue().GetValues(), 36)
	assert.Equal(t, 3, navRows(t, "9001"))

	// Re-running syncs nothing new and stores no duplicates
	_, err = grpcClient.CompareFunds(authed(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, navRows(t, "9001"))
}

func TestE2E_CompareFunds_Errors(t *testing.T) {
	_, err := grpcClient.CompareFunds(authed(), mustStruct(t, map[string]interface{}{
		"codes": []interface{}{"9002"},
		"years": 1,
	}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = grpcClient.CompareFunds(authed(), mustStruct(t, map[string]interface{}{
		"codes": []interface{}{"9001"},
		"years": 0.1,
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = grpcClient.CompareFunds(context.Background(), mustStruct(t, map[string]interface{}{
		"codes": []interface{}{"9001"},
	}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestE2E_MigrateIsIdempotent(t *testing.T) {
	applied, err := postgres.Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestE2E_ConcurrentAppendSameScheme(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewNAVRepository(db)

	points := make([]domain.ValuationPoint, 30)
	for i := range points {
		points[i] = domain.ValuationPoint{
			Date: domain.NewDate(2023, time.January, 1).AddDays(i),
			NAV:  decimal.NewFromInt(int64(50 + i)),
		}
	}

	var wg sync.WaitGroup
	inserted := make([]int, 8)
	errs := make([]error, 8)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			inserted[w], errs[w] = repo.AppendIfNew(ctx, "concurrent", points)
		}(w)
	}
	wg.Wait()

	total := 0
	for w := range inserted {
		require.NoError(t, errs[w])
		total += inserted[w]
	}
	assert.Equal(t, len(points), total)
	assert.Equal(t, len(points), navRows(t, "concurrent"))
}
