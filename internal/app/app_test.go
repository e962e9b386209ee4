package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/shopy/internal/adapter/handler"
	"github.com/rl1809/shopy/internal/config"
	"github.com/rl1809/shopy/internal/core/domain"
)

type recordingPublisher struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, order)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders)
}

type testEnv struct {
	app       *App
	publisher *recordingPublisher
	httpURL   string
	grpcAddr  string
	stop      func()
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Messaging.Workers = 3
	cfg.Messaging.QueueSize = 100
	cfg.Auth.OTPDelay = "0s"
	cfg.Auth.BcryptCost = 4
	cfg.Orders.ConfirmDelay = "10ms"
	return cfg
}

func startApp(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	pub := &recordingPublisher{}

	a, err := New(context.Background(), cfg, zap.NewNop(), WithPublisher(pub))
	require.NoError(t, err)

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, httpLis, grpcLis) }()

	env := &testEnv{
		app:       a,
		publisher: pub,
		httpURL:   "http://" + httpLis.Addr().String(),
		grpcAddr:  grpcLis.Addr().String(),
	}
	var once sync.Once
	env.stop = func() {
		once.Do(func() {
			cancel()
			assert.NoError(t, <-done)
			assert.NoError(t, a.Close())
		})
	}
	t.Cleanup(env.stop)
	return env
}

func post(t *testing.T, url, token string, body any, headers ...string) (int, handler.Response) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out handler.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func signup(t *testing.T, env *testEnv, mobile string) string {
	t.Helper()
	status, _ := post(t, env.httpURL+"/api/auth/otp", "", map[string]string{"mobile": mobile})
	require.Equal(t, http.StatusOK, status)

	status, resp := post(t, env.httpURL+"/api/auth/signup", "", map[string]string{
		"name": "Buyer " + mobile, "mobile": mobile, "password": "secret", "otp": "123456",
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)
	return resp.Data.(map[string]any)["token"].(string)
}

func runCheckoutFlow(t *testing.T, env *testEnv) {
	buyers := 5
	retries := 4

	var successCount, duplicateCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			token := signup(t, env, fmt.Sprintf("90000000%02d", n))

			post(t, env.httpURL+"/api/cart/lines", token, map[string]any{"shop_id": "1", "product_id": "1-1", "quantity": 2})
			post(t, env.httpURL+"/api/cart/lines", token, map[string]any{"shop_id": "2", "product_id": "2-1"})

			// the same checkout retried concurrently places one order
			requestID := uuid.New().String()
			var retryWg sync.WaitGroup
			for r := 0; r < retries; r++ {
				retryWg.Add(1)
				go func() {
					defer retryWg.Done()
					status, _ := post(t, env.httpURL+"/api/orders", token, nil, "Idempotency-Key", requestID)
					switch status {
					case http.StatusCreated:
						successCount.Add(1)
					case http.StatusConflict:
						duplicateCount.Add(1)
					}
				}()
			}
			retryWg.Wait()
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, buyers, successCount.Load())
	assert.EqualValues(t, buyers*(retries-1), duplicateCount.Load())

	env.stop()

	// every placed order was published before shutdown finished
	require.Equal(t, buyers, env.publisher.count())
	for _, o := range env.publisher.orders {
		assert.EqualValues(t, 399, o.Total)
		assert.True(t, o.Consistent())
	}
}

func TestIntegration_MemoryBackend(t *testing.T) {
	env := startApp(t, testConfig())
	runCheckoutFlow(t, env)
}

func TestIntegration_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Storage.Backend = config.BackendRedis
	cfg.Storage.RedisAddr = mr.Addr()

	env := startApp(t, cfg)
	runCheckoutFlow(t, env)

	assert.True(t, mr.Exists("shopy:users"))
}

func TestIntegration_MySQLBackend(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Storage.Backend = config.BackendMySQL
	cfg.Storage.MySQLDSN = dsn
	cfg.Storage.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	require.NoError(t, a.Close())
}

func TestNew_RedisUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = config.BackendRedis
	cfg.Storage.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := New(ctx, cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestServe_GRPCHealthAndOrders(t *testing.T) {
	env := startApp(t, testConfig())

	conn, err := grpc.NewClient(env.grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: "shopy.Shop"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.Status)

	sess, err := env.app.Services().Sessions.Open(ctx, domain.Account{ID: "grpc-user", Role: domain.RoleCustomer})
	require.NoError(t, err)

	client := handler.NewShopClient(conn)
	resp, err := client.PlaceOrder(handler.WithToken(ctx, sess.Token), &handler.PlaceOrderRequest{
		Items: []handler.CartItem{{ShopID: "4", ProductID: "4-1", Quantity: 3}},
	})
	require.NoError(t, err)
	require.True(t, resp.Success, resp.Message)
	assert.EqualValues(t, 360, resp.Order.Total)

	orders, err := sess.Cart.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger("loud")
	assert.Error(t, err)
}

