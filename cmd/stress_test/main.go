package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rl1809/shopy/internal/app"
	"github.com/rl1809/shopy/internal/config"
	"github.com/rl1809/shopy/internal/core/service"
)

var (
	users     int
	retries   int
	redisAddr string
)

var rootCmd = &cobra.Command{
	Use:   "stress_test",
	Short: "Concurrent checkout load against an in-process shop",
	Long: `stress_test signs up users, fills each cart with the same two products
and fires concurrent checkouts sharing one idempotency key per user. Exactly
one checkout per user must succeed.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().IntVar(&users, "users", 50, "number of concurrent users")
	rootCmd.Flags().IntVar(&retries, "retries", 4, "duplicate checkouts per user")
	rootCmd.Flags().StringVar(&redisAddr, "redis", "", "use the Redis backend at this address")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Auth.OTPDelay = "0s"
	cfg.Auth.BcryptCost = 4
	cfg.Orders.ConfirmDelay = "0s"
	if redisAddr != "" {
		cfg.Storage.Backend = config.BackendRedis
		cfg.Storage.RedisAddr = redisAddr
	}

	a, err := app.New(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.Services()
	defer svc.Orders.Close()

	// Drain the order queue in background
	go func() {
		for range svc.Orders.GetOrderQueue() {
		}
	}()

	_, tomatoes, err := svc.Directory.Product("1", "1-1")
	if err != nil {
		return err
	}
	_, tshirt, err := svc.Directory.Product("2", "2-1")
	if err != nil {
		return err
	}

	// Counters
	var successCount, duplicateCount, failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()
	runID := uuid.NewString()[:8]

	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			account, err := svc.Accounts.Signup(ctx, service.SignupRequest{
				Name:     fmt.Sprintf("user-%d", n),
				Mobile:   fmt.Sprintf("%s-%d", runID, n),
				Password: "secret",
			})
			if err != nil {
				failCount.Add(1)
				return
			}
			sess, err := svc.Sessions.Open(ctx, account)
			if err != nil {
				failCount.Add(1)
				return
			}
			sess.Cart.AddLine(service.LineFromProduct(tomatoes, "Fresh Mart Grocery", 2))
			sess.Cart.AddLine(service.LineFromProduct(tshirt, "Style Hub Fashion", 1))

			checkout(ctx, svc.Orders, sess, &successCount, &duplicateCount, &failCount)
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	duplicate := duplicateCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Users:            %d\n", users)
	fmt.Printf("Total Requests:   %d\n", users*retries)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Duplicates:       %d\n", duplicate)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if success == int32(users) && duplicate == int32(users*(retries-1)) && fail == 0 {
		fmt.Printf("PASS: Exactly %d orders placed, %d duplicates rejected\n", users, users*(retries-1))
		return nil
	}
	return fmt.Errorf("FAIL: expected %d success/%d duplicate, got %d/%d (%d failed)",
		users, users*(retries-1), success, duplicate, fail)
}

func checkout(ctx context.Context, orders *service.OrderService, sess *service.Session, success, duplicate, fail *atomic.Int32) {
	requestID := uuid.NewString()
	results := make(chan error, retries)

	var wg sync.WaitGroup
	for r := 0; r < retries; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := orders.Checkout(ctx, sess, requestID)
			if err == nil && order.Total != 399 {
				err = fmt.Errorf("order %s total %d", order.ID, order.Total)
			}
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		switch {
		case err == nil:
			success.Add(1)
		case errors.Is(err, service.ErrDuplicateRequest):
			duplicate.Add(1)
		default:
			fail.Add(1)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
