// Command contention fires concurrent creates for the same span at a running API
// and fails when more than one of them is accepted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"volcano_camping/internal/adapters/campsite"
	"volcano_camping/internal/adapters/observability"
	"volcano_camping/internal/domain"
	"volcano_camping/internal/shared"
)

const stayNights = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.CampsiteBase).
		Int("attempts", cfg.ContentionAttempts).
		Int("workers", cfg.ContentionWorkers).
		Int("rps", cfg.ContentionRPS).
		Msg("contention probe starting")

	client, err := campsite.New(cfg.CampsiteBase, cfg.ContentionRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize campsite client")
	}

	free, err := client.Availability(ctx, domain.Date{}, domain.Date{})
	if err != nil {
		log.Fatal().Err(err).Msg("availability lookup failed")
	}
	today := domain.DateOf(time.Now().In(cfg.Location()))
	checkin, ok := firstSpan(free, today, stayNights)
	if !ok {
		log.Fatal().Int("free_dates", len(free)).Msg("no free span to contend for")
	}
	checkout := checkin.AddDays(stayNights)
	log.Info().Str("checkin", checkin.String()).Str("checkout", checkout.String()).Msg("contending for span")

	sem := semaphore.NewWeighted(int64(max(cfg.ContentionWorkers, 1)))
	var (
		wg                  sync.WaitGroup
		mu                  sync.Mutex
		winners             []string
		conflicts, failures atomic.Int32
	)

	for i := 0; i < cfg.ContentionAttempts; i++ {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("semaphore acquire failed")
			break
		}

		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := client.Create(ctx, campsite.CreateRequest{
				Email:    fmt.Sprintf("probe-%d@contention.local", n),
				FullName: fmt.Sprintf("Contention Probe %d", n),
				Checkin:  checkin,
				Checkout: checkout,
			})
			switch {
			case err == nil:
				mu.Lock()
				winners = append(winners, res.ID)
				mu.Unlock()
				log.Info().Int("attempt", n).Str("reservation_id", res.ID).Msg("create accepted")
			case campsite.CodeOf(err) == string(domain.KindInvalidDates):
				conflicts.Add(1)
				log.Debug().Int("attempt", n).Msg("create rejected: dates taken")
			default:
				failures.Add(1)
				log.Warn().Int("attempt", n).Err(err).Msg("create failed")
			}
		}(i)
	}
	wg.Wait()

	log.Info().
		Int("accepted", len(winners)).
		Int32("conflicts", conflicts.Load()).
		Int32("failures", failures.Load()).
		Msg("contention probe finished")

	// release the span so the probe can run again
	for _, id := range winners {
		if _, err := client.Cancel(context.Background(), id); err != nil {
			log.Warn().Str("reservation_id", id).Err(err).Msg("cleanup cancel failed")
		}
	}

	if len(winners) > 1 {
		log.Error().Strs("reservation_ids", winners).Msg("double booking detected")
		os.Exit(1)
	}
}

// firstSpan returns the earliest checkin after today whose nights are all free.
// free must be ascending.
func firstSpan(free []domain.Date, today domain.Date, nights int) (domain.Date, bool) {
	set := make(map[domain.Date]struct{}, len(free))
	for _, d := range free {
		set[d] = struct{}{}
	}
	latestCheckout := today.AddMonths(1)
	for _, d := range free {
		if !d.After(today) {
			continue
		}
		if !d.AddDays(nights).Before(latestCheckout) {
			break
		}
		ok := true
		for i := 1; i < nights; i++ {
			if _, hit := set[d.AddDays(i)]; !hit {
				ok = false
				break
			}
		}
		if ok {
			return d, true
		}
	}
	return domain.Date{}, false
}
