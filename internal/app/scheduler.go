package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultKeyExpiryInterval период проверки истёкших ключей
const DefaultKeyExpiryInterval = time.Hour

// KeyExpirer снимает активность с истёкших ключей регистрации
type KeyExpirer interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	keys     KeyExpirer
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(keys KeyExpirer, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultKeyExpiryInterval
	}
	return &Scheduler{
		keys:     keys,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runKeyExpiryTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runKeyExpiryTask периодически деактивирует истёкшие ключи
func (s *Scheduler) runKeyExpiryTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.expireKeys(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireKeys(ctx)
		case <-s.stopChan:
			s.logger.Info("Key expiry task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Key expiry task cancelled")
			return
		}
	}
}

func (s *Scheduler) expireKeys(ctx context.Context) {
	n, err := s.keys.DeactivateExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to deactivate expired keys", zap.Error(err))
		return
	}

	if n > 0 {
		s.logger.Info("Expired registration keys deactivated", zap.Int64("count", n))
	}
}
