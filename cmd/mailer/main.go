package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/config"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/consumer"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.ServiceName+"-mailer", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}

	sender, err := consumer.NewSMTPSender(consumer.SMTPConfig{
		Addr:     cfg.SMTP.Addr,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
	if err != nil {
		log.Fatal("failed to configure smtp sender", zap.Error(err))
	}
	c := consumer.NewPaymentConsumer(sender, log, cfg.Kafka.PaymentTopic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("mailer consuming payment events",
		zap.String("topic", cfg.Kafka.PaymentTopic),
		zap.String("group_id", cfg.Kafka.GroupID),
	)
	c.Run(ctx)

	c.Close()
	log.Info("mailer stopped")
}
