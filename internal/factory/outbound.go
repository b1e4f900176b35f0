package factory

import (
	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/config"
	"github.com/gab-cat/cold-start-sub000/internal/events"
	"github.com/gab-cat/cold-start-sub000/internal/messaging"
)

// NewPublisher returns the Kafka publisher, or a no-op one when no brokers
// are configured.
func NewPublisher(cfg *config.Config, log zerolog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		log.Debug().Msg("kafka disabled, activity events are dropped")
		return events.Nop{}
	}
	log.Debug().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka publisher ready")
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

// NewSender returns the Telegram sender, or a disabled one without a token.
func NewSender(cfg *config.Config, log zerolog.Logger) messaging.Sender {
	if cfg.TelegramToken == "" {
		log.Debug().Msg("telegram disabled, replies are not delivered")
		return messaging.Disabled{Name: messaging.PlatformTelegram}
	}
	return messaging.NewTelegram(cfg.TelegramBaseURL, cfg.TelegramToken)
}
