package config

import "time"

// AMQPConfig configures the RabbitMQ audit event pipeline. An empty URL
// disables publishing; ConsumerEnabled starts the in-process audit log
// consumer alongside the HTTP server.
type AMQPConfig struct {
	URL             string
	Queue           string
	ConsumerEnabled bool
	AuditLogPath    string
	PublishBuffer   int
	DialTimeout     time.Duration
}

func LoadAMQPConfig() AMQPConfig {
	url := envStr("AMQP_URL", "")
	if url == "" {
		url = envStr("RABBITMQ_URL", "")
	}
	return AMQPConfig{
		URL:             url,
		Queue:           envStr("AMQP_QUEUE", "auth.events"),
		ConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", false),
		AuditLogPath:    envStr("AUDIT_LOG_PATH", "logs/auth_audit.log"),
		PublishBuffer:   envInt("AMQP_PUBLISH_BUFFER", 256),
		DialTimeout:     envDur("AMQP_DIAL_TIMEOUT", 5*time.Second),
	}
}
