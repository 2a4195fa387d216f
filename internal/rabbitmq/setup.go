// Package rabbitmq содержит подключение к RabbitMQ, публикацию и потребление
// сообщений очереди уведомлений.
package rabbitmq

// Exchange — имя exchange для всех уведомлений сервиса.
const Exchange = "notifications"

// QueueVerificationEmail — очередь и routing key писем подтверждения почты.
const QueueVerificationEmail = "email.verification"

// ConsumerConcurrency — число писем, обрабатываемых воркером одновременно.
// Используется и как prefetch канала, чтобы брокер не выдавал больше
// сообщений, чем воркер готов обработать.
const ConsumerConcurrency = 10

// QueueConfig описывает очередь и её routing key.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Queues возвращает конфигурацию всех очередей сервиса.
func Queues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueVerificationEmail, RoutingKey: QueueVerificationEmail},
	}
}
