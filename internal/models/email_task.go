package models

// EmailTask — задание на отправку письма подтверждения почты.
// Публикуется API-сервисом в очередь и обрабатывается почтовым воркером.
type EmailTask struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}
