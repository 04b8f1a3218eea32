// Package members управляет участниками семьи: регистрацией и ролью родителя.
// models.go описывает структуры данных для работы с таблицей members.
package members

import "time"

// Member — участник семейного чата.
// Каждый, кто пишет боту или вступает в FAMILY_CHAT_ID, попадает в эту таблицу.
type Member struct {
	ID        int64     `db:"id"`         // Автоинкрементный ID записи
	UserID    int64     `db:"user_id"`    // Telegram user ID (уникальный)
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	IsParent  bool      `db:"is_parent"`  // Родитель: одобряет покупки, добавляет товары
	JoinedAt  time.Time `db:"joined_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UpdateInfo — данные, которые могли измениться с прошлого визита.
type UpdateInfo struct {
	Username  string
	FirstName string
	LastName  string
}

// DisplayName возвращает отображаемое имя: @username или имя + фамилия.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	return name
}
