package model

import "time"

// VisitFilter фильтр выгрузки. Нулевые поля не ограничивают выборку.
type VisitFilter struct {
	From *time.Time // включительно
	To   *time.Time // включительно
	Name string     // подстрока без учета регистра
}
