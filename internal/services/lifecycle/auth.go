package lifecycle

// StaticAdminPolicy — AuthPolicy на основе фиксированного списка
// telegram-идентификаторов из конфига.
type StaticAdminPolicy struct {
	admins []int64
}

// NewStaticAdminPolicy возвращает политику с заданным списком администраторов.
func NewStaticAdminPolicy(admins []int64) *StaticAdminPolicy {
	return &StaticAdminPolicy{admins: admins}
}

// IsAdmin сообщает, входит ли identity в список администраторов.
func (p *StaticAdminPolicy) IsAdmin(identity int64) bool {
	for _, id := range p.admins {
		if id == identity {
			return true
		}
	}
	return false
}

// Admins возвращает копию списка администраторов.
func (p *StaticAdminPolicy) Admins() []int64 {
	result := make([]int64, len(p.admins))
	copy(result, p.admins)
	return result
}
