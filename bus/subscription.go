package bus

import "sync"

type subs struct {
	bus  *Bus
	id   uint64
	once sync.Once
}

func (s *subs) Unsubscribe() {
	if s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}
