package cache

import "time"

// Noop заглушка кеша для инсталляций без redis: Get всегда промахивается,
// записи и инвалидация ничего не делают.
type Noop struct{}

func (Noop) Get(_ string, _ any) (bool, error) {
	return false, nil
}

func (Noop) Set(_ string, _ any, _ time.Duration) error {
	return nil
}

func (Noop) Invalidate(_ string) error {
	return nil
}
