package meta

import (
	"math"
	"sync/atomic"

	"github.com/sir_venger/video_registry/internal/models"
)

// DefaultClaimWindow насколько далеко вперёд от последнего выданного id можно закрепить
// id, предложенный клиентом.
const DefaultClaimWindow int64 = 1_000_000

// Allocator выдаёт строго возрастающие идентификаторы видео, начиная с 1.
// Значения никогда не повторяются и счётчик не откатывается назад.
type Allocator struct {
	last   atomic.Int64
	window atomic.Int64
}

// NewAllocator создаёт аллокатор, у которого last уже выданное значение равно start.
func NewAllocator(start int64) *Allocator {
	a := &Allocator{}
	if start > 0 {
		a.last.Store(start)
	}
	a.window.Store(DefaultClaimWindow)
	return a
}

// SetClaimWindow ограничивает Claim значениями из (last, last+n]. n <= 0 возвращает DefaultClaimWindow.
func (a *Allocator) SetClaimWindow(n int64) {
	if n <= 0 {
		n = DefaultClaimWindow
	}
	a.window.Store(n)
}

// Last возвращает последнее выданное значение (0, если ничего не выдавалось).
func (a *Allocator) Last() int64 {
	return a.last.Load()
}

// Next выдаёт следующий идентификатор.
func (a *Allocator) Next() (int64, error) {
	for {
		cur := a.last.Load()
		if cur == math.MaxInt64 {
			return 0, models.ErrAllocationExhausted
		}
		if a.last.CompareAndSwap(cur, cur+1) {
			return cur + 1, nil
		}
	}
}

// Claim закрепляет за вызывающим id, предложенный снаружи, если он больше всех выданных
// и не дальше окна от последнего выданного. После успешного Claim аллокатор никогда
// не выдаст значения <= id.
func (a *Allocator) Claim(id int64) bool {
	window := a.window.Load()
	for {
		cur := a.last.Load()
		if id <= cur || id-cur > window {
			return false
		}
		if a.last.CompareAndSwap(cur, id) {
			return true
		}
	}
}

// Resolve возвращает id, под которым запись будет сохранена: предложенный, если его удалось
// закрепить, иначе свежий из Next.
func (a *Allocator) Resolve(proposed int64) (int64, error) {
	if proposed > 0 && a.Claim(proposed) {
		return proposed, nil
	}
	return a.Next()
}
