package scoring

import (
	"encoding/binary"
	"fmt"

	"github.com/2beens/gymrank/internal/records"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultMemoSize  = 1024 * 1024 // 1 MB, freecache minimum is 512 KB
	memoExpireSecond = 60 * 60
)

// Memo caches monthly scores per snapshot version. Snapshots are immutable and
// versions are never reused, so an entry can never go stale; old versions just age out.
type Memo struct {
	cache *freecache.Cache
}

func NewMemo(sizeBytes int) *Memo {
	return &Memo{
		cache: freecache.NewCache(sizeBytes),
	}
}

func (m *Memo) MonthlyScore(s *records.Snapshot, ym records.YearMonth) int {
	key := []byte(fmt.Sprintf("score::%d::%s", s.Version(), ym))
	if cached, err := m.cache.Get(key); err == nil && len(cached) == 8 {
		return int(int64(binary.BigEndian.Uint64(cached)))
	}

	score := MonthlyScore(s, ym)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(int64(score)))
	if err := m.cache.Set(key, buf, memoExpireSecond); err != nil {
		log.Debugf("set score memo for %s: %s", ym, err)
	}

	return score
}

func (m *Memo) PaceProjection(s *records.Snapshot, ref records.Date) float64 {
	return projection(m.MonthlyScore(s, ref.YearMonth()), ref)
}

func (m *Memo) LastMonthScore(s *records.Snapshot, today records.Date) int {
	return m.MonthlyScore(s, today.YearMonth().Prev())
}

// HitRate reports the cache hit rate, for debug logging.
func (m *Memo) HitRate() float64 {
	return m.cache.HitRate()
}
