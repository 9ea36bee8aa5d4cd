package market

import (
	"fmt"
	"sort"
	"time"
)

// Tick 是某个品种最近一次的买卖报价。
type Tick struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

// Bar 是单根 K 线。
type Bar struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	TickVolume float64
}

// Series 是按时间升序排列的 K 线序列，列式存储方便喂给指标库。
type Series struct {
	Times      []time.Time
	Open       []float64
	High       []float64
	Low        []float64
	Close      []float64
	TickVolume []float64
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Times)
}

// Append adds one bar to the tail without ordering checks; call Sort
// afterwards when the source was unordered.
func (s *Series) Append(b Bar) {
	s.Times = append(s.Times, b.Time)
	s.Open = append(s.Open, b.Open)
	s.High = append(s.High, b.High)
	s.Low = append(s.Low, b.Low)
	s.Close = append(s.Close, b.Close)
	s.TickVolume = append(s.TickVolume, b.TickVolume)
}

// At returns the bar at index i.
func (s *Series) At(i int) Bar {
	return Bar{
		Time:       s.Times[i],
		Open:       s.Open[i],
		High:       s.High[i],
		Low:        s.Low[i],
		Close:      s.Close[i],
		TickVolume: s.TickVolume[i],
	}
}

// Last returns the most recent bar, or false on an empty series.
func (s *Series) Last() (Bar, bool) {
	n := s.Len()
	if n == 0 {
		return Bar{}, false
	}
	return s.At(n - 1), true
}

// Sort orders the series by bar time ascending.
func (s *Series) Sort() {
	if s.Len() < 2 {
		return
	}
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Times[idx[a]].Before(s.Times[idx[b]])
	})
	out := Series{}
	for _, i := range idx {
		out.Append(s.At(i))
	}
	*s = out
}

// Validate reports a series whose columns fell out of step.
func (s *Series) Validate() error {
	n := s.Len()
	if len(s.Open) != n || len(s.High) != n || len(s.Low) != n ||
		len(s.Close) != n || len(s.TickVolume) != n {
		return fmt.Errorf("series columns not aligned: %d times, %d open, %d high, %d low, %d close, %d volume",
			n, len(s.Open), len(s.High), len(s.Low), len(s.Close), len(s.TickVolume))
	}
	return nil
}
