package trader

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sorul/tradingbot/internal/logger"
)

const (
	lockFileName        = "forex.lock"
	lastBalanceFileName = "last_balance.txt"
	timesDownFileName   = "consecutive_times_down.txt"
)

// runState keeps the small files that outlive a single run: the
// session lock, the balance of the last profit report, and the
// consecutive-times-down counter feeding the restart watchdog.
type runState struct {
	dir string
}

func newRunState(dir string) (*runState, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &runState{dir: dir}, nil
}

func (s *runState) lockPath() string { return filepath.Join(s.dir, lockFileName) }

// locked reports whether a session lock is present.
func (s *runState) locked() bool {
	_, err := os.Stat(s.lockPath())
	return err == nil
}

// tryLock claims the session lock, writing runID into it so a stuck
// lock can be traced to the run that left it. False when another run
// holds the lock.
func (s *runState) tryLock(runID string) bool {
	f, err := os.OpenFile(s.lockPath(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false
	}
	_, werr := f.WriteString(runID + "\n")
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(s.lockPath())
		return false
	}
	return true
}

func (s *runState) unlock() {
	if err := os.Remove(s.lockPath()); err != nil && !os.IsNotExist(err) {
		logger.Warnf("释放会话锁失败: %v", err)
	}
}

// lastBalance returns the balance recorded at the previous profit
// report, zero when none was recorded yet.
func (s *runState) lastBalance() float64 {
	raw, err := os.ReadFile(filepath.Join(s.dir, lastBalanceFileName))
	if err != nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		logger.Warnf("余额记录无法解析: %v", err)
		return 0
	}
	return value
}

func (s *runState) saveBalance(balance float64) error {
	content := strconv.FormatFloat(balance, 'f', 2, 64) + "\n"
	return os.WriteFile(filepath.Join(s.dir, lastBalanceFileName), []byte(content), 0o644)
}

// timesDown returns how many consecutive runs ended with the terminal
// looking unresponsive.
func (s *runState) timesDown() int {
	raw, err := os.ReadFile(filepath.Join(s.dir, timesDownFileName))
	if err != nil {
		return 0
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0
	}
	return value
}

func (s *runState) incrementTimesDown() {
	s.writeTimesDown(s.timesDown() + 1)
}

func (s *runState) resetTimesDown() {
	s.writeTimesDown(0)
}

func (s *runState) writeTimesDown(value int) {
	path := filepath.Join(s.dir, timesDownFileName)
	if err := os.WriteFile(path, []byte(strconv.Itoa(value)+"\n"), 0o644); err != nil {
		logger.Warnf("写入掉线计数失败: %v", err)
	}
}
