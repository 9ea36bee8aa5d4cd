package bridge

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sorul/tradingbot/internal/logger"
)

// Verb 是命令通道支持的指令集。
type Verb string

const (
	VerbSubscribeSymbols        Verb = "SUBSCRIBE_SYMBOLS"
	VerbSubscribeSymbolsBarData Verb = "SUBSCRIBE_SYMBOLS_BAR_DATA"
	VerbGetHistoricalData       Verb = "GET_HISTORICAL_DATA"
	VerbGetHistoricalTrades     Verb = "GET_HISTORICAL_TRADES"
	VerbOpenOrder               Verb = "OPEN_ORDER"
	VerbModifyOrder             Verb = "MODIFY_ORDER"
	VerbCloseOrder              Verb = "CLOSE_ORDER"
	VerbCloseAllOrders          Verb = "CLOSE_ALL_ORDERS"
	VerbCloseOrdersBySymbol     Verb = "CLOSE_ORDERS_BY_SYMBOL"
	VerbCloseOrdersByMagic      Verb = "CLOSE_ORDERS_BY_MAGIC"
	VerbResetCommandIDs         Verb = "RESET_COMMAND_IDS"
)

// sequenceModulo bounds the command sequence; the MQL side stores seen
// ids in a small window, so sequences wrap early.
const sequenceModulo = 100000

// resetSettle gives the terminal time to consume RESET_COMMAND_IDS
// before any other command goes out.
const resetSettle = 500 * time.Millisecond

// ErrCommandTimeout fires when every slot stayed occupied for the whole
// retry window, meaning the terminal stopped consuming commands.
var ErrCommandTimeout = errors.New("command channel saturated")

// commandChannel serializes sends: one facade-wide lock covers both the
// sequence advance and the slot scan, so concurrent callers claim
// distinct sequences and distinct slots.
type commandChannel struct {
	box    Mailbox
	retry  time.Duration
	delay  time.Duration
	settle time.Duration
	nowFn  func() time.Time

	mu  sync.Mutex
	seq int
}

func newCommandChannel(box Mailbox, retry, delay time.Duration) *commandChannel {
	return &commandChannel{
		box:    box,
		retry:  retry,
		delay:  delay,
		settle: resetSettle,
		nowFn:  time.Now,
	}
}

// send claims the first free slot with the framed command, scanning
// slots in order and sleeping between full failed scans until the retry
// deadline. The terminal deletes faster than the window in any healthy
// setup; a timeout is surfaced, never swallowed.
func (c *commandChannel) send(verb Verb, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq = (c.seq + 1) % sequenceModulo
	content := frameCommand(c.seq, verb, payload)
	deadline := c.nowFn().Add(c.retry)

	for now := c.nowFn(); now.Before(deadline); now = c.nowFn() {
		for slot := 0; slot < c.box.Slots(); slot++ {
			if c.box.TryClaim(slot, []byte(content)) {
				logger.TraceCommand("slot "+strconv.Itoa(slot), content)
				return nil
			}
		}
		time.Sleep(c.delay)
	}
	logger.Errorf("命令通道已满，%s 在 %s 内未能写入任何槽位", verb, c.retry)
	return fmt.Errorf("%w: %s after %s", ErrCommandTimeout, verb, c.retry)
}

// reset zeroes the sequence, pushes RESET_COMMAND_IDS (which therefore
// carries sequence 1) and pauses so the terminal reads it before
// anything else.
func (c *commandChannel) reset() error {
	c.mu.Lock()
	c.seq = 0
	c.mu.Unlock()
	if err := c.send(VerbResetCommandIDs, ""); err != nil {
		return err
	}
	time.Sleep(c.settle)
	return nil
}

// sequence reports the last sequence handed out.
func (c *commandChannel) sequence() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

func frameCommand(seq int, verb Verb, payload string) string {
	return fmt.Sprintf("<:%d|%s|%s:>", seq, verb, payload)
}
