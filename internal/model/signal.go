package model

import "time"

// Direction is the option side of a breakout signal.
type Direction string

const (
	DirectionNone Direction = ""   // no breakout confirmed
	DirectionCE   Direction = "CE" // bullish: buy a call
	DirectionPE   Direction = "PE" // bearish: buy a put
)

// SignalStatus tracks the lifecycle of a signal after assembly.
// Valid transitions: pending → filled, pending → cancelled.
type SignalStatus string

const (
	SignalPending   SignalStatus = "pending"
	SignalFilled    SignalStatus = "filled"
	SignalCancelled SignalStatus = "cancelled"
)

// Signal is one assembled trade decision. Immutable after creation except
// for Status.
type Signal struct {
	Symbol     string       `json:"symbol"`
	Direction  Direction    `json:"direction"`
	Strike     int64        `json:"strike"`      // paise
	Entry      int64        `json:"entry"`       // option premium at signal time, paise
	StopLoss   int64        `json:"stop_loss"`   // paise; may be negative for tiny premiums
	TakeProfit int64        `json:"take_profit"` // paise
	Range      Range        `json:"range"`
	Reason     string       `json:"reason"`
	TS         time.Time    `json:"ts"`
	Status     SignalStatus `json:"status"`
}

// OptionSymbol renders the trading symbol for the signalled contract,
// e.g. "NIFTY26200CE".
func (s *Signal) OptionSymbol() string {
	return s.Symbol + itoa(s.Strike/100) + string(s.Direction)
}

// itoa is a tiny base-10 formatter for positive paise-derived values,
// avoiding strconv in the hot path.
func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
