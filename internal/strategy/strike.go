package strategy

import "insidebar-engine/internal/model"

// StrikeFor maps a spot price to an option strike. The price is rounded
// to the nearest ₹50 multiple (half-up at exact midpoints), then shifted
// ATMOffset steps out of the money: up for CE, down for PE.
func StrikeFor(price int64, dir model.Direction, offset int) int64 {
	base := roundToTick(price)
	shift := int64(offset) * model.StrikeTick
	switch dir {
	case model.DirectionCE:
		return base + shift
	case model.DirectionPE:
		return base - shift
	default:
		return base
	}
}

// roundToTick rounds a paise price to the nearest strike tick, half-up.
func roundToTick(price int64) int64 {
	if price >= 0 {
		return (price + model.StrikeTick/2) / model.StrikeTick * model.StrikeTick
	}
	return -((-price + model.StrikeTick/2) / model.StrikeTick * model.StrikeTick)
}

// RiskLevels derives stop-loss and take-profit from the entry premium.
// Both CE and PE are long option premium, so the levels are uniform:
// sl = entry − SLPoints, tp = entry + SLPoints × RiskReward. No clamping:
// a negative stop-loss is tolerated for very low premiums.
func RiskLevels(entry int64, p Params) (stopLoss, takeProfit int64) {
	return entry - p.slPaise(), entry + p.tpPaise()
}
