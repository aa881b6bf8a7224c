package smartconnect

import (
	"encoding/binary"
	"testing"
	"time"
)

func ltpPacket(mode byte, exchange byte, token string, tsMillis, ltp int64) []byte {
	data := make([]byte, ltpPacketLen)
	data[0] = mode
	data[1] = exchange
	copy(data[2:27], token)
	binary.LittleEndian.PutUint64(data[35:43], uint64(tsMillis))
	binary.LittleEndian.PutUint64(data[43:51], uint64(ltp))
	return data
}

func TestParseLTPPacket(t *testing.T) {
	ts := time.Date(2026, 1, 6, 11, 30, 0, 0, time.UTC).UnixMilli()
	tick, ok := parseLTPPacket(ltpPacket(ModeLTP, ExchangeNSEFO, "43125", ts, 15050))
	if !ok {
		t.Fatal("packet rejected")
	}
	if tick.Token != "43125" {
		t.Errorf("token = %q, want 43125 (null padding stripped)", tick.Token)
	}
	if tick.ExchangeType != ExchangeNSEFO {
		t.Errorf("exchange = %d, want %d", tick.ExchangeType, ExchangeNSEFO)
	}
	if tick.LTP != 15050 {
		t.Errorf("ltp = %d, want 15050", tick.LTP)
	}
	if tick.Timestamp.UnixMilli() != ts {
		t.Errorf("timestamp = %v, want %v", tick.Timestamp.UnixMilli(), ts)
	}
}

func TestParseLTPPacket_Rejects(t *testing.T) {
	if _, ok := parseLTPPacket([]byte{1, 2, 3}); ok {
		t.Error("short packet accepted")
	}
	// Quote-mode packets (mode 2) are longer but start the same way;
	// the LTP parser must ignore other modes.
	if _, ok := parseLTPPacket(ltpPacket(2, ExchangeNSEFO, "43125", 0, 1)); ok {
		t.Error("non-LTP mode accepted")
	}
}
